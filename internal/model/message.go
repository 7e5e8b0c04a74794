// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// String returns the role as persisted.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable label for transcripts.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "Bot"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation log. The content of a model
// message grows while its reply streams in and is fixed afterwards.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Greeting marks canned opening text. Such messages are never sent back
	// to the model as history.
	Greeting bool `json:"greeting,omitempty"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewModelMessage creates a model message with the given content.
func NewModelMessage(content string) Message {
	return Message{Role: RoleModel, Content: content}
}

// NewGreeting creates a flagged greeting message.
func NewGreeting(content string) Message {
	return Message{Role: RoleModel, Content: content, Greeting: true}
}

// IsEmpty reports whether the message has no content yet.
func (m Message) IsEmpty() bool {
	return m.Content == ""
}
