// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/util"
)

// previewRunes is how much of the first user message the history list shows.
const previewRunes = 30

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is one chat session tied to a domain.
//
// Timestamp is the last activity instant in Unix milliseconds. It changes
// whenever a user message is appended and orders the history list.
type Conversation struct {
	ID        string    `json:"id"`
	Domain    domain.ID `json:"domain"`
	Messages  []Message `json:"messages"`
	Timestamp int64     `json:"timestamp"`
}

// NewConversation creates a conversation seeded with the domain greeting.
func NewConversation(id string, d domain.ID, now time.Time) Conversation {
	return Conversation{
		ID:        id,
		Domain:    d,
		Messages:  []Message{NewGreeting(domain.Greeting(d))},
		Timestamp: now.UnixMilli(),
	}
}

// NewConversationID returns a fresh time-ordered identifier.
func NewConversationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// =============================================================================
// QUERIES
// =============================================================================

// IsEmpty reports whether nothing has been exchanged yet, i.e. the log
// holds at most the greeting.
func (c Conversation) IsEmpty() bool {
	return len(c.Messages) <= 1
}

// MessageCount returns the number of messages in the log.
func (c Conversation) MessageCount() int {
	return len(c.Messages)
}

// LastMessage returns the most recent message and false when the log is
// empty.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// FirstUserMessage returns the content of the first user message.
func (c Conversation) FirstUserMessage() (string, bool) {
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			return m.Content, true
		}
	}
	return "", false
}

// Preview is the one-line summary shown in the history list: the start of
// the first user message in quotes, or "New Chat".
func (c Conversation) Preview() string {
	first, ok := c.FirstUserMessage()
	if !ok || first == "" {
		return "New Chat"
	}
	return `"` + util.SingleLine(util.HeadRunes(first, previewRunes)) + `..."`
}

// LastActive returns Timestamp as a time.Time.
func (c Conversation) LastActive() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// History returns the messages worth sending back to the model: greetings
// and empty model replies are dropped.
func (c Conversation) History() []Message {
	out := make([]Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Greeting {
			continue
		}
		if m.Role == RoleModel && m.Content == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// =============================================================================
// COPY-ON-WRITE HELPERS
// =============================================================================

// Clone returns a deep copy; the message slice is not shared.
func (c Conversation) Clone() Conversation {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	c.Messages = msgs
	return c
}

// WithMessage returns a copy with msg appended.
func (c Conversation) WithMessage(msg Message) Conversation {
	out := c.Clone()
	out.Messages = append(out.Messages, msg)
	return out
}

// WithLast returns a copy whose last message has been replaced by fn(last).
// A conversation with no messages is returned unchanged.
func (c Conversation) WithLast(fn func(Message) Message) Conversation {
	if len(c.Messages) == 0 {
		return c
	}
	out := c.Clone()
	i := len(out.Messages) - 1
	out.Messages[i] = fn(out.Messages[i])
	return out
}

// MarkLegacyGreetings flags unflagged model messages that start with a
// known greeting prefix. Snapshots from older clients carry no flag.
func (c *Conversation) MarkLegacyGreetings() int {
	marked := 0
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.Role == RoleModel && !m.Greeting && domain.IsLegacyGreeting(m.Content) {
			m.Greeting = true
			marked++
		}
	}
	return marked
}
