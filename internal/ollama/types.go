// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"time"

	"github.com/jeranaias/domainchat/internal/llm"
	"github.com/jeranaias/domainchat/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message represents a chat message in the Ollama wire format.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatRequest is the request body for the /api/chat endpoint.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *Options  `json:"options,omitempty"`
}

// Options contains model parameters for inference.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ModelInfo contains information about a locally available model.
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

// ListModelsResponse is the response from /api/tags.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// StreamChunk is one decoded line of a streaming chat response.
type StreamChunk struct {
	Content    string
	Done       bool
	DoneReason string
	Model      string

	// Token counts, only populated on the final chunk.
	PromptTokens     int
	CompletionTokens int
}

// apiError is the error body Ollama returns, both as an HTTP response and
// as an in-stream line.
type apiError struct {
	Error string `json:"error"`
}

// =============================================================================
// CONVERSION
// =============================================================================

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// roleFor maps a conversation role to the Ollama role name.
func roleFor(r model.Role) string {
	if r == model.RoleModel {
		return "assistant"
	}
	return "user"
}

// MessagesFor builds the wire message list for a request: the persona as a
// leading system message, then the prior turns, then the new utterance.
func MessagesFor(req llm.Request) []Message {
	msgs := make([]Message, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		msgs = append(msgs, NewSystemMessage(req.SystemInstruction))
	}
	for _, t := range req.History {
		msgs = append(msgs, Message{Role: roleFor(t.Role), Content: t.Content})
	}
	return append(msgs, NewUserMessage(req.Utterance))
}
