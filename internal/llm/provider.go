// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm defines the boundary between the chat core and the hosted
// language model services.
package llm

import (
	"context"
	"strings"

	"github.com/jeranaias/domainchat/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Turn is one prior message sent as context.
type Turn struct {
	Role    model.Role
	Content string
}

// Request is a single streaming chat call.
type Request struct {
	// Utterance is the new user message.
	Utterance string
	// History is the prior conversation, oldest first, without greetings
	// and without Utterance itself.
	History []Turn
	// SystemInstruction is the persona prompt of the conversation's domain.
	SystemInstruction string
	// Model overrides the provider's default model when non-empty.
	Model string
}

// TurnsFrom converts conversation messages to request turns.
func TurnsFrom(msgs []model.Message) []Turn {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}

// =============================================================================
// PROVIDER INTERFACE
// =============================================================================

// FragmentFunc receives streamed text in arrival order. Returning an error
// aborts the stream and StreamChat returns that error.
type FragmentFunc func(fragment string) error

// Provider streams a chat completion.
//
// StreamChat calls onFragment synchronously, on the calling goroutine, for
// every non-empty fragment, and returns nil on normal completion. It
// returns an error for transport failures, service errors and streams that
// end abnormally.
type Provider interface {
	Name() string
	StreamChat(ctx context.Context, req Request, onFragment FragmentFunc) error
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request, onFragment FragmentFunc) error

// Name implements Provider.
func (f ProviderFunc) Name() string { return "func" }

// StreamChat implements Provider.
func (f ProviderFunc) StreamChat(ctx context.Context, req Request, onFragment FragmentFunc) error {
	return f(ctx, req, onFragment)
}

// Collect runs a request and returns the concatenated reply.
func Collect(ctx context.Context, p Provider, req Request) (string, error) {
	var sb strings.Builder
	err := p.StreamChat(ctx, req, func(fragment string) error {
		sb.WriteString(fragment)
		return nil
	})
	return sb.String(), err
}
