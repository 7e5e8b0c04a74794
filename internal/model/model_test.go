// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/domainchat/internal/domain"
)

var testNow = time.UnixMilli(1_700_000_000_000)

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation_SeedsGreeting(t *testing.T) {
	conv := NewConversation("c1", domain.Anime, testNow)

	require.Len(t, conv.Messages, 1)
	assert.Equal(t, RoleModel, conv.Messages[0].Role)
	assert.True(t, conv.Messages[0].Greeting)
	assert.Equal(t, domain.Greeting(domain.Anime), conv.Messages[0].Content)
	assert.Equal(t, testNow.UnixMilli(), conv.Timestamp)
	assert.True(t, conv.IsEmpty())
}

func TestNewConversationID_IsTimeOrdered(t *testing.T) {
	id := NewConversationID()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, id, NewConversationID())
}

func TestConversation_Preview(t *testing.T) {
	tests := []struct {
		name string
		msgs []Message
		want string
	}{
		{"greeting only", []Message{NewGreeting("hi")}, "New Chat"},
		{"short", []Message{NewGreeting("hi"), NewUserMessage("Best SUVs?")}, `"Best SUVs?..."`},
		{
			"long is cut at thirty runes",
			[]Message{NewUserMessage("Compare the 2024 Honda Civic and Toyota Corolla.")},
			`"Compare the 2024 Honda Civic a..."`,
		},
		{"newlines flattened", []Message{NewUserMessage("a\nb")}, `"a b..."`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conv := Conversation{Messages: tc.msgs}
			if got := conv.Preview(); got != tc.want {
				t.Errorf("Preview() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestConversation_History_DropsGreetingsAndEmptyReplies(t *testing.T) {
	conv := Conversation{Messages: []Message{
		NewGreeting(domain.Greeting(domain.Cars)),
		NewUserMessage("hello"),
		NewModelMessage(""),
		NewUserMessage("again"),
		NewModelMessage("sure"),
	}}

	got := conv.History()
	require.Len(t, got, 3)
	assert.Equal(t, "hello", got[0].Content)
	assert.Equal(t, "again", got[1].Content)
	assert.Equal(t, "sure", got[2].Content)
}

func TestConversation_WithMessage_DoesNotAlias(t *testing.T) {
	base := NewConversation("c1", domain.Cars, testNow)
	// Give the slice spare capacity so a naive append would share storage.
	base.Messages = append(make([]Message, 0, 8), base.Messages...)

	a := base.WithMessage(NewUserMessage("a"))
	b := base.WithMessage(NewUserMessage("b"))

	assert.Len(t, base.Messages, 1)
	assert.Equal(t, "a", a.Messages[1].Content)
	assert.Equal(t, "b", b.Messages[1].Content)
}

func TestConversation_WithLast(t *testing.T) {
	base := Conversation{Messages: []Message{NewUserMessage("q"), NewModelMessage("He")}}
	next := base.WithLast(func(m Message) Message {
		m.Content += "llo"
		return m
	})

	assert.Equal(t, "He", base.Messages[1].Content)
	assert.Equal(t, "Hello", next.Messages[1].Content)

	empty := Conversation{}
	assert.Empty(t, empty.WithLast(func(m Message) Message { return m }).Messages)
}

func TestConversation_MarkLegacyGreetings(t *testing.T) {
	conv := Conversation{Messages: []Message{
		NewModelMessage(domain.Greeting(domain.Cars)),
		NewUserMessage("Hey there! is a user message"),
		NewModelMessage(domain.Regreeting(domain.Bikes)),
		NewModelMessage("regular answer"),
	}}

	assert.Equal(t, 2, conv.MarkLegacyGreetings())
	assert.True(t, conv.Messages[0].Greeting)
	assert.False(t, conv.Messages[1].Greeting)
	assert.True(t, conv.Messages[2].Greeting)
	assert.False(t, conv.Messages[3].Greeting)
}

func TestConversation_JSONFieldNames(t *testing.T) {
	conv := Conversation{
		ID:        "1718000000000",
		Domain:    domain.Manga,
		Messages:  []Message{NewUserMessage("hi"), NewModelMessage("yo")},
		Timestamp: 1718000000000,
	}
	data, err := json.Marshal(conv)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":"1718000000000","domain":"manga","messages":[{"role":"user","content":"hi"},{"role":"model","content":"yo"}],"timestamp":1718000000000}`,
		string(data))
}

func TestRole(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleModel.Valid())
	assert.False(t, Role("assistant").Valid())
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "Bot", RoleModel.DisplayName())
}
