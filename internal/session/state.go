// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sort"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/model"
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is the orchestrator's position in its state machine.
type Phase int

const (
	// PhaseNoActive is the cold-start phase before any conversation exists.
	PhaseNoActive Phase = iota
	// PhaseIdle accepts every transition.
	PhaseIdle
	// PhaseSending means a reply for the active conversation is streaming.
	PhaseSending
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNoActive:
		return "no-active"
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	default:
		return "unknown"
	}
}

// =============================================================================
// STATE
// =============================================================================

// Pending describes the send in flight.
type Pending struct {
	// ConversationID is captured when the send begins and never follows
	// later selection changes.
	ConversationID string
	// Fragments counts the fragments applied so far.
	Fragments int
}

// State is the whole application state.
type State struct {
	Conversations []model.Conversation
	ActiveID      string
	Phase         Phase

	// Busy is set for the lifetime of a send. It is global: switching to
	// another conversation does not clear it.
	Busy bool

	HistoryOpen bool
	Pending     *Pending
}

// clone copies the slice header and the pending record so the returned
// value can be modified without touching s. Conversations themselves are
// copy-on-write.
func (s State) clone() State {
	convs := make([]model.Conversation, len(s.Conversations))
	copy(convs, s.Conversations)
	s.Conversations = convs
	if s.Pending != nil {
		p := *s.Pending
		s.Pending = &p
	}
	return s
}

// =============================================================================
// QUERIES
// =============================================================================

// index returns the position of id or -1.
func (s State) index(id string) int {
	for i := range s.Conversations {
		if s.Conversations[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the conversation with id.
func (s State) Find(id string) (model.Conversation, bool) {
	if i := s.index(id); i >= 0 {
		return s.Conversations[i], true
	}
	return model.Conversation{}, false
}

// Active returns the active conversation.
func (s State) Active() (model.Conversation, bool) {
	if s.ActiveID == "" {
		return model.Conversation{}, false
	}
	return s.Find(s.ActiveID)
}

// ActiveDomain returns the domain of the active conversation, or
// domain.Default when there is none.
func (s State) ActiveDomain() domain.ID {
	if c, ok := s.Active(); ok {
		return c.Domain
	}
	return domain.Default
}

// Sorted returns the conversations ordered by timestamp, newest first.
// Ties keep store order.
func (s State) Sorted() []model.Conversation {
	out := make([]model.Conversation, len(s.Conversations))
	copy(out, s.Conversations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// IsSendingTo reports whether the in-flight send targets id.
func (s State) IsSendingTo(id string) bool {
	return s.Pending != nil && s.Pending.ConversationID == id
}

// mostRecent returns the id of the conversation with the greatest
// timestamp, or "" when empty.
func mostRecent(convs []model.Conversation) string {
	best := -1
	for i := range convs {
		if best < 0 || convs[i].Timestamp > convs[best].Timestamp {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return convs[best].ID
}
