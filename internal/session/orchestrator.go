// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/llm"
	"github.com/jeranaias/domainchat/internal/model"
	"github.com/jeranaias/domainchat/internal/util"
)

// SendRequest is produced by BeginSend and handed to a Consumer.
type SendRequest struct {
	ConversationID string
	Domain         domain.ID
	Request        llm.Request
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator implements the state transitions. It holds no state of its
// own; the clock and id source are injectable for tests.
type Orchestrator struct {
	Now           func() time.Time
	NewID         func() string
	DefaultDomain domain.ID
}

// NewOrchestrator returns an orchestrator using the wall clock and UUIDv7
// ids.
func NewOrchestrator(defaultDomain domain.ID) *Orchestrator {
	return &Orchestrator{
		Now:           time.Now,
		NewID:         model.NewConversationID,
		DefaultDomain: defaultDomain,
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o *Orchestrator) newID() string {
	if o.NewID == nil {
		return model.NewConversationID()
	}
	return o.NewID()
}

func (o *Orchestrator) defaultDomain() domain.ID {
	if domain.Valid(o.DefaultDomain) {
		return o.DefaultDomain
	}
	return domain.Default
}

func (o *Orchestrator) newConversation(d domain.ID) model.Conversation {
	if !domain.Valid(d) {
		d = o.defaultDomain()
	}
	return model.NewConversation(o.newID(), d, o.now())
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Bootstrap builds the initial state from loaded history. An empty history
// is seeded with a default-domain conversation. Otherwise the most recent
// conversation becomes active, unless startFresh asks for a new default
// conversation next to the history; that one is reused when the newest
// conversation is already untouched and in the default domain.
func (o *Orchestrator) Bootstrap(loaded []model.Conversation, startFresh bool) State {
	s := State{Conversations: append([]model.Conversation(nil), loaded...)}

	if len(s.Conversations) == 0 {
		return o.seed(s)
	}

	newest := mostRecent(s.Conversations)
	if startFresh {
		c, _ := s.Find(newest)
		if !(c.IsEmpty() && c.Domain == o.defaultDomain()) {
			return o.NewChat(s, o.defaultDomain())
		}
	}

	s.ActiveID = newest
	s.Phase = PhaseIdle
	return s
}

// Replace swaps in a freshly loaded list, keeping the active selection when
// it still exists.
func (o *Orchestrator) Replace(s State, loaded []model.Conversation) State {
	s = s.clone()
	s.Conversations = append([]model.Conversation(nil), loaded...)
	if _, ok := s.Find(s.ActiveID); ok {
		return s
	}
	if len(s.Conversations) == 0 {
		return o.seed(s)
	}
	s.ActiveID = mostRecent(s.Conversations)
	s.Phase = PhaseIdle
	return s
}

// seed passes through NoActive and lands on a fresh default conversation.
func (o *Orchestrator) seed(s State) State {
	s.ActiveID = ""
	s.Phase = PhaseNoActive
	return o.NewChat(s, o.defaultDomain())
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Select makes id active and closes the history panel. It is only valid
// while idle.
func (o *Orchestrator) Select(s State, id string) (State, error) {
	if s.Phase == PhaseSending {
		return s, ErrNotIdle
	}
	if _, ok := s.Find(id); !ok {
		return s, ErrUnknownConversation
	}
	s = s.clone()
	s.ActiveID = id
	s.HistoryOpen = false
	s.Phase = PhaseIdle
	return s, nil
}

// NewChat creates a conversation in d and makes it active. It is valid in
// every phase; an in-flight send keeps streaming into its own conversation
// and the busy flag stays set until it finishes. Unknown domains fall back
// to the default.
func (o *Orchestrator) NewChat(s State, d domain.ID) State {
	s = s.clone()
	c := o.newConversation(d)
	s.Conversations = append(s.Conversations, c)
	s.ActiveID = c.ID
	s.HistoryOpen = false
	s.Phase = PhaseIdle
	return s
}

// ChangeDomain moves the active conversation to d when nothing has been
// exchanged in it yet, replacing its greeting. Otherwise it starts a new
// conversation in d and leaves the old one untouched. The same holds when
// d is the domain the active conversation already has.
func (o *Orchestrator) ChangeDomain(s State, d domain.ID) State {
	if !domain.Valid(d) {
		return s
	}
	i := s.index(s.ActiveID)
	if i < 0 {
		return o.NewChat(s, d)
	}
	active := s.Conversations[i]
	if !active.IsEmpty() {
		return o.NewChat(s, d)
	}

	s = s.clone()
	c := active.Clone()
	c.Domain = d
	c.Messages = []model.Message{model.NewGreeting(domain.Regreeting(d))}
	s.Conversations[i] = c
	return s
}

// Delete removes id. When it was active, the most recent remaining
// conversation takes over, or a fresh default conversation is seeded when
// none remain. Unknown ids leave the state unchanged.
func (o *Orchestrator) Delete(s State, id string) State {
	i := s.index(id)
	if i < 0 {
		return s
	}
	s = s.clone()
	s.Conversations = append(s.Conversations[:i], s.Conversations[i+1:]...)

	if id != s.ActiveID {
		return s
	}
	if len(s.Conversations) == 0 {
		return o.seed(s)
	}
	s.ActiveID = mostRecent(s.Conversations)
	s.Phase = PhaseIdle
	return s
}

// OpenHistory shows the history panel.
func (o *Orchestrator) OpenHistory(s State) State {
	s = s.clone()
	s.HistoryOpen = true
	return s
}

// CloseHistory hides the history panel.
func (o *Orchestrator) CloseHistory(s State) State {
	s = s.clone()
	s.HistoryOpen = false
	return s
}

// ToggleHistory flips the history panel.
func (o *Orchestrator) ToggleHistory(s State) State {
	s = s.clone()
	s.HistoryOpen = !s.HistoryOpen
	return s
}

// =============================================================================
// MESSAGES
// =============================================================================

// Append adds msg to id and bumps its timestamp. Unknown ids are a silent
// no-op.
func (o *Orchestrator) Append(s State, id string, msg model.Message) State {
	i := s.index(id)
	if i < 0 {
		return s
	}
	s = s.clone()
	c := s.Conversations[i].WithMessage(msg)
	c.Timestamp = o.now().UnixMilli()
	s.Conversations[i] = c
	return s
}

// BeginSend appends the user message and an empty model placeholder to the
// active conversation, sets the busy flag and returns the request to
// stream. The history in the request excludes greetings and the new
// utterance.
func (o *Orchestrator) BeginSend(s State, text string) (State, *SendRequest, error) {
	text = util.NormalizeInput(text)
	if text == "" {
		return s, nil, ErrEmptyMessage
	}
	active, ok := s.Active()
	if !ok {
		return s, nil, ErrNoActive
	}
	if s.Busy {
		return s, nil, ErrBusy
	}
	if s.Phase != PhaseIdle {
		return s, nil, ErrNotIdle
	}

	history := active.History()
	s = o.Append(s, active.ID, model.NewUserMessage(text))
	i := s.index(active.ID)
	s.Conversations[i] = s.Conversations[i].WithMessage(model.NewModelMessage(""))

	s.Phase = PhaseSending
	s.Busy = true
	s.Pending = &Pending{ConversationID: active.ID}

	req := &SendRequest{
		ConversationID: active.ID,
		Domain:         active.Domain,
		Request: llm.Request{
			Utterance:         text,
			History:           llm.TurnsFrom(history),
			SystemInstruction: domain.PersonaFor(active.Domain).Instruction,
		},
	}
	return s, req, nil
}

// ApplyFragment appends fragment to the placeholder of convID. Fragments
// for a conversation that is not the pending one, or that no longer
// exists, are dropped.
func (o *Orchestrator) ApplyFragment(s State, convID, fragment string) State {
	if !s.IsSendingTo(convID) || fragment == "" {
		return s
	}
	s = s.clone()
	s.Pending.Fragments++
	i := s.index(convID)
	if i < 0 {
		return s
	}
	s.Conversations[i] = s.Conversations[i].WithLast(func(m model.Message) model.Message {
		if m.Role == model.RoleModel {
			m.Content += fragment
		}
		return m
	})
	return s
}

// FailSend replaces the placeholder of convID with the fixed error text,
// discarding any partial reply, and ends the send.
func (o *Orchestrator) FailSend(s State, convID string) State {
	if !s.IsSendingTo(convID) {
		return s
	}
	s = s.clone()
	if i := s.index(convID); i >= 0 {
		s.Conversations[i] = s.Conversations[i].WithLast(func(m model.Message) model.Message {
			if m.Role == model.RoleModel {
				m.Content = domain.ErrorText
			}
			return m
		})
	}
	return o.finish(s)
}

// FinishSend ends the send for convID. A reply with no fragments stays
// empty.
func (o *Orchestrator) FinishSend(s State, convID string) State {
	if !s.IsSendingTo(convID) {
		return s
	}
	return o.finish(s.clone())
}

// finish clears the busy flag and returns to idle. s must already be a
// private copy.
func (o *Orchestrator) finish(s State) State {
	s.Busy = false
	s.Pending = nil
	if s.Phase == PhaseSending {
		s.Phase = PhaseIdle
	}
	return s
}

// Apply folds a consumer update into s.
func (o *Orchestrator) Apply(s State, u Update) State {
	switch u.Kind {
	case UpdateFragment:
		return o.ApplyFragment(s, u.ConversationID, u.Fragment)
	case UpdateFailed:
		return o.FailSend(s, u.ConversationID)
	case UpdateDone:
		return o.FinishSend(s, u.ConversationID)
	}
	return s
}
