// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/llm"
	"github.com/jeranaias/domainchat/internal/logging"
	"github.com/jeranaias/domainchat/internal/model"
	"github.com/jeranaias/domainchat/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

// testOrchestrator uses a clock that advances one second per reading and
// sequential ids c1, c2, ...
func testOrchestrator() *Orchestrator {
	var mu sync.Mutex
	clock := time.UnixMilli(1_700_000_000_000)
	n := 0
	return &Orchestrator{
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("c%d", n)
		},
		DefaultDomain: domain.Cars,
	}
}

func conv(id string, d domain.ID, ts int64, msgs ...model.Message) model.Conversation {
	return model.Conversation{ID: id, Domain: d, Messages: msgs, Timestamp: ts}
}

func greeting(d domain.ID) model.Message {
	return model.NewGreeting(domain.Greeting(d))
}

func activeCount(s State) int {
	n := 0
	for _, c := range s.Conversations {
		if c.ID == s.ActiveID {
			n++
		}
	}
	return n
}

func fragmentsProvider(parts ...string) llm.Provider {
	return llm.ProviderFunc(func(ctx context.Context, req llm.Request, on llm.FragmentFunc) error {
		for _, p := range parts {
			if err := on(p); err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

func TestBootstrap_EmptySeedsDefault(t *testing.T) {
	s := testOrchestrator().Bootstrap(nil, false)

	require.Len(t, s.Conversations, 1)
	c := s.Conversations[0]
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, domain.Cars, c.Domain)
	assert.Equal(t, []model.Message{greeting(domain.Cars)}, c.Messages)
	assert.Equal(t, "c1", s.ActiveID)
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.False(t, s.Busy)
}

func TestBootstrap_ActivatesMostRecent(t *testing.T) {
	loaded := []model.Conversation{
		conv("a", domain.Anime, 100, greeting(domain.Anime)),
		conv("b", domain.Manga, 300, greeting(domain.Manga)),
		conv("c", domain.Bikes, 200, greeting(domain.Bikes)),
	}
	s := testOrchestrator().Bootstrap(loaded, false)

	assert.Equal(t, "b", s.ActiveID)
	assert.Len(t, s.Conversations, 3)
}

func TestBootstrap_StartFresh(t *testing.T) {
	o := testOrchestrator()
	used := conv("a", domain.Cars, 100, greeting(domain.Cars), model.NewUserMessage("hi"), model.NewModelMessage("yo"))

	s := o.Bootstrap([]model.Conversation{used}, true)
	assert.Len(t, s.Conversations, 2)
	assert.Equal(t, "c1", s.ActiveID)

	// Newest is already an untouched default chat: reuse it.
	untouched := conv("b", domain.Cars, 200, greeting(domain.Cars))
	s = o.Bootstrap([]model.Conversation{used, untouched}, true)
	assert.Len(t, s.Conversations, 2)
	assert.Equal(t, "b", s.ActiveID)

	// Untouched but in another domain: a new default chat is added.
	other := conv("b", domain.Anime, 200, greeting(domain.Anime))
	s = o.Bootstrap([]model.Conversation{used, other}, true)
	assert.Len(t, s.Conversations, 3)
}

func TestBootstrap_DoesNotAliasInput(t *testing.T) {
	loaded := []model.Conversation{conv("a", domain.Cars, 1, greeting(domain.Cars))}
	s := testOrchestrator().Bootstrap(loaded, false)
	s = testOrchestrator().Delete(s, "a")
	assert.Equal(t, "a", loaded[0].ID)
}

// =============================================================================
// SELECT / NEW CHAT
// =============================================================================

func TestSelect(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s = o.NewChat(s, domain.Anime)
	s = o.OpenHistory(s)

	s2, err := o.Select(s, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", s2.ActiveID)
	assert.False(t, s2.HistoryOpen)
	assert.Equal(t, "c2", s.ActiveID, "input state must not change")
	assert.True(t, s.HistoryOpen)

	_, err = o.Select(s, "nope")
	assert.ErrorIs(t, err, ErrUnknownConversation)
}

func TestSelect_RejectedWhileSending(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s = o.NewChat(s, domain.Bikes)
	s, _, err := o.BeginSend(s, "hello")
	require.NoError(t, err)

	_, err = o.Select(s, "c1")
	assert.ErrorIs(t, err, ErrNotIdle)
}

func TestNewChat(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s = o.OpenHistory(s)
	s = o.NewChat(s, domain.Manga)

	require.Len(t, s.Conversations, 2)
	c, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, domain.Manga, c.Domain)
	assert.Equal(t, greeting(domain.Manga), c.Messages[0])
	assert.False(t, s.HistoryOpen)

	s = o.NewChat(s, domain.ID("cooking"))
	assert.Equal(t, domain.Cars, s.ActiveDomain())
}

func TestNewChat_DuringSendKeepsBusy(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s, req, err := o.BeginSend(s, "hello")
	require.NoError(t, err)

	s = o.NewChat(s, domain.Anime)
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.True(t, s.Busy)

	_, _, err = o.BeginSend(s, "again")
	assert.ErrorIs(t, err, ErrBusy)

	// Fragments still land in the original conversation.
	s = o.ApplyFragment(s, req.ConversationID, "Hi")
	orig, _ := s.Find(req.ConversationID)
	last, _ := orig.LastMessage()
	assert.Equal(t, "Hi", last.Content)
	active, _ := s.Active()
	assert.Len(t, active.Messages, 1)

	s = o.FinishSend(s, req.ConversationID)
	assert.False(t, s.Busy)
	assert.Nil(t, s.Pending)
}

// =============================================================================
// CHANGE DOMAIN
// =============================================================================

func TestChangeDomain_GreetingOnlyMutatesInPlace(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	before, _ := s.Active()

	s2 := o.ChangeDomain(s, domain.Bikes)

	require.Len(t, s2.Conversations, 1)
	after, _ := s2.Active()
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Timestamp, after.Timestamp)
	assert.Equal(t, domain.Bikes, after.Domain)
	assert.Equal(t, []model.Message{model.NewGreeting(domain.Regreeting(domain.Bikes))}, after.Messages)

	orig, _ := s.Active()
	assert.Equal(t, domain.Cars, orig.Domain, "input state must not change")
}

func TestChangeDomain_UsedConversationStartsNewChat(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s, req, err := o.BeginSend(s, "What is a V8?")
	require.NoError(t, err)
	s = o.ApplyFragment(s, req.ConversationID, "An engine.")
	s = o.FinishSend(s, req.ConversationID)
	old, _ := s.Active()

	s = o.ChangeDomain(s, domain.Anime)

	require.Len(t, s.Conversations, 2)
	assert.NotEqual(t, old.ID, s.ActiveID)
	assert.Equal(t, domain.Anime, s.ActiveDomain())
	untouched, _ := s.Find(old.ID)
	assert.Equal(t, old, untouched)
}

func TestChangeDomain_SameDomainRegreetsEmptyConversation(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	before, _ := s.Active()

	s = o.ChangeDomain(s, domain.Cars)

	require.Len(t, s.Conversations, 1)
	after, _ := s.Active()
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, []model.Message{model.NewGreeting(domain.Regreeting(domain.Cars))}, after.Messages)
}

func TestChangeDomain_SameDomainOnUsedConversationStartsNewChat(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	old, _ := s.Active()
	s = o.Append(s, old.ID, model.NewUserMessage("Best hot hatch?"))
	s = o.Append(s, old.ID, model.NewModelMessage("The GR Yaris."))
	used, _ := s.Active()

	s = o.ChangeDomain(s, domain.Cars)

	require.Len(t, s.Conversations, 2)
	assert.NotEqual(t, old.ID, s.ActiveID)
	assert.Equal(t, domain.Cars, s.ActiveDomain())
	untouched, _ := s.Find(old.ID)
	assert.Equal(t, used, untouched)
}

func TestChangeDomain_UnknownDomainIsNoop(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	assert.Equal(t, s, o.ChangeDomain(s, domain.ID("cooking")))
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete_ActiveSelectsMostRecentRemaining(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap([]model.Conversation{
		conv("old", domain.Cars, 100, greeting(domain.Cars)),
		conv("mid", domain.Anime, 200, greeting(domain.Anime)),
		conv("new", domain.Manga, 300, greeting(domain.Manga)),
	}, false)
	require.Equal(t, "new", s.ActiveID)

	s = o.Delete(s, "new")
	assert.Equal(t, "mid", s.ActiveID)
	assert.Len(t, s.Conversations, 2)
}

func TestDelete_LastSeedsDefault(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap([]model.Conversation{conv("only", domain.Anime, 1, greeting(domain.Anime))}, false)

	s = o.Delete(s, "only")

	require.Len(t, s.Conversations, 1)
	c, ok := s.Active()
	require.True(t, ok)
	assert.NotEqual(t, "only", c.ID)
	assert.Equal(t, domain.Cars, c.Domain)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestDelete_InactiveKeepsSelection(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s = o.NewChat(s, domain.Anime)
	s = o.Delete(s, "c1")
	assert.Equal(t, "c2", s.ActiveID)
	assert.Len(t, s.Conversations, 1)
}

func TestDelete_UnknownIsNoop(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	assert.Equal(t, s, o.Delete(s, "missing"))
}

func TestExactlyOneActiveAfterAnySequence(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	domains := domain.All()

	for i := 0; i < 60; i++ {
		switch i % 5 {
		case 0:
			s = o.NewChat(s, domains[i%len(domains)].ID)
		case 1:
			s = o.ChangeDomain(s, domains[(i+1)%len(domains)].ID)
		case 2:
			s = o.Delete(s, s.ActiveID)
		case 3:
			if len(s.Conversations) > 0 {
				s = o.Delete(s, s.Conversations[0].ID)
			}
		case 4:
			s = o.Append(s, s.ActiveID, model.NewUserMessage("x"))
		}
		require.NotEmpty(t, s.Conversations, "step %d", i)
		require.Equal(t, 1, activeCount(s), "step %d", i)
	}
}

// =============================================================================
// APPEND
// =============================================================================

func TestAppend(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	before, _ := s.Active()

	s = o.Append(s, before.ID, model.NewUserMessage("hi"))
	after, _ := s.Active()
	assert.Len(t, after.Messages, 2)
	assert.Greater(t, after.Timestamp, before.Timestamp)

	assert.Equal(t, s, o.Append(s, "gone", model.NewUserMessage("x")))
}

// =============================================================================
// SEND
// =============================================================================

func TestBeginSend(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s = o.ChangeDomain(s, domain.Manga)
	before, _ := s.Active()

	s2, req, err := o.BeginSend(s, "  Best shonen?  ")
	require.NoError(t, err)

	c, _ := s2.Active()
	require.Len(t, c.Messages, 3)
	assert.Equal(t, model.NewUserMessage("Best shonen?"), c.Messages[1])
	assert.Equal(t, model.NewModelMessage(""), c.Messages[2])
	assert.Greater(t, c.Timestamp, before.Timestamp)
	assert.Equal(t, PhaseSending, s2.Phase)
	assert.True(t, s2.Busy)
	require.NotNil(t, s2.Pending)
	assert.Equal(t, c.ID, s2.Pending.ConversationID)

	assert.Equal(t, c.ID, req.ConversationID)
	assert.Equal(t, domain.Manga, req.Domain)
	assert.Equal(t, "Best shonen?", req.Request.Utterance)
	assert.Empty(t, req.Request.History, "greeting and utterance are not history")
	assert.Equal(t, domain.PersonaFor(domain.Manga).Instruction, req.Request.SystemInstruction)

	unchanged, _ := s.Active()
	assert.Len(t, unchanged.Messages, 1)
	assert.False(t, s.Busy)
}

func TestBeginSend_HistoryExcludesGreetings(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap([]model.Conversation{conv("a", domain.Cars, 1,
		greeting(domain.Cars),
		model.NewUserMessage("q1"),
		model.NewModelMessage("a1"),
		model.NewUserMessage("q2"),
		model.NewModelMessage(""),
	)}, false)

	_, req, err := o.BeginSend(s, "q3")
	require.NoError(t, err)
	assert.Equal(t, []llm.Turn{
		{Role: model.RoleUser, Content: "q1"},
		{Role: model.RoleModel, Content: "a1"},
		{Role: model.RoleUser, Content: "q2"},
	}, req.Request.History)
}

func TestBeginSend_BlankLeavesLogUnchanged(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)

	for _, text := range []string{"", "   ", "\n\t", "\x00"} {
		s2, req, err := o.BeginSend(s, text)
		assert.ErrorIs(t, err, ErrEmptyMessage, "text %q", text)
		assert.Nil(t, req)
		assert.Equal(t, s, s2)
	}
}

func TestBeginSend_Guards(t *testing.T) {
	o := testOrchestrator()

	_, _, err := o.BeginSend(State{}, "hi")
	assert.ErrorIs(t, err, ErrNoActive)

	s := o.Bootstrap(nil, false)
	s, _, err = o.BeginSend(s, "hi")
	require.NoError(t, err)
	_, _, err = o.BeginSend(s, "again")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestFragmentsAccumulateInOrder(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s, req, err := o.BeginSend(s, "hi")
	require.NoError(t, err)

	s = o.ApplyFragment(s, req.ConversationID, "Hel")
	c, _ := s.Find(req.ConversationID)
	last, _ := c.LastMessage()
	assert.Equal(t, "Hel", last.Content)
	assert.True(t, s.Busy)

	s = o.ApplyFragment(s, req.ConversationID, "lo")
	s = o.FinishSend(s, req.ConversationID)
	c, _ = s.Find(req.ConversationID)
	last, _ = c.LastMessage()
	assert.Equal(t, "Hello", last.Content)
	assert.False(t, s.Busy)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestFailureReplacesPartialReply(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s, req, err := o.BeginSend(s, "hi")
	require.NoError(t, err)

	s = o.ApplyFragment(s, req.ConversationID, "Hel")
	s = o.FailSend(s, req.ConversationID)

	c, _ := s.Find(req.ConversationID)
	last, _ := c.LastMessage()
	assert.Equal(t, domain.ErrorText, last.Content)
	assert.False(t, s.Busy)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestZeroFragmentsLeavesEmptyReply(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s, req, err := o.BeginSend(s, "hi")
	require.NoError(t, err)
	s = o.FinishSend(s, req.ConversationID)

	c, _ := s.Find(req.ConversationID)
	last, _ := c.LastMessage()
	assert.Equal(t, model.NewModelMessage(""), last)
	assert.False(t, s.Busy)
}

func TestFragmentsForDeletedConversationAreDropped(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	s, req, err := o.BeginSend(s, "hi")
	require.NoError(t, err)

	s = o.Delete(s, req.ConversationID)
	s = o.ApplyFragment(s, req.ConversationID, "late")
	for _, c := range s.Conversations {
		for _, m := range c.Messages {
			assert.NotEqual(t, "late", m.Content)
		}
	}

	s = o.FailSend(s, req.ConversationID)
	assert.False(t, s.Busy)
	assert.Equal(t, 1, activeCount(s))
}

func TestStaleUpdatesIgnored(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	assert.Equal(t, s, o.ApplyFragment(s, s.ActiveID, "x"))
	assert.Equal(t, s, o.FinishSend(s, s.ActiveID))
	assert.Equal(t, s, o.FailSend(s, s.ActiveID))
}

func TestHistoryPanel(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap(nil, false)
	assert.True(t, o.OpenHistory(s).HistoryOpen)
	assert.False(t, o.CloseHistory(o.OpenHistory(s)).HistoryOpen)
	assert.True(t, o.ToggleHistory(s).HistoryOpen)
	assert.False(t, o.ToggleHistory(o.ToggleHistory(s)).HistoryOpen)
}

func TestSorted(t *testing.T) {
	s := State{Conversations: []model.Conversation{
		conv("a", domain.Cars, 1),
		conv("b", domain.Cars, 3),
		conv("c", domain.Cars, 2),
	}}
	var ids []string
	for _, c := range s.Sorted() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
	assert.Equal(t, "a", s.Conversations[0].ID)
}

func TestReplace(t *testing.T) {
	o := testOrchestrator()
	s := o.Bootstrap([]model.Conversation{
		conv("a", domain.Cars, 1, greeting(domain.Cars)),
		conv("b", domain.Anime, 2, greeting(domain.Anime)),
	}, false)
	s, err := o.Select(s, "a")
	require.NoError(t, err)

	kept := o.Replace(s, []model.Conversation{conv("a", domain.Cars, 5, greeting(domain.Cars))})
	assert.Equal(t, "a", kept.ActiveID)
	assert.Len(t, kept.Conversations, 1)

	moved := o.Replace(s, []model.Conversation{conv("z", domain.Bikes, 9, greeting(domain.Bikes))})
	assert.Equal(t, "z", moved.ActiveID)

	seeded := o.Replace(s, nil)
	assert.Len(t, seeded.Conversations, 1)
	assert.Equal(t, 1, activeCount(seeded))
}

// =============================================================================
// CONSUMER
// =============================================================================

func TestConsumer_EmitsFragmentsThenDone(t *testing.T) {
	c := &Consumer{Provider: fragmentsProvider("Hel", "", "lo")}
	var updates []Update
	c.Run(context.Background(), &SendRequest{ConversationID: "x"}, func(u Update) {
		updates = append(updates, u)
	})

	require.Len(t, updates, 3)
	assert.Equal(t, Update{ConversationID: "x", Kind: UpdateFragment, Fragment: "Hel"}, updates[0])
	assert.Equal(t, "lo", updates[1].Fragment)
	assert.Equal(t, UpdateDone, updates[2].Kind)
	assert.True(t, updates[2].Terminal())
}

func TestConsumer_Failure(t *testing.T) {
	boom := errors.New("boom")
	c := &Consumer{Provider: llm.ProviderFunc(func(ctx context.Context, req llm.Request, on llm.FragmentFunc) error {
		_ = on("Hel")
		return boom
	}), Logger: logging.Nop()}

	var updates []Update
	c.Run(context.Background(), &SendRequest{ConversationID: "x"}, func(u Update) {
		updates = append(updates, u)
	})

	require.Len(t, updates, 2)
	assert.Equal(t, UpdateFailed, updates[1].Kind)
	assert.ErrorIs(t, updates[1].Err, boom)
}

func TestConsumer_RecoversPanic(t *testing.T) {
	c := &Consumer{Provider: llm.ProviderFunc(func(ctx context.Context, req llm.Request, on llm.FragmentFunc) error {
		panic("kaboom")
	})}

	var last Update
	count := 0
	assert.NotPanics(t, func() {
		c.Run(context.Background(), &SendRequest{ConversationID: "x"}, func(u Update) {
			last = u
			count++
		})
	})
	assert.Equal(t, 1, count)
	assert.Equal(t, UpdateFailed, last.Kind)
	assert.Contains(t, last.Err.Error(), "kaboom")
}

func TestConsumer_NoProvider(t *testing.T) {
	var last Update
	(&Consumer{}).Run(context.Background(), &SendRequest{}, func(u Update) { last = u })
	assert.Equal(t, UpdateFailed, last.Kind)
}

// =============================================================================
// ENGINE
// =============================================================================

func newTestEngine(t *testing.T, p llm.Provider) (*Engine, *storage.HistoryStore) {
	t.Helper()
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := storage.NewHistoryStore(backend, logging.Nop())
	e := NewEngine(testOrchestrator(), store, p, logging.Nop())
	return e, store
}

func TestEngine_StartOnEmptyStore(t *testing.T) {
	e, _ := newTestEngine(t, fragmentsProvider())
	err := e.Start(context.Background(), false)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)

	s := e.State()
	assert.Len(t, s.Conversations, 1)
	assert.Equal(t, 1, activeCount(s))
}

func TestEngine_SendPersists(t *testing.T) {
	var gotReq llm.Request
	p := llm.ProviderFunc(func(ctx context.Context, req llm.Request, on llm.FragmentFunc) error {
		gotReq = req
		for _, f := range []string{"Hel", "lo"} {
			if err := on(f); err != nil {
				return err
			}
		}
		return nil
	})
	e, store := newTestEngine(t, p)
	e.SetModel("gemini-pro")
	_ = e.Start(context.Background(), false)

	var seen []string
	reply, err := e.Send(context.Background(), "hi", func(f string) { seen = append(seen, f) })
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)
	assert.Equal(t, []string{"Hel", "lo"}, seen)
	assert.Equal(t, "gemini-pro", gotReq.Model)
	assert.False(t, e.State().Busy)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, e.State().Conversations, loaded)
}

func TestEngine_SendFailure(t *testing.T) {
	boom := errors.New("service down")
	e, _ := newTestEngine(t, llm.ProviderFunc(func(ctx context.Context, req llm.Request, on llm.FragmentFunc) error {
		return boom
	}))
	_ = e.Start(context.Background(), false)

	reply, err := e.Send(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.ErrorText, reply)
	assert.False(t, e.State().Busy)
}

func TestEngine_SendRejectsBlank(t *testing.T) {
	e, _ := newTestEngine(t, fragmentsProvider("x"))
	_ = e.Start(context.Background(), false)
	before := e.State()

	_, err := e.Send(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, before, e.State())
}

func TestEngine_ConcurrentSendRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	e, _ := newTestEngine(t, llm.ProviderFunc(func(ctx context.Context, req llm.Request, on llm.FragmentFunc) error {
		close(started)
		<-release
		return on("done")
	}))
	_ = e.Start(context.Background(), false)

	errc := make(chan error, 1)
	go func() {
		_, err := e.Send(context.Background(), "first", nil)
		errc <- err
	}()
	<-started

	_, err := e.Send(context.Background(), "second", nil)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, e.Reload(context.Background()), ErrBusy)

	close(release)
	require.NoError(t, <-errc)
}

func TestEngine_DomainAndDelete(t *testing.T) {
	e, store := newTestEngine(t, fragmentsProvider("ok"))
	ctx := context.Background()
	_ = e.Start(ctx, false)

	require.NoError(t, e.ChangeDomain(ctx, domain.Anime))
	assert.Equal(t, domain.Anime, e.State().ActiveDomain())
	assert.ErrorIs(t, e.ChangeDomain(ctx, "cooking"), ErrUnknownDomain)
	assert.ErrorIs(t, e.NewChat(ctx, "cooking"), ErrUnknownDomain)

	require.NoError(t, e.NewChat(ctx, domain.Bikes))
	assert.Len(t, e.State().Conversations, 2)

	id := e.State().ActiveID
	require.NoError(t, e.Delete(ctx, id))
	assert.ErrorIs(t, e.Delete(ctx, id), ErrUnknownConversation)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, domain.Anime, loaded[0].Domain)
}

func TestEngine_Reload(t *testing.T) {
	e, store := newTestEngine(t, fragmentsProvider())
	ctx := context.Background()
	_ = e.Start(ctx, false)
	keep := e.State().ActiveID

	external := append(e.State().Conversations,
		conv("ext", domain.Manga, 1, greeting(domain.Manga), model.NewUserMessage("from elsewhere")))
	_, err := store.Save(ctx, external)
	require.NoError(t, err)

	require.NoError(t, e.Reload(ctx))
	s := e.State()
	assert.Len(t, s.Conversations, 2)
	assert.Equal(t, keep, s.ActiveID)
	c, ok := s.Find("ext")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(c.Preview(), `"from elsewhere`))
}

func TestEngine_Select(t *testing.T) {
	e, _ := newTestEngine(t, fragmentsProvider())
	ctx := context.Background()
	_ = e.Start(ctx, false)
	first := e.State().ActiveID
	require.NoError(t, e.NewChat(ctx, domain.Manga))

	require.NoError(t, e.Select(ctx, first))
	assert.Equal(t, first, e.State().ActiveID)
	assert.ErrorIs(t, e.Select(ctx, "missing"), ErrUnknownConversation)
}
