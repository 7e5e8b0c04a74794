// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/llm"
	"github.com/jeranaias/domainchat/internal/logging"
	"github.com/jeranaias/domainchat/internal/model"
	"github.com/jeranaias/domainchat/internal/session"
	"github.com/jeranaias/domainchat/internal/storage"
	"github.com/jeranaias/domainchat/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

func testOrchestrator() *session.Orchestrator {
	var mu sync.Mutex
	clock := time.UnixMilli(1_700_000_000_000)
	n := 0
	return &session.Orchestrator{
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

// harness drives a Model the way the Bubble Tea runtime would, minus the
// terminal. Posted stream messages are queued and fed back on demand.
type harness struct {
	t      *testing.T
	m      Model
	store  *storage.HistoryStore
	posted chan tea.Msg
}

func newHarness(t *testing.T, provider llm.Provider, loaded ...model.Conversation) *harness {
	t.Helper()
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := storage.NewHistoryStore(backend, logging.Nop())
	if len(loaded) > 0 {
		_, err := store.Save(context.Background(), loaded)
		require.NoError(t, err)
	}

	h := &harness{t: t, store: store, posted: make(chan tea.Msg, 64)}
	h.m = New(Options{
		Orchestrator: testOrchestrator(),
		Store:        store,
		Provider:     provider,
		Logger:       logging.Nop(),
		Theme:        styles.NewTheme("dark"),
		Send:         func(msg tea.Msg) { h.posted <- msg },
	})
	h.update(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.run(loadHistoryCmd(context.Background(), store, logging.Nop()))
	return h
}

// update applies msg and runs the resulting command.
func (h *harness) update(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	h.run(cmd)
}

// run executes cmd and applies the messages it returns. Timer driven
// messages are not fed back.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.run(c)
		}
	case HistoryLoadedMsg, HistoryReloadedMsg:
		h.update(msg)
	}
}

// flush feeds every posted stream message back into the model.
func (h *harness) flush() []tea.Msg {
	h.t.Helper()
	var seen []tea.Msg
	for {
		select {
		case msg := <-h.posted:
			seen = append(seen, msg)
			h.update(msg)
		default:
			return seen
		}
	}
}

func (h *harness) key(k string) {
	h.t.Helper()
	switch k {
	case "enter":
		h.update(tea.KeyMsg{Type: tea.KeyEnter})
	case "tab":
		h.update(tea.KeyMsg{Type: tea.KeyTab})
	case "shift+tab":
		h.update(tea.KeyMsg{Type: tea.KeyShiftTab})
	case "ctrl+n":
		h.update(tea.KeyMsg{Type: tea.KeyCtrlN})
	case "ctrl+h":
		h.update(tea.KeyMsg{Type: tea.KeyCtrlH})
	case "esc":
		h.update(tea.KeyMsg{Type: tea.KeyEsc})
	case "up":
		h.update(tea.KeyMsg{Type: tea.KeyUp})
	case "down":
		h.update(tea.KeyMsg{Type: tea.KeyDown})
	case "delete":
		h.update(tea.KeyMsg{Type: tea.KeyDelete})
	case "alt+1":
		h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}, Alt: true})
	default:
		h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

func (h *harness) send(text string) {
	h.t.Helper()
	h.m.input.SetValue(text)
	h.key("enter")
}

func (h *harness) active() model.Conversation {
	h.t.Helper()
	c, ok := h.m.State().Active()
	require.True(h.t, ok, "no active conversation")
	return c
}

func (h *harness) saved() []model.Conversation {
	h.t.Helper()
	convs, err := h.store.Load(context.Background())
	require.NoError(h.t, err)
	return convs
}

func fragments(parts ...string) llm.Provider {
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
// STARTUP
// =============================================================================

func TestModel_ColdStartSeedsDefaultConversation(t *testing.T) {
	h := newHarness(t, fragments())

	s := h.m.State()
	require.Len(t, s.Conversations, 1)
	assert.Equal(t, session.PhaseIdle, s.Phase)
	assert.Equal(t, domain.Cars, h.active().Domain)
	assert.Len(t, h.saved(), 1, "seeded conversation is persisted")
}

func TestModel_StartupActivatesMostRecent(t *testing.T) {
	older := model.NewConversation("old", domain.Anime, time.UnixMilli(1000))
	newer := model.NewConversation("new", domain.Bikes, time.UnixMilli(2000))
	h := newHarness(t, fragments(), older, newer)

	assert.Equal(t, "new", h.m.State().ActiveID)
	assert.Equal(t, domain.Bikes, h.m.tabs.Active)
}

// =============================================================================
// SENDING
// =============================================================================

func TestModel_SendStreamsIntoPlaceholder(t *testing.T) {
	h := newHarness(t, fragments("Hel", "lo"))
	h.send("hi there")

	s := h.m.State()
	assert.True(t, s.Busy)
	assert.Equal(t, session.PhaseSending, s.Phase)
	assert.Empty(t, h.m.input.Value(), "input is cleared on send")

	seen := h.flush()
	require.Len(t, seen, 3)
	assert.Equal(t, StreamFragmentMsg{ConversationID: "c1", Fragment: "Hel"}, seen[0])
	assert.Equal(t, StreamFragmentMsg{ConversationID: "c1", Fragment: "lo"}, seen[1])
	assert.Equal(t, StreamDoneMsg{ConversationID: "c1"}, seen[2])

	conv := h.active()
	last, _ := conv.LastMessage()
	assert.Equal(t, "Hello", last.Content)
	assert.False(t, h.m.State().Busy)
	assert.False(t, h.m.typing.IsActive())

	saved := h.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, conv.Messages, saved[0].Messages)
}

func TestModel_PartialReplyIsObservable(t *testing.T) {
	h := newHarness(t, fragments("Hel", "lo"))
	h.send("hi")

	h.update(<-h.posted)
	last, _ := h.active().LastMessage()
	assert.Equal(t, "Hel", last.Content)
	assert.Contains(t, h.m.viewport.View(), "Hel")
}

func TestModel_FailureReplacesPartialText(t *testing.T) {
	h := newHarness(t, llm.ProviderFunc(func(ctx context.Context, req llm.Request, on llm.FragmentFunc) error {
		_ = on("Hel")
		return errors.New("boom")
	}))
	h.send("hi")
	h.flush()

	last, _ := h.active().LastMessage()
	assert.Equal(t, domain.ErrorText, last.Content)
	assert.False(t, h.m.State().Busy)
}

func TestModel_BlankSendIsIgnored(t *testing.T) {
	h := newHarness(t, fragments("x"))
	before := h.active().Messages

	h.send("   ")
	assert.Empty(t, h.flush())
	assert.Equal(t, before, h.active().Messages)
}

func TestModel_QuickReplySendsCannedQuestion(t *testing.T) {
	var got llm.Request
	h := newHarness(t, llm.ProviderFunc(func(ctx context.Context, req llm.Request, on llm.FragmentFunc) error {
		got = req
		return nil
	}))
	h.key("alt+1")
	h.flush()

	want, _ := domain.QuickReply(domain.Cars, 0)
	assert.Equal(t, want, got.Utterance)
	assert.Equal(t, domain.PersonaFor(domain.Cars).Instruction, got.SystemInstruction)
	assert.Empty(t, got.History, "greetings are not sent as history")
}

func TestModel_SecondSendWhileBusyIsRejected(t *testing.T) {
	h := newHarness(t, fragments("ok"))
	h.send("one")
	h.send("two")

	assert.Equal(t, "two", h.m.input.Value(), "rejected text stays in the input")
	h.flush()

	conv := h.active()
	assert.Equal(t, 3, conv.MessageCount(), "greeting, one user message, one reply")
}

func TestModel_FragmentsFollowCapturedConversation(t *testing.T) {
	h := newHarness(t, fragments("Hel", "lo"))
	h.send("hi")
	h.key("ctrl+n") // switch away mid-reply

	assert.Equal(t, "c2", h.m.State().ActiveID)
	h.flush()

	c1, ok := h.m.State().Find("c1")
	require.True(t, ok)
	last, _ := c1.LastMessage()
	assert.Equal(t, "Hello", last.Content)
	assert.True(t, h.active().IsEmpty(), "new chat untouched by the reply")
}

// =============================================================================
// DOMAINS
// =============================================================================

func TestModel_TabOnEmptyConversationRegreetsInPlace(t *testing.T) {
	h := newHarness(t, fragments())
	h.key("tab")

	s := h.m.State()
	require.Len(t, s.Conversations, 1)
	conv := h.active()
	assert.Equal(t, domain.Anime, conv.Domain)
	assert.Equal(t, domain.Regreeting(domain.Anime), conv.Messages[0].Content)
	assert.Equal(t, domain.Anime, h.m.quick.Domain)

	h.key("shift+tab")
	assert.Equal(t, domain.Cars, h.active().Domain)
}

func TestModel_TabAfterExchangeStartsNewChat(t *testing.T) {
	h := newHarness(t, fragments("ok"))
	h.send("hi")
	h.flush()
	h.key("tab")

	s := h.m.State()
	require.Len(t, s.Conversations, 2)
	assert.Equal(t, domain.Anime, h.active().Domain)
	old, _ := s.Find("c1")
	assert.Equal(t, domain.Cars, old.Domain)
}

// =============================================================================
// HISTORY PANEL
// =============================================================================

func TestModel_HistoryPanelSelectAndDelete(t *testing.T) {
	a := model.NewConversation("a", domain.Anime, time.UnixMilli(1000))
	b := model.NewConversation("b", domain.Manga, time.UnixMilli(2000))
	c := model.NewConversation("c", domain.Bikes, time.UnixMilli(3000))
	h := newHarness(t, fragments(), a, b, c)

	h.key("ctrl+h")
	require.True(t, h.m.State().HistoryOpen)
	assert.Contains(t, h.m.View(), "Chat History")

	h.key("down")
	h.key("enter")
	s := h.m.State()
	assert.False(t, s.HistoryOpen, "selecting closes the panel")
	assert.Equal(t, "b", s.ActiveID)

	h.key("ctrl+h")
	h.key("delete") // cursor is on b, the active one
	s = h.m.State()
	assert.Equal(t, "c", s.ActiveID, "most recent remaining becomes active")
	assert.Len(t, h.saved(), 2)

	h.key("esc")
	assert.False(t, h.m.State().HistoryOpen)
}

func TestModel_HistoryNewChatUsesActiveDomain(t *testing.T) {
	a := model.NewConversation("a", domain.Manga, time.UnixMilli(1000))
	a = a.WithMessage(model.NewUserMessage("hey"))
	h := newHarness(t, fragments(), a)

	h.key("ctrl+h")
	h.key("n")

	s := h.m.State()
	assert.False(t, s.HistoryOpen)
	require.Len(t, s.Conversations, 2)
	assert.Equal(t, domain.Manga, h.active().Domain)
}

func TestModel_SelectWhileSendingIsRefused(t *testing.T) {
	a := model.NewConversation("a", domain.Anime, time.UnixMilli(1000))
	h := newHarness(t, fragments("ok"), a)
	h.send("hi")

	h.key("ctrl+h")
	h.key("down")
	h.key("enter")
	assert.Equal(t, "a", h.m.State().ActiveID)
	assert.NotEmpty(t, h.m.status.Message)
	h.flush()
}

func TestModel_DeletingLastConversationSeedsDefault(t *testing.T) {
	a := model.NewConversation("a", domain.Anime, time.UnixMilli(1000))
	h := newHarness(t, fragments(), a)

	h.key("ctrl+h")
	h.key("d")

	s := h.m.State()
	require.Len(t, s.Conversations, 1)
	assert.Equal(t, domain.Cars, h.active().Domain)
	assert.NotEqual(t, "a", s.ActiveID)
}

// =============================================================================
// EXTERNAL CHANGES
// =============================================================================

func TestModel_SnapshotChangeReloads(t *testing.T) {
	h := newHarness(t, fragments())

	other := model.NewConversation("ext", domain.Bikes, time.UnixMilli(5000))
	_, err := h.store.Save(context.Background(), append(h.m.State().Conversations, other))
	require.NoError(t, err)

	h.update(SnapshotChangedMsg{})
	s := h.m.State()
	assert.Len(t, s.Conversations, 2)
	assert.Equal(t, "c1", s.ActiveID, "active selection kept")
}

func TestModel_SnapshotChangeDeferredWhileBusy(t *testing.T) {
	h := newHarness(t, fragments("ok"))
	h.send("hi")

	h.update(SnapshotChangedMsg{})
	assert.True(t, h.m.reloadPending)

	h.flush()
	assert.False(t, h.m.reloadPending)
}

// =============================================================================
// VIEW
// =============================================================================

func TestModel_ViewShowsTabsAndTranscript(t *testing.T) {
	h := newHarness(t, fragments())
	view := h.m.View()

	assert.Contains(t, view, "Cars")
	assert.Contains(t, view, "Bikes")
	assert.Contains(t, view, "Hey there!")
	assert.Contains(t, view, "Ready")
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := New(Options{Theme: styles.NewTheme("dark")})
	assert.Equal(t, "Loading...", m.View())
}
