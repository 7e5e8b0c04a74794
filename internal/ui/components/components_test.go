// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/model"
	"github.com/jeranaias/domainchat/internal/ui/styles"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

func conv(id string, d domain.ID, ageMinutes int, firstUser string) model.Conversation {
	c := model.NewConversation(id, d, epoch.Add(-time.Duration(ageMinutes)*time.Minute))
	if firstUser != "" {
		c = c.WithMessage(model.NewUserMessage(firstUser))
	}
	return c
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestFormatAge(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "now"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{49 * time.Hour, "2d"},
		{30 * 24 * time.Hour, "Jan 30"},
	}
	for _, tt := range tests {
		if got := formatAge(epoch.Add(-tt.ago), epoch); got != tt.want {
			t.Errorf("formatAge(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

// =============================================================================
// DOMAIN TABS TESTS
// =============================================================================

func TestDomainTabs_ViewListsEveryDomain(t *testing.T) {
	tabs := NewDomainTabs(testTheme())
	tabs.SetWidth(120)
	tabs.SetActive(domain.Manga)

	view := tabs.View()
	for _, d := range domain.All() {
		assert.Contains(t, view, d.Name)
	}
	assert.Contains(t, view, "domainchat")
}

func TestDomainTabs_NarrowDropsIcons(t *testing.T) {
	tabs := NewDomainTabs(testTheme())
	tabs.SetWidth(40)
	d, _ := domain.Lookup(domain.Cars)
	assert.Equal(t, "Cars", tabs.label(d))

	tabs.SetWidth(100)
	assert.Equal(t, d.Icon+" Cars", tabs.label(d))
}

// =============================================================================
// QUICK REPLIES TESTS
// =============================================================================

func TestQuickReplies_FollowDomain(t *testing.T) {
	q := NewQuickReplies(testTheme())
	q.SetDomain(domain.Anime)

	got, ok := q.Get(0)
	require.True(t, ok)
	assert.Equal(t, "Recommend a good starter anime.", got)

	_, ok = q.Get(4)
	assert.False(t, ok)

	q.Disabled = true
	_, ok = q.Get(0)
	assert.False(t, ok, "disabled row must not yield replies")
}

func TestQuickReplies_ViewShowsKeys(t *testing.T) {
	q := NewQuickReplies(testTheme())
	q.SetWidth(80)
	view := q.View()
	for _, k := range []string{"1", "2", "3", "4"} {
		assert.Contains(t, view, k)
	}

	q.SetWidth(160)
	wide := q.View()
	assert.Greater(t, lipgloss.Height(view), lipgloss.Height(wide), "narrow layout wraps onto two rows")
}

// =============================================================================
// HISTORY PANEL TESTS
// =============================================================================

func TestHistoryPanel_Empty(t *testing.T) {
	h := NewHistoryPanel(testTheme())
	h.SetItems(nil, "")

	assert.Contains(t, h.View(), EmptyHistoryText)
	_, ok := h.Selected()
	assert.False(t, ok)
}

func TestHistoryPanel_CursorMovement(t *testing.T) {
	h := NewHistoryPanel(testTheme())
	h.SetItems([]model.Conversation{
		conv("a", domain.Cars, 1, "first"),
		conv("b", domain.Anime, 2, ""),
		conv("c", domain.Bikes, 3, ""),
	}, "b")
	h.Focus()

	id, _ := h.Selected()
	assert.Equal(t, "b", id, "focus lands on the active conversation")

	h.MoveDown()
	h.MoveDown()
	id, _ = h.Selected()
	assert.Equal(t, "c", id, "cursor stops at the last row")

	h.MoveUp()
	h.MoveUp()
	h.MoveUp()
	id, _ = h.Selected()
	assert.Equal(t, "a", id, "cursor stops at the first row")
}

func TestHistoryPanel_SetItemsKeepsCursorOnSameConversation(t *testing.T) {
	h := NewHistoryPanel(testTheme())
	h.SetItems([]model.Conversation{conv("a", domain.Cars, 1, ""), conv("b", domain.Cars, 2, "")}, "a")
	h.MoveDown()

	h.SetItems([]model.Conversation{conv("new", domain.Cars, 0, ""), conv("a", domain.Cars, 1, ""), conv("b", domain.Cars, 2, "")}, "new")
	id, _ := h.Selected()
	assert.Equal(t, "b", id)

	h.SetItems([]model.Conversation{conv("new", domain.Cars, 0, "")}, "new")
	id, _ = h.Selected()
	assert.Equal(t, "new", id, "cursor clamps when its conversation is gone")
}

func TestHistoryPanel_ViewShowsDomainAndPreview(t *testing.T) {
	h := NewHistoryPanel(testTheme())
	h.Now = func() time.Time { return epoch }
	h.SetSize(70, 30)
	h.SetItems([]model.Conversation{
		conv("a", domain.Manga, 5, "Is Berserk finished?"),
		conv("b", domain.ID("cooking"), 90, ""),
	}, "a")

	view := h.View()
	assert.Contains(t, view, "Manga")
	assert.Contains(t, view, `"Is Berserk finished?..."`)
	assert.Contains(t, view, "Chat", "unknown domains fall back to Chat")
	assert.Contains(t, view, "New Chat")
	assert.Contains(t, view, "5m")
	assert.Contains(t, view, "1h")
}

func TestHistoryPanel_ScrollsToCursor(t *testing.T) {
	h := NewHistoryPanel(testTheme())
	h.SetSize(60, 10) // two rows visible
	var items []model.Conversation
	for i := 0; i < 6; i++ {
		items = append(items, conv(string(rune('a'+i)), domain.Cars, i, ""))
	}
	h.SetItems(items, "a")
	for i := 0; i < 5; i++ {
		h.MoveDown()
	}
	assert.Equal(t, 5, h.Cursor())
	assert.Equal(t, 4, h.offset)
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusTyping, "Typing..."},
		{StatusError, "Error"},
		{Status(99), "Unknown"},
	}
	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestStatusBar_View(t *testing.T) {
	s := NewStatusBar(testTheme())
	s.SetWidth(120)
	s.SetProvider("gemini", "gemini-2.5-flash")
	s.SetStatus(StatusTyping)

	view := s.View("..")
	assert.Contains(t, view, "Typing...")
	assert.Contains(t, view, "gemini/gemini-2.5-flash")
	assert.Contains(t, view, "history")

	s.SetMessage("save failed")
	assert.Contains(t, s.View(""), "save failed")
}

// =============================================================================
// TYPING INDICATOR TESTS
// =============================================================================

func TestTyping_StartStop(t *testing.T) {
	ty := NewTyping(testTheme())
	assert.Empty(t, ty.View())

	cmd := ty.Start()
	assert.NotNil(t, cmd)
	assert.Nil(t, ty.Start(), "second start is a no-op")
	assert.Contains(t, ty.View(), "Typing")

	ty.Stop()
	assert.False(t, ty.IsActive())
	assert.Empty(t, ty.View())
}
