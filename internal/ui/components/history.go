// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/model"
	"github.com/jeranaias/domainchat/internal/ui/styles"
	"github.com/jeranaias/domainchat/internal/util"
)

// EmptyHistoryText is shown when there are no saved conversations.
const EmptyHistoryText = "No chat history found."

// =============================================================================
// HISTORY PANEL
// =============================================================================

// HistoryPanel lists conversations newest first. It only tracks the cursor;
// selecting, deleting and creating are reported back to the caller by id.
type HistoryPanel struct {
	items    []model.Conversation
	activeID string
	cursor   int
	offset   int

	Width  int
	Height int
	theme  *styles.Theme

	// Now is the clock used for the age column.
	Now func() time.Time
}

// NewHistoryPanel creates an empty panel.
func NewHistoryPanel(theme *styles.Theme) *HistoryPanel {
	return &HistoryPanel{
		Width:  60,
		Height: 20,
		theme:  theme,
		Now:    time.Now,
	}
}

// SetItems replaces the listed conversations. items must already be sorted
// by timestamp descending. The cursor stays on the same conversation when
// it is still listed.
func (h *HistoryPanel) SetItems(items []model.Conversation, activeID string) {
	prev, hadPrev := h.Selected()
	h.items = items
	h.activeID = activeID
	if hadPrev {
		if i := h.indexOf(prev); i >= 0 {
			h.cursor = i
			h.scroll()
			return
		}
	}
	h.cursor = clamp(h.cursor, 0, max(len(items)-1, 0))
	h.scroll()
}

// Focus puts the cursor on the active conversation. Called when the panel
// opens.
func (h *HistoryPanel) Focus() {
	if i := h.indexOf(h.activeID); i >= 0 {
		h.cursor = i
	} else {
		h.cursor = 0
	}
	h.offset = 0
	h.scroll()
}

// SetSize updates the panel dimensions.
func (h *HistoryPanel) SetSize(width, height int) {
	h.Width = width
	h.Height = height
	h.scroll()
}

// Len returns the number of listed conversations.
func (h *HistoryPanel) Len() int {
	return len(h.items)
}

// Cursor returns the highlighted row.
func (h *HistoryPanel) Cursor() int {
	return h.cursor
}

// MoveUp moves the cursor up one row.
func (h *HistoryPanel) MoveUp() {
	if h.cursor > 0 {
		h.cursor--
	}
	h.scroll()
}

// MoveDown moves the cursor down one row.
func (h *HistoryPanel) MoveDown() {
	if h.cursor < len(h.items)-1 {
		h.cursor++
	}
	h.scroll()
}

// Selected returns the id under the cursor.
func (h *HistoryPanel) Selected() (string, bool) {
	if h.cursor < 0 || h.cursor >= len(h.items) {
		return "", false
	}
	return h.items[h.cursor].ID, true
}

func (h *HistoryPanel) indexOf(id string) int {
	for i, c := range h.items {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// rows returns how many entries fit, two lines each.
func (h *HistoryPanel) rows() int {
	// Border and title.
	n := (h.Height - 5) / 2
	if n < 1 {
		return 1
	}
	return n
}

func (h *HistoryPanel) scroll() {
	rows := h.rows()
	if h.cursor < h.offset {
		h.offset = h.cursor
	}
	if h.cursor >= h.offset+rows {
		h.offset = h.cursor - rows + 1
	}
	h.offset = clamp(h.offset, 0, max(len(h.items)-rows, 0))
}

// View renders the panel.
func (h *HistoryPanel) View() string {
	inner := h.Width - 4
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder
	b.WriteString(h.theme.HistoryTitle.Render("Chat History"))
	b.WriteString("\n")

	if len(h.items) == 0 {
		b.WriteString(h.theme.HistoryEmpty.Render(EmptyHistoryText))
		b.WriteString("\n")
	} else {
		now := h.Now()
		end := min(h.offset+h.rows(), len(h.items))
		for i := h.offset; i < end; i++ {
			b.WriteString(h.renderItem(h.items[i], i == h.cursor, inner, now))
			b.WriteString("\n")
		}
	}

	return h.theme.HistoryPanel.Width(h.Width - 2).Render(strings.TrimRight(b.String(), "\n"))
}

func (h *HistoryPanel) renderItem(c model.Conversation, selected bool, width int, now time.Time) string {
	style := h.theme.HistoryItem
	marker := "  "
	if selected {
		style = h.theme.HistoryItemSelected
		marker = "> "
	}

	name := domain.NameOf(c.Domain, "Chat")
	if c.ID == h.activeID {
		name += " *"
	}
	age := formatAge(c.LastActive(), now)

	head := h.theme.HistoryDomain.Foreground(styles.DomainAccent(c.Domain)).Render(name)
	pad := width - util.StringWidth(marker) - util.StringWidth(name) - util.StringWidth(age) - 2
	if pad < 1 {
		pad = 1
	}
	line1 := marker + head + strings.Repeat(" ", pad) + h.theme.HistoryMeta.Render(age)

	preview := util.TruncateWidth(c.Preview(), width-4)
	line2 := "  " + h.theme.HistoryMeta.Render(preview)

	return style.Width(width).Render(line1 + "\n" + line2)
}
