// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/ui/styles"
	"github.com/jeranaias/domainchat/internal/util"
)

// =============================================================================
// QUICK REPLIES
// =============================================================================

// QuickReplies shows the canned questions of a domain. Each one is bound to
// alt+N where N is its one-based position.
type QuickReplies struct {
	Domain   domain.ID
	Width    int
	Disabled bool
	theme    *styles.Theme
}

// NewQuickReplies creates the quick reply row for the default domain.
func NewQuickReplies(theme *styles.Theme) *QuickReplies {
	return &QuickReplies{Domain: domain.Default, Width: 80, theme: theme}
}

// SetDomain switches the row to the replies of id.
func (q *QuickReplies) SetDomain(id domain.ID) {
	q.Domain = id
}

// SetWidth updates the available width.
func (q *QuickReplies) SetWidth(width int) {
	q.Width = width
}

// Items returns the replies of the current domain.
func (q *QuickReplies) Items() []string {
	return domain.PersonaFor(q.Domain).QuickReplies
}

// Get returns the n-th (zero-based) reply. Nothing is returned while the
// row is disabled.
func (q *QuickReplies) Get(n int) (string, bool) {
	if q.Disabled {
		return "", false
	}
	return domain.QuickReply(q.Domain, n)
}

// View renders the replies as chips, wrapping onto a second line when the
// terminal is narrow.
func (q *QuickReplies) View() string {
	items := q.Items()
	if len(items) == 0 {
		return ""
	}

	chipWidth := q.Width/2 - 4
	if q.Width >= 100 {
		chipWidth = q.Width/len(items) - 4
	}
	chipWidth = clamp(chipWidth, 12, 48)

	chips := make([]string, 0, len(items))
	for i, item := range items {
		key := q.theme.QuickReplyKey.Render(strconv.Itoa(i + 1))
		text := util.TruncateWidth(item, chipWidth-3)
		style := q.theme.QuickReply
		if q.Disabled {
			style = style.Faint(true)
		}
		chips = append(chips, style.Render(key+" "+text))
	}

	perRow := len(chips)
	if q.Width < 100 {
		perRow = 2
	}
	var rows []string
	for i := 0; i < len(chips); i += perRow {
		end := i + perRow
		if end > len(chips) {
			end = len(chips)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, chips[i:end]...))
	}
	return strings.Join(rows, "\n")
}
