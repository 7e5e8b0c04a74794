// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/model"
	"github.com/jeranaias/domainchat/internal/ui/styles"
)

// =============================================================================
// LAYOUT
// =============================================================================

// resize recomputes component sizes. The markdown renderer depends on the
// width, so it is rebuilt and its cache dropped.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	m.theme.SetSize(width, height)
	m.tabs.SetWidth(width)
	m.quick.SetWidth(width)
	m.status.SetWidth(width)
	m.input.Width = width - 6
	m.help.Width = width

	m.viewport.Width = width
	m.viewport.Height = m.viewportHeight()
	m.history.SetSize(min(width-4, 80), m.viewport.Height-1)

	m.renderer = nil
	m.rendered = make(map[string]string)
	if m.markdown {
		style := "light"
		if m.theme.IsDark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(m.bubbleWidth()-4),
		)
		if err == nil {
			m.renderer = r
		}
	}
	m.refreshViewport()
}

// viewportHeight is what remains after the fixed rows.
func (m *Model) viewportHeight() int {
	used := lipgloss.Height(m.tabs.View()) +
		lipgloss.Height(m.quick.View()) +
		2 + // input with its top border
		1 // status bar
	h := m.height - used
	if h < 3 {
		return 3
	}
	return h
}

// bubbleWidth is the widest a message bubble may be.
func (m *Model) bubbleWidth() int {
	w := m.viewport.Width * 3 / 4
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		w = m.viewport.Width - 2
	}
	if w < 20 {
		return 20
	}
	return w
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders the active conversation. The view stays pinned
// to the bottom unless the user scrolled up.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderTranscript() string {
	conv, ok := m.state.Active()
	if !ok {
		return ""
	}
	pending := m.state.IsSendingTo(conv.ID)

	blocks := make([]string, 0, len(conv.Messages))
	for i, msg := range conv.Messages {
		last := i == len(conv.Messages)-1
		if last && pending && msg.Role == model.RoleModel {
			blocks = append(blocks, m.renderPending(conv.Domain, msg))
			continue
		}
		blocks = append(blocks, m.renderMessage(conv.Domain, msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(d domain.ID, msg model.Message) string {
	if msg.Role == model.RoleUser {
		label := m.theme.UserLabel.Render(msg.Role.DisplayName())
		bubble := m.bubble(m.theme.UserBubble, msg.Content)
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right,
			lipgloss.JoinVertical(lipgloss.Right, label, bubble))
	}

	label := m.theme.ModelLabelFor(d).Render(m.modelLabel(d))
	if msg.Content == domain.ErrorText && !msg.Greeting {
		return label + "\n" + m.bubble(m.theme.ErrorBubble, msg.Content)
	}
	return label + "\n" + m.bubble(m.theme.ModelBubbleFor(d), m.markdownOf(msg.Content))
}

// renderPending shows the reply being streamed, or the typing indicator
// until the first fragment arrives.
func (m *Model) renderPending(d domain.ID, msg model.Message) string {
	label := m.theme.ModelLabelFor(d).Render(m.modelLabel(d))
	if msg.Content == "" {
		return label + "\n" + m.typing.View()
	}
	return label + "\n" + m.bubble(m.theme.ModelBubbleFor(d), msg.Content)
}

func (m *Model) modelLabel(d domain.ID) string {
	if dom, ok := domain.Lookup(d); ok {
		return dom.Icon + " " + dom.Name
	}
	return "Chat"
}

// bubble wraps content in style, wrapping long text to the bubble width.
func (m *Model) bubble(style lipgloss.Style, content string) string {
	limit := m.bubbleWidth()
	if lipgloss.Width(content)+style.GetHorizontalFrameSize() > limit {
		style = style.Width(limit - style.GetHorizontalBorderSize() - style.GetHorizontalMargins())
	}
	return style.Render(content)
}

// markdownOf renders content with glamour, memoized per content.
func (m *Model) markdownOf(content string) string {
	if m.renderer == nil || content == "" {
		return content
	}
	if out, ok := m.rendered[content]; ok {
		return out
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	out = strings.Trim(out, "\n")
	m.rendered[content] = out
	return out
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.state.HistoryOpen {
		panel := lipgloss.JoinVertical(lipgloss.Center, m.history.View(), m.help.View(m.histKeys))
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, panel)
	}

	input := m.theme.InputContainer.Width(m.width).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.tabs.View(),
		body,
		m.quick.View(),
		input,
		m.status.View(""),
	)
}
