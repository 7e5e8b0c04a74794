// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/domainchat/internal/ui/styles"
)

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// Typing is the busy indicator shown while a reply is pending.
type Typing struct {
	spinner  spinner.Model
	message  string
	isActive bool
	theme    *styles.Theme
}

// NewTyping creates an inactive indicator with ASCII frames.
func NewTyping(theme *styles.Theme) Typing {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
		FPS:    time.Second / 6,
	}
	return Typing{spinner: s, message: "Typing", theme: theme}
}

// Start activates the indicator and returns the first tick.
func (t *Typing) Start() tea.Cmd {
	if t.isActive {
		return nil
	}
	t.isActive = true
	return t.spinner.Tick
}

// Stop deactivates the indicator. Pending ticks are then ignored.
func (t *Typing) Stop() {
	t.isActive = false
}

// IsActive reports whether the indicator is running.
func (t *Typing) IsActive() bool {
	return t.isActive
}

// Update advances the animation.
func (t Typing) Update(msg tea.Msg) (Typing, tea.Cmd) {
	if !t.isActive {
		return t, nil
	}
	if _, ok := msg.(spinner.TickMsg); !ok {
		return t, nil
	}
	var cmd tea.Cmd
	t.spinner, cmd = t.spinner.Update(msg)
	return t, cmd
}

// View renders "Typing..." with the animated dots, or nothing when idle.
func (t Typing) View() string {
	if !t.isActive {
		return ""
	}
	return t.theme.Typing.Render(t.message + t.spinner.View())
}
