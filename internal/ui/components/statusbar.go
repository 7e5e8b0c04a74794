// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/domainchat/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Status is the application state shown at the left of the bar.
type Status int

const (
	StatusReady Status = iota
	StatusTyping
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusTyping:
		return "Typing..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// StatusBar is the bottom row: status, provider and model on the left,
// shortcuts on the right.
type StatusBar struct {
	Status       Status
	ProviderName string
	ModelName    string
	Message      string // transient notice, e.g. a save failure
	Width        int
	theme        *styles.Theme
}

// NewStatusBar creates a status bar in the ready state.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Status: StatusReady, Width: 80, theme: theme}
}

// SetWidth updates the available width.
func (s *StatusBar) SetWidth(width int) { s.Width = width }

// SetStatus updates the status.
func (s *StatusBar) SetStatus(status Status) { s.Status = status }

// SetProvider sets the provider and model labels.
func (s *StatusBar) SetProvider(provider, model string) {
	s.ProviderName = provider
	s.ModelName = model
}

// SetMessage sets or clears the transient notice.
func (s *StatusBar) SetMessage(msg string) { s.Message = msg }

// View renders the bar. spin is the current spinner frame shown while
// typing; it may be empty.
func (s *StatusBar) View(spin string) string {
	left := s.renderStatus(spin)
	if s.ProviderName != "" {
		left += "  " + s.ProviderName
		if s.ModelName != "" {
			left += "/" + s.ModelName
		}
	}
	if s.Message != "" {
		left += "  " + s.theme.StatusError.Render(s.Message)
	}

	right := s.renderShortcuts()
	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return s.theme.StatusBar.Width(s.Width).Render(left)
	}
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) renderStatus(spin string) string {
	switch s.Status {
	case StatusTyping:
		return s.theme.StatusBusy.Render(strings.TrimSpace(spin + " " + s.Status.String()))
	case StatusError:
		return s.theme.StatusError.Render(s.Status.String())
	default:
		return s.Status.String()
	}
}

func (s *StatusBar) renderShortcuts() string {
	keys := []struct{ key, desc string }{
		{"tab", "domain"},
		{"^N", "new"},
		{"^H", "history"},
		{"^C", "quit"},
	}
	if s.Width < 60 {
		keys = keys[2:]
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, s.theme.ShortcutKey.Render(k.key)+" "+s.theme.ShortcutDesc.Render(k.desc))
	}
	return strings.Join(parts, " ")
}
