// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the bindings of the chat screen.
type KeyMap struct {
	Submit       key.Binding
	NextDomain   key.Binding
	PrevDomain   key.Binding
	NewChat      key.Binding
	History      key.Binding
	QuickReplies []key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default chat screen bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NextDomain: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next domain"),
		),
		PrevDomain: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev domain"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		History: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("C-h", "history"),
		),
		QuickReplies: []key.Binding{
			key.NewBinding(key.WithKeys("alt+1"), key.WithHelp("A-1", "quick reply 1")),
			key.NewBinding(key.WithKeys("alt+2"), key.WithHelp("A-2", "quick reply 2")),
			key.NewBinding(key.WithKeys("alt+3"), key.WithHelp("A-3", "quick reply 3")),
			key.NewBinding(key.WithKeys("alt+4"), key.WithHelp("A-4", "quick reply 4")),
		},
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NextDomain, k.NewChat, k.History, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.NextDomain, k.PrevDomain, k.NewChat},
		{k.History, k.PageUp, k.PageDown, k.Quit},
		k.QuickReplies,
	}
}

// =============================================================================
// HISTORY PANEL KEYS
// =============================================================================

// HistoryKeyMap defines the bindings active while the history panel is
// open.
type HistoryKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Delete  key.Binding
	NewChat key.Binding
	Close   key.Binding
}

// DefaultHistoryKeyMap returns the default history panel bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "move down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d/del", "delete"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new chat"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "ctrl+h"),
			key.WithHelp("esc", "close"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Delete, k.NewChat, k.Close}
}

// FullHelp implements help.KeyMap.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
