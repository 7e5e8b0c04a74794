// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable UI pieces of the domainchat TUI.

# Components

DomainTabs (tabs.go) - Header row with one tab per domain, active tab in
the domain's accent color.

HistoryPanel (history.go) - Overlay listing saved conversations, newest
first, with a cursor for select, delete and new chat.

QuickReplies (quickreplies.go) - Canned questions of the active domain,
bound to alt+1..4.

StatusBar (statusbar.go) - Bottom row with provider, model, busy state and
shortcuts.

Typing (spinner.go) - Animated "Typing" indicator shown while a reply is
pending.

# Theme Integration

All components take a *styles.Theme:

	theme := styles.NewTheme("auto")
	tabs := components.NewDomainTabs(theme)
	tabs.SetActive(domain.Anime)
	view := tabs.View()

Components hold no conversation state of their own. The chat model feeds
them from session.State before each render.
*/
package components
