// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea model of the domainchat TUI.

# Architecture

The model holds a session.State and applies every user action through the
session.Orchestrator, so the TUI and the headless engine share one set of
transition rules. After each transition a command saves the conversation
list through the storage.HistoryStore.

# Streaming

Sending starts a session.Consumer in a command goroutine. Each update it
emits is delivered to the event loop with Program.Send, wrapped as:

  - StreamFragmentMsg: one fragment for the conversation captured at send
    time
  - StreamDoneMsg: the reply finished
  - StreamErrorMsg: the reply failed; the placeholder becomes the error text

Fragments never target "whichever conversation is active", so switching
tabs or opening history mid-reply is safe.

# Key Bindings

	enter         send
	tab/shift+tab next/previous domain
	ctrl+n        new chat in the active domain
	ctrl+h        toggle history
	alt+1..4      quick replies
	pgup/pgdown   scroll transcript
	ctrl+c        quit

In the history panel: up/down move, enter opens, d or delete removes,
n starts a new chat, esc closes.
*/
package chat
