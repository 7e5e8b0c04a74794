// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/domainchat/internal/session"
)

// =============================================================================
// PROGRAM REFERENCE
// =============================================================================

// The running program, used by goroutines to post messages into the event
// loop.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

// SetProgram registers the running program. Call it before p.Run.
func SetProgram(p *tea.Program) {
	programMu.Lock()
	programRef = p
	programMu.Unlock()
}

// Post delivers msg to the running program. It is dropped when no program
// is registered.
func Post(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// NotifySnapshotChanged is the storage.Watcher callback.
func NotifySnapshotChanged() {
	Post(SnapshotChangedMsg{})
}

// =============================================================================
// STREAM COMMAND
// =============================================================================

// streamCmd runs the consumer for req. Every update is posted with send in
// arrival order; the terminal update is posted last.
func streamCmd(ctx context.Context, consumer *session.Consumer, req *session.SendRequest, send func(tea.Msg)) tea.Cmd {
	return func() tea.Msg {
		consumer.Run(ctx, req, func(u session.Update) {
			send(updateMsg(u))
		})
		return nil
	}
}

// updateMsg wraps a consumer update as a Bubble Tea message.
func updateMsg(u session.Update) tea.Msg {
	switch u.Kind {
	case session.UpdateFragment:
		return StreamFragmentMsg{ConversationID: u.ConversationID, Fragment: u.Fragment}
	case session.UpdateFailed:
		return StreamErrorMsg{ConversationID: u.ConversationID, Err: u.Err}
	default:
		return StreamDoneMsg{ConversationID: u.ConversationID}
	}
}
