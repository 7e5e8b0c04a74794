// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/domainchat/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamFragmentMsg delivers one fragment of a model reply.
type StreamFragmentMsg struct {
	ConversationID string
	Fragment       string
}

// StreamDoneMsg signals that the reply finished normally.
type StreamDoneMsg struct {
	ConversationID string
}

// StreamErrorMsg signals that the reply failed.
type StreamErrorMsg struct {
	ConversationID string
	Err            error
}

// =============================================================================
// HISTORY MESSAGES
// =============================================================================

// HistoryLoadedMsg carries the startup load result. Err is informational;
// Conversations is always usable.
type HistoryLoadedMsg struct {
	Conversations []model.Conversation
	Err           error
}

// SnapshotChangedMsg reports that the snapshot was changed by another
// process.
type SnapshotChangedMsg struct{}

// HistoryReloadedMsg carries the list re-read after SnapshotChangedMsg.
type HistoryReloadedMsg struct {
	Conversations []model.Conversation
	Err           error
}

// PersistedMsg reports the outcome of a save.
type PersistedMsg struct {
	Saved bool
	Err   error
}
