// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/domainchat/internal/model"
	"github.com/jeranaias/domainchat/internal/storage"
)

// =============================================================================
// SNAPSHOT WRITER
// =============================================================================

// snapshotWriter serializes saves issued from command goroutines. A save
// that was requested before the last completed one is dropped, so an older
// list never overwrites a newer one.
type snapshotWriter struct {
	store  *storage.HistoryStore
	logger *zap.Logger

	mu      sync.Mutex
	issued  uint64
	written uint64
}

func newSnapshotWriter(store *storage.HistoryStore, logger *zap.Logger) *snapshotWriter {
	return &snapshotWriter{store: store, logger: logger}
}

// saveCmd returns a command that writes convs. The sequence number is taken
// on the event loop so ordering follows state transitions.
func (w *snapshotWriter) saveCmd(ctx context.Context, convs []model.Conversation) tea.Cmd {
	if w == nil || w.store == nil {
		return nil
	}
	w.mu.Lock()
	w.issued++
	seq := w.issued
	w.mu.Unlock()

	return func() tea.Msg {
		w.mu.Lock()
		defer w.mu.Unlock()
		if seq <= w.written {
			return nil
		}
		saved, err := w.store.Save(ctx, convs)
		if err != nil {
			w.logger.Error("failed to save chat history", zap.Error(err))
			return PersistedMsg{Err: err}
		}
		w.written = seq
		return PersistedMsg{Saved: saved}
	}
}

// =============================================================================
// LOAD COMMANDS
// =============================================================================

func loadHistoryCmd(ctx context.Context, store *storage.HistoryStore, logger *zap.Logger) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return HistoryLoadedMsg{}
		}
		convs, err := store.Load(ctx)
		if err != nil && !errors.Is(err, storage.ErrSnapshotNotFound) {
			logger.Warn("history load failed, starting empty", zap.Error(err))
		}
		return HistoryLoadedMsg{Conversations: convs, Err: err}
	}
}

func reloadHistoryCmd(ctx context.Context, store *storage.HistoryStore) tea.Cmd {
	return func() tea.Msg {
		convs, err := store.Load(ctx)
		return HistoryReloadedMsg{Conversations: convs, Err: err}
	}
}
