// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jeranaias/domainchat/internal/logging"
)

// DefaultDebounce coalesces the burst of events an atomic rename produces.
const DefaultDebounce = 150 * time.Millisecond

// =============================================================================
// SNAPSHOT WATCHER
// =============================================================================

// Watcher reports changes made to the history snapshot file by another
// process, such as a second domainchat instance or a manual edit.
type Watcher struct {
	store    *HistoryStore
	path     string
	debounce time.Duration
	onChange func()
	logger   *zap.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timer   *time.Timer
	done    chan struct{}
}

// NewWatcher watches the snapshot file of a FileBackend-backed store.
// onChange runs on the watcher goroutine after the debounce interval.
func NewWatcher(store *HistoryStore, backend *FileBackend, onChange func(), logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	path := backend.Path(store.key)
	// The file is replaced by rename, so watch the directory.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		store:    store,
		path:     path,
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   logging.OrNop(logger),
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce overrides the debounce interval. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run processes events until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.stopTimer()
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.stopTimer()
				return
			}
			w.logger.Warn("snapshot watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher and waits for Run to return if it was started.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.stopTimer()
	return err
}

// Done is closed when Run returns.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.check)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// check fires onChange unless the file holds what this process wrote.
func (w *Watcher) check() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return
	}
	if w.store.IsOwnSnapshot(data) {
		return
	}
	w.logger.Info("history snapshot changed on disk", zap.String("path", w.path))
	if w.onChange != nil {
		w.onChange()
	}
}
