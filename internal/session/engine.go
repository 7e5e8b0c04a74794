// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/llm"
	"github.com/jeranaias/domainchat/internal/logging"
	"github.com/jeranaias/domainchat/internal/model"
	"github.com/jeranaias/domainchat/internal/storage"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine drives the orchestrator outside the TUI. It serializes mutations
// and saves the snapshot after each one. Persistence failures are logged
// and never returned.
type Engine struct {
	mu sync.Mutex

	orch     *Orchestrator
	store    *storage.HistoryStore
	consumer *Consumer
	logger   *zap.Logger

	state State
	model string
}

// NewEngine creates an engine. Call Start before anything else.
func NewEngine(orch *Orchestrator, store *storage.HistoryStore, provider llm.Provider, logger *zap.Logger) *Engine {
	logger = logging.OrNop(logger)
	return &Engine{
		orch:     orch,
		store:    store,
		consumer: &Consumer{Provider: provider, Logger: logger},
		logger:   logger,
	}
}

// SetModel overrides the provider's default model for later sends.
func (e *Engine) SetModel(m string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = m
}

// Start loads history and bootstraps the state. A load failure degrades to
// an empty history; the cause is logged and returned for information only.
func (e *Engine) Start(ctx context.Context, startFresh bool) error {
	loaded, loadErr := e.store.Load(ctx)
	if loadErr != nil && !errors.Is(loadErr, storage.ErrSnapshotNotFound) {
		e.logger.Warn("history load failed, starting empty", zap.Error(loadErr))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = e.orch.Bootstrap(loaded, startFresh)
	e.persistLocked(ctx)
	return loadErr
}

// State returns a snapshot of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Select makes id active.
func (e *Engine) Select(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.orch.Select(e.state, id)
	if err != nil {
		return err
	}
	e.state = s
	return nil
}

// NewChat starts a conversation in d.
func (e *Engine) NewChat(ctx context.Context, d domain.ID) error {
	if !domain.Valid(d) {
		return ErrUnknownDomain
	}
	e.mutate(ctx, func(s State) State { return e.orch.NewChat(s, d) })
	return nil
}

// ChangeDomain switches the active conversation's domain.
func (e *Engine) ChangeDomain(ctx context.Context, d domain.ID) error {
	if !domain.Valid(d) {
		return ErrUnknownDomain
	}
	e.mutate(ctx, func(s State) State { return e.orch.ChangeDomain(s, d) })
	return nil
}

// Delete removes id.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.state.Find(id); !ok {
		return ErrUnknownConversation
	}
	e.state = e.orch.Delete(e.state, id)
	e.persistLocked(ctx)
	return nil
}

// Send streams a reply to text in the active conversation. onFragment, if
// non-nil, observes each fragment outside the engine lock. It returns the
// final reply text; on a service failure that is the fixed error text and
// the cause is returned alongside.
func (e *Engine) Send(ctx context.Context, text string, onFragment func(string)) (string, error) {
	e.mu.Lock()
	s, req, err := e.orch.BeginSend(e.state, text)
	if err != nil {
		e.mu.Unlock()
		return "", err
	}
	req.Request.Model = e.model
	e.state = s
	e.persistLocked(ctx)
	e.mu.Unlock()

	var streamErr error
	e.consumer.Run(ctx, req, func(u Update) {
		e.mu.Lock()
		e.state = e.orch.Apply(e.state, u)
		e.mu.Unlock()

		switch u.Kind {
		case UpdateFragment:
			if onFragment != nil {
				onFragment(u.Fragment)
			}
		case UpdateFailed:
			streamErr = u.Err
		}
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.persistLocked(ctx)

	reply := ""
	if c, ok := e.state.Find(req.ConversationID); ok {
		if last, ok := c.LastMessage(); ok && last.Role == model.RoleModel {
			reply = last.Content
		}
	}
	return reply, streamErr
}

// Reload replaces the list with the stored snapshot after an external
// change. It is refused while a send is in flight.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	busy := e.state.Busy
	e.mu.Unlock()
	if busy {
		return ErrBusy
	}

	loaded, err := e.store.Load(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Busy {
		return ErrBusy
	}
	e.state = e.orch.Replace(e.state, loaded)
	e.logger.Info("history reloaded", zap.Int("conversations", len(loaded)))
	return nil
}

// mutate applies fn under the lock and persists.
func (e *Engine) mutate(ctx context.Context, fn func(State) State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = fn(e.state)
	e.persistLocked(ctx)
}

func (e *Engine) persistLocked(ctx context.Context) {
	if e.store == nil {
		return
	}
	if _, err := e.store.Save(ctx, e.state.Conversations); err != nil {
		e.logger.Error("history save failed", zap.Error(err))
	}
}
