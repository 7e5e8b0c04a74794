// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/domainchat/internal/llm"
	"github.com/jeranaias/domainchat/internal/logging"
)

// =============================================================================
// UPDATES
// =============================================================================

// UpdateKind distinguishes stream updates.
type UpdateKind int

const (
	// UpdateFragment carries one piece of reply text.
	UpdateFragment UpdateKind = iota
	// UpdateDone ends a successful stream.
	UpdateDone
	// UpdateFailed ends a failed stream; Err holds the cause.
	UpdateFailed
)

// Update is one event of a streaming reply, tagged with the conversation
// captured at send time.
type Update struct {
	ConversationID string
	Kind           UpdateKind
	Fragment       string
	Err            error
}

// Terminal reports whether u ends the stream.
func (u Update) Terminal() bool {
	return u.Kind != UpdateFragment
}

// =============================================================================
// CONSUMER
// =============================================================================

// Consumer runs one provider stream at a time and reports its progress.
type Consumer struct {
	Provider llm.Provider
	Logger   *zap.Logger
}

// Run streams req and calls emit for every fragment in arrival order, then
// exactly once with a terminal update. emit is called on the calling
// goroutine. Provider panics are recovered and reported as failures.
func (c *Consumer) Run(ctx context.Context, req *SendRequest, emit func(Update)) {
	logger := logging.OrNop(c.Logger).With(
		zap.String("conversation", req.ConversationID),
		zap.String("domain", string(req.Domain)),
	)

	start := time.Now()
	fragments := 0
	err := c.stream(ctx, req, func(fragment string) error {
		if fragment == "" {
			return nil
		}
		fragments++
		emit(Update{ConversationID: req.ConversationID, Kind: UpdateFragment, Fragment: fragment})
		return nil
	})

	if err != nil {
		logger.Warn("send failed",
			zap.Error(err),
			zap.Int("fragments", fragments),
			zap.Duration("elapsed", time.Since(start)))
		emit(Update{ConversationID: req.ConversationID, Kind: UpdateFailed, Err: err})
		return
	}

	logger.Info("send complete",
		zap.Int("fragments", fragments),
		zap.Duration("elapsed", time.Since(start)))
	emit(Update{ConversationID: req.ConversationID, Kind: UpdateDone})
}

func (c *Consumer) stream(ctx context.Context, req *SendRequest, onFragment llm.FragmentFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	if c.Provider == nil {
		return fmt.Errorf("no provider configured")
	}
	return c.Provider.StreamChat(ctx, req.Request, onFragment)
}
