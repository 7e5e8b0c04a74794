// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/logging"
	"github.com/jeranaias/domainchat/internal/model"
)

// HistoryKey is the fixed name the conversation snapshot is stored under.
const HistoryKey = "chatHistory"

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore mirrors the conversation list to a Backend as one snapshot.
type HistoryStore struct {
	backend Backend
	key     string
	logger  *zap.Logger

	mu        sync.Mutex
	lastSaved [sha256.Size]byte
	hasSaved  bool
}

// NewHistoryStore wraps backend. A nil logger disables logging.
func NewHistoryStore(backend Backend, logger *zap.Logger) *HistoryStore {
	return &HistoryStore{
		backend: backend,
		key:     HistoryKey,
		logger:  logging.OrNop(logger),
	}
}

// Backend returns the underlying backend.
func (s *HistoryStore) Backend() Backend {
	return s.backend
}

// Load reads the snapshot. It never fails hard: on absence or corruption it
// returns an empty list together with the cause, and the caller seeds a
// default conversation.
func (s *HistoryStore) Load(ctx context.Context) ([]model.Conversation, error) {
	data, err := s.backend.Read(ctx, s.key)
	if err != nil {
		return []model.Conversation{}, err
	}

	convs, err := Decode(data)
	if err != nil {
		return []model.Conversation{}, fmt.Errorf("parse %s snapshot: %w", s.key, err)
	}

	s.mu.Lock()
	s.lastSaved = sha256.Sum256(data)
	s.hasSaved = true
	s.mu.Unlock()

	clean := sanitize(convs, s.logger)
	s.logger.Debug("history loaded",
		zap.Int("conversations", len(clean)),
		zap.Int("dropped", len(convs)-len(clean)))
	return clean, nil
}

// Save writes the full list. An empty list is not written, so a cleared
// or failed session cannot wipe an existing snapshot. The returned bool
// reports whether anything was written.
func (s *HistoryStore) Save(ctx context.Context, convs []model.Conversation) (bool, error) {
	if len(convs) == 0 {
		return false, nil
	}

	data, err := Encode(convs)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Write(ctx, s.key, data); err != nil {
		return false, fmt.Errorf("save %s snapshot: %w", s.key, err)
	}
	s.lastSaved = sha256.Sum256(data)
	s.hasSaved = true
	return true, nil
}

// IsOwnSnapshot reports whether data is byte-identical to what this store
// last read or wrote. The watcher uses it to ignore its own writes.
func (s *HistoryStore) IsOwnSnapshot(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasSaved && sha256.Sum256(data) == s.lastSaved
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

// Encode serializes conversations as a JSON array of
// {id, domain, messages[{role, content}], timestamp}.
func Encode(convs []model.Conversation) ([]byte, error) {
	if convs == nil {
		convs = []model.Conversation{}
	}
	data, err := json.Marshal(convs)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot produced by Encode or by an older client.
func Decode(data []byte) ([]model.Conversation, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []model.Conversation{}, nil
	}
	var convs []model.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// sanitize drops records that would break conversation invariants and
// flags greetings in records written before greetings carried a flag.
func sanitize(convs []model.Conversation, logger *zap.Logger) []model.Conversation {
	out := make([]model.Conversation, 0, len(convs))
	seen := make(map[string]bool, len(convs))
	for _, c := range convs {
		switch {
		case c.ID == "":
			logger.Warn("dropping conversation without id")
			continue
		case seen[c.ID]:
			logger.Warn("dropping duplicate conversation", zap.String("id", c.ID))
			continue
		case len(c.Messages) == 0:
			logger.Warn("dropping conversation without messages", zap.String("id", c.ID))
			continue
		case !domain.Valid(c.Domain):
			logger.Warn("dropping conversation with unknown domain",
				zap.String("id", c.ID), zap.String("domain", string(c.Domain)))
			continue
		}
		seen[c.ID] = true
		if !hasFlaggedGreeting(c) {
			c.MarkLegacyGreetings()
		}
		out = append(out, c)
	}
	return out
}

func hasFlaggedGreeting(c model.Conversation) bool {
	for _, m := range c.Messages {
		if m.Greeting {
			return true
		}
	}
	return false
}
