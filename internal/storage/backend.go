// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/domainchat/internal/util"
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is a tiny key/value store holding whole snapshots.
type Backend interface {
	// Read returns the bytes stored under key, or ErrSnapshotNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces the bytes stored under key.
	Write(ctx context.Context, key string, data []byte) error
	Close() error
}

// ErrSnapshotNotFound is returned when nothing has been stored under a key.
// Use errors.Is(err, ErrSnapshotNotFound) to check for it.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each key as <Dir>/<key>.json.
type FileBackend struct {
	Dir string
}

// NewFileBackend creates the directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return &FileBackend{Dir: dir}, nil
}

// Path returns the file that backs key.
func (b *FileBackend) Path(key string) string {
	return filepath.Join(b.Dir, sanitizeKey(key)+".json")
}

func (b *FileBackend) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *FileBackend) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return util.AtomicWriteFile(b.Path(key), data, 0o600)
}

func (b *FileBackend) Close() error { return nil }

// sanitizeKey keeps keys from escaping the backend directory.
func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, key)
	if key == "" || key == "." || key == ".." {
		return "_"
	}
	return key
}
