// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the conversation list.
//
// The whole list is stored as one JSON snapshot under the fixed key
// "chatHistory". Two backends are available: a JSON file written
// atomically, and a single-table SQLite database.
//
// # Key Types
//
//   - Backend: snapshot key/value interface (FileBackend, SQLiteBackend)
//   - HistoryStore: fail-soft Load, skip-when-empty Save
//   - Watcher: reloads when the snapshot file changes on disk
//
// # Usage
//
//	backend, _ := storage.NewFileBackend(dir)
//	store := storage.NewHistoryStore(backend, logger)
//	convs, err := store.Load(ctx) // err is informational; convs is usable
//	_, err = store.Save(ctx, convs)
package storage
