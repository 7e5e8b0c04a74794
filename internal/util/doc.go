// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the storage, session and
// UI packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe snapshot writes (temp file, fsync, rename)
//   - HeadRunes, TruncateRunes: UTF-8 safe truncation
//   - TruncateWidth, PadWidth: cell-width aware truncation via go-runewidth
//   - NormalizeInput: NFC normalization and trimming of user input
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0o600)
//	label := util.TruncateWidth(preview, 24)
//	text := util.NormalizeInput(raw)
package util
