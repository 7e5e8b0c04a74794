// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the domainchat TUI.
//
// All colors use Lip Gloss AdaptiveColor so they follow the terminal's
// light or dark background. Each chat domain has its own accent color,
// used for its tab and for the model bubbles of its conversations.
package styles
