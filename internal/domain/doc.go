// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package domain holds the fixed set of chat topics and the persona table
// that goes with them.
//
// Both tables are built once at package init and never change. Lookups
// return copies, so callers cannot alter the shared data.
//
// # Key Types
//
//   - ID: topic identifier (cars, anime, manga, bikes)
//   - Domain: identifier, display name and icon glyph
//   - Persona: system instruction and quick-reply prompts for a domain
//
// # Usage
//
//	d, ok := domain.Lookup(domain.Anime)
//	p := domain.PersonaFor(d.ID)
//	greeting := domain.Greeting(d.ID)
package domain
