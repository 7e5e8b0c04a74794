// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// =============================================================================
// DOMAIN REGISTRY
// =============================================================================

// ID identifies a chat topic. The string form is what gets persisted.
type ID string

const (
	Cars  ID = "cars"
	Anime ID = "anime"
	Manga ID = "manga"
	Bikes ID = "bikes"
)

// Default is the topic used for cold starts and for the conversation seeded
// after the last one is deleted.
const Default = Cars

// Domain is a topic as shown in the tab bar and the history list.
type Domain struct {
	ID   ID
	Name string
	// Icon is a single glyph rendered next to the name.
	Icon string
}

var registry = []Domain{
	{ID: Cars, Name: "Cars", Icon: "🚗"},
	{ID: Anime, Name: "Anime", Icon: "🎌"},
	{ID: Manga, Name: "Manga", Icon: "📚"},
	{ID: Bikes, Name: "Bikes", Icon: "🚲"},
}

// All returns the registered domains in tab order.
func All() []Domain {
	out := make([]Domain, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the domain with the given id.
func Lookup(id ID) (Domain, bool) {
	for _, d := range registry {
		if d.ID == id {
			return d, true
		}
	}
	return Domain{}, false
}

// Valid reports whether id is a registered domain.
func Valid(id ID) bool {
	_, ok := Lookup(id)
	return ok
}

// Index returns the tab position of id, or -1.
func Index(id ID) int {
	for i, d := range registry {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Next returns the domain after id in tab order, wrapping around. A
// negative step moves backwards.
func Next(id ID, step int) ID {
	i := Index(id)
	if i < 0 {
		return Default
	}
	n := len(registry)
	return registry[((i+step)%n+n)%n].ID
}

// NameOf returns the display name for id, or fallback when id is unknown.
func NameOf(id ID, fallback string) string {
	if d, ok := Lookup(id); ok {
		return d.Name
	}
	return fallback
}

// Parse resolves user input ("anime", "Anime", "ANIME") to an ID. Display
// names and ids are both accepted.
func Parse(s string) (ID, error) {
	folder := cases.Fold()
	want := folder.String(strings.TrimSpace(s))
	for _, d := range registry {
		if folder.String(string(d.ID)) == want || folder.String(d.Name) == want {
			return d.ID, nil
		}
	}
	return "", fmt.Errorf("unknown domain %q (want one of %s)", s, strings.Join(IDs(), ", "))
}

// IDs returns the registered ids as strings, in tab order.
func IDs() []string {
	out := make([]string, 0, len(registry))
	for _, d := range registry {
		out = append(out, string(d.ID))
	}
	return out
}
