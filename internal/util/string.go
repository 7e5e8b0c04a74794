// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// RUNE-AWARE TRUNCATION
// =============================================================================

// HeadRunes returns at most n leading runes of s, never splitting a
// multi-byte character. No ellipsis is added.
func HeadRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// TruncateRunes shortens s to maxRunes characters, replacing the tail
// with "..." when something was cut.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if RuneLen(s) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return HeadRunes(s, maxRunes)
	}
	return HeadRunes(s, maxRunes-3) + "..."
}

// RuneLen returns the number of characters in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// =============================================================================
// DISPLAY WIDTH
// =============================================================================

// TruncateWidth shortens s to fit maxWidth terminal cells. Wide characters
// (CJK, most emoji) count as two cells.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadWidth right-pads s with spaces to exactly width cells, truncating
// first when it is wider.
func PadWidth(s string, width int) string {
	s = TruncateWidth(s, width)
	return runewidth.FillRight(s, width)
}

// StringWidth returns the number of terminal cells s occupies.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// =============================================================================
// INPUT NORMALIZATION
// =============================================================================

// NormalizeInput prepares typed or piped text for sending: NFC
// normalization, control characters other than newline and tab removed,
// and surrounding whitespace trimmed. A blank result means there is
// nothing to send.
func NormalizeInput(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// SingleLine collapses newlines so s fits on one row of a list.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}
