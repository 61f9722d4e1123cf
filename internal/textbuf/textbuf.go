// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package textbuf provides pure text-buffer functions for the multi-line
// input editor: line and word boundary search, tab expansion, and
// render-column mapping.
//
// All functions operate on (text, cursor) pairs where cursor is a rune
// offset into text. Every function accepts any cursor value and clamps it
// into [0, len] first; there are no error returns and no panics. None of
// the functions mutate their input.
package textbuf

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// TabWidth is the number of columns a tab character occupies when rendered.
const TabWidth = 4

// =============================================================================
// BOUNDARY SEARCH
// =============================================================================

// LineStart returns the rune offset of the start of the line containing
// cursor: the position just after the nearest '\n' before cursor, or 0.
func LineStart(text string, cursor int) int {
	runes := []rune(text)
	pos := clamp(cursor, 0, len(runes))
	for pos > 0 && runes[pos-1] != '\n' {
		pos--
	}
	return pos
}

// LineEnd returns the rune offset of the end of the line containing cursor:
// the position of the next '\n' at or after cursor, or len(text).
func LineEnd(text string, cursor int) int {
	runes := []rune(text)
	pos := clamp(cursor, 0, len(runes))
	for pos < len(runes) && runes[pos] != '\n' {
		pos++
	}
	return pos
}

// PreviousWordBoundary returns the offset of the start of the word before
// cursor. Whitespace behind the cursor is skipped first, then the word
// itself. At offset 0 (or on empty text) the cursor is returned unchanged.
func PreviousWordBoundary(text string, cursor int) int {
	runes := []rune(text)
	pos := clamp(cursor, 0, len(runes))
	for pos > 0 && unicode.IsSpace(runes[pos-1]) {
		pos--
	}
	for pos > 0 && !unicode.IsSpace(runes[pos-1]) {
		pos--
	}
	return pos
}

// NextWordBoundary returns the offset just past the word at cursor. The
// current word is skipped first, then any whitespace after it, landing on
// the start of the following word (or len(text)).
func NextWordBoundary(text string, cursor int) int {
	runes := []rune(text)
	pos := clamp(cursor, 0, len(runes))
	for pos < len(runes) && !unicode.IsSpace(runes[pos]) {
		pos++
	}
	for pos < len(runes) && unicode.IsSpace(runes[pos]) {
		pos++
	}
	return pos
}

// =============================================================================
// EDITING PRIMITIVES
// =============================================================================

// InsertText inserts insertion at cursor and returns the new text along
// with the cursor placed after the inserted run.
func InsertText(text string, cursor int, insertion string) (string, int) {
	if insertion == "" {
		return text, clamp(cursor, 0, len([]rune(text)))
	}
	runes := []rune(text)
	pos := clamp(cursor, 0, len(runes))
	var b strings.Builder
	b.WriteString(string(runes[:pos]))
	b.WriteString(insertion)
	b.WriteString(string(runes[pos:]))
	return b.String(), pos + len([]rune(insertion))
}

// DeleteRange removes the runes in [start, end) and returns the new text
// with the cursor at start. Reversed or out-of-range bounds are normalized.
func DeleteRange(text string, start, end int) (string, int) {
	runes := []rune(text)
	start = clamp(start, 0, len(runes))
	end = clamp(end, 0, len(runes))
	if end < start {
		start, end = end, start
	}
	return string(runes[:start]) + string(runes[end:]), start
}

// =============================================================================
// RENDER MAPPING
// =============================================================================

// ExpandTabs replaces every tab with tabWidth spaces. Rendering only; the
// stored buffer keeps its tabs. A non-positive tabWidth falls back to
// TabWidth.
func ExpandTabs(text string, tabWidth int) string {
	if tabWidth <= 0 {
		tabWidth = TabWidth
	}
	return strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))
}

// RenderColumn returns the visual column of the cursor: each tab before it
// counts tabWidth columns, every other rune counts one.
func RenderColumn(text string, cursor int, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = TabWidth
	}
	runes := []rune(text)
	pos := clamp(cursor, 0, len(runes))
	col := 0
	for i := 0; i < pos; i++ {
		if runes[i] == '\t' {
			col += tabWidth
		} else {
			col++
		}
	}
	return col
}

// VisualWidth returns the number of terminal cells text occupies once tabs
// are expanded, accounting for East Asian wide and zero-width runes. Used
// by the presentation layer to place the cursor glyph; semantic editing
// uses RenderColumn.
func VisualWidth(text string) int {
	return runewidth.StringWidth(ExpandTabs(text, TabWidth))
}

// =============================================================================
// HELPERS
// =============================================================================

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
