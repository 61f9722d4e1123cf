// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package textbuf

import (
	"testing"
)

// =============================================================================
// LINE BOUNDARY TESTS
// =============================================================================

func TestLineStart(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		want   int
	}{
		{"empty text", "", 0, 0},
		{"single line middle", "hello", 3, 0},
		{"single line end", "hello", 5, 0},
		{"second line", "ab\ncd", 4, 3},
		{"cursor on newline", "ab\ncd", 2, 0},
		{"cursor just after newline", "ab\ncd", 3, 3},
		{"negative cursor clamps", "hello", -5, 0},
		{"cursor past end clamps", "ab\ncd", 99, 3},
		{"blank line", "ab\n\ncd", 3, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LineStart(tc.text, tc.cursor); got != tc.want {
				t.Errorf("LineStart(%q, %d) = %d, want %d", tc.text, tc.cursor, got, tc.want)
			}
		})
	}
}

func TestLineEnd(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		want   int
	}{
		{"empty text", "", 0, 0},
		{"single line", "hello", 2, 5},
		{"first line of two", "ab\ncd", 1, 2},
		{"second line of two", "ab\ncd", 4, 5},
		{"cursor on newline", "ab\ncd", 2, 2},
		{"negative cursor clamps", "hello", -1, 5},
		{"cursor past end clamps", "hello", 99, 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LineEnd(tc.text, tc.cursor); got != tc.want {
				t.Errorf("LineEnd(%q, %d) = %d, want %d", tc.text, tc.cursor, got, tc.want)
			}
		})
	}
}

// =============================================================================
// WORD BOUNDARY TESTS
// =============================================================================

func TestPreviousWordBoundary(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		want   int
	}{
		{"empty text", "", 0, 0},
		{"at start", "hello", 0, 0},
		{"mid word", "hello world", 8, 6},
		{"after trailing space", "hello ", 6, 0},
		{"several spaces cross to prior word", "a   b", 4, 0},
		{"cursor at end of word run", "foo bar", 7, 4},
		{"newline is whitespace", "foo\nbar", 4, 0},
		{"clamps past end", "foo bar", 99, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PreviousWordBoundary(tc.text, tc.cursor); got != tc.want {
				t.Errorf("PreviousWordBoundary(%q, %d) = %d, want %d", tc.text, tc.cursor, got, tc.want)
			}
		})
	}
}

func TestNextWordBoundary(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		want   int
	}{
		{"empty text", "", 0, 0},
		{"at end", "hello", 5, 5},
		{"mid word skips word then space", "hello world", 2, 6},
		{"on space skips to next word", "a  bc", 1, 3},
		{"last word", "foo bar", 5, 7},
		{"negative clamps", "foo", -3, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextWordBoundary(tc.text, tc.cursor); got != tc.want {
				t.Errorf("NextWordBoundary(%q, %d) = %d, want %d", tc.text, tc.cursor, got, tc.want)
			}
		})
	}
}

// =============================================================================
// EDITING PRIMITIVE TESTS
// =============================================================================

func TestInsertText(t *testing.T) {
	text, cursor := InsertText("abcd", 2, "XY")
	if text != "abXYcd" || cursor != 4 {
		t.Errorf("InsertText = (%q, %d), want (%q, 4)", text, cursor, "abXYcd")
	}

	// Empty insertion is a no-op apart from clamping.
	text, cursor = InsertText("ab", 99, "")
	if text != "ab" || cursor != 2 {
		t.Errorf("InsertText empty = (%q, %d), want (%q, 2)", text, cursor, "ab")
	}

	// Multi-byte runes are single offsets.
	text, cursor = InsertText("héllo", 2, "x")
	if text != "héxllo" || cursor != 3 {
		t.Errorf("InsertText unicode = (%q, %d), want (%q, 3)", text, cursor, "héxllo")
	}
}

func TestDeleteRange(t *testing.T) {
	text, cursor := DeleteRange("abcdef", 1, 4)
	if text != "aef" || cursor != 1 {
		t.Errorf("DeleteRange = (%q, %d), want (%q, 1)", text, cursor, "aef")
	}

	// Reversed bounds are normalized.
	text, cursor = DeleteRange("abcdef", 4, 1)
	if text != "aef" || cursor != 1 {
		t.Errorf("DeleteRange reversed = (%q, %d), want (%q, 1)", text, cursor, "aef")
	}

	// Out-of-range bounds clamp rather than panic.
	text, cursor = DeleteRange("ab", -5, 99)
	if text != "" || cursor != 0 {
		t.Errorf("DeleteRange clamped = (%q, %d), want (\"\", 0)", text, cursor)
	}
}

// =============================================================================
// RENDER MAPPING TESTS
// =============================================================================

func TestExpandTabs(t *testing.T) {
	if got := ExpandTabs("a\tb", 4); got != "a    b" {
		t.Errorf("ExpandTabs = %q, want %q", got, "a    b")
	}
	if got := ExpandTabs("a\tb", 2); got != "a  b" {
		t.Errorf("ExpandTabs width 2 = %q, want %q", got, "a  b")
	}
	// Non-positive width falls back to the default.
	if got := ExpandTabs("\t", 0); got != "    " {
		t.Errorf("ExpandTabs width 0 = %q, want 4 spaces", got)
	}
	if got := ExpandTabs("no tabs", 4); got != "no tabs" {
		t.Errorf("ExpandTabs passthrough = %q", got)
	}
}

func TestRenderColumn(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		want   int
	}{
		{"no tabs", "hello", 3, 3},
		{"tab before cursor", "a\tb", 2, 5},
		{"two tabs", "\t\tx", 2, 8},
		{"cursor before tab", "a\tb", 1, 1},
		{"clamped cursor", "a\tb", 99, 6},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenderColumn(tc.text, tc.cursor, 4); got != tc.want {
				t.Errorf("RenderColumn(%q, %d) = %d, want %d", tc.text, tc.cursor, got, tc.want)
			}
		})
	}
}

func TestVisualWidth(t *testing.T) {
	if got := VisualWidth("ab"); got != 2 {
		t.Errorf("VisualWidth ascii = %d, want 2", got)
	}
	if got := VisualWidth("a\t"); got != 5 {
		t.Errorf("VisualWidth tab = %d, want 5", got)
	}
	// CJK runes occupy two cells.
	if got := VisualWidth("日本"); got != 4 {
		t.Errorf("VisualWidth wide = %d, want 4", got)
	}
}
