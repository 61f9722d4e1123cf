// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package keymap turns raw key events into edits against the multi-line
// input buffer. Dispatch owns the precedence rules for overlapping
// chords (submit vs. newline vs. UI intercept) so no key ever
// double-fires, and it never fails: unmatched or malformed events
// produce no state change.
package keymap

import (
	"unicode/utf8"

	"github.com/sonderhq/sonder-tui/internal/textbuf"
)

// =============================================================================
// TYPES
// =============================================================================

// KeyEvent is one captured keystroke, normalized by the terminal layer.
// Name carries the decoded key ("return", "backspace", "left", or the
// character itself); Sequence carries the raw bytes, which Dispatch needs
// to tell a bare carriage return from an escape-prefixed one.
type KeyEvent struct {
	Name     string
	Sequence string
	Ctrl     bool
	Shift    bool
	Meta     bool
	Option   bool

	// Paste marks a bracketed-paste block. Sequence holds the whole
	// block and is inserted atomically, bypassing per-key dispatch.
	Paste bool
}

// InputValue is the live buffer state. Cursor is a rune offset into Text
// and is clamped into [0, len] by every operation that stores it.
type InputValue struct {
	Text           string
	Cursor         int
	LastEditWasNav bool
}

// Action reports what a dispatched key did to the buffer.
type Action int

const (
	// ActionNone means the event matched nothing, or matched but
	// changed nothing (backspace at offset 0, arrow at an edge).
	ActionNone Action = iota
	// ActionChanged means text or cursor changed.
	ActionChanged
	// ActionSubmit means the buffer should be submitted as-is. The
	// dispatcher does not clear the buffer; the Controller does, once
	// the submission is accepted.
	ActionSubmit
)

// Intercept lets the surrounding UI steal a key before editing semantics
// apply (mode cycling, model cycling, menu navigation). Returning true
// consumes the event.
type Intercept func(KeyEvent) bool

// Focusable is the handle an overlay hands back when it closes and the
// editor should receive keys again. *Controller satisfies it; the chat
// view currently owns the only controller and refocuses through Reset,
// so the interface is the seam for future overlay components.
type Focusable interface {
	Focus()
}

// =============================================================================
// KEY CLASSIFICATION
// =============================================================================

const esc = 0x1b

func (k KeyEvent) isEnter() bool {
	return k.Name == "return" || k.Name == "enter"
}

// altLike detects the option modifier either as a flag or as the
// ESC-prefixed two-byte form some terminals send, excluding CSI cursor
// sequences (ESC '[').
func (k KeyEvent) altLike() bool {
	if k.Option {
		return true
	}
	return len(k.Sequence) == 2 && k.Sequence[0] == esc && k.Sequence[1] != '['
}

func (k KeyEvent) hasEscapePrefix() bool {
	return len(k.Sequence) > 0 && k.Sequence[0] == esc
}

// controlChar matches the character class that is never inserted as
// text. Tab, newline, and carriage return are excluded; they are handled
// as named keys before insertion is considered.
func controlChar(r rune) bool {
	switch {
	case r <= 0x08:
		return true
	case r == 0x0b || r == 0x0c:
		return true
	case r >= 0x0e && r <= 0x1f:
		return true
	case r == 0x7f:
		return true
	}
	return false
}

// =============================================================================
// DISPATCH
// =============================================================================

// Dispatch maps one key event to exactly one editing command against val
// and returns the next buffer state. Precedence, first match wins:
// intercept hook, newline chords, plain submit, line/word deletion,
// backspace/delete, navigation, tab, printable insert. Anything else is
// a no-op.
func Dispatch(ev KeyEvent, val InputValue, intercept Intercept) (InputValue, Action) {
	val.Cursor = clampCursor(val.Text, val.Cursor)

	if intercept != nil && intercept(ev) {
		return val, ActionNone
	}

	if ev.Paste {
		if ev.Sequence == "" {
			return val, ActionNone
		}
		text, cursor := textbuf.InsertText(val.Text, val.Cursor, ev.Sequence)
		return InputValue{Text: text, Cursor: cursor}, ActionChanged
	}

	runes := []rune(val.Text)
	backslashBefore := val.Cursor > 0 && runes[val.Cursor-1] == '\\'

	isShiftEnter := ev.isEnter() && (ev.Shift || ev.Sequence == "\n")
	isOptionEnter := ev.isEnter() && (ev.altLike() || ev.hasEscapePrefix())
	isCtrlJ := ev.Ctrl && !ev.Meta && !ev.Option && (ev.Name == "j" || ev.isEnter())
	isBackslashEnter := ev.isEnter() && backslashBefore

	if isShiftEnter || isOptionEnter || isCtrlJ || isBackslashEnter {
		if isBackslashEnter {
			// The backslash is replaced by the newline, not kept
			// before it, so the edit is net-zero in length.
			text := string(runes[:val.Cursor-1]) + "\n" + string(runes[val.Cursor:])
			return InputValue{Text: text, Cursor: val.Cursor}, ActionChanged
		}
		text, cursor := textbuf.InsertText(val.Text, val.Cursor, "\n")
		return InputValue{Text: text, Cursor: cursor}, ActionChanged
	}

	isPlainEnter := ev.isEnter() &&
		!ev.Shift && !ev.Ctrl && !ev.Meta && !ev.Option &&
		!ev.altLike() && !ev.hasEscapePrefix() &&
		ev.Sequence == "\r" && !backslashBefore
	if isPlainEnter {
		return val, ActionSubmit
	}

	lineStart := textbuf.LineStart(val.Text, val.Cursor)
	lineEnd := textbuf.LineEnd(val.Text, val.Cursor)
	wordStart := textbuf.PreviousWordBoundary(val.Text, val.Cursor)
	wordEnd := textbuf.NextWordBoundary(val.Text, val.Cursor)

	// Ctrl+U: delete to line start. At the first column the chord falls
	// back to a single backspace so it is never a dead key on a
	// non-empty buffer.
	if ev.Ctrl && !ev.Meta && !ev.Option && ev.Name == "u" {
		switch {
		case val.Cursor > lineStart:
			text, cursor := textbuf.DeleteRange(val.Text, lineStart, val.Cursor)
			return InputValue{Text: text, Cursor: cursor}, ActionChanged
		case val.Cursor > 0:
			text, cursor := textbuf.DeleteRange(val.Text, val.Cursor-1, val.Cursor)
			return InputValue{Text: text, Cursor: cursor}, ActionChanged
		}
		return val, ActionNone
	}

	// Alt+Backspace or Ctrl+W: delete word backward.
	if (ev.Name == "backspace" && ev.altLike()) || (ev.Ctrl && ev.Name == "w") {
		if wordStart == val.Cursor {
			return val, ActionNone
		}
		text, cursor := textbuf.DeleteRange(val.Text, wordStart, val.Cursor)
		return InputValue{Text: text, Cursor: cursor}, ActionChanged
	}

	// Ctrl+K: delete to line end.
	if ev.Ctrl && !ev.Meta && !ev.Option && ev.Name == "k" {
		if lineEnd == val.Cursor {
			return InputValue{Text: val.Text, Cursor: val.Cursor, LastEditWasNav: true}, ActionNone
		}
		text, cursor := textbuf.DeleteRange(val.Text, val.Cursor, lineEnd)
		return InputValue{Text: text, Cursor: cursor, LastEditWasNav: true}, ActionChanged
	}

	if ev.Name == "backspace" && !ev.Ctrl && !ev.Meta && !ev.Option {
		if val.Cursor == 0 {
			return val, ActionNone
		}
		text, cursor := textbuf.DeleteRange(val.Text, val.Cursor-1, val.Cursor)
		return InputValue{Text: text, Cursor: cursor}, ActionChanged
	}

	if ev.Name == "delete" && !ev.Ctrl && !ev.Meta && !ev.Option {
		if val.Cursor >= len(runes) {
			return val, ActionNone
		}
		text, cursor := textbuf.DeleteRange(val.Text, val.Cursor, val.Cursor+1)
		return InputValue{Text: text, Cursor: cursor}, ActionChanged
	}

	// Word jumps.
	if ev.altLike() && ev.Name == "left" {
		return moveTo(val, wordStart)
	}
	if ev.altLike() && ev.Name == "right" {
		return moveTo(val, wordEnd)
	}

	// Line start: Cmd+Left, Ctrl+A, or Home.
	if (ev.Meta && ev.Name == "left" && !ev.altLike()) ||
		(ev.Ctrl && !ev.Meta && !ev.Option && ev.Name == "a") ||
		(ev.Name == "home" && !ev.Ctrl && !ev.Meta) {
		return moveTo(val, lineStart)
	}

	// Line end: Cmd+Right, Ctrl+E, or End.
	if (ev.Meta && ev.Name == "right" && !ev.altLike()) ||
		(ev.Ctrl && !ev.Meta && !ev.Option && ev.Name == "e") ||
		(ev.Name == "end" && !ev.Ctrl && !ev.Meta) {
		return moveTo(val, lineEnd)
	}

	// Document jumps.
	if ev.Meta && ev.Name == "up" {
		return moveTo(val, 0)
	}
	if ev.Meta && ev.Name == "down" {
		return moveTo(val, len(runes))
	}

	if !ev.Ctrl && !ev.Meta && !ev.Option {
		switch ev.Name {
		case "left":
			return moveTo(val, val.Cursor-1)
		case "right":
			return moveTo(val, val.Cursor+1)
		case "up":
			// Vertical movement is simplified to whole-buffer jumps
			// rather than row-relative motion.
			return moveTo(val, 0)
		case "down":
			return moveTo(val, len(runes))
		}
	}

	// Tab inserts a fixed run of spaces, never a literal tab.
	if ev.Name == "tab" && ev.Sequence != "" &&
		!ev.Shift && !ev.Ctrl && !ev.Meta && !ev.Option {
		text, cursor := textbuf.InsertText(val.Text, val.Cursor, "  ")
		return InputValue{Text: text, Cursor: cursor}, ActionChanged
	}

	// Printable character.
	if ev.Sequence != "" && utf8.RuneCountInString(ev.Sequence) == 1 &&
		!ev.Ctrl && !ev.Meta && !ev.Option {
		r, _ := utf8.DecodeRuneInString(ev.Sequence)
		if r != utf8.RuneError && !controlChar(r) {
			text, cursor := textbuf.InsertText(val.Text, val.Cursor, ev.Sequence)
			return InputValue{Text: text, Cursor: cursor}, ActionChanged
		}
	}

	return val, ActionNone
}

func moveTo(val InputValue, pos int) (InputValue, Action) {
	next := clampCursor(val.Text, pos)
	if next == val.Cursor {
		return val, ActionNone
	}
	return InputValue{Text: val.Text, Cursor: next}, ActionChanged
}

func clampCursor(text string, cursor int) int {
	n := utf8.RuneCountInString(text)
	if cursor < 0 {
		return 0
	}
	if cursor > n {
		return n
	}
	return cursor
}
