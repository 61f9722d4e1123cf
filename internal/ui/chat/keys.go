// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sonderhq/sonder-tui/internal/keymap"
)

// =============================================================================
// KEY TRANSLATION
// =============================================================================

// toKeyEvent normalizes a Bubble Tea key message into the dispatcher's
// event shape. Sequence carries the raw form where the dispatcher needs
// it: "\r" for a bare return, "\n" for ctrl+j, the text itself for runes
// and bracketed paste.
func toKeyEvent(msg tea.KeyMsg) keymap.KeyEvent {
	ev := keymap.KeyEvent{Option: msg.Alt, Paste: msg.Paste}

	switch msg.Type {
	case tea.KeyRunes:
		s := string(msg.Runes)
		ev.Name = s
		ev.Sequence = s
		// The terminal reports shifted letters only by case.
		if !msg.Paste && len(msg.Runes) == 1 && unicode.IsUpper(msg.Runes[0]) {
			ev.Shift = true
		}
	case tea.KeySpace:
		ev.Name = " "
		ev.Sequence = " "
	case tea.KeyEnter:
		ev.Name = "return"
		ev.Sequence = "\r"
	case tea.KeyTab:
		ev.Name = "tab"
		ev.Sequence = "\t"
	case tea.KeyShiftTab:
		ev.Name = "tab"
		ev.Shift = true
	case tea.KeyBackspace:
		ev.Name = "backspace"
	case tea.KeyDelete:
		ev.Name = "delete"
	case tea.KeyUp:
		ev.Name = "up"
	case tea.KeyDown:
		ev.Name = "down"
	case tea.KeyLeft:
		ev.Name = "left"
	case tea.KeyRight:
		ev.Name = "right"
	case tea.KeyHome:
		ev.Name = "home"
	case tea.KeyEnd:
		ev.Name = "end"
	case tea.KeyCtrlA:
		ev.Name = "a"
		ev.Ctrl = true
	case tea.KeyCtrlE:
		ev.Name = "e"
		ev.Ctrl = true
	case tea.KeyCtrlJ:
		ev.Name = "j"
		ev.Ctrl = true
		ev.Sequence = "\n"
	case tea.KeyCtrlK:
		ev.Name = "k"
		ev.Ctrl = true
	case tea.KeyCtrlU:
		ev.Name = "u"
		ev.Ctrl = true
	case tea.KeyCtrlW:
		ev.Name = "w"
		ev.Ctrl = true
	case tea.KeyEscape:
		ev.Name = "escape"
		ev.Sequence = "\x1b"
	}

	return ev
}
