// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sonderhq/sonder-tui/internal/commands"
	"github.com/sonderhq/sonder-tui/internal/engine"
	"github.com/sonderhq/sonder-tui/internal/keymap"
	"github.com/sonderhq/sonder-tui/internal/model"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages: terminal events, spinner ticks,
// and engine events forwarded through the sink.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case engine.TurnStarted:
		m.flavorWord = ""
		m.refreshViewport()
		return m, nil

	case engine.TurnFinished:
		m.flavorWord = ""
		m.refreshViewport()
		return m, nil

	case engine.MessagesChanged, engine.ToolCallsChanged:
		m.refreshViewport()
		return m, nil

	case engine.PlanChanged:
		// The plan checklist renders straight from the store.
		return m, nil

	case engine.FlavorWordReady:
		m.flavorWord = msg.Word
		return m, nil

	case engine.SmartShortcutReady:
		m.shortcut = msg.Text
		return m, nil
	}

	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.eng.Cancel()
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEscape:
		if m.showPanel {
			m.closePanel()
			return m, nil
		}
		if m.eng.Busy() {
			m.eng.Cancel()
		}
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyCtrlG:
		m.cycleFeedback()
		return m, nil
	}

	// Command panel navigation swallows up/down/enter while visible.
	if m.showPanel {
		switch msg.Type {
		case tea.KeyUp:
			if m.panelIdx > 0 {
				m.panelIdx--
			}
			return m, nil
		case tea.KeyDown:
			if m.panelIdx < len(m.matches)-1 {
				m.panelIdx++
			}
			return m, nil
		case tea.KeyEnter:
			if len(m.matches) > 0 {
				cmd := m.matches[m.panelIdx]
				m.input.Reset()
				m.closePanel()
				return m.executeCommand(cmd.Name)
			}
			return m, nil
		}
	}

	ev := toKeyEvent(msg)
	action := m.input.HandleKey(ev, m.intercept())

	switch action {
	case keymap.ActionSubmit:
		text, ok := m.input.Submit(m.eng.Busy())
		if !ok {
			return m, nil
		}
		m.closePanel()
		if commands.IsCommandInput(text) {
			return m.executeCommand(text)
		}
		m.shortcut = ""
		m.eng.Submit(text)
		return m, nil

	case keymap.ActionChanged:
		m.syncPanel()
	}

	return m, nil
}

// intercept builds the hook that steals keys from the editor: model
// cycling, mode cycling, and smart shortcut recall. Cycling chords only
// fire on an empty buffer so typed text is never eaten.
func (m *Model) intercept() keymap.Intercept {
	return func(ev keymap.KeyEvent) bool {
		bufferEmpty := strings.TrimSpace(m.input.Value().Text) == ""

		// Shift+Tab cycles the model rotation.
		if ev.Shift && ev.Name == "tab" {
			m.modelIdx = (m.modelIdx + 1) % len(model.Models)
			m.eng.SetModel(model.Models[m.modelIdx].ID)
			return true
		}

		// Shift+M cycles the operating mode.
		if ev.Shift && ev.Name == "M" && bufferEmpty {
			m.modeIdx = (m.modeIdx + 1) % len(model.Modes)
			return true
		}

		// Tab on an empty buffer recalls the suggested follow-up.
		if ev.Name == "tab" && !ev.Shift && bufferEmpty && m.shortcut != "" {
			m.input.ApplyEdit(keymap.InputValue{
				Text:   m.shortcut,
				Cursor: utf8.RuneCountInString(m.shortcut),
			})
			return true
		}

		return false
	}
}

// =============================================================================
// COMMAND PANEL STATE
// =============================================================================

// syncPanel opens, updates, or closes the slash command panel to follow
// the current buffer contents.
func (m *Model) syncPanel() {
	text := m.input.Value().Text
	if !commands.IsCommandInput(text) || strings.ContainsRune(text, '\n') {
		m.closePanel()
		return
	}

	m.matches = commands.Match(strings.TrimSpace(text))
	m.showPanel = len(m.matches) > 0
	if m.panelIdx >= len(m.matches) {
		m.panelIdx = 0
	}
}

func (m *Model) closePanel() {
	m.showPanel = false
	m.matches = nil
	m.panelIdx = 0
}
