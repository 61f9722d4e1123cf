// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sonderhq/sonder-tui/internal/commands"
	"github.com/sonderhq/sonder-tui/internal/config"
	"github.com/sonderhq/sonder-tui/internal/model"
)

// =============================================================================
// SLASH COMMAND EXECUTION
// =============================================================================

// executeCommand runs a slash command. Command output always lands in the
// transcript as a system message so it scrolls with the conversation.
func (m Model) executeCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return m, nil
	}

	cmd, ok := commands.Resolve(fields[0])
	if !ok {
		m.announce("Unknown command: " + fields[0])
		return m, nil
	}

	switch cmd.Name {
	case "/exit":
		m.eng.Cancel()
		m.quitting = true
		return m, tea.Quit

	case "/clear":
		m.eng.Cancel()
		m.store.Reset()
		m.plans.Clear()
		m.shortcut = ""
		m.flavorWord = ""
		m.refreshViewport()
		return m, nil

	case "/context":
		m.announce(fmt.Sprintf("Context: %d messages, ~%d tokens.",
			m.store.MessageCount(), m.store.EstimateTokens()))
		return m, nil

	case "/config":
		path, err := config.ConfigPath()
		if err != nil {
			m.announce("Config path unavailable: " + err.Error())
			return m, nil
		}
		m.announce("Config file: " + path)
		return m, nil

	case "/doctor":
		m.announce(m.doctorReport())
		return m, nil

	case "/school":
		m.announce(shortcutHelp)
		return m, nil

	default:
		m.announce(cmd.Name + " is not available yet.")
		return m, nil
	}
}

// announce appends a system message and refreshes the transcript.
func (m *Model) announce(content string) {
	m.store.AddMessage(model.NewSystemMessage(content))
	m.refreshViewport()
}

// doctorReport summarizes the live session state.
func (m Model) doctorReport() string {
	spec := m.CurrentModel()
	var b strings.Builder
	fmt.Fprintf(&b, "Model: %s (%s)\n", spec.Name, spec.ID)
	fmt.Fprintf(&b, "Mode: %s\n", m.CurrentMode())
	fmt.Fprintf(&b, "Messages: %d\n", m.store.MessageCount())
	fmt.Fprintf(&b, "Plan items: %d", m.plans.Len())
	if m.eng.Busy() {
		b.WriteString("\nA turn is currently streaming.")
	}
	return b.String()
}

const shortcutHelp = `Keyboard shortcuts:
  enter         send message
  \ + enter     insert newline (also ctrl+j, alt+enter)
  tab           recall suggested follow-up (empty buffer)
  shift+tab     cycle model
  shift+m       cycle mode (empty buffer)
  ctrl+u        delete to line start
  ctrl+k        delete to line end
  ctrl+w        delete word backward
  ctrl+g        rate the last answer (good/great/bad)
  esc           interrupt streaming / close panel
  ctrl+c        quit`
