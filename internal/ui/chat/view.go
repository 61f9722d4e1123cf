// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file contains all rendering logic for the chat interface: header,
// transcript viewport, plan checklist, streaming indicator, multi-line
// input with cursor, command panel, and status bar.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sonderhq/sonder-tui/internal/plan"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the complete chat view. Fixed-height components are built
// first; the transcript viewport takes whatever height remains. Total
// height must equal m.height exactly to prevent overflow.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	status := m.renderStatusBar()
	input := m.renderInput()

	var middle []string
	if planBox := m.renderPlan(); planBox != "" {
		middle = append(middle, planBox)
	}
	if thinking := m.renderThinking(); thinking != "" {
		middle = append(middle, thinking)
	}
	if m.showPanel {
		middle = append(middle, m.renderPanel())
	}
	if hint := m.renderShortcutHint(); hint != "" {
		middle = append(middle, hint)
	}

	fixedHeight := lipgloss.Height(header) + lipgloss.Height(input) + lipgloss.Height(status)
	for _, section := range middle {
		fixedHeight += lipgloss.Height(section)
	}

	availableHeight := m.height - fixedHeight
	if availableHeight < 1 {
		availableHeight = 1
	}

	messages := m.viewport.View()
	if lipgloss.Height(messages) != availableHeight {
		messages = lipgloss.NewStyle().
			Height(availableHeight).
			MaxHeight(availableHeight).
			Width(m.width).
			Render(messages)
	}

	sections := make([]string, 0, len(middle)+4)
	sections = append(sections, header, messages)
	sections = append(sections, middle...)
	sections = append(sections, input, status)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// HEADER AND STATUS BAR
// =============================================================================

func (m Model) renderHeader() string {
	spec := m.CurrentModel()
	left := m.theme.HeaderBrand.Render("SONDER") + "  " +
		m.theme.HeaderModel.Render(spec.Name)
	right := m.theme.ModeStyle(m.CurrentMode()).Render(m.CurrentMode())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderStatusBar() string {
	hints := []string{
		m.theme.ShortcutKey.Render("enter") + m.theme.ShortcutDesc.Render(" send"),
		m.theme.ShortcutKey.Render(`\+enter`) + m.theme.ShortcutDesc.Render(" newline"),
		m.theme.ShortcutKey.Render("shift+tab") + m.theme.ShortcutDesc.Render(" model"),
		m.theme.ShortcutKey.Render("esc") + m.theme.ShortcutDesc.Render(" stop"),
		m.theme.ShortcutKey.Render("ctrl+c") + m.theme.ShortcutDesc.Render(" quit"),
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(hints, "  "))
}

// =============================================================================
// PLAN CHECKLIST
// =============================================================================

func (m Model) renderPlan() string {
	items := m.plans.Items()
	if len(items) == 0 {
		return ""
	}

	done := 0
	for _, it := range items {
		if it.Status == plan.StatusCompleted {
			done++
		}
	}

	var b strings.Builder
	b.WriteString(m.theme.PlanTitle.Render(fmt.Sprintf("Plan: %d/%d done", done, len(items))))
	for _, it := range items {
		b.WriteString("\n")
		switch it.Status {
		case plan.StatusCompleted:
			b.WriteString(m.theme.PlanDone.Render("[x] " + it.Text))
		case plan.StatusInProgress:
			b.WriteString(m.theme.PlanInProgress.Render("[~] " + it.Text))
		default:
			b.WriteString(m.theme.PlanPending.Render("[ ] " + it.Text))
		}
	}
	return m.theme.PlanBox.Render(b.String())
}

// =============================================================================
// STREAMING INDICATOR
// =============================================================================

func (m Model) renderThinking() string {
	if !m.eng.Busy() {
		return ""
	}

	word := m.flavorWord
	if word == "" {
		word = "thinking"
	}

	elapsed := time.Duration(0)
	if started := m.eng.StartedAt(); !started.IsZero() {
		elapsed = time.Since(started).Truncate(time.Second)
	}

	return m.spinner.View() + " " +
		m.theme.ThinkingText.Render(word+"...") + " " +
		m.theme.ThinkingTime.Render(fmt.Sprintf("(%s, ~%d tok)", elapsed, m.eng.TokenCount()))
}

// =============================================================================
// INPUT AREA
// =============================================================================

func (m Model) renderInput() string {
	val := m.input.Value()

	if val.Text == "" {
		body := m.theme.InputPrompt.Render("> ") +
			m.theme.InputCursor.Render(" ") +
			m.theme.InputPlaceholder.Render(" Type a message...")
		return m.theme.InputContainer.Width(m.width).Render(body)
	}

	lines := strings.Split(val.Text, "\n")
	cursorLine, cursorCol := locateCursor(lines, val.Cursor)

	rendered := make([]string, len(lines))
	for i, line := range lines {
		prefix := "  "
		if i == 0 {
			prefix = m.theme.InputPrompt.Render("> ")
		}
		if i == cursorLine {
			rendered[i] = prefix + m.renderLineWithCursor(line, cursorCol)
		} else {
			rendered[i] = prefix + m.theme.InputText.Render(line)
		}
	}

	return m.theme.InputContainer.Width(m.width).Render(strings.Join(rendered, "\n"))
}

// locateCursor maps a rune offset into the buffer to a (line, column)
// pair. The newline separating lines counts as one rune.
func locateCursor(lines []string, cursor int) (int, int) {
	remaining := cursor
	for i, line := range lines {
		n := len([]rune(line))
		if remaining <= n {
			return i, remaining
		}
		remaining -= n + 1
	}
	last := len(lines) - 1
	return last, len([]rune(lines[last]))
}

// renderLineWithCursor renders one line with a block cursor at col. A
// cursor past the last character renders as a highlighted space.
func (m Model) renderLineWithCursor(line string, col int) string {
	runes := []rune(line)
	if col >= len(runes) {
		return m.theme.InputText.Render(line) + m.theme.InputCursor.Render(" ")
	}
	before := string(runes[:col])
	under := string(runes[col])
	after := string(runes[col+1:])
	return m.theme.InputText.Render(before) +
		m.theme.InputCursor.Render(under) +
		m.theme.InputText.Render(after)
}

func (m Model) renderShortcutHint() string {
	if m.shortcut == "" || strings.TrimSpace(m.input.Value().Text) != "" || m.eng.Busy() {
		return ""
	}
	preview := m.shortcut
	if runes := []rune(preview); len(runes) > m.width-12 && m.width > 15 {
		preview = string(runes[:m.width-15]) + "..."
	}
	return m.theme.ShortcutHint.Render("  tab: " + preview)
}

// =============================================================================
// COMMAND PANEL
// =============================================================================

func (m Model) renderPanel() string {
	var b strings.Builder
	for i, cmd := range m.matches {
		if i > 0 {
			b.WriteString("\n")
		}
		name := m.theme.PanelCommand.Render(cmd.Name)
		desc := m.theme.PanelDesc.Render(cmd.Description)
		row := name + " " + desc
		if i == m.panelIdx {
			b.WriteString(m.theme.PanelItemSelected.Render(row))
		} else {
			b.WriteString(m.theme.PanelItem.Render(row))
		}
	}
	return m.theme.PanelBox.Render(b.String())
}
