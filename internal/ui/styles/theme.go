// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderModel lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserPrefix      lipgloss.Style
	UserText        lipgloss.Style
	AssistantText   lipgloss.Style
	SystemText      lipgloss.Style
	ErrorText       lipgloss.Style
	InterruptedMark lipgloss.Style
	FeedbackMark    lipgloss.Style

	// ==========================================================================
	// TOOL CALL STYLES
	// ==========================================================================

	ToolRunning lipgloss.Style
	ToolSuccess lipgloss.Style
	ToolError   lipgloss.Style

	// ==========================================================================
	// PLAN CHECKLIST STYLES
	// ==========================================================================

	PlanBox        lipgloss.Style
	PlanTitle      lipgloss.Style
	PlanPending    lipgloss.Style
	PlanInProgress lipgloss.Style
	PlanDone       lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style
	InputCursor      lipgloss.Style
	ShortcutHint     lipgloss.Style

	// ==========================================================================
	// STATUS AND STREAMING STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	ThinkingTime lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	ModeStealth lipgloss.Style
	ModeOsint   lipgloss.Style
	ModeAccept  lipgloss.Style
	ModeKill    lipgloss.Style

	// ==========================================================================
	// COMMAND PANEL STYLES
	// ==========================================================================

	PanelBox          lipgloss.Style
	PanelItem         lipgloss.Style
	PanelItemSelected lipgloss.Style
	PanelCommand      lipgloss.Style
	PanelDesc         lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderModel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Messages
	t.UserPrefix = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.AssistantText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SystemText = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose)

	t.InterruptedMark = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.FeedbackMark = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	// Tool calls
	t.ToolRunning = lipgloss.NewStyle().
		Foreground(Amber).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Amber).
		BorderLeft(true).
		PaddingLeft(1)

	t.ToolSuccess = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Emerald).
		BorderLeft(true).
		PaddingLeft(1)

	t.ToolError = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Rose).
		BorderLeft(true).
		PaddingLeft(1)

	// Plan checklist
	t.PlanBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.PlanTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.PlanPending = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.PlanInProgress = lipgloss.NewStyle().
		Foreground(Amber)

	t.PlanDone = lipgloss.NewStyle().
		Foreground(Emerald).
		Strikethrough(true)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.InputCursor = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Cyan)

	t.ShortcutHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status bar and streaming indicator
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.ThinkingTime = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ModeStealth = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.ModeOsint = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ModeAccept = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.ModeKill = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	// Command panel
	t.PanelBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)

	t.PanelItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.PanelItemSelected = lipgloss.NewStyle().
		Background(Purple).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1)

	t.PanelCommand = lipgloss.NewStyle().
		Foreground(Cyan).
		Width(12)

	t.PanelDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// ModeStyle returns the status-line style for an operating mode.
func (t *Theme) ModeStyle(mode string) lipgloss.Style {
	switch mode {
	case "stealth":
		return t.ModeStealth
	case "osint":
		return t.ModeOsint
	case "accept":
		return t.ModeAccept
	case "kill":
		return t.ModeKill
	}
	return t.ModeStealth
}
