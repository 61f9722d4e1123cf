// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/sonderhq/sonder-tui/internal/commands"
	"github.com/sonderhq/sonder-tui/internal/engine"
	"github.com/sonderhq/sonder-tui/internal/keymap"
	"github.com/sonderhq/sonder-tui/internal/model"
	"github.com/sonderhq/sonder-tui/internal/plan"
	"github.com/sonderhq/sonder-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. It is a thin shell:
// conversation state lives in the stores and all turn logic lives in the
// engine; this model translates keys in and renders state out.
type Model struct {
	// Styling
	theme *styles.Theme

	// Core state
	eng   *engine.Engine
	store *model.Store
	plans *plan.Store

	// Dimensions
	width  int
	height int
	ready  bool

	// UI components
	viewport viewport.Model
	spinner  spinner.Model
	input    *keymap.Controller

	// Markdown renderer for completed assistant messages. Rebuilt on
	// resize so word wrap follows the terminal width. Nil when glamour
	// fails to initialize; rendering falls back to plain text.
	renderer *glamour.TermRenderer

	// Model and mode rotation indices
	modelIdx int
	modeIdx  int

	// Decorative state from engine subflows
	flavorWord string
	shortcut   string

	// Slash command panel
	showPanel bool
	matches   []commands.Command
	panelIdx  int

	quitting bool
}

// New creates a new chat model. modelName selects the starting entry of
// the model rotation by display name.
func New(theme *styles.Theme, eng *engine.Engine, store *model.Store, plans *plan.Store, modelName string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	modelIdx := 0
	for i, spec := range model.Models {
		if spec.Name == modelName {
			modelIdx = i
			break
		}
	}

	return Model{
		theme:    theme,
		eng:      eng,
		store:    store,
		plans:    plans,
		viewport: vp,
		spinner:  sp,
		input:    keymap.NewController(),
		modelIdx: modelIdx,
	}
}

// Init starts the spinner ticker.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// CurrentModel returns the active model spec.
func (m Model) CurrentModel() model.ModelSpec {
	return model.Models[m.modelIdx]
}

// CurrentMode returns the active operating mode.
func (m Model) CurrentMode() string {
	return model.Modes[m.modeIdx]
}

// handleResize recalculates component dimensions after a terminal resize.
func (m *Model) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	// Rough viewport height; the view measures the real component
	// heights and corrects for any mismatch.
	vpHeight := m.height - 6
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight

	wrap := m.width - 2
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.renderer = renderer
	}

	m.refreshViewport()
}

// refreshViewport re-renders the transcript into the viewport and keeps
// the view pinned to the newest message.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}
