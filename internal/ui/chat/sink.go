// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sonderhq/sonder-tui/internal/engine"
)

// Sink forwards engine events into the Bubble Tea program as messages.
// The engine is constructed before the program exists, so the sink starts
// detached and drops events until Attach is called.
type Sink struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewSink creates a detached sink.
func NewSink() *Sink {
	return &Sink{}
}

// Attach binds the sink to a running program.
func (s *Sink) Attach(p *tea.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = p
}

// Publish implements engine.EventSink. Safe to call from any goroutine;
// tea.Program.Send is concurrency-safe.
func (s *Sink) Publish(ev engine.Event) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p != nil {
		p.Send(ev)
	}
}
