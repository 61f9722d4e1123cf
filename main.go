// sonder - a terminal chat client for OpenRouter models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sonderhq/sonder-tui/internal/config"
	"github.com/sonderhq/sonder-tui/internal/engine"
	"github.com/sonderhq/sonder-tui/internal/logging"
	"github.com/sonderhq/sonder-tui/internal/model"
	"github.com/sonderhq/sonder-tui/internal/openrouter"
	"github.com/sonderhq/sonder-tui/internal/plan"
	"github.com/sonderhq/sonder-tui/internal/tools"
	"github.com/sonderhq/sonder-tui/internal/ui/chat"
	"github.com/sonderhq/sonder-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sonder: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns stdout, so the file logger is the only place debug
	// output can go. Logging stays a nop unless enabled in config.
	logger := logging.Nop()
	cleanup := func() {}
	if cfg.Log.Enabled {
		if path, perr := cfg.LogPath(); perr == nil {
			if l, c, lerr := logging.NewFileLogger(path); lerr == nil {
				logger, cleanup = l, c
			}
		}
	}
	defer cleanup()

	logger.Info("starting sonder",
		zap.String("version", Version),
		zap.String("commit", GitCommit),
		zap.String("built", BuildDate),
	)

	client := openrouter.NewClientWithConfig(&openrouter.ClientConfig{
		BaseURL: cfg.OpenRouter.BaseURL,
		APIKey:  cfg.OpenRouter.APIKey,
		Title:   "Sonder",
	})

	store := model.NewStore()
	plans := plan.NewStore()
	registry := tools.NewRegistry(
		tools.NewSearchTool(cfg.Search.FirecrawlKey),
		tools.NewPlanTool(plans),
	)

	sink := chat.NewSink()
	eng := engine.New(store, plans, registry, client, engine.Options{
		Sink:   sink,
		Logger: logger,
	})

	spec := model.ModelByName(cfg.DefaultModel)
	eng.SetModel(spec.ID)

	theme := styles.NewTheme()
	m := chat.New(theme, eng, store, plans, spec.Name)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	sink.Attach(p)

	if _, err := p.Run(); err != nil {
		logger.Error("program exited", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error running sonder: %v\n", err)
		os.Exit(1)
	}
}
