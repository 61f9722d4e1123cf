// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sonderhq/sonder-tui/internal/model"
)

// =============================================================================
// DECORATIVE SUB-FLOWS
// =============================================================================

// Best-effort, fire-and-forget flows attached to the turn: the flavor
// word shown while streaming and the periodic smart-shortcut
// prediction. Neither may block or fail the main turn; every failure
// path here ends in silence or a stock fallback.

const (
	// shortcutInterval triggers a prediction every Nth user message.
	shortcutInterval = 3

	// shortcutWindow bounds how many recent messages feed the
	// prediction prompt.
	shortcutWindow = 10

	// shortcutPreviewLen truncates each message inside the prompt.
	shortcutPreviewLen = 200

	subflowTimeout = 10 * time.Second
)

// stockFlavorWords is the fallback rotation when the classifier call
// fails or credentials are missing.
var stockFlavorWords = []string{
	"scanning",
	"probing",
	"tracing",
	"decrypting",
	"enumerating",
	"correlating",
	"sifting",
}

const flavorPrompt = `Reply with exactly one lowercase English word (no punctuation) that playfully describes what the user is asking about. User message:

`

const shortcutPrompt = `Based on this conversation, predict the user's next likely request. Reply with only the request itself, under twelve words, no quotes.

`

type subflows struct {
	engine        *Engine
	flavorModel   string
	shortcutModel string

	// flavorLimiter keeps rapid resubmissions from stacking classifier
	// calls.
	flavorLimiter *rate.Limiter

	shortcutPending chan struct{}
}

func newSubflows(e *Engine, opts Options) *subflows {
	s := &subflows{
		engine:          e,
		flavorModel:     opts.FlavorModel,
		shortcutModel:   opts.ShortcutModel,
		flavorLimiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		shortcutPending: make(chan struct{}, 1),
	}
	s.shortcutPending <- struct{}{}
	return s
}

func (s *subflows) model(override string) string {
	if override != "" {
		return override
	}
	return s.engine.Model()
}

// =============================================================================
// FLAVOR WORD
// =============================================================================

// fetchFlavorWord asynchronously asks the backend for one whimsical
// word describing content, publishing a stock word when the call is
// rate-limited, fails, or returns junk.
func (s *subflows) fetchFlavorWord(content string) {
	go func() {
		word := s.stockWord()
		if s.flavorLimiter.Allow() {
			ctx, cancel := context.WithTimeout(context.Background(), subflowTimeout)
			defer cancel()

			got, err := s.engine.backend.Complete(ctx, s.model(s.flavorModel), flavorPrompt+content)
			if err == nil {
				if cleaned := cleanFlavorWord(got); cleaned != "" {
					word = cleaned
				}
			} else {
				s.engine.log.Debug("flavor word fetch failed", zap.Error(err))
			}
		}
		s.engine.sink.Publish(FlavorWordReady{Word: word})
	}()
}

func (s *subflows) stockWord() string {
	return stockFlavorWords[rand.Intn(len(stockFlavorWords))]
}

// cleanFlavorWord reduces a completion to a single plausible word, or
// "" when the model rambled.
func cleanFlavorWord(raw string) string {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) != 1 {
		return ""
	}
	word := strings.ToLower(strings.Trim(fields[0], `."'!?,:;`))
	if word == "" || len(word) > 24 {
		return ""
	}
	return word
}

// =============================================================================
// SMART SHORTCUT
// =============================================================================

// maybeGenerateShortcut fires the prediction on every shortcutInterval
// user message. At most one prediction runs at a time; failures are
// logged at debug level and otherwise ignored.
func (s *subflows) maybeGenerateShortcut(prior []model.ChatMessage, content string, userCount int) {
	if userCount <= 0 || userCount%shortcutInterval != 0 {
		return
	}
	select {
	case <-s.shortcutPending:
	default:
		return
	}

	summary := shortcutSummary(prior, content)

	go func() {
		defer func() { s.shortcutPending <- struct{}{} }()

		ctx, cancel := context.WithTimeout(context.Background(), subflowTimeout)
		defer cancel()

		got, err := s.engine.backend.Complete(ctx, s.model(s.shortcutModel), shortcutPrompt+summary)
		if err != nil {
			s.engine.log.Debug("smart shortcut fetch failed", zap.Error(err))
			return
		}
		if text := strings.TrimSpace(got); text != "" {
			s.engine.sink.Publish(SmartShortcutReady{Text: text})
		}
	}()
}

// shortcutSummary renders the recent conversation window plus the
// just-submitted message as role-prefixed lines.
func shortcutSummary(prior []model.ChatMessage, content string) string {
	window := prior
	if len(window) > shortcutWindow {
		window = window[len(window)-shortcutWindow:]
	}

	var b strings.Builder
	for _, m := range window {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Preview(shortcutPreviewLen))
		b.WriteString("\n")
	}
	b.WriteString("user: ")
	b.WriteString(previewText(content, shortcutPreviewLen))
	return b.String()
}

func previewText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
