// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine drives one conversation turn: history assembly, the
// streaming backend call, incremental fragment delivery, the tool-call
// round trip, and finalization under cancellation or error. All
// failures are converted to data at this boundary; nothing escapes as
// an error to the caller.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sonderhq/sonder-tui/internal/model"
	"github.com/sonderhq/sonder-tui/internal/openrouter"
	"github.com/sonderhq/sonder-tui/internal/plan"
	"github.com/sonderhq/sonder-tui/internal/tools"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// SystemPrompt is the fixed instruction prepended to every outbound
// history.
const SystemPrompt = `You are Sonder, a helpful AI assistant for cybersecurity and hacking. You have access to tools like search_online.

When you use a tool:
1. The tool will execute and return results
2. You will then receive those results
3. Use the results to answer the user's question directly

IMPORTANT: After receiving tool results, provide your answer based on those results. Do NOT say "let me search" or similar - the search already happened.`

// maxToolRounds caps streaming calls per turn. Tools are only offered
// on the first call, so a second round is structurally the last; the
// cap guards against a backend that ignores the disabled-tools flag.
const maxToolRounds = 4

// tokenEstimateDivisor approximates tokens from content length.
const tokenEstimateDivisor = 4

// =============================================================================
// BACKEND CONTRACT
// =============================================================================

// Streamer is the language-model collaborator. *openrouter.Client
// implements it; tests substitute a scripted fake.
type Streamer interface {
	ChatStream(ctx context.Context, modelID string, history []model.PromptMessage, tools []openrouter.ToolDefinition, callback openrouter.StreamCallback) error
	Complete(ctx context.Context, modelID, prompt string) (string, error)
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine orchestrates conversation turns over the injected stores and
// backend. One turn may be in flight at a time; Submit rejects while
// streaming.
type Engine struct {
	store    *model.Store
	plans    *plan.Store
	registry *tools.Registry
	backend  Streamer
	sink     EventSink
	log      *zap.Logger

	subflows *subflows

	mu         sync.Mutex
	cancel     context.CancelFunc
	streaming  bool
	modelID    string
	startedAt  time.Time
	contentLen int
}

// Options configures optional engine collaborators.
type Options struct {
	// Sink receives engine events; defaults to NopSink.
	Sink EventSink

	// Logger defaults to zap.NewNop().
	Logger *zap.Logger

	// FlavorModel and ShortcutModel override the model used by the
	// decorative sub-flows; both default to the engine's active model.
	FlavorModel   string
	ShortcutModel string
}

// New creates an engine over the given stores and backend. The default
// model is the first entry of the rotation.
func New(store *model.Store, plans *plan.Store, registry *tools.Registry, backend Streamer, opts Options) *Engine {
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	e := &Engine{
		store:    store,
		plans:    plans,
		registry: registry,
		backend:  backend,
		sink:     opts.Sink,
		log:      opts.Logger,
		modelID:  model.Models[0].ID,
	}
	e.subflows = newSubflows(e, opts)
	return e
}

// SetModel switches the model used for subsequent turns.
func (e *Engine) SetModel(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modelID = id
}

// Model returns the active model identifier.
func (e *Engine) Model() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modelID
}

// Busy reports whether a turn is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streaming
}

// StartedAt returns the start time of the in-flight turn, zero when
// idle.
func (e *Engine) StartedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startedAt
}

// TokenCount returns the approximate token count of the current turn's
// streamed content. Monotonically non-decreasing within a turn.
func (e *Engine) TokenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.contentLen / tokenEstimateDivisor
}

// Cancel interrupts the in-flight turn, if any. The active message is
// finalized as interrupted; already-dispatched tool calls run to
// completion in the background with their results discarded.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Submit starts a turn for content. Returns false without side effects
// when a turn is already streaming. The turn runs on its own goroutine;
// progress is reported through the store and the event sink.
func (e *Engine) Submit(content string) bool {
	e.mu.Lock()
	if e.streaming {
		e.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.streaming = true
	e.cancel = cancel
	e.startedAt = time.Now()
	e.contentLen = 0
	modelID := e.modelID
	e.mu.Unlock()

	// Snapshot before this turn's messages are added; the shortcut
	// sub-flow summarizes the conversation as it stood.
	prior := e.store.Messages()

	go e.runTurn(ctx, cancel, modelID, content, prior)
	return true
}

// =============================================================================
// TURN LOOP
// =============================================================================

func (e *Engine) runTurn(ctx context.Context, cancel context.CancelFunc, modelID, content string, prior []model.ChatMessage) {
	defer e.finishTurn(cancel)

	// A fresh turn starts with a clean plan.
	e.plans.Clear()
	e.sink.Publish(PlanChanged{})

	userMsg := model.NewUserMessage(content)
	e.store.AddMessage(userMsg)

	active := model.NewAssistantPlaceholder()
	e.store.AddMessage(active)
	currentID := active.ID

	e.sink.Publish(MessagesChanged{})
	e.sink.Publish(TurnStarted{MessageID: currentID})

	e.subflows.fetchFlavorWord(content)
	e.subflows.maybeGenerateShortcut(prior, content, e.store.UserMessageCount())

	history := append([]model.PromptMessage{{Role: "system", Content: SystemPrompt}},
		e.store.CompletedHistory()...)

	firstCall := true
	for round := 0; round < maxToolRounds; round++ {
		var pending []*openrouter.ToolRequest

		var defs []openrouter.ToolDefinition
		if firstCall {
			defs = e.registry.Definitions()
		}

		err := e.backend.ChatStream(ctx, modelID, history, defs, func(ev openrouter.StreamEvent) {
			if ctx.Err() != nil {
				// Cancelled: drop anything still arriving.
				return
			}
			switch {
			case ev.Fragment != "":
				e.store.AppendToStreaming(ev.Fragment)
				e.mu.Lock()
				e.contentLen += len(ev.Fragment)
				e.mu.Unlock()
				e.sink.Publish(MessagesChanged{})
			case ev.ToolCall != nil:
				e.registerToolCall(ev.ToolCall, currentID)
				pending = append(pending, ev.ToolCall)
			}
		})

		if ctx.Err() != nil {
			e.finalizeInterrupted(currentID)
			return
		}
		if err != nil {
			e.finalizeError(currentID, err)
			return
		}

		if len(pending) == 0 {
			e.finalizeComplete(currentID)
			return
		}

		// Freeze the partial "thinking" content before the tool round.
		e.finalizeComplete(currentID)

		if !e.dispatchTools(ctx, pending, &history) {
			// Cancelled mid-round; the frozen message stands but is
			// flagged so the UI shows the interruption.
			e.store.UpdateMessage(currentID, func(m *model.ChatMessage) {
				m.IsInterrupted = true
			})
			e.sink.Publish(MessagesChanged{})
			return
		}

		next := model.NewAssistantPlaceholder()
		e.store.AddMessage(next)
		currentID = next.ID
		e.sink.Publish(MessagesChanged{})
		firstCall = false
	}

	// Round cap reached with tools still being requested.
	e.log.Warn("tool round cap reached", zap.Int("rounds", maxToolRounds))
	e.finalizeComplete(currentID)
}

// dispatchTools executes pending calls strictly sequentially in
// emission order, appending each result to history as a synthetic
// user-role message. Returns false if cancellation was observed; the
// in-flight execution finishes but its result is discarded and no
// further calls start.
func (e *Engine) dispatchTools(ctx context.Context, pending []*openrouter.ToolRequest, history *[]model.PromptMessage) bool {
	for _, tc := range pending {
		if ctx.Err() != nil {
			return false
		}

		result := e.registry.Execute(ctx, tc.Name, tc.Arguments)

		status := model.ToolComplete
		if !result.Success {
			status = model.ToolError
		}
		e.store.UpdateToolCall(model.NewToolCallID(tc.ID), func(rec *model.ToolCall) {
			rec.Status = status
			rec.Summary = result.Summary
			rec.FullResult = result.FullResult
		})
		e.sink.Publish(ToolCallsChanged{})
		e.sink.Publish(PlanChanged{})

		if ctx.Err() != nil {
			return false
		}
		*history = append(*history, model.PromptMessage{
			Role: "user",
			Content: fmt.Sprintf("[Tool Result for %s]\n%s\n\nNow provide your answer based on these search results.",
				tc.Name, result.FullResult),
		})

		e.log.Debug("tool executed",
			zap.String("tool", tc.Name),
			zap.Bool("success", result.Success))
	}
	return true
}

func (e *Engine) registerToolCall(tc *openrouter.ToolRequest, parentID string) {
	e.store.AddToolCall(&model.ToolCall{
		ID:              model.NewToolCallID(tc.ID),
		ToolName:        tc.Name,
		Arguments:       tc.Arguments,
		Status:          model.ToolExecuting,
		ParentMessageID: parentID,
	})
	e.sink.Publish(ToolCallsChanged{})
}

// =============================================================================
// FINALIZATION
// =============================================================================

func (e *Engine) finalizeComplete(id string) {
	e.store.UpdateMessage(id, func(m *model.ChatMessage) {
		m.IsComplete = true
		m.IsStreaming = false
	})
	e.sink.Publish(MessagesChanged{})
}

func (e *Engine) finalizeInterrupted(id string) {
	e.store.UpdateMessage(id, func(m *model.ChatMessage) {
		m.IsComplete = true
		m.IsStreaming = false
		m.IsInterrupted = true
	})
	e.sink.Publish(MessagesChanged{})
	e.log.Info("turn interrupted", zap.String("message_id", id))
}

func (e *Engine) finalizeError(id string, err error) {
	e.store.UpdateMessage(id, func(m *model.ChatMessage) {
		m.Role = model.RoleError
		m.Content = "Error: " + describeError(err)
		m.IsComplete = true
		m.IsStreaming = false
	})
	e.sink.Publish(MessagesChanged{})
	e.log.Error("turn failed", zap.String("message_id", id), zap.Error(err))
}

func (e *Engine) finishTurn(cancel context.CancelFunc) {
	cancel()
	e.mu.Lock()
	e.cancel = nil
	e.streaming = false
	e.startedAt = time.Time{}
	e.contentLen = 0
	e.mu.Unlock()
	e.sink.Publish(TurnFinished{})
}

// describeError turns a backend failure into the human-readable cause
// shown in the error-role message.
func describeError(err error) string {
	var clientErr *openrouter.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Message
	}
	return err.Error()
}
