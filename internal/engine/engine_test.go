// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sonderhq/sonder-tui/internal/model"
	"github.com/sonderhq/sonder-tui/internal/openrouter"
	"github.com/sonderhq/sonder-tui/internal/plan"
	"github.com/sonderhq/sonder-tui/internal/tools"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type recordedCall struct {
	modelID      string
	history      []model.PromptMessage
	toolsEnabled bool
}

type fakeCall struct {
	events []openrouter.StreamEvent
	// after runs after event i is delivered.
	after func(i int)
	err   error
	// waitCancel blocks until the context is cancelled, then returns
	// ctx.Err(), imitating a stream killed by the caller.
	waitCancel bool
}

// fakeBackend replays a script of streaming calls. Calls past the end
// of the script replay the last entry.
type fakeBackend struct {
	mu         sync.Mutex
	script     []fakeCall
	calls      []recordedCall
	completeFn func(modelID, prompt string) (string, error)
}

func (f *fakeBackend) ChatStream(ctx context.Context, modelID string, history []model.PromptMessage, defs []openrouter.ToolDefinition, cb openrouter.StreamCallback) error {
	f.mu.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, recordedCall{
		modelID:      modelID,
		history:      append([]model.PromptMessage(nil), history...),
		toolsEnabled: len(defs) > 0,
	})
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	call := f.script[idx]
	f.mu.Unlock()

	for i, ev := range call.events {
		cb(ev)
		if call.after != nil {
			call.after(i)
		}
	}
	if call.waitCancel {
		<-ctx.Done()
		return ctx.Err()
	}
	return call.err
}

func (f *fakeBackend) Complete(_ context.Context, modelID, prompt string) (string, error) {
	f.mu.Lock()
	fn := f.completeFn
	f.mu.Unlock()
	if fn == nil {
		return "", errors.New("no completion scripted")
	}
	return fn(modelID, prompt)
}

func (f *fakeBackend) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

// collectorSink records events and signals each TurnFinished.
type collectorSink struct {
	mu       sync.Mutex
	events   []Event
	finished chan struct{}
}

func newCollector() *collectorSink {
	return &collectorSink{finished: make(chan struct{}, 8)}
}

func (c *collectorSink) Publish(ev Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	if _, ok := ev.(TurnFinished); ok {
		select {
		case c.finished <- struct{}{}:
		default:
		}
	}
}

func (c *collectorSink) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func waitIdle(t *testing.T, c *collectorSink) {
	t.Helper()
	select {
	case <-c.finished:
	case <-time.After(2 * time.Second):
		t.Fatal("turn did not finish")
	}
}

func waitForEvent(t *testing.T, c *collectorSink, match func(Event) bool) Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range c.snapshot() {
			if match(ev) {
				return ev
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected event never arrived")
	return nil
}

type stubTool struct {
	name   string
	result tools.Result
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "test stub" }
func (s *stubTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (s *stubTool) Execute(context.Context, map[string]interface{}) tools.Result {
	return s.result
}

func frag(s string) openrouter.StreamEvent { return openrouter.StreamEvent{Fragment: s} }

func toolEvent(id, name string, args map[string]interface{}) openrouter.StreamEvent {
	return openrouter.StreamEvent{ToolCall: &openrouter.ToolRequest{ID: id, Name: name, Arguments: args}}
}

func newTestEngine(backend *fakeBackend, toolList ...tools.Tool) (*Engine, *model.Store, *plan.Store, *collectorSink) {
	store := model.NewStore()
	plans := plan.NewStore()
	sink := newCollector()
	eng := New(store, plans, tools.NewRegistry(toolList...), backend, Options{Sink: sink})
	return eng, store, plans, sink
}

func assistantMessages(store *model.Store) []model.ChatMessage {
	var out []model.ChatMessage
	for _, m := range store.Messages() {
		if m.Role == model.RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

// =============================================================================
// BASIC TURN
// =============================================================================

func TestEngine_BasicTurn(t *testing.T) {
	backend := &fakeBackend{script: []fakeCall{
		{events: []openrouter.StreamEvent{frag("Hel"), frag("lo "), frag("there")}},
	}}
	eng, store, _, sink := newTestEngine(backend)

	if !eng.Submit("hello") {
		t.Fatal("Submit refused")
	}
	waitIdle(t, sink)

	msgs := store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "hello" {
		t.Errorf("user message = %+v", msgs[0])
	}
	ai := msgs[1]
	if ai.Role != model.RoleAssistant || ai.Content != "Hello there" {
		t.Errorf("assistant message = %+v", ai)
	}
	if !ai.IsComplete || ai.IsStreaming || ai.IsInterrupted {
		t.Errorf("assistant flags = %+v", ai)
	}

	calls := backend.recorded()
	if len(calls) != 1 {
		t.Fatalf("streaming calls = %d, want 1", len(calls))
	}
	if calls[0].history[0].Role != "system" {
		t.Error("history must start with the system prompt")
	}
	last := calls[0].history[len(calls[0].history)-1]
	if last.Role != "user" || last.Content != "hello" {
		t.Errorf("last history entry = %+v", last)
	}
}

func TestEngine_SingleFlight(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{script: []fakeCall{
		{events: []openrouter.StreamEvent{frag("a")}, after: func(int) { <-gate }},
	}}
	eng, _, _, sink := newTestEngine(backend)

	if !eng.Submit("first") {
		t.Fatal("first Submit refused")
	}
	waitForEvent(t, sink, func(ev Event) bool { _, ok := ev.(TurnStarted); return ok })

	if eng.Submit("second") {
		t.Error("second Submit should be refused while streaming")
	}
	if !eng.Busy() {
		t.Error("Busy should report true mid-turn")
	}

	close(gate)
	waitIdle(t, sink)

	if eng.Busy() {
		t.Error("Busy should report false after the turn")
	}
	if !eng.Submit("third") {
		t.Error("Submit should be accepted once idle")
	}
	waitIdle(t, sink)
}

// =============================================================================
// TOOL ROUND TRIP
// =============================================================================

func TestEngine_ToolRoundTrip(t *testing.T) {
	backend := &fakeBackend{script: []fakeCall{
		{events: []openrouter.StreamEvent{
			frag("Let me look."),
			toolEvent("call_1", "search_online", map[string]interface{}{"query": "X"}),
		}},
		{events: []openrouter.StreamEvent{frag("The answer.")}},
	}}
	search := &stubTool{name: "search_online", result: tools.Result{
		Success: true, Summary: "Found 1 results", FullResult: "R",
	}}
	eng, store, _, sink := newTestEngine(backend, search)

	eng.Submit("search for X")
	waitIdle(t, sink)

	calls := backend.recorded()
	if len(calls) != 2 {
		t.Fatalf("streaming calls = %d, want 2", len(calls))
	}
	if !calls[0].toolsEnabled {
		t.Error("first call must offer tools")
	}
	if calls[1].toolsEnabled {
		t.Error("second call must not offer tools")
	}

	// The tool result is re-injected as a synthetic user message.
	last := calls[1].history[len(calls[1].history)-1]
	if last.Role != "user" || !strings.Contains(last.Content, "[Tool Result for search_online]") ||
		!strings.Contains(last.Content, "R") {
		t.Errorf("synthetic tool-result message = %+v", last)
	}

	ai := assistantMessages(store)
	if len(ai) != 2 {
		t.Fatalf("assistant messages = %d, want 2", len(ai))
	}
	if ai[0].Content != "Let me look." || !ai[0].IsComplete || ai[0].IsStreaming {
		t.Errorf("frozen thinking message = %+v", ai[0])
	}
	if ai[1].Content != "The answer." || !ai[1].IsComplete {
		t.Errorf("answer message = %+v", ai[1])
	}

	tcs := store.ToolCalls()
	if len(tcs) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(tcs))
	}
	if tcs[0].Status != model.ToolComplete || tcs[0].Summary != "Found 1 results" {
		t.Errorf("tool call = %+v", tcs[0])
	}
	if tcs[0].ParentMessageID != ai[0].ID {
		t.Error("tool call should reference the requesting assistant message")
	}
}

func TestEngine_ToolFailureContinuesTurn(t *testing.T) {
	backend := &fakeBackend{script: []fakeCall{
		{events: []openrouter.StreamEvent{
			toolEvent("call_1", "search_online", map[string]interface{}{"query": "X"}),
		}},
		{events: []openrouter.StreamEvent{frag("Could not search.")}},
	}}
	search := &stubTool{name: "search_online", result: tools.Result{
		Success: false, Summary: "No API key", FullResult: "FIRECRAWL_API_KEY not set",
	}}
	eng, store, _, sink := newTestEngine(backend, search)

	eng.Submit("search for X")
	waitIdle(t, sink)

	// Failure becomes data in history, not a dead turn.
	calls := backend.recorded()
	if len(calls) != 2 {
		t.Fatalf("streaming calls = %d, want 2", len(calls))
	}
	last := calls[1].history[len(calls[1].history)-1]
	if !strings.Contains(last.Content, "FIRECRAWL_API_KEY not set") {
		t.Errorf("failure not re-injected: %q", last.Content)
	}

	tcs := store.ToolCalls()
	if len(tcs) != 1 || tcs[0].Status != model.ToolError {
		t.Errorf("tool calls = %+v", tcs)
	}
	ai := assistantMessages(store)
	if got := ai[len(ai)-1].Content; got != "Could not search." {
		t.Errorf("final content = %q", got)
	}
}

func TestEngine_ToolRoundCap(t *testing.T) {
	// A misbehaving backend keeps requesting tools even when none are
	// offered; the engine must stop at the cap.
	backend := &fakeBackend{script: []fakeCall{
		{events: []openrouter.StreamEvent{
			toolEvent("call_1", "search_online", map[string]interface{}{"query": "X"}),
		}},
	}}
	search := &stubTool{name: "search_online", result: tools.Result{Success: true, Summary: "ok", FullResult: "R"}}
	eng, store, _, sink := newTestEngine(backend, search)

	eng.Submit("loop forever")
	waitIdle(t, sink)

	if calls := backend.recorded(); len(calls) != maxToolRounds {
		t.Errorf("streaming calls = %d, want %d", len(calls), maxToolRounds)
	}
	for _, m := range store.Messages() {
		if !m.IsComplete {
			t.Errorf("message left incomplete: %+v", m)
		}
	}
	if eng.Busy() {
		t.Error("engine should be idle after hitting the cap")
	}
}

// =============================================================================
// HISTORY ASSEMBLY
// =============================================================================

func TestEngine_HistoryReplayFilter(t *testing.T) {
	backend := &fakeBackend{script: []fakeCall{{events: []openrouter.StreamEvent{frag("ok")}}}}
	eng, store, _, sink := newTestEngine(backend)

	store.AddMessage(model.NewUserMessage("hi"))

	partial := model.NewAssistantPlaceholder()
	partial.Content = "partial"
	partial.IsStreaming = false
	store.AddMessage(partial)

	errMsg := model.NewUserMessage("oops")
	errMsg.Role = model.RoleError
	store.AddMessage(errMsg)

	eng.Submit("next question")
	waitIdle(t, sink)

	history := backend.recorded()[0].history
	want := []model.PromptMessage{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: "hi"},
		{Role: "user", Content: "next question"},
	}
	if len(history) != len(want) {
		t.Fatalf("history length = %d, want %d: %+v", len(history), len(want), history)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, history[i], want[i])
		}
	}
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestEngine_CancellationFinalization(t *testing.T) {
	backend := &fakeBackend{}
	eng, store, _, sink := newTestEngine(backend)
	backend.script = []fakeCall{{
		events: []openrouter.StreamEvent{frag("one "), frag("two "), frag("three"), frag(" DROPPED")},
		after: func(i int) {
			if i == 2 {
				eng.Cancel()
			}
		},
		waitCancel: true,
	}}

	eng.Submit("go")
	waitIdle(t, sink)

	ai := assistantMessages(store)
	if len(ai) != 1 {
		t.Fatalf("assistant messages = %d, want 1", len(ai))
	}
	m := ai[0]
	if m.Content != "one two three" {
		t.Errorf("content = %q, want the three pre-cancel fragments", m.Content)
	}
	if !m.IsComplete || m.IsStreaming || !m.IsInterrupted {
		t.Errorf("flags = complete=%v streaming=%v interrupted=%v", m.IsComplete, m.IsStreaming, m.IsInterrupted)
	}
	if eng.Busy() {
		t.Error("engine should be idle after cancellation")
	}
}

func TestEngine_CancelBeforeToolDispatch(t *testing.T) {
	backend := &fakeBackend{}
	eng, store, _, sink := newTestEngine(backend, &stubTool{
		name:   "search_online",
		result: tools.Result{Success: true, Summary: "ok", FullResult: "R"},
	})
	backend.script = []fakeCall{{
		events: []openrouter.StreamEvent{
			frag("thinking"),
			toolEvent("call_1", "search_online", map[string]interface{}{"query": "X"}),
		},
		after: func(i int) {
			if i == 1 {
				eng.Cancel()
			}
		},
	}}

	eng.Submit("go")
	waitIdle(t, sink)

	// Only one streaming call: no new round starts after cancellation.
	if calls := backend.recorded(); len(calls) != 1 {
		t.Errorf("streaming calls = %d, want 1", len(calls))
	}
	ai := assistantMessages(store)
	if len(ai) != 1 {
		t.Fatalf("assistant messages = %d, want 1", len(ai))
	}
	if !ai[0].IsComplete || !ai[0].IsInterrupted {
		t.Errorf("flags = %+v", ai[0])
	}
}

// =============================================================================
// ERROR PATH
// =============================================================================

func TestEngine_TransportErrorBecomesErrorMessage(t *testing.T) {
	backend := &fakeBackend{script: []fakeCall{{
		events: []openrouter.StreamEvent{frag("par")},
		err:    &openrouter.ClientError{Type: openrouter.ErrTypeConnection, Message: "OpenRouter is unreachable"},
	}}}
	eng, store, _, sink := newTestEngine(backend)

	eng.Submit("hello")
	waitIdle(t, sink)

	msgs := store.Messages()
	m := msgs[len(msgs)-1]
	if m.Role != model.RoleError {
		t.Fatalf("role = %q, want error", m.Role)
	}
	if m.Content != "Error: OpenRouter is unreachable" {
		t.Errorf("content = %q", m.Content)
	}
	if !m.IsComplete || m.IsStreaming {
		t.Errorf("flags = %+v", m)
	}

	// No retry happened.
	if calls := backend.recorded(); len(calls) != 1 {
		t.Errorf("streaming calls = %d, want 1", len(calls))
	}
	if eng.Busy() {
		t.Error("engine should be idle after a failed turn")
	}
}

// =============================================================================
// AUXILIARY FLOWS
// =============================================================================

func TestEngine_PlanClearedOnNewTurn(t *testing.T) {
	backend := &fakeBackend{script: []fakeCall{{events: []openrouter.StreamEvent{frag("ok")}}}}
	eng, _, plans, sink := newTestEngine(backend)

	plans.Replace([]plan.Item{{Text: "stale", Status: plan.StatusPending}})
	eng.Submit("hello")
	waitIdle(t, sink)

	if plans.Len() != 0 {
		t.Errorf("plan items = %d, want 0 after new turn", plans.Len())
	}
}

func TestEngine_FlavorWordFromBackend(t *testing.T) {
	backend := &fakeBackend{
		script:     []fakeCall{{events: []openrouter.StreamEvent{frag("ok")}}},
		completeFn: func(_, _ string) (string, error) { return "Probing!", nil },
	}
	eng, _, _, sink := newTestEngine(backend)

	eng.Submit("scan this host")
	ev := waitForEvent(t, sink, func(ev Event) bool { _, ok := ev.(FlavorWordReady); return ok })
	if got := ev.(FlavorWordReady).Word; got != "probing" {
		t.Errorf("flavor word = %q, want %q", got, "probing")
	}
	waitIdle(t, sink)
}

func TestEngine_FlavorWordFallsBackOnError(t *testing.T) {
	backend := &fakeBackend{
		script:     []fakeCall{{events: []openrouter.StreamEvent{frag("ok")}}},
		completeFn: func(_, _ string) (string, error) { return "", errors.New("no credits") },
	}
	eng, _, _, sink := newTestEngine(backend)

	eng.Submit("hello")
	ev := waitForEvent(t, sink, func(ev Event) bool { _, ok := ev.(FlavorWordReady); return ok })
	word := ev.(FlavorWordReady).Word
	found := false
	for _, stock := range stockFlavorWords {
		if word == stock {
			found = true
		}
	}
	if !found {
		t.Errorf("flavor word %q is not from the stock rotation", word)
	}
	waitIdle(t, sink)
}

func TestSubflows_ShortcutInterval(t *testing.T) {
	var mu sync.Mutex
	var prompts []string
	backend := &fakeBackend{
		completeFn: func(_, prompt string) (string, error) {
			mu.Lock()
			prompts = append(prompts, prompt)
			mu.Unlock()
			return "scan the next subnet", nil
		},
	}
	eng, _, _, sink := newTestEngine(backend)

	// Counts off the interval do nothing.
	eng.subflows.maybeGenerateShortcut(nil, "msg", 1)
	eng.subflows.maybeGenerateShortcut(nil, "msg", 2)
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	n := len(prompts)
	mu.Unlock()
	if n != 0 {
		t.Fatalf("prompts = %d, want 0 before the interval", n)
	}

	prior := []model.ChatMessage{*model.NewUserMessage("earlier question")}
	eng.subflows.maybeGenerateShortcut(prior, "third message", 3)

	ev := waitForEvent(t, sink, func(ev Event) bool { _, ok := ev.(SmartShortcutReady); return ok })
	if got := ev.(SmartShortcutReady).Text; got != "scan the next subnet" {
		t.Errorf("shortcut = %q", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(prompts))
	}
	if !strings.Contains(prompts[0], "user: earlier question") ||
		!strings.Contains(prompts[0], "user: third message") {
		t.Errorf("summary missing window entries:\n%s", prompts[0])
	}
}

func TestSubflows_ShortcutFailureIsSilent(t *testing.T) {
	backend := &fakeBackend{
		completeFn: func(_, _ string) (string, error) { return "", errors.New("nope") },
	}
	eng, _, _, sink := newTestEngine(backend)

	eng.subflows.maybeGenerateShortcut(nil, "msg", 3)
	time.Sleep(50 * time.Millisecond)

	for _, ev := range sink.snapshot() {
		if _, ok := ev.(SmartShortcutReady); ok {
			t.Error("failed prediction should publish nothing")
		}
	}
}

func TestCleanFlavorWord(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"probing", "probing"},
		{"  Probing!  ", "probing"},
		{"two words", ""},
		{"", ""},
		{strings.Repeat("x", 30), ""},
	}
	for _, tc := range tests {
		if got := cleanFlavorWord(tc.in); got != tc.want {
			t.Errorf("cleanFlavorWord(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
