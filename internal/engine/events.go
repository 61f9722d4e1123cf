// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

// =============================================================================
// EVENTS
// =============================================================================

// Event is a notification published by the engine as turn state
// changes. The presentation layer subscribes through an EventSink and
// re-renders from the stores; events carry identifiers, not state.
type Event interface{}

// TurnStarted is published when a submission is accepted and streaming
// begins. MessageID is the active assistant placeholder.
type TurnStarted struct {
	MessageID string
}

// TurnFinished is published when the engine returns to idle, whether by
// completion, interruption, or error.
type TurnFinished struct{}

// MessagesChanged is published whenever the message list mutates,
// including per-fragment appends during streaming.
type MessagesChanged struct{}

// ToolCallsChanged is published when a tool call is registered or its
// status transitions.
type ToolCallsChanged struct{}

// PlanChanged is published when a tool invocation rewrites the plan.
type PlanChanged struct{}

// FlavorWordReady carries the decorative word shown during streaming.
type FlavorWordReady struct {
	Word string
}

// SmartShortcutReady carries a predicted next request for one-key
// recall.
type SmartShortcutReady struct {
	Text string
}

// EventSink receives engine events. Publish may be called from the
// engine's turn goroutine and from sub-flow goroutines; implementations
// must be safe for concurrent use. A bubbletea program satisfies this
// with Program.Send.
type EventSink interface {
	Publish(event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(Event) {}
