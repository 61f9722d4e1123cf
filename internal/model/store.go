// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// Store owns the message list and tool call records for one conversation.
// It is constructed explicitly and passed to the components that need it;
// there is no package-level instance.
//
// All mutations go through Store methods behind a single mutex, so the
// engine's streaming goroutine and the UI loop can both touch it. Reader
// methods return copies, never interior pointers.
type Store struct {
	mu           sync.Mutex
	messages     []*ChatMessage
	toolCalls    []*ToolCall
	streamingID  string
	userMessages int
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message. If the message is in streaming state it
// becomes the active message; any previously active message is finalized
// first so at most one message streams at a time.
func (s *Store) AddMessage(msg *ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.IsStreaming {
		if cur := s.findLocked(s.streamingID); cur != nil {
			cur.IsStreaming = false
			cur.IsComplete = true
		}
		s.streamingID = msg.ID
	}
	s.messages = append(s.messages, msg)
	if msg.Role == RoleUser {
		s.userMessages++
	}
}

// UpdateMessage applies fn to the message with the given id while holding
// the store lock. Unknown ids are ignored.
func (s *Store) UpdateMessage(id string, fn func(*ChatMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.findLocked(id)
	if msg == nil {
		return
	}
	fn(msg)
	if id == s.streamingID && !msg.IsStreaming {
		s.streamingID = ""
	}
}

// AppendToStreaming appends a fragment to the active streaming message.
// Returns false when no message is streaming (fragment dropped).
func (s *Store) AppendToStreaming(fragment string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.findLocked(s.streamingID)
	if msg == nil || !msg.IsStreaming {
		return false
	}
	msg.Content += fragment
	return true
}

// StreamingID returns the id of the active streaming message, or "".
func (s *Store) StreamingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamingID
}

// Messages returns a snapshot copy of all messages in order.
func (s *Store) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatMessage, len(s.messages))
	for i, m := range s.messages {
		out[i] = *m
	}
	return out
}

// MessageByID returns a copy of the message with the given id.
func (s *Store) MessageByID(id string) (ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg := s.findLocked(id); msg != nil {
		return *msg, true
	}
	return ChatMessage{}, false
}

// MessageCount returns the number of messages.
func (s *Store) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// UserMessageCount returns how many user messages have been added since
// the last reset. Drives the smart-shortcut cadence.
func (s *Store) UserMessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userMessages
}

// SetFeedback attaches a feedback rating to a message.
func (s *Store) SetFeedback(id string, fb Feedback) {
	s.UpdateMessage(id, func(m *ChatMessage) { m.Feedback = fb })
}

// =============================================================================
// TOOL CALL MANAGEMENT
// =============================================================================

// AddToolCall records a new tool invocation.
func (s *Store) AddToolCall(tc *ToolCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolCalls = append(s.toolCalls, tc)
}

// UpdateToolCall applies fn to the tool call with the given id.
func (s *Store) UpdateToolCall(id string, fn func(*ToolCall)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tc := range s.toolCalls {
		if tc.ID == id {
			fn(tc)
			return
		}
	}
}

// ToolCalls returns a snapshot copy of all tool call records.
func (s *Store) ToolCalls() []ToolCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ToolCall, len(s.toolCalls))
	for i, tc := range s.toolCalls {
		out[i] = *tc
	}
	return out
}

// =============================================================================
// HISTORY ASSEMBLY
// =============================================================================

// CompletedHistory returns the replayable history: every completed user
// and assistant message, in order. Incomplete and error-variant messages
// are never replayed to the backend.
func (s *Store) CompletedHistory() []PromptMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PromptMessage, 0, len(s.messages))
	for _, m := range s.messages {
		if !m.IsComplete || m.Role == RoleError || m.Role == RoleSystem {
			continue
		}
		out = append(out, PromptMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// EstimateTokens estimates the total token count across all messages.
func (s *Store) EstimateTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, m := range s.messages {
		total += m.EstimateTokens() + 4 // per-message structural overhead
	}
	return total
}

// Reset clears all conversation state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.toolCalls = nil
	s.streamingID = ""
	s.userMessages = 0
}

// =============================================================================
// HELPERS
// =============================================================================

// findLocked returns the message with the given id. Caller holds s.mu.
func (s *Store) findLocked(id string) *ChatMessage {
	if id == "" {
		return nil
	}
	for _, m := range s.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}
