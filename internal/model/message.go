// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the conversation: chat
// messages, tool call records, and the owned store that serializes access
// to both.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleError     Role = "error"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Sonder"
	case RoleSystem:
		return "System"
	case RoleError:
		return "Error"
	default:
		return string(r)
	}
}

// =============================================================================
// FEEDBACK TYPE
// =============================================================================

// Feedback is an optional user rating attached to an assistant message.
type Feedback string

const (
	FeedbackNone  Feedback = ""
	FeedbackBad   Feedback = "bad"
	FeedbackGood  Feedback = "good"
	FeedbackGreat Feedback = "great"
)

// =============================================================================
// CHAT MESSAGE
// =============================================================================

// ChatMessage is a single message in the conversation.
//
// Invariants maintained by the Store: at most one message has
// IsStreaming=true at a time, and every message eventually reaches
// IsComplete=true (the engine finalizes on completion, error, and
// interrupt).
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	IsComplete    bool `json:"is_complete"`
	IsStreaming   bool `json:"is_streaming"`
	IsInterrupted bool `json:"is_interrupted"`

	Feedback Feedback `json:"feedback,omitempty"`
}

// NewUserMessage creates a completed user message.
func NewUserMessage(content string) *ChatMessage {
	return &ChatMessage{
		ID:         generateID("msg"),
		Role:       RoleUser,
		Content:    content,
		CreatedAt:  time.Now(),
		IsComplete: true,
	}
}

// NewAssistantPlaceholder creates an empty assistant message in streaming
// state, ready to receive fragments.
func NewAssistantPlaceholder() *ChatMessage {
	return &ChatMessage{
		ID:          generateID("msg"),
		Role:        RoleAssistant,
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
}

// NewSystemMessage creates a completed system message.
func NewSystemMessage(content string) *ChatMessage {
	return &ChatMessage{
		ID:         generateID("msg"),
		Role:       RoleSystem,
		Content:    content,
		CreatedAt:  time.Now(),
		IsComplete: true,
	}
}

// EstimateTokens gives a rough token count for the message content, using
// the ~4 characters per token approximation.
func (m *ChatMessage) EstimateTokens() int {
	return (len(m.Content) + 3) / 4
}

// Preview returns a truncated preview of the content. Rune-based so
// multi-byte content is not split mid-character.
func (m *ChatMessage) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// TOOL CALL RECORD
// =============================================================================

// ToolStatus tracks the lifecycle of a tool invocation.
// Transitions executing -> {complete | error} exactly once.
type ToolStatus string

const (
	ToolExecuting ToolStatus = "executing"
	ToolComplete  ToolStatus = "complete"
	ToolError     ToolStatus = "error"
)

// ToolCall records one tool invocation requested by the model. Many tool
// calls may reference the same parent assistant message.
type ToolCall struct {
	ID              string                 `json:"id"`
	ToolName        string                 `json:"tool_name"`
	Arguments       map[string]interface{} `json:"arguments"`
	Status          ToolStatus             `json:"status"`
	Summary         string                 `json:"summary,omitempty"`
	FullResult      string                 `json:"full_result,omitempty"`
	ParentMessageID string                 `json:"parent_message_id"`
}

// =============================================================================
// PROMPT MESSAGE (wire shape)
// =============================================================================

// PromptMessage is the role/content pair sent to the backend. Only roles
// the backend understands appear here; error-variant messages are never
// converted.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// =============================================================================
// HELPERS
// =============================================================================

func generateID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// NewToolCallID builds the local record id for a backend-assigned call id.
func NewToolCallID(backendID string) string {
	if backendID == "" {
		return generateID("tool")
	}
	return "tool-" + backendID
}
