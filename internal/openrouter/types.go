// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openrouter provides the HTTP client for the OpenRouter chat
// completions API (OpenAI-compatible wire format, SSE streaming).
package openrouter

import "github.com/sonderhq/sonder-tui/internal/model"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the body of a chat completions call.
type ChatRequest struct {
	Model    string           `json:"model"`
	Messages []wireMessage    `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toWire(history []model.PromptMessage) []wireMessage {
	out := make([]wireMessage, len(history))
	for i, m := range history {
		out[i] = wireMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// ToolDefinition declares one callable tool to the model, in the
// OpenAI function-calling shape.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a tool's name and JSON-schema parameters.
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ToolRequest is a fully assembled tool invocation emitted by the model.
type ToolRequest struct {
	ID        string
	Name      string
	Arguments map[string]interface{}

	// RawArguments keeps the argument text as received, for logging
	// when it fails to parse as JSON.
	RawArguments string
}

// StreamEvent is one unit of streamed output: either a text fragment or
// a tool request, never both.
type StreamEvent struct {
	Fragment string
	ToolCall *ToolRequest
}

// streamChunk mirrors one SSE data payload.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string          `json:"content"`
			ToolCalls []toolCallDelta `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

// toolCallDelta is one incremental slice of a tool call. The arguments
// string arrives fragmented across chunks and is concatenated by Index.
type toolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// completionResponse is the non-streaming response body.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}
