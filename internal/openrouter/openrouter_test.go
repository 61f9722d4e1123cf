// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sonderhq/sonder-tui/internal/model"
)

func sseBody(lines ...string) string {
	return strings.Join(lines, "\n\n") + "\n\n"
}

func newTestClient(url string) *Client {
	return NewClientWithConfig(&ClientConfig{BaseURL: url, APIKey: "test-key"})
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func TestChatStream_TextFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseBody(
			`: OPENROUTER PROCESSING`,
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			`data: [DONE]`,
		)))
	}))
	defer srv.Close()

	var got []string
	err := newTestClient(srv.URL).ChatStream(context.Background(), "test/model",
		[]model.PromptMessage{{Role: "user", Content: "hi"}}, nil,
		func(ev StreamEvent) {
			if ev.Fragment != "" {
				got = append(got, ev.Fragment)
			}
		})
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}
	if strings.Join(got, "") != "Hello" {
		t.Errorf("fragments = %v", got)
	}
}

func TestChatStream_AssemblesFragmentedToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseBody(
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"search_online","arguments":""}}]}}]}`,
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"que"}}]}}]}`,
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"ry\":\"X\"}"}}]}}]}`,
			`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
			`data: [DONE]`,
		)))
	}))
	defer srv.Close()

	var calls []*ToolRequest
	err := newTestClient(srv.URL).ChatStream(context.Background(), "test/model", nil, nil,
		func(ev StreamEvent) {
			if ev.ToolCall != nil {
				calls = append(calls, ev.ToolCall)
			}
		})
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(calls))
	}
	tc := calls[0]
	if tc.ID != "call_1" || tc.Name != "search_online" {
		t.Errorf("tool call = %+v", tc)
	}
	if got, ok := tc.Arguments["query"].(string); !ok || got != "X" {
		t.Errorf("arguments = %v", tc.Arguments)
	}
}

func TestChatStream_ToolCallFlushedOnlyOnce(t *testing.T) {
	// finish_reason arrives and then [DONE]; the tool call must not be
	// delivered twice.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseBody(
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"c","function":{"name":"t","arguments":"{}"}}]}}]}`,
			`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
			`data: [DONE]`,
		)))
	}))
	defer srv.Close()

	count := 0
	err := newTestClient(srv.URL).ChatStream(context.Background(), "m", nil, nil,
		func(ev StreamEvent) {
			if ev.ToolCall != nil {
				count++
			}
		})
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}
	if count != 1 {
		t.Errorf("tool call delivered %d times, want 1", count)
	}
}

func TestChatStream_MalformedChunksSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseBody(
			`data: not json at all`,
			`data: {"choices":[{"delta":{"content":"ok"}}]}`,
			`data: [DONE]`,
		)))
	}))
	defer srv.Close()

	var got string
	err := newTestClient(srv.URL).ChatStream(context.Background(), "m", nil, nil,
		func(ev StreamEvent) { got += ev.Fragment })
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}
	if got != "ok" {
		t.Errorf("content = %q", got)
	}
}

func TestChatStream_MissingKey(t *testing.T) {
	c := NewClient("")
	err := c.ChatStream(context.Background(), "m", nil, nil, func(StreamEvent) {})
	if !errors.Is(err, ErrMissingKey) {
		t.Errorf("err = %v, want ErrMissingKey", err)
	}
}

func TestChatStream_CancellationPassesThrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"a"}}]}` + "\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).ChatStream(ctx, "m", nil, nil,
		func(ev StreamEvent) {
			if ev.Fragment != "" {
				cancel()
			}
		})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// =============================================================================
// ERROR MAPPING TESTS
// =============================================================================

func TestChatStream_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, IsAuth},
		{"rate limited", http.StatusTooManyRequests, IsRateLimited},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer srv.Close()

			err := newTestClient(srv.URL).ChatStream(context.Background(), "m", nil, nil, func(StreamEvent) {})
			if err == nil || !tc.check(err) {
				t.Errorf("err = %v", err)
			}
			if err != nil && !strings.Contains(err.Error(), "nope") {
				t.Errorf("API message not surfaced: %v", err)
			}
		})
	}
}

func TestChatStream_MidStreamAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseBody(
			`data: {"choices":[{"delta":{"content":"a"}}]}`,
			`data: {"error":{"message":"model overloaded"}}`,
		)))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).ChatStream(context.Background(), "m", nil, nil, func(StreamEvent) {})
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("err = %v", err)
	}
}

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"reconnaissance"}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Complete(context.Background(), "m", "one word")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if got != "reconnaissance" {
		t.Errorf("Complete = %q", got)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Complete(context.Background(), "m", "p"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestComplete_MissingKey(t *testing.T) {
	if _, err := NewClient("").Complete(context.Background(), "m", "p"); !errors.Is(err, ErrMissingKey) {
		t.Errorf("err = %v, want ErrMissingKey", err)
	}
}

func TestClientError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &ClientError{Type: ErrTypeConnection, Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() = %q", err.Error())
	}
}
