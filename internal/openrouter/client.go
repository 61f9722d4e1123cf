// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sonderhq/sonder-tui/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the OpenRouter client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeMissingKey
	ErrTypeAuth
	ErrTypeRateLimited
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrMissingKey  = &ClientError{Type: ErrTypeMissingKey, Message: "OPENROUTER_API_KEY is not set"}
	ErrAuth        = &ClientError{Type: ErrTypeAuth, Message: "OpenRouter rejected the API key"}
	ErrRateLimited = &ClientError{Type: ErrTypeRateLimited, Message: "rate limited by OpenRouter"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeAuth || clientErr.Type == ErrTypeMissingKey
	}
	return false
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeRateLimited
	}
	return errors.Is(err, ErrRateLimited)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the OpenRouter client.
type ClientConfig struct {
	// BaseURL is the API base (default: https://openrouter.ai/api/v1).
	BaseURL string

	// APIKey is the bearer credential. Required for every call.
	APIKey string

	// Timeout for non-streaming requests (default: 30s). Streaming
	// calls ignore it; their lifetime is bounded by the context.
	Timeout time.Duration

	// Referer and Title are the optional attribution headers the
	// OpenRouter API uses for app rankings.
	Referer string
	Title   string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		BaseURL: "https://openrouter.ai/api/v1",
		APIKey:  apiKey,
		Timeout: 30 * time.Second,
		Title:   "Sonder",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the OpenRouter API. Safe for
// concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a client with default configuration for apiKey.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(DefaultConfig(apiKey))
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://openrouter.ai/api/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if c.config.Referer != "" {
		req.Header.Set("HTTP-Referer", c.config.Referer)
	}
	if c.config.Title != "" {
		req.Header.Set("X-Title", c.config.Title)
	}
	return req, nil
}

// statusError maps a non-200 response to a ClientError, consuming the
// body for the API's error message when it has one.
func statusError(resp *http.Response) error {
	var payload struct {
		Error *apiError `json:"error"`
	}
	msg := "request failed: " + resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil &&
		payload.Error != nil && payload.Error.Message != "" {
		msg = payload.Error.Message
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ClientError{Type: ErrTypeAuth, Message: msg}
	case http.StatusTooManyRequests:
		return &ClientError{Type: ErrTypeRateLimited, Message: msg}
	default:
		return &ClientError{Type: ErrTypeInvalidResponse, Message: msg}
	}
}

// transportError classifies a failed round trip. Context cancellation is
// passed through untouched so callers can tell an interrupt from a
// network fault.
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return &ClientError{Type: ErrTypeConnection, Message: "OpenRouter is unreachable", Cause: err}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// StreamCallback is called for each event received during streaming, in
// arrival order, on the goroutine that called ChatStream.
type StreamCallback func(event StreamEvent)

// ChatStream sends a streaming chat completions request. Text fragments
// are delivered as they arrive; tool calls are assembled from their
// argument deltas and delivered once complete. Blocks until the stream
// ends, fails, or ctx is cancelled (in which case the returned error is
// context.Canceled).
func (c *Client) ChatStream(ctx context.Context, modelID string, history []model.PromptMessage, tools []ToolDefinition, callback StreamCallback) error {
	if c.config.APIKey == "" {
		return ErrMissingKey
	}

	body, err := json.Marshal(ChatRequest{
		Model:    modelID,
		Messages: toWire(history),
		Stream:   true,
		Tools:    tools,
	})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := c.newRequest(ctx, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout for streaming; the context bounds the call.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	reader := newStreamReader(resp.Body)
	if err := reader.process(ctx, callback); err != nil {
		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			return err
		}
		return transportError(ctx, err)
	}
	return nil
}

// =============================================================================
// SINGLE-SHOT COMPLETION
// =============================================================================

// Complete sends a non-streaming single-prompt request and returns the
// model's text. Used by the decorative sub-flows (flavor word, shortcut
// prediction); tools are never offered.
func (c *Client) Complete(ctx context.Context, modelID, prompt string) (string, error) {
	if c.config.APIKey == "" {
		return "", ErrMissingKey
	}

	body, err := json.Marshal(ChatRequest{
		Model:    modelID,
		Messages: []wireMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := c.newRequest(ctx, body)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	if result.Error != nil && result.Error.Message != "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: result.Error.Message}
	}
	if len(result.Choices) == 0 {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "response contained no choices"}
	}
	return result.Choices[0].Message.Content, nil
}
