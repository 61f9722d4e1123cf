// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
)

// =============================================================================
// SSE STREAM READER
// =============================================================================

var (
	ssePrefix  = []byte("data:")
	sseDone    = []byte("[DONE]")
	sseComment = []byte(":")
)

// streamReader parses the SSE event stream of a chat completions call.
// Text deltas are forwarded immediately; tool-call deltas are buffered
// per index until the stream signals completion, because argument JSON
// arrives fragmented across many chunks.
type streamReader struct {
	reader  *bufio.Reader
	pending map[int]*ToolRequest
	flushed bool
}

func newStreamReader(r io.Reader) *streamReader {
	return &streamReader{
		reader:  bufio.NewReader(r),
		pending: make(map[int]*ToolRequest),
	}
}

// process reads the stream to completion, invoking callback for each
// event. Returns nil on normal end of stream, ctx.Err() on cancellation.
func (s *streamReader) process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				s.flush(callback)
				return nil
			}
			return err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		// Keepalive comments (": OPENROUTER PROCESSING").
		if bytes.HasPrefix(line, sseComment) && !bytes.HasPrefix(line, ssePrefix) {
			continue
		}
		if !bytes.HasPrefix(line, ssePrefix) {
			continue
		}

		payload := bytes.TrimSpace(line[len(ssePrefix):])
		if bytes.Equal(payload, sseDone) {
			s.flush(callback)
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			// Skip malformed chunks rather than killing the stream.
			continue
		}
		if chunk.Error != nil && chunk.Error.Message != "" {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: chunk.Error.Message}
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			callback(StreamEvent{Fragment: choice.Delta.Content})
		}
		for _, delta := range choice.Delta.ToolCalls {
			s.accumulate(delta)
		}
		if choice.FinishReason == "tool_calls" {
			s.flush(callback)
		}
	}
}

func (s *streamReader) accumulate(delta toolCallDelta) {
	tc, ok := s.pending[delta.Index]
	if !ok {
		tc = &ToolRequest{}
		s.pending[delta.Index] = tc
	}
	if delta.ID != "" {
		tc.ID = delta.ID
	}
	if delta.Function.Name != "" {
		tc.Name = delta.Function.Name
	}
	tc.RawArguments += delta.Function.Arguments
}

// flush emits all buffered tool calls in index order, at most once.
// Arguments that fail to parse are delivered with an empty map; the
// tool layer reports the validation failure.
func (s *streamReader) flush(callback StreamCallback) {
	if s.flushed || len(s.pending) == 0 {
		return
	}
	s.flushed = true

	indexes := make([]int, 0, len(s.pending))
	for i := range s.pending {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	for _, i := range indexes {
		tc := s.pending[i]
		tc.Arguments = map[string]interface{}{}
		if tc.RawArguments != "" {
			var args map[string]interface{}
			if err := json.Unmarshal([]byte(tc.RawArguments), &args); err == nil {
				tc.Arguments = args
			}
		}
		callback(StreamEvent{ToolCall: tc})
	}
}
