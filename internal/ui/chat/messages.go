// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/sonderhq/sonder-tui/internal/model"
)

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// renderMessages renders the whole conversation transcript. Completed
// assistant messages go through the markdown renderer; streaming content
// stays plain so partial markdown never flickers through the renderer.
func (m Model) renderMessages() string {
	msgs := m.store.Messages()
	if len(msgs) == 0 {
		return m.theme.ShortcutDesc.Render("No messages yet. Type below to begin.")
	}

	byParent := make(map[string][]model.ToolCall)
	for _, tc := range m.store.ToolCalls() {
		byParent[tc.ParentMessageID] = append(byParent[tc.ParentMessageID], tc)
	}

	blocks := make([]string, 0, len(msgs))
	for i := range msgs {
		msg := &msgs[i]
		switch msg.Role {
		case model.RoleUser:
			blocks = append(blocks, m.renderUserMessage(msg))
		case model.RoleSystem:
			blocks = append(blocks, m.theme.SystemText.Render(msg.Content))
		case model.RoleError:
			blocks = append(blocks, m.theme.ErrorText.Render(msg.Content))
		case model.RoleAssistant:
			if block := m.renderAssistantMessage(msg); block != "" {
				blocks = append(blocks, block)
			}
			for _, tc := range byParent[msg.ID] {
				blocks = append(blocks, m.renderToolCall(tc))
			}
		}
	}

	return strings.Join(blocks, "\n\n")
}

func (m Model) renderUserMessage(msg *model.ChatMessage) string {
	prefix := m.theme.UserPrefix.Render("> ")
	lines := strings.Split(msg.Content, "\n")
	for i, line := range lines {
		if i == 0 {
			lines[i] = prefix + m.theme.UserText.Render(line)
		} else {
			lines[i] = "  " + m.theme.UserText.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderAssistantMessage(msg *model.ChatMessage) string {
	body := msg.Content

	// An empty placeholder renders nothing until the first fragment or a
	// finalization marker arrives.
	if body == "" && !msg.IsInterrupted {
		return ""
	}

	if msg.IsComplete && !msg.IsStreaming && m.renderer != nil {
		if rendered, err := m.renderer.Render(body); err == nil {
			body = strings.Trim(rendered, "\n")
		}
	} else {
		body = m.theme.AssistantText.Render(body)
	}

	if msg.IsInterrupted {
		mark := m.theme.InterruptedMark.Render("[interrupted]")
		if body == "" {
			return mark
		}
		body += " " + mark
	}
	if msg.Feedback != model.FeedbackNone {
		body += " " + m.theme.FeedbackMark.Render("["+string(msg.Feedback)+"]")
	}
	return body
}

// cycleFeedback advances the feedback mark on the most recent completed
// assistant message: none -> good -> great -> bad -> none.
func (m *Model) cycleFeedback() {
	msgs := m.store.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Role != model.RoleAssistant || !msg.IsComplete {
			continue
		}
		m.store.SetFeedback(msg.ID, nextFeedback(msg.Feedback))
		m.refreshViewport()
		return
	}
}

func nextFeedback(f model.Feedback) model.Feedback {
	switch f {
	case model.FeedbackNone:
		return model.FeedbackGood
	case model.FeedbackGood:
		return model.FeedbackGreat
	case model.FeedbackGreat:
		return model.FeedbackBad
	}
	return model.FeedbackNone
}

func (m Model) renderToolCall(tc model.ToolCall) string {
	switch tc.Status {
	case model.ToolExecuting:
		return m.theme.ToolRunning.Render(tc.ToolName + " ...")
	case model.ToolError:
		return m.theme.ToolError.Render(tc.ToolName + ": " + tc.Summary)
	default:
		return m.theme.ToolSuccess.Render(tc.ToolName + ": " + tc.Summary)
	}
}
