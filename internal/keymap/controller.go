// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package keymap

import "strings"

// =============================================================================
// INPUT CONTROLLER
// =============================================================================

// Controller owns the live input state: the buffer value plus a focus
// flag. It applies dispatcher output and gates submission. It never
// talks to the network; the chat layer hands accepted submissions to the
// conversation engine.
type Controller struct {
	value   InputValue
	focused bool
}

var _ Focusable = (*Controller)(nil)

// NewController returns an empty, focused controller.
func NewController() *Controller {
	return &Controller{focused: true}
}

// Value returns the current buffer state.
func (c *Controller) Value() InputValue {
	return c.value
}

// Focused reports whether the input currently receives keys.
func (c *Controller) Focused() bool {
	return c.focused
}

// Focus implements Focusable.
func (c *Controller) Focus() {
	c.focused = true
}

// Blur drops focus; HandleKey becomes a no-op until Focus.
func (c *Controller) Blur() {
	c.focused = false
}

// ApplyEdit stores next, clamping the cursor into [0, len(text)].
func (c *Controller) ApplyEdit(next InputValue) {
	next.Cursor = clampCursor(next.Text, next.Cursor)
	c.value = next
}

// HandleKey dispatches ev against the current value and applies the
// result. ActionSubmit is returned to the caller rather than acted on;
// whether the submission goes through depends on engine state the
// controller does not own.
func (c *Controller) HandleKey(ev KeyEvent, intercept Intercept) Action {
	if !c.focused {
		return ActionNone
	}
	next, action := Dispatch(ev, c.value, intercept)
	if action == ActionChanged {
		c.ApplyEdit(next)
	}
	return action
}

// Submit hands out the trimmed buffer text and resets the buffer. It
// refuses when the trimmed text is empty or a turn is already streaming;
// in both cases the buffer is left untouched.
func (c *Controller) Submit(streaming bool) (string, bool) {
	trimmed := strings.TrimSpace(c.value.Text)
	if trimmed == "" || streaming {
		return "", false
	}
	c.value = InputValue{}
	return trimmed, true
}

// Reset clears the buffer and restores focus.
func (c *Controller) Reset() {
	c.value = InputValue{}
	c.focused = true
}
