// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// MODEL ROTATION
// =============================================================================

// ModelSpec maps a short display name to the backend model identifier.
type ModelSpec struct {
	Name string
	ID   string
}

// Models is the rotation cycled by Shift+Tab, in display order.
var Models = []ModelSpec{
	{Name: "Sonder", ID: "anthropic/claude-3.7-sonnet:thinking"},
	{Name: "Opus 4.5", ID: "anthropic/claude-opus-4.5"},
	{Name: "GPT5", ID: "openai/gpt-5.1"},
	{Name: "G3 Pro", ID: "google/gemini-3-pro-preview"},
}

// ModelByName returns the spec for a display name, defaulting to the first
// entry when the name is unknown.
func ModelByName(name string) ModelSpec {
	for _, m := range Models {
		if m.Name == name {
			return m
		}
	}
	return Models[0]
}

// =============================================================================
// MODE ROTATION
// =============================================================================

// Modes is the operating-mode rotation cycled by Shift+M. Modes color the
// status line; they do not change engine behavior.
var Modes = []string{"stealth", "osint", "accept", "kill"}
