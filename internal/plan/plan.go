// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plan tracks the assistant's working checklist. The list is
// memory-resident and bounded; it exists so the UI can show the model's
// current intentions alongside the conversation.
package plan

import "sync"

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxItems caps the checklist length. Writes beyond the cap are
	// silently dropped.
	MaxItems = 8

	// MaxItemLen caps each item's text in runes. Longer text is
	// truncated, not rejected.
	MaxItemLen = 50
)

// =============================================================================
// TYPES
// =============================================================================

// Status is the lifecycle state of a single checklist item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// valid reports whether s is one of the three known states.
func (s Status) valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Item is one entry in the checklist.
type Item struct {
	Text   string `json:"text"`
	Status Status `json:"status"`
}

// Store holds the checklist. Safe for concurrent use; the engine writes
// from its turn goroutine while the UI reads on render.
type Store struct {
	mu    sync.Mutex
	items []Item
}

// NewStore returns an empty checklist.
func NewStore() *Store {
	return &Store{}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Replace swaps the whole checklist for items, applying the length and
// count caps. Unknown statuses are normalized to pending. If every item
// in the resulting list is completed, the list auto-clears: a fully done
// plan disappears rather than lingering on screen.
func (s *Store) Replace(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Item, 0, MaxItems)
	for _, it := range items {
		if len(next) == MaxItems {
			break
		}
		if runes := []rune(it.Text); len(runes) > MaxItemLen {
			it.Text = string(runes[:MaxItemLen])
		}
		if !it.Status.valid() {
			it.Status = StatusPending
		}
		next = append(next, it)
	}

	if allCompleted(next) {
		next = nil
	}
	s.items = next
}

// Clear empties the checklist.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Items returns a snapshot copy of the checklist.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items currently tracked.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func allCompleted(items []Item) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if it.Status != StatusCompleted {
			return false
		}
	}
	return true
}
