// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"fmt"

	"github.com/sonderhq/sonder-tui/internal/plan"
)

// =============================================================================
// PLAN TOOL
// =============================================================================

// PlanTool lets the model maintain the on-screen checklist. It writes
// to an injected plan.Store; the store enforces the item caps and the
// all-completed auto-clear.
type PlanTool struct {
	store *plan.Store
}

// NewPlanTool creates the tool over store.
func NewPlanTool(store *plan.Store) *PlanTool {
	return &PlanTool{store: store}
}

func (t *PlanTool) Name() string { return "plan" }

func (t *PlanTool) Description() string {
	return "Update the plan displayed during streaming. Pass items array to set plan, " +
		"pass empty array [] to clear. Mark items in_progress when working, completed " +
		"when done. Plan auto-clears when all items completed."
}

func (t *PlanTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"items": map[string]interface{}{
				"type":        "array",
				"description": "Plan items (max 8). Pass empty array [] to clear plan.",
				"maxItems":    plan.MaxItems,
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id": map[string]interface{}{
							"type":        "string",
							"description": "Unique identifier",
						},
						"content": map[string]interface{}{
							"type":        "string",
							"description": "Short 2-3 word task",
						},
						"status": map[string]interface{}{
							"type":        "string",
							"enum":        []interface{}{"pending", "in_progress", "completed"},
							"description": "Current status",
						},
					},
					"required": []interface{}{"id", "content", "status"},
				},
			},
		},
		"required": []interface{}{"items"},
	}
}

// Execute replaces the checklist with the submitted items.
func (t *PlanTool) Execute(_ context.Context, args map[string]interface{}) Result {
	raw, _ := args["items"].([]interface{})

	if len(raw) == 0 {
		t.store.Clear()
		return Result{Success: true, Summary: "Plan cleared", FullResult: "Plan cleared"}
	}

	items := make([]plan.Item, 0, len(raw))
	completed := 0
	for _, entry := range raw {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			return Result{
				Summary:    "Invalid parameters",
				FullResult: "Validation error: each plan item must be an object",
			}
		}
		content, _ := obj["content"].(string)
		status, _ := obj["status"].(string)
		if content == "" {
			return Result{
				Summary:    "Invalid parameters",
				FullResult: `Validation error: plan items require a non-empty "content"`,
			}
		}
		if plan.Status(status) == plan.StatusCompleted {
			completed++
		}
		items = append(items, plan.Item{Text: content, Status: plan.Status(status)})
	}

	if completed == len(items) {
		t.store.Clear()
		return Result{
			Success:    true,
			Summary:    "Plan completed",
			FullResult: "All items done, plan cleared",
		}
	}

	t.store.Replace(items)
	return Result{
		Success:    true,
		Summary:    fmt.Sprintf("Plan: %d/%d done", completed, len(items)),
		FullResult: fmt.Sprintf("Plan updated. %d items.", len(items)),
	}
}
