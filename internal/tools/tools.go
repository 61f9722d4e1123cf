// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools defines the executable tools the model can invoke
// mid-turn, and the registry that validates and dispatches calls.
// Every failure mode is a structured Result; nothing panics or returns
// an error past this boundary.
package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/sonderhq/sonder-tui/internal/openrouter"
)

// =============================================================================
// TOOL CONTRACT
// =============================================================================

// Result is the outcome of one tool execution. Summary is a short line
// for the conversation view; FullResult is the complete text re-injected
// into the model's context.
type Result struct {
	Success    bool
	Summary    string
	FullResult string
}

// Tool is a single callable capability. Parameters returns the JSON
// schema advertised to the model; the registry checks arguments against
// it before Execute runs.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) Result
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds the available tools and dispatches calls by name.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry over the given tools. Later tools with
// a duplicate name replace earlier ones.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		if _, exists := r.tools[t.Name()]; !exists {
			r.order = append(r.order, t.Name())
		}
		r.tools[t.Name()] = t
	}
	return r
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions returns the wire-format declarations for every tool, in
// registration order.
func (r *Registry) Definitions() []openrouter.ToolDefinition {
	defs := make([]openrouter.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, openrouter.ToolDefinition{
			Type: "function",
			Function: openrouter.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute validates args against the named tool's schema and runs it.
// Unknown names and validation failures come back as failed Results,
// never as errors.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) Result {
	t, ok := r.tools[name]
	if !ok {
		return Result{
			Summary:    "Unknown tool: " + name,
			FullResult: fmt.Sprintf("No executor found for tool %q", name),
		}
	}
	if err := validateArgs(t.Parameters(), args); err != nil {
		return Result{
			Summary:    "Invalid parameters",
			FullResult: "Validation error: " + err.Error(),
		}
	}
	return t.Execute(ctx, args)
}

// =============================================================================
// SCHEMA VALIDATION
// =============================================================================

// validateArgs checks required fields and basic types against a JSON
// schema of the shape the tools here declare (object with properties
// and required). Unknown extra arguments are tolerated.
func validateArgs(schema, args map[string]interface{}) error {
	required, _ := schema["required"].([]interface{})
	for _, r := range required {
		name, _ := r.(string)
		if name == "" {
			continue
		}
		if _, present := args[name]; !present {
			return fmt.Errorf("missing required parameter %q", name)
		}
	}

	properties, _ := schema["properties"].(map[string]interface{})
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, present := args[name]
		if !present || value == nil {
			continue
		}
		prop, _ := properties[name].(map[string]interface{})
		wantType, _ := prop["type"].(string)
		if wantType == "" {
			continue
		}
		if !typeMatches(wantType, value) {
			return fmt.Errorf("parameter %q must be of type %s", name, wantType)
		}
	}
	return nil
}

func typeMatches(wantType string, value interface{}) bool {
	switch wantType {
	case "string":
		_, ok := value.(string)
		return ok
	case "number", "integer":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	}
	return true
}
