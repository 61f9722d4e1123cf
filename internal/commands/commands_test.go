// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "testing"

func TestIsCommandInput(t *testing.T) {
	if !IsCommandInput("/clear") || !IsCommandInput("/") {
		t.Error("slash input should open the menu")
	}
	if IsCommandInput("hello /clear") || IsCommandInput("") {
		t.Error("non-slash input is not a command")
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"/", allNames()},
		{"", allNames()},
		{"/c", []string{"/clear", "/config", "/context"}},
		{"/con", []string{"/config", "/context"}},
		{"/clear", []string{"/clear"}},
		{"/quit", []string{"/exit"}},
		{"/theme", []string{"/config"}},
		{"/zzz", nil},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := Match(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("Match(%q) = %d commands, want %d", tc.input, len(got), len(tc.want))
			}
			for i, cmd := range got {
				if cmd.Name != tc.want[i] {
					t.Errorf("Match(%q)[%d] = %q, want %q", tc.input, i, cmd.Name, tc.want[i])
				}
			}
		})
	}
}

func TestResolve(t *testing.T) {
	if cmd, ok := Resolve("/reset"); !ok || cmd.Name != "/clear" {
		t.Errorf("Resolve(/reset) = %+v, %v", cmd, ok)
	}
	if cmd, ok := Resolve("/exit"); !ok || cmd.Name != "/exit" {
		t.Errorf("Resolve(/exit) = %+v, %v", cmd, ok)
	}
	if _, ok := Resolve("/cl"); ok {
		t.Error("prefixes should not resolve")
	}
}

func allNames() []string {
	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = c.Name
	}
	return names
}
