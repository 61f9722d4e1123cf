// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash-command table and prefix lookup
// backing the command menu.
package commands

import "strings"

// =============================================================================
// COMMAND TABLE
// =============================================================================

// Command is one entry in the command menu.
type Command struct {
	Name        string
	Aliases     []string
	Description string
}

// Commands is the menu, in display order.
var Commands = []Command{
	{Name: "/add-dir", Description: "Add a new working directory"},
	{Name: "/agents", Description: "Manage agent configurations"},
	{Name: "/clear", Aliases: []string{"reset", "new"}, Description: "Clear conversation history and free up context"},
	{Name: "/config", Aliases: []string{"theme"}, Description: "Open config panel"},
	{Name: "/context", Description: "Visualize current context usage as a colored grid"},
	{Name: "/doctor", Description: "Diagnose and verify your installation and settings"},
	{Name: "/exit", Aliases: []string{"quit"}, Description: "Exit the REPL"},
	{Name: "/login", Aliases: []string{"logout"}, Description: "Login or logout when already logged in"},
	{Name: "/school", Description: "Hacking playground to rank up"},
}

// =============================================================================
// LOOKUP
// =============================================================================

// IsCommandInput reports whether text looks like the start of a slash
// command, which opens the menu.
func IsCommandInput(text string) bool {
	return strings.HasPrefix(text, "/")
}

// Match returns the commands whose name or an alias starts with the
// typed prefix. The leading slash on input is optional against aliases
// ("/res" and "/reset" both match /clear). An exact name match returns
// only that command.
func Match(input string) []Command {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" || input == "/" {
		out := make([]Command, len(Commands))
		copy(out, Commands)
		return out
	}
	bare := strings.TrimPrefix(input, "/")

	var matches []Command
	for _, cmd := range Commands {
		if cmd.Name == input {
			return []Command{cmd}
		}
		if strings.HasPrefix(strings.TrimPrefix(cmd.Name, "/"), bare) {
			matches = append(matches, cmd)
			continue
		}
		for _, alias := range cmd.Aliases {
			if strings.HasPrefix(alias, bare) {
				matches = append(matches, cmd)
				break
			}
		}
	}
	return matches
}

// Resolve returns the single command input names, with aliases
// honored, or false when input is not an exact command.
func Resolve(input string) (Command, bool) {
	input = strings.TrimSpace(strings.ToLower(input))
	bare := strings.TrimPrefix(input, "/")
	for _, cmd := range Commands {
		if cmd.Name == input || strings.TrimPrefix(cmd.Name, "/") == bare {
			return cmd, true
		}
		for _, alias := range cmd.Aliases {
			if alias == bare {
				return cmd, true
			}
		}
	}
	return Command{}, false
}
