// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package command holds the registry of host commands callable from listfiles and scripts.
package command

import "github.com/aplane-algo/cfgbridge/internal/cmdspec"

// Command represents a host command with metadata
type Command struct {
	Name        string            // Primary command name (lower case)
	Aliases     []string          // Alternative names
	Usage       string            // Usage string: "set(<name> [<value>...] [PARENT_SCOPE])"
	Description string            // One-line description
	LongHelp    string            // Multi-line detailed help (optional)
	Category    string            // "Variables", "Scripting", etc.
	MinArgs     int               // Fewer arguments fail before the handler runs
	Handler     Handler           // Command execution handler
	ArgSpecs    []cmdspec.ArgSpec // Argument completion specs (ordered by position)
}

// Handler is the interface all command handlers must implement
type Handler interface {
	Execute(args []string, ctx *Context) error
}

// Category constants for organizing commands
const (
	CategoryVariables = "Variables"
	CategoryLists     = "Lists"
	CategoryOutput    = "Output"
	CategoryStructure = "Project Structure"
	CategoryPolicy    = "Policies"
	CategoryScripting = "Scripting"
)

// CategoryOrder is the order categories appear in help output.
var CategoryOrder = []string{
	CategoryVariables,
	CategoryLists,
	CategoryOutput,
	CategoryStructure,
	CategoryPolicy,
	CategoryScripting,
}
