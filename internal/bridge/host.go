// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package bridge connects a build-configuration host to an embedded script interpreter.
//
// The host invokes scripts through a Dispatcher (SCRIPT and CALL requests); scripts call
// back into the host through three native functions registered on every interpreter:
//   - host_command(name, ...): run a host command, returns (ok, err)
//   - host_definition(name): look up a host definition, nil when undefined
//   - host_expand_list(value): split a delimited list, returns (items, count)
//
// One Instance lives per host configuration context and is reused across dispatches.
package bridge

// Host is the enclosing configuration context the bridge acts on.
type Host interface {
	// Execute runs a host command. The returned error's text is the command's status message.
	Execute(inv CommandInvocation) error

	// GetDefinition looks up a definition. ok is false when the name is not defined.
	GetDefinition(name string) (value string, ok bool)

	// AddDependencyFile records path as an input of the configuration.
	AddDependencyFile(path string)

	// ResolvePath makes spec absolute relative to baseDir.
	ResolvePath(spec, baseDir string) (string, error)

	// IsDirectory reports whether path names a directory.
	IsDirectory(path string) bool

	// CurrentSourceDir is the directory relative paths are resolved against.
	CurrentSourceDir() string

	// PreserveEmptyItems is the host's policy for empty list items.
	PreserveEmptyItems() bool
}

// Argument is one argument of a host command invocation.
type Argument struct {
	Value  string
	Quoted bool // quoted arguments are never re-split on list delimiters
}

// CommandInvocation is a host command call built from script-supplied values.
type CommandInvocation struct {
	Name string
	Line int // script source line that issued the command (0 if unknown)
	Args []Argument
}

// Values returns the argument values in order.
func (inv CommandInvocation) Values() []string {
	values := make([]string, len(inv.Args))
	for i, a := range inv.Args {
		values[i] = a.Value
	}
	return values
}
