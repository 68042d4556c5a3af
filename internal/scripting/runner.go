// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package scripting provides interfaces and implementations for embedded interpreters.
// It abstracts the underlying VM (Lua, Goja) behind a small stack-based Engine API so the
// host bridge never depends on one engine's calling convention.
package scripting

import (
	"fmt"
	"sort"
)

// ScriptError represents an error raised by the interpreter while executing script code.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return e.Message
}

// Value is a boundary value produced by a native function.
// Supported dynamic types: nil, string, bool, int and []string.
type Value = any

// NativeFunc is a host function callable from scripts.
// Every argument arrives as a string. Returning an error raises it in the script.
type NativeFunc func(args []string) ([]Value, error)

// PositionHook receives the script source line that is currently executing.
// Engines report it each time a script enters a native function, with the innermost
// line outside library files; lines that call no native function are not reported.
type PositionHook func(line int)

// Engine is the low-level VM abstraction used by the bridge.
//
// The value stack mirrors the classic embedding API: callers push a function and its
// arguments, then Call consumes them. Top/SetTop let callers snapshot and restore the
// stack depth around a call, which matters because an Engine outlives a single call.
//
// An Engine is not safe for concurrent use; nested calls on the same goroutine are fine.
type Engine interface {
	// Name returns the engine identifier ("lua", "goja").
	Name() string

	// BootstrapFile returns the file name of this engine's bootstrap library.
	BootstrapFile() string

	// Top returns the current value stack depth.
	Top() int

	// SetTop truncates the stack to n entries, padding with nil when n > Top().
	SetTop(n int)

	// PushString pushes a string value.
	PushString(s string)

	// PushGlobal pushes the global named name, or nil if it is not defined.
	PushGlobal(name string)

	// PushHandle pushes an opaque host handle.
	PushHandle(h any)

	// Call pops a function and nargs arguments and calls it in protected mode.
	// Results are discarded. Script failures are returned as *ScriptError.
	Call(nargs int) error

	// DoFile loads and executes a library file in the global environment.
	// Frames belonging to library files are never reported to the position hook.
	DoFile(path string) error

	// HasGlobal reports whether a global with the given name is defined.
	HasGlobal(name string) bool

	// GlobalString returns the string form of a global, if it is defined.
	GlobalString(name string) (string, bool)

	// Register installs fn as a global function.
	Register(name string, fn NativeFunc) error

	// SetPositionHook installs the position-reporting hook (nil removes it).
	// The hook fires with the innermost script line whenever execution enters a
	// registered native function.
	SetPositionHook(hook PositionHook)

	// Interrupt stops the currently running script.
	Interrupt(reason string)

	// Close releases the interpreter.
	Close()
}

// Factory creates a fresh Engine.
type Factory func() (Engine, error)

var factories = map[string]Factory{
	"lua":  func() (Engine, error) { return NewLuaEngine(), nil },
	"goja": func() (Engine, error) { return NewGojaEngine(), nil },
}

// NewFactory returns the factory for the named engine.
func NewFactory(name string) (Factory, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown script engine %q (available: %v)", name, EngineNames())
	}
	return f, nil
}

// EngineNames lists the available engine identifiers in sorted order.
func EngineNames() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
