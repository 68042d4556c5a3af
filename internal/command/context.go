// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package command

import (
	"fmt"
	"io"
)

// Context provides command handlers with the invocation site and the state they act on
type Context struct {
	Name string // Name as written by the caller
	File string // Listfile the invocation belongs to
	Line int    // Source line (0 if unknown)

	Stdout io.Writer
	Stderr io.Writer

	// Scope is the configuration scope the command runs in.
	// Handlers registered by the configure package know its concrete type.
	Scope interface{}
}

// Location formats the invocation site as "file:line".
func (ctx *Context) Location() string {
	switch {
	case ctx.File == "":
		return fmt.Sprintf("line %d", ctx.Line)
	case ctx.Line == 0:
		return ctx.File
	default:
		return fmt.Sprintf("%s:%d", ctx.File, ctx.Line)
	}
}
