// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package configure

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates a malformed listfile
	ErrSyntax = errors.New("syntax error")

	// ErrUnknownCommand indicates an invocation of a command that is not registered
	ErrUnknownCommand = errors.New("unknown command")

	// ErrArguments indicates a command was called with unusable arguments
	ErrArguments = errors.New("invalid arguments")

	// ErrFatal indicates message(FATAL_ERROR); processing stops
	ErrFatal = errors.New("fatal error")

	// ErrIncomplete indicates configuration finished but SEND_ERROR messages were reported
	ErrIncomplete = errors.New("configuring incomplete, errors occurred")
)

// ListfileError attributes a failure to a listfile position.
type ListfileError struct {
	File    string
	Line    int
	Command string // empty for syntax errors
	Err     error
}

func (e *ListfileError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Command, e.Err)
}

func (e *ListfileError) Unwrap() error {
	return e.Err
}

func syntaxError(file string, line int, format string, args ...any) *ListfileError {
	return &ListfileError{
		File: file,
		Line: line,
		Err:  fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...)),
	}
}

func argumentsError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrArguments, fmt.Sprintf(format, args...))
}
