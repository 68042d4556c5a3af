// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"errors"
	"fmt"

	"github.com/aplane-algo/cfgbridge/internal/scripting"
)

var (
	// ErrArgument indicates a malformed request, rejected before touching the interpreter
	ErrArgument = errors.New("argument error")

	// ErrPath indicates a script path that is a directory or cannot be resolved
	ErrPath = errors.New("path error")

	// ErrInitialization indicates the bootstrap library could not be loaded.
	// The instance stays Failed until it is explicitly reset.
	ErrInitialization = errors.New("initialization error")

	// ErrScriptRuntime indicates the script raised, or a CALL target is missing
	ErrScriptRuntime = errors.New("script runtime error")

	// ErrHostCommand indicates a host command invoked from a script failed
	ErrHostCommand = errors.New("host command error")
)

// Error is a bridge failure. Its text is what the host reports to the user.
type Error struct {
	Kind error  // one of the Err* sentinels
	Msg  string // host-visible message
	Err  error  // underlying cause, if any
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func argumentError(format string, args ...any) *Error {
	return &Error{Kind: ErrArgument, Msg: fmt.Sprintf(format, args...)}
}

func pathError(msg string, cause error) *Error {
	return &Error{Kind: ErrPath, Msg: msg, Err: cause}
}

func initializationError(msg string, cause error) *Error {
	if cause != nil {
		msg = msg + ": " + cause.Error()
	}
	return &Error{Kind: ErrInitialization, Msg: msg, Err: cause}
}

// scriptRuntimeError translates an interpreter failure. The interpreter's text is kept
// verbatim; prefix names the request when the text alone would not identify it.
func scriptRuntimeError(prefix string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	var scriptErr *scripting.ScriptError
	if errors.As(err, &scriptErr) {
		msg = scriptErr.Message
	}
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	return &Error{Kind: ErrScriptRuntime, Msg: msg, Err: err}
}

// hostCommandError wraps a host command failure for logging.
func hostCommandError(inv CommandInvocation, err error) *Error {
	return &Error{
		Kind: ErrHostCommand,
		Msg:  fmt.Sprintf("%s (line %d): %v", inv.Name, inv.Line, err),
		Err:  err,
	}
}

// commandResult converts the outcome of a host command into the script-visible
// two-value result. Failures never abort the interpreter.
func commandResult(err error) NativeResult {
	if err == nil {
		return NativeResult{Success: true}
	}
	msg := err.Error()
	if msg == "" {
		msg = "command failed"
	}
	return NativeResult{Success: false, Error: msg}
}
