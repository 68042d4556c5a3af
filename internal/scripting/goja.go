// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package scripting

import (
	"errors"
	"fmt"
	"os"

	"github.com/dop251/goja"
)

// GojaEngine implements Engine using the Goja JavaScript interpreter.
//
// Goja has no value stack of its own at the embedding layer, so the engine keeps one:
// pushed values wait on it until Call consumes them.
type GojaEngine struct {
	vm        *goja.Runtime
	stack     []goja.Value
	hook      PositionHook
	libraries map[string]bool
	depth     int // Call/DoFile frames currently running
}

// NewGojaEngine creates a new Goja-based engine.
func NewGojaEngine() *GojaEngine {
	e := &GojaEngine{
		vm:        goja.New(),
		libraries: make(map[string]bool),
	}
	// Registration errors are programming bugs, not runtime errors
	if err := e.vm.Set("__bridge_dofile", e.jsDoFile); err != nil {
		panic("failed to register __bridge_dofile: " + err.Error())
	}
	return e
}

func (e *GojaEngine) Name() string { return "goja" }

func (e *GojaEngine) BootstrapFile() string { return "bootstrap-v1.js" }

func (e *GojaEngine) Top() int { return len(e.stack) }

func (e *GojaEngine) SetTop(n int) {
	if n < 0 {
		n = 0
	}
	for len(e.stack) < n {
		e.stack = append(e.stack, goja.Undefined())
	}
	clear(e.stack[n:])
	e.stack = e.stack[:n]
}

func (e *GojaEngine) PushString(s string) {
	e.stack = append(e.stack, e.vm.ToValue(s))
}

func (e *GojaEngine) PushGlobal(name string) {
	v := e.vm.Get(name)
	if v == nil {
		v = goja.Undefined()
	}
	e.stack = append(e.stack, v)
}

// PushHandle pushes an empty object standing in for h. The host value itself is never
// exposed, so scripts cannot reach its methods.
func (e *GojaEngine) PushHandle(h any) {
	e.stack = append(e.stack, e.vm.NewObject())
}

// Call pops the function and its arguments before invoking it, so a nested Call made
// from inside a native function sees a consistent stack.
func (e *GojaEngine) Call(nargs int) error {
	base := len(e.stack) - nargs - 1
	if nargs < 0 || base < 0 {
		return fmt.Errorf("call with %d arguments on a stack of depth %d", nargs, len(e.stack))
	}
	fn := e.stack[base]
	args := make([]goja.Value, nargs)
	copy(args, e.stack[base+1:])
	e.SetTop(base)

	callable, ok := goja.AssertFunction(fn)
	if !ok {
		return &ScriptError{Message: fmt.Sprintf("attempt to call a %s value", jsTypeName(fn))}
	}
	defer e.enter()()
	_, err := callable(goja.Undefined(), args...)
	return e.convertError(err)
}

// DoFile executes a library file. Its frames are skipped when reporting positions.
func (e *GojaEngine) DoFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	e.libraries[path] = true
	defer e.enter()()
	_, err = e.vm.RunScript(path, string(src))
	return e.convertError(err)
}

// enter marks the start of a Call or DoFile and returns its matching exit.
// An interrupt that arrived while nothing was running is dropped at the outermost entry.
func (e *GojaEngine) enter() func() {
	if e.depth == 0 {
		e.vm.ClearInterrupt()
	}
	e.depth++
	return func() { e.depth-- }
}

func (e *GojaEngine) HasGlobal(name string) bool {
	v := e.vm.Get(name)
	return v != nil && !goja.IsUndefined(v)
}

func (e *GojaEngine) GlobalString(name string) (string, bool) {
	v := e.vm.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", false
	}
	return v.String(), true
}

func (e *GojaEngine) Register(name string, fn NativeFunc) error {
	native := func(call goja.FunctionCall) goja.Value {
		e.reportPosition()
		args, err := e.stringArgs(name, call.Arguments)
		if err != nil {
			panic(e.vm.ToValue(err.Error()))
		}
		results, err := fn(args)
		if err != nil {
			panic(e.vm.ToValue(err.Error()))
		}
		return e.toResult(results)
	}
	if err := e.vm.Set(name, native); err != nil {
		return fmt.Errorf("failed to register %s: %w", name, err)
	}
	return nil
}

func (e *GojaEngine) SetPositionHook(hook PositionHook) {
	e.hook = hook
}

// Interrupt stops the currently running script.
// Safe to call from another goroutine (e.g., from a signal handler).
func (e *GojaEngine) Interrupt(reason string) {
	e.vm.Interrupt(reason)
}

func (e *GojaEngine) Close() {
	e.SetTop(0)
	e.hook = nil
}

// Runtime returns the underlying Goja runtime.
// Use sparingly - prefer the Engine interface for portability.
func (e *GojaEngine) Runtime() *goja.Runtime {
	return e.vm
}

// jsDoFile runs a script file from inside a running script: __bridge_dofile(path)
func (e *GojaEngine) jsDoFile(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) < 1 {
		panic(e.vm.ToValue("__bridge_dofile() requires a path argument"))
	}
	path := call.Arguments[0].String()
	src, err := os.ReadFile(path)
	if err != nil {
		panic(e.vm.ToValue(fmt.Sprintf("cannot open %s", path)))
	}
	_, err = e.vm.RunScript(path, string(src))
	if err == nil {
		return goja.Undefined()
	}

	var jsErr *goja.Exception
	var interrupted *goja.InterruptedError
	switch {
	case errors.As(err, &jsErr):
		panic(jsErr)
	case errors.As(err, &interrupted):
		// Re-arm the interrupt so the outer run stops as well
		e.vm.Interrupt(interrupted.Value())
		return goja.Undefined()
	default:
		panic(e.vm.ToValue(err.Error()))
	}
}

// reportPosition fires the hook with the innermost line that belongs to a user script.
func (e *GojaEngine) reportPosition() {
	if e.hook == nil {
		return
	}
	for _, frame := range e.vm.CaptureCallStack(0, nil) {
		line := frame.Position().Line
		if line <= 0 || e.libraries[frame.SrcName()] {
			continue
		}
		e.hook(line)
		return
	}
}

// stringArgs converts call arguments to strings.
// Numbers and booleans are stringified; anything else is rejected.
func (e *GojaEngine) stringArgs(fnName string, values []goja.Value) ([]string, error) {
	args := make([]string, len(values))
	for i, v := range values {
		switch v.Export().(type) {
		case string, int64, float64, bool:
			args[i] = v.String()
		default:
			return nil, fmt.Errorf("bad argument #%d to '%s' (string expected, got %s)", i+1, fnName, jsTypeName(v))
		}
	}
	return args, nil
}

// toResult converts native results: none -> undefined, one -> value, several -> array.
func (e *GojaEngine) toResult(results []Value) goja.Value {
	switch len(results) {
	case 0:
		return goja.Undefined()
	case 1:
		return e.toValue(results[0])
	}
	items := make([]interface{}, len(results))
	for i, r := range results {
		items[i] = e.toValue(r)
	}
	return e.vm.NewArray(items...)
}

func (e *GojaEngine) toValue(v Value) goja.Value {
	switch val := v.(type) {
	case nil:
		return goja.Null()
	case []string:
		items := make([]interface{}, len(val))
		for i, s := range val {
			items[i] = s
		}
		return e.vm.NewArray(items...)
	default:
		return e.vm.ToValue(val)
	}
}

// convertError converts Goja exceptions to *ScriptError with clean messages.
func (e *GojaEngine) convertError(err error) error {
	if err == nil {
		return nil
	}
	var jsErr *goja.Exception
	if errors.As(err, &jsErr) {
		return &ScriptError{Message: jsErr.Error()}
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		e.vm.ClearInterrupt()
		return &ScriptError{Message: interrupted.Error()}
	}
	return &ScriptError{Message: err.Error()}
}

func jsTypeName(v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	}
	if _, ok := goja.AssertFunction(v); ok {
		return "function"
	}
	switch v.Export().(type) {
	case string:
		return "string"
	case int64, float64:
		return "number"
	case bool:
		return "boolean"
	}
	return "object"
}

// Compile-time interface check
var _ Engine = (*GojaEngine)(nil)
