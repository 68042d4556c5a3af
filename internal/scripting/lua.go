// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package scripting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// LuaEngine implements Engine using the gopher-lua interpreter.
// The Engine stack is the Lua state's own value stack.
type LuaEngine struct {
	L         *lua.LState
	cancel    context.CancelFunc
	hook      PositionHook
	libraries map[string]bool
}

// NewLuaEngine creates a new Lua state with the standard libraries opened.
func NewLuaEngine() *LuaEngine {
	L := lua.NewState()
	ctx, cancel := context.WithCancel(context.Background())
	L.SetContext(ctx)
	return &LuaEngine{
		L:         L,
		cancel:    cancel,
		libraries: make(map[string]bool),
	}
}

func (e *LuaEngine) Name() string { return "lua" }

func (e *LuaEngine) BootstrapFile() string { return "bootstrap-v1.lua" }

func (e *LuaEngine) Top() int { return e.L.GetTop() }

func (e *LuaEngine) SetTop(n int) {
	if n < 0 {
		n = 0
	}
	e.L.SetTop(n)
}

func (e *LuaEngine) PushString(s string) {
	e.L.Push(lua.LString(s))
}

func (e *LuaEngine) PushGlobal(name string) {
	e.L.Push(e.L.GetGlobal(name))
}

func (e *LuaEngine) PushHandle(h any) {
	ud := e.L.NewUserData()
	ud.Value = h
	e.L.Push(ud)
}

func (e *LuaEngine) Call(nargs int) error {
	if nargs < 0 || e.L.GetTop() < nargs+1 {
		return fmt.Errorf("call with %d arguments on a stack of depth %d", nargs, e.L.GetTop())
	}
	return convertLuaError(e.L.PCall(nargs, 0, nil))
}

// DoFile executes a library file. Its frames are skipped when reporting positions.
// Values returned by the chunk are discarded.
func (e *LuaEngine) DoFile(path string) error {
	top := e.L.GetTop()
	defer e.L.SetTop(top)

	fn, err := e.L.LoadFile(path)
	if err != nil {
		return convertLuaError(err)
	}
	e.libraries[path] = true
	e.L.Push(fn)
	return convertLuaError(e.L.PCall(0, 0, nil))
}

func (e *LuaEngine) HasGlobal(name string) bool {
	return e.L.GetGlobal(name) != lua.LNil
}

func (e *LuaEngine) GlobalString(name string) (string, bool) {
	v := e.L.GetGlobal(name)
	if v == lua.LNil {
		return "", false
	}
	return v.String(), true
}

func (e *LuaEngine) Register(name string, fn NativeFunc) error {
	e.L.SetGlobal(name, e.L.NewFunction(func(L *lua.LState) int {
		e.reportPosition()
		args := luaStringArgs(L, name)
		results, err := fn(args)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		for _, r := range results {
			L.Push(toLuaValue(L, r))
		}
		return len(results)
	}))
	return nil
}

func (e *LuaEngine) SetPositionHook(hook PositionHook) {
	e.hook = hook
}

// Interrupt cancels the state's context; every later call fails as well.
func (e *LuaEngine) Interrupt(reason string) {
	e.cancel()
}

func (e *LuaEngine) Close() {
	e.hook = nil
	e.cancel()
	e.L.Close()
}

// reportPosition walks outward from the running native function and fires the hook
// with the first line that belongs to a user script.
func (e *LuaEngine) reportPosition() {
	if e.hook == nil {
		return
	}
	for level := 1; ; level++ {
		dbg, ok := e.L.GetStack(level)
		if !ok {
			return
		}
		if _, err := e.L.GetInfo("Sl", dbg, lua.LNil); err != nil {
			return
		}
		if dbg.CurrentLine <= 0 || e.isLibrary(dbg.Source) {
			continue
		}
		e.hook(dbg.CurrentLine)
		return
	}
}

func (e *LuaEngine) isLibrary(source string) bool {
	return e.libraries[source] || e.libraries[strings.TrimPrefix(source, "@")]
}

// luaStringArgs reads every argument as a string.
// Numbers and booleans are stringified; anything else raises an argument error.
func luaStringArgs(L *lua.LState, fnName string) []string {
	n := L.GetTop()
	args := make([]string, n)
	for i := 1; i <= n; i++ {
		v := L.Get(i)
		switch v.Type() {
		case lua.LTString, lua.LTNumber:
			args[i-1] = lua.LVAsString(v)
		case lua.LTBool:
			args[i-1] = v.String()
		default:
			L.ArgError(i, fmt.Sprintf("string expected, got %s", v.Type().String()))
		}
	}
	return args
}

func toLuaValue(L *lua.LState, v Value) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(val)
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case []string:
		tbl := L.CreateTable(len(val), 0)
		for _, s := range val {
			tbl.Append(lua.LString(s))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// convertLuaError converts Lua API errors to *ScriptError without the Go-side traceback.
func convertLuaError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return &ScriptError{Message: apiErr.Object.String()}
	}
	return &ScriptError{Message: err.Error()}
}

// Compile-time interface check
var _ Engine = (*LuaEngine)(nil)
