// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"fmt"
	"os"
	"strings"

	"github.com/aplane-algo/cfgbridge/internal/scripting"
	"github.com/aplane-algo/cfgbridge/internal/util"
)

// RequestKind selects what a dispatch does.
type RequestKind int

const (
	RunFile RequestKind = iota
	RunFunction
	ResetInstance
)

func (k RequestKind) String() string {
	switch k {
	case RunFile:
		return "SCRIPT"
	case RunFunction:
		return "CALL"
	case ResetInstance:
		return "RESET"
	default:
		return fmt.Sprintf("RequestKind(%d)", int(k))
	}
}

// Request is a validated host request.
type Request struct {
	Kind     RequestKind
	Path     string   // RunFile: path as written, before resolution
	Function string   // RunFunction: global function name
	Args     []string // RunFunction: string arguments
}

// ParseRequest validates the raw sub-command arguments of the bridge command.
// Nothing here touches an interpreter.
func ParseRequest(args []string) (Request, error) {
	if len(args) == 0 {
		return Request{}, argumentError("missing argument(s)")
	}

	rest := args[1:]
	switch args[0] {
	case "SCRIPT":
		if len(rest) != 1 {
			return Request{}, argumentError("SCRIPT called with incorrect number of arguments, expected 1")
		}
		return Request{Kind: RunFile, Path: rest[0]}, nil
	case "CALL":
		if len(rest) < 1 {
			return Request{}, argumentError("CALL called with incorrect number of arguments, expected at least 1")
		}
		return Request{Kind: RunFunction, Function: rest[0], Args: rest[1:]}, nil
	case "RESET":
		if len(rest) != 0 {
			return Request{}, argumentError("RESET called with incorrect number of arguments, expected 0")
		}
		return Request{Kind: ResetInstance}, nil
	default:
		return Request{}, argumentError("invalid command `%s`", args[0])
	}
}

// Dispatcher routes host requests to an Instance.
type Dispatcher struct {
	inst *Instance
}

// NewDispatcher returns a dispatcher for inst.
func NewDispatcher(inst *Instance) *Dispatcher {
	return &Dispatcher{inst: inst}
}

// Instance returns the interpreter instance requests are routed to.
func (d *Dispatcher) Instance() *Instance {
	return d.inst
}

// Dispatch handles one host request. args[0] is the sub-command (SCRIPT, CALL or RESET).
func (d *Dispatcher) Dispatch(host Host, args []string) error {
	req, err := ParseRequest(args)
	if err != nil {
		return err
	}
	util.Debug("bridge dispatch", "context", d.inst.opts.Name, "request", req.Kind, "args", strings.Join(args[1:], " "))

	switch req.Kind {
	case RunFile:
		return d.runFile(host, req.Path)
	case RunFunction:
		return d.runFunction(host, req.Function, req.Args)
	default:
		if err := d.inst.Reset(); err != nil {
			return argumentError("%v", err)
		}
		return nil
	}
}

func (d *Dispatcher) runFile(host Host, spec string) error {
	path, err := host.ResolvePath(spec, host.CurrentSourceDir())
	if err != nil {
		return pathError(fmt.Sprintf("cannot resolve script location %q: %v", spec, err), err)
	}
	if host.IsDirectory(path) {
		return pathError(fmt.Sprintf("input location\n  %s\nis a directory but a file was expected.", path), nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return pathError(fmt.Sprintf("cannot read script: %v", err), err)
	}
	_ = f.Close()
	host.AddDependencyFile(path)

	return d.invoke(host, "", func(eng scripting.Engine) int {
		eng.PushGlobal(RunScriptEntry)
		eng.PushString(path)
		eng.PushHandle(host)
		return 2
	})
}

func (d *Dispatcher) runFunction(host Host, fn string, args []string) error {
	return d.invoke(host, fmt.Sprintf("CALL %s", fn), func(eng scripting.Engine) int {
		eng.PushGlobal(RunFunctionEntry)
		eng.PushGlobal(fn)
		eng.PushHandle(host)
		for _, a := range args {
			eng.PushString(a)
		}
		return 2 + len(args)
	})
}

// invoke runs one protected call through the bootstrap. The stack depth seen on entry
// is restored on every exit path, and so is the host binding of an enclosing dispatch.
func (d *Dispatcher) invoke(host Host, errPrefix string, push func(scripting.Engine) int) error {
	prev := d.inst.callbacks.current.Load()
	if err := d.inst.EnsureInitialized(host); err != nil {
		return err
	}
	eng := d.inst.engine

	d.inst.callbacks.Bind(host)
	top := eng.Top()
	d.inst.addActive(1)
	defer func() {
		d.inst.addActive(-1)
		eng.SetTop(top)
		if prev != nil {
			d.inst.callbacks.restore(prev)
		}
	}()

	nargs := push(eng)
	if err := eng.Call(nargs); err != nil {
		return scriptRuntimeError(errPrefix, err)
	}
	return nil
}
