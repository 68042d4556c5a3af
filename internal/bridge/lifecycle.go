// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aplane-algo/cfgbridge/internal/scripting"
	"github.com/aplane-algo/cfgbridge/internal/util"
)

// Globals defined by the bootstrap library.
const (
	BootstrapMarker    = "__bridge_bootstrap_version"
	BootstrapLoadCount = "__bridge_bootstrap_loads"
	RunScriptEntry     = "__bridge_run_script"
	RunFunctionEntry   = "__bridge_run_function"
)

// State is the lifecycle state of an Instance.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrBusy is returned by Reset while a script is running on the instance.
var ErrBusy = errors.New("cannot reset the interpreter while a script is running")

// Options configures an Instance.
type Options struct {
	// NewEngine creates the interpreter on first use.
	NewEngine scripting.Factory

	// BootstrapDir holds the engine's bootstrap library.
	BootstrapDir string

	// Name identifies the owning context in log output.
	Name string
}

// Instance is the interpreter of one host configuration context.
//
// It is created lazily by EnsureInitialized and reused by every later dispatch in the
// same context. An Instance is not safe for concurrent use, except for Interrupt;
// reentrant calls from the same goroutine are expected.
type Instance struct {
	opts      Options
	state     State
	mu        sync.Mutex // guards engine and active for Interrupt, which may come from a signal handler
	engine    scripting.Engine
	tracker   LineTracker
	callbacks *Callbacks
	initErr   error
	version   string
	active    int // dispatches currently running on engine
}

// NewInstance returns an uninitialized Instance.
func NewInstance(opts Options) *Instance {
	in := &Instance{opts: opts}
	in.callbacks = newCallbacks(&in.tracker)
	return in
}

// State returns the current lifecycle state.
func (in *Instance) State() State {
	return in.state
}

// Engine returns the interpreter, or nil unless the instance is Ready.
func (in *Instance) Engine() scripting.Engine {
	if in.state != StateReady {
		return nil
	}
	return in.engine
}

// Line returns the most recent script line reported by the interpreter.
func (in *Instance) Line() int {
	return in.tracker.Line()
}

// BootstrapVersion returns the version string published by the loaded bootstrap.
func (in *Instance) BootstrapVersion() string {
	return in.version
}

// Err returns the recorded initialization failure while the instance is Failed.
func (in *Instance) Err() error {
	return in.initErr
}

// EnsureInitialized makes the instance Ready, loading the bootstrap at most once.
// On a Ready instance it only rebinds the host handle when host differs.
func (in *Instance) EnsureInitialized(host Host) error {
	switch in.state {
	case StateReady:
		if in.callbacks.Host() != host {
			in.callbacks.Bind(host)
		}
		return nil
	case StateFailed:
		return in.initErr
	case StateInitializing:
		return initializationError("initialization already in progress", nil)
	}

	in.state = StateInitializing
	util.Debug("initializing script bridge", "context", in.opts.Name)

	if err := in.initialize(host); err != nil {
		in.dropEngine()
		in.state = StateFailed
		in.initErr = err
		util.Debug("script bridge initialization failed", "context", in.opts.Name, "error", err)
		return err
	}

	in.state = StateReady
	return nil
}

func (in *Instance) initialize(host Host) error {
	if in.opts.NewEngine == nil {
		return initializationError("no script engine configured", nil)
	}
	eng, err := in.opts.NewEngine()
	if err != nil {
		return initializationError("failed to create script engine", err)
	}
	in.mu.Lock()
	in.engine = eng
	in.mu.Unlock()

	in.callbacks.Bind(host)
	if err := in.callbacks.Register(eng); err != nil {
		return initializationError("failed to register host callbacks", err)
	}
	eng.SetPositionHook(in.tracker.Hook())

	path := filepath.Join(in.opts.BootstrapDir, eng.BootstrapFile())
	info, err := os.Stat(path)
	if err != nil {
		return initializationError(fmt.Sprintf("bootstrap library %s could not be found", path), nil)
	}
	if info.IsDir() {
		return initializationError(fmt.Sprintf("bootstrap library %s is a directory", path), nil)
	}

	top := eng.Top()
	defer eng.SetTop(top)
	if err := eng.DoFile(path); err != nil {
		return initializationError(fmt.Sprintf("failed to load bootstrap library %s", path), err)
	}

	version, ok := eng.GlobalString(BootstrapMarker)
	if !ok {
		return initializationError(fmt.Sprintf("bootstrap library %s does not define %s", path, BootstrapMarker), nil)
	}
	for _, entry := range []string{RunScriptEntry, RunFunctionEntry} {
		if !eng.HasGlobal(entry) {
			return initializationError(fmt.Sprintf("bootstrap library %s does not define %s", path, entry), nil)
		}
	}
	in.version = version

	util.Debug("script bridge ready",
		"context", in.opts.Name,
		"engine", eng.Name(),
		"bootstrap", path,
		"version", version)
	return nil
}

// Reset discards the interpreter and any recorded initialization failure.
// The next dispatch initializes from scratch.
func (in *Instance) Reset() error {
	if in.active > 0 {
		return ErrBusy
	}
	in.Close()
	util.Debug("script bridge reset", "context", in.opts.Name)
	return nil
}

// Interrupt aborts the script currently running on the instance, if any.
// An idle instance is left untouched.
func (in *Instance) Interrupt(reason string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.engine != nil && in.active > 0 {
		in.engine.Interrupt(reason)
	}
}

func (in *Instance) addActive(n int) {
	in.mu.Lock()
	in.active += n
	in.mu.Unlock()
}

func (in *Instance) dropEngine() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.engine != nil {
		in.engine.Close()
		in.engine = nil
	}
}

// Close destroys the interpreter. The instance returns to Uninitialized.
func (in *Instance) Close() {
	in.dropEngine()
	in.state = StateUninitialized
	in.initErr = nil
	in.version = ""
	in.tracker = LineTracker{}
	in.callbacks.restore(nil)
}
