// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/aplane-algo/cfgbridge/internal/scripting"
	"github.com/aplane-algo/cfgbridge/internal/util"
)

// Native function names visible to scripts.
const (
	NativeCommand    = "host_command"
	NativeDefinition = "host_definition"
	NativeExpandList = "host_expand_list"
)

var errNoHost = errors.New("no host context bound")

// binding is the host handle captured for one interpreter instance.
type binding struct {
	host Host
}

// Callbacks owns the native functions of one interpreter instance.
// Every callback resolves its host through the captured binding, loaded once at entry,
// so a rebind during a nested dispatch never changes the host of an in-flight call.
type Callbacks struct {
	current atomic.Pointer[binding]
	tracker *LineTracker
}

func newCallbacks(tracker *LineTracker) *Callbacks {
	return &Callbacks{tracker: tracker}
}

// Bind captures host and returns the previously bound binding (nil if none).
func (c *Callbacks) Bind(host Host) *binding {
	return c.current.Swap(&binding{host: host})
}

// restore reinstates a binding returned by Bind.
func (c *Callbacks) restore(b *binding) {
	c.current.Store(b)
}

// Host returns the currently bound host, or nil.
func (c *Callbacks) Host() Host {
	if b := c.current.Load(); b != nil {
		return b.host
	}
	return nil
}

// Register installs the three native functions on eng.
func (c *Callbacks) Register(eng scripting.Engine) error {
	natives := []struct {
		name string
		fn   scripting.NativeFunc
	}{
		{NativeCommand, c.issueCommand},
		{NativeDefinition, c.getDefinition},
		{NativeExpandList, c.expandList},
	}
	for _, n := range natives {
		if err := eng.Register(n.name, n.fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", n.name, err)
		}
	}
	return nil
}

func (c *Callbacks) bound(fnName string) (Host, error) {
	b := c.current.Load()
	if b == nil || b.host == nil {
		return nil, fmt.Errorf("%s(): %w", fnName, errNoHost)
	}
	return b.host, nil
}

// issueCommand implements host_command(name, ...) -> (ok, err)
func (c *Callbacks) issueCommand(args []string) ([]scripting.Value, error) {
	host, err := c.bound(NativeCommand)
	if err != nil {
		return nil, err
	}
	if len(args) < 1 || args[0] == "" {
		return nil, fmt.Errorf("%s() requires a command name", NativeCommand)
	}

	inv := newInvocation(args[0], c.tracker.Line(), args[1:])
	execErr := host.Execute(inv)
	if execErr != nil {
		util.Debug("host command failed", "error", hostCommandError(inv, execErr))
	}
	return commandResult(execErr).Values(), nil
}

// getDefinition implements host_definition(name) -> string|nil
func (c *Callbacks) getDefinition(args []string) ([]scripting.Value, error) {
	host, err := c.bound(NativeDefinition)
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("%s() requires a name argument", NativeDefinition)
	}

	value, ok := host.GetDefinition(args[0])
	if !ok {
		return []scripting.Value{nil}, nil
	}
	return []scripting.Value{value}, nil
}

// expandList implements host_expand_list(value) -> (items, count)
func (c *Callbacks) expandList(args []string) ([]scripting.Value, error) {
	host, err := c.bound(NativeExpandList)
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("%s() requires a value argument", NativeExpandList)
	}

	items := ExpandList(args[0], host.PreserveEmptyItems())
	return newListExpansion(items).Values(), nil
}
