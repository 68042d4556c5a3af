// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aplane-algo/cfgbridge/internal/scripting"
)

// bootstrapDir is the checked-in bootstrap library directory.
var bootstrapDir = filepath.Join("..", "..", "share", "cfgbridge")

var engineExt = map[string]string{
	"lua":  ".lua",
	"goja": ".js",
}

// fakeHost records everything the bridge asks of it.
type fakeHost struct {
	name      string
	defs      map[string]string
	failures  map[string]string // command name -> error text
	keepEmpty bool
	sourceDir string

	onCommand func(inv CommandInvocation) error

	commands []CommandInvocation
	deps     []string
}

func newFakeHost(t *testing.T) *fakeHost {
	return &fakeHost{
		defs:      map[string]string{},
		failures:  map[string]string{},
		sourceDir: t.TempDir(),
	}
}

func (h *fakeHost) Execute(inv CommandInvocation) error {
	h.commands = append(h.commands, inv)
	if h.onCommand != nil {
		if err := h.onCommand(inv); err != nil {
			return err
		}
	}
	if msg, ok := h.failures[inv.Name]; ok {
		return errors.New(msg)
	}
	return nil
}

func (h *fakeHost) GetDefinition(name string) (string, bool) {
	v, ok := h.defs[name]
	return v, ok
}

func (h *fakeHost) AddDependencyFile(path string) {
	h.deps = append(h.deps, path)
}

func (h *fakeHost) ResolvePath(spec, baseDir string) (string, error) {
	if filepath.IsAbs(spec) {
		return spec, nil
	}
	return filepath.Join(baseDir, spec), nil
}

func (h *fakeHost) IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (h *fakeHost) CurrentSourceDir() string { return h.sourceDir }

func (h *fakeHost) PreserveEmptyItems() bool { return h.keepEmpty }

// records returns the argument lists of every "record" command, in order.
func (h *fakeHost) records() [][]string {
	var out [][]string
	for _, inv := range h.commands {
		if inv.Name == "record" {
			out = append(out, inv.Values())
		}
	}
	return out
}

// countingFactory wraps the named engine factory and counts engine creations.
func countingFactory(t *testing.T, name string, n *int) scripting.Factory {
	t.Helper()
	f, err := scripting.NewFactory(name)
	if err != nil {
		t.Fatalf("NewFactory(%q) error = %v", name, err)
	}
	return func() (scripting.Engine, error) {
		*n++
		return f()
	}
}

// harness is one instance plus dispatcher for a given engine.
type harness struct {
	engine  string
	inst    *Instance
	d       *Dispatcher
	created int
}

func newHarness(t *testing.T, engine, bootstrap string) *harness {
	t.Helper()
	h := &harness{engine: engine}
	h.inst = NewInstance(Options{
		NewEngine:    countingFactory(t, engine, &h.created),
		BootstrapDir: bootstrap,
		Name:         t.Name(),
	})
	h.d = NewDispatcher(h.inst)
	t.Cleanup(h.inst.Close)
	return h
}

// script writes src as a script file with the engine's extension and returns its path.
func (h *harness) script(t *testing.T, dir, base, src string) string {
	t.Helper()
	path := filepath.Join(dir, base+engineExt[h.engine])
	if err := os.WriteFile(path, []byte(src), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// run dispatches SCRIPT on the per-engine source in srcs.
func (h *harness) run(t *testing.T, host *fakeHost, srcs map[string]string) error {
	t.Helper()
	path := h.script(t, host.sourceDir, "script", srcs[h.engine])
	return h.d.Dispatch(host, []string{"SCRIPT", path})
}

// forEachEngine runs fn against a fresh harness for every engine.
func forEachEngine(t *testing.T, fn func(t *testing.T, h *harness)) {
	t.Helper()
	for _, name := range scripting.EngineNames() {
		t.Run(name, func(t *testing.T) {
			fn(t, newHarness(t, name, bootstrapDir))
		})
	}
}
