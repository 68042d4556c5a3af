// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package configure is the build-configuration host: it reads listfiles, runs host
// commands and hosts one script bridge instance per configuration scope.
package configure

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aplane-algo/cfgbridge/internal/bridge"
	"github.com/aplane-algo/cfgbridge/internal/command"
	"github.com/aplane-algo/cfgbridge/internal/fsutil"
	"github.com/aplane-algo/cfgbridge/internal/scripting"
	"github.com/aplane-algo/cfgbridge/internal/util"
)

// Definitions set on every scope.
const (
	VarSourceDir        = "CFG_SOURCE_DIR"
	VarCurrentSourceDir = "CFG_CURRENT_SOURCE_DIR"
	VarCurrentListFile  = "CFG_CURRENT_LIST_FILE"
	VarScriptEngine     = "CFG_SCRIPT_ENGINE"
)

// Options configures a Project.
type Options struct {
	// Engine names the script engine ("lua", "goja"). Ignored when NewEngine is set.
	Engine string

	// NewEngine overrides the engine factory.
	NewEngine scripting.Factory

	// BootstrapDir holds the bridge bootstrap libraries.
	BootstrapDir string

	// PreserveEmptyItems is the initial EMPTY_LIST_ITEMS policy.
	PreserveEmptyItems bool

	// Listfile is the file read from each source directory (default Configure.txt).
	Listfile string

	// Definitions are set on the root scope before its listfile runs (-D NAME=VALUE).
	Definitions map[string]string

	Stdout  io.Writer
	Stderr  io.Writer
	Painter util.Painter
}

// Project holds the state shared by every scope of one configuration run.
type Project struct {
	opts     Options
	factory  scripting.Factory
	registry *command.Registry

	deps   []string
	depSet map[string]bool

	errors []error // SEND_ERROR reports
	fatal  error

	root *Scope

	mu     sync.Mutex // guards scopes; Interrupt may run on a signal goroutine
	scopes []*Scope    // every scope still holding an interpreter
}

// NewProject validates opts and registers the built-in commands.
func NewProject(opts Options) (*Project, error) {
	if opts.Listfile == "" {
		opts.Listfile = util.DefaultListfile
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	factory := opts.NewEngine
	if factory == nil {
		if opts.Engine == "" {
			opts.Engine = util.DefaultConfig().Engine
		}
		f, err := scripting.NewFactory(opts.Engine)
		if err != nil {
			return nil, err
		}
		factory = f
	}

	p := &Project{
		opts:     opts,
		factory:  factory,
		registry: command.NewRegistry(),
		depSet:   make(map[string]bool),
	}
	if err := registerBuiltins(p.registry); err != nil {
		return nil, fmt.Errorf("failed to register built-in commands: %w", err)
	}
	return p, nil
}

// Registry returns the host command registry.
func (p *Project) Registry() *command.Registry {
	return p.registry
}

// Configure runs the listfile of sourceDir in a fresh root scope.
// SEND_ERROR reports do not stop processing but make Configure return ErrIncomplete.
func (p *Project) Configure(sourceDir string) error {
	root, err := p.Root(sourceDir)
	if err != nil {
		return err
	}
	if err := root.RunListfile(filepath.Join(root.SourceDir(), p.opts.Listfile)); err != nil {
		return err
	}
	if len(p.errors) > 0 {
		return ErrIncomplete
	}
	return nil
}

// Root returns the root scope, creating it for sourceDir on first use.
func (p *Project) Root(sourceDir string) (*Scope, error) {
	if p.root != nil {
		return p.root, nil
	}
	abs, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve source directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("source directory %s does not exist", abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source directory %s is not a directory", abs)
	}

	p.root = p.newScope(nil, abs)
	p.root.defs[VarSourceDir] = abs
	for name, value := range p.opts.Definitions {
		p.root.defs[name] = value
	}
	return p.root, nil
}

func (p *Project) newScope(parent *Scope, sourceDir string) *Scope {
	s := &Scope{
		project:   p,
		parent:    parent,
		defs:      make(map[string]string),
		sourceDir: sourceDir,
		keepEmpty: p.opts.PreserveEmptyItems,
	}
	if parent != nil {
		for k, v := range parent.defs {
			s.defs[k] = v
		}
		s.keepEmpty = parent.keepEmpty
	}
	s.defs[VarCurrentSourceDir] = sourceDir
	s.defs[VarScriptEngine] = p.opts.Engine

	s.instance = bridge.NewInstance(bridge.Options{
		NewEngine:    p.factory,
		BootstrapDir: p.opts.BootstrapDir,
		Name:         sourceDir,
	})
	s.dispatcher = bridge.NewDispatcher(s.instance)

	p.mu.Lock()
	p.scopes = append(p.scopes, s)
	p.mu.Unlock()
	return s
}

func (p *Project) releaseScope(s *Scope) {
	s.instance.Close()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, other := range p.scopes {
		if other == s {
			p.scopes = append(p.scopes[:i], p.scopes[i+1:]...)
			return
		}
	}
}

// AddDependency records path as an input of the configuration. Duplicates are ignored.
func (p *Project) AddDependency(path string) {
	if p.depSet[path] {
		return
	}
	p.depSet[path] = true
	p.deps = append(p.deps, path)
	util.Debug("dependency added", "path", path)
}

// Dependencies returns every recorded input file in first-seen order.
func (p *Project) Dependencies() []string {
	out := make([]string, len(p.deps))
	copy(out, p.deps)
	return out
}

// Errors returns the SEND_ERROR reports so far.
func (p *Project) Errors() []error {
	out := make([]error, len(p.errors))
	copy(out, p.errors)
	return out
}

// Fatal returns the FATAL_ERROR that stopped processing, if any.
func (p *Project) Fatal() error {
	return p.fatal
}

// ClearFatal lets processing continue after a FATAL_ERROR, e.g. in an interactive session.
func (p *Project) ClearFatal() {
	p.fatal = nil
}

func (p *Project) reportError(err error) {
	p.errors = append(p.errors, err)
}

// Interrupt aborts whatever script is running in any scope.
func (p *Project) Interrupt(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.scopes {
		s.instance.Interrupt(reason)
	}
}

// Reset clears the outcome of a previous run so Configure can run again.
// Interpreters are closed; scopes are recreated on the next Configure.
func (p *Project) Reset() {
	p.Close()
	p.root = nil
	p.deps = nil
	p.depSet = make(map[string]bool)
	p.errors = nil
	p.fatal = nil
}

// Close destroys every interpreter.
func (p *Project) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.scopes {
		s.instance.Close()
	}
	p.scopes = nil
}

// Depfile renders the dependency manifest in Make syntax: "target: dep dep ...".
func (p *Project) Depfile(target string) string {
	var b strings.Builder
	b.WriteString(escapeMake(target))
	b.WriteString(":")
	for _, dep := range p.deps {
		b.WriteString(" \\\n  ")
		b.WriteString(escapeMake(dep))
	}
	b.WriteString("\n")

	// Phony targets keep make working when an input is deleted
	sorted := p.Dependencies()
	sort.Strings(sorted)
	for _, dep := range sorted {
		b.WriteString("\n")
		b.WriteString(escapeMake(dep))
		b.WriteString(":\n")
	}
	return b.String()
}

// WriteDepfile writes Depfile(target) to path atomically.
func (p *Project) WriteDepfile(path, target string) error {
	return fsutil.WriteFileAtomic(path, []byte(p.Depfile(target)))
}

func escapeMake(s string) string {
	r := strings.NewReplacer(" ", `\ `, "#", `\#`, "$", "$$")
	return r.Replace(s)
}
