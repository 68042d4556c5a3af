// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package configure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aplane-algo/cfgbridge/internal/bridge"
	"github.com/aplane-algo/cfgbridge/internal/command"
	"github.com/aplane-algo/cfgbridge/internal/util"
)

// Scope is one configuration context: a source directory with its own definitions
// and its own script interpreter. Scope implements bridge.Host.
type Scope struct {
	project    *Project
	parent     *Scope
	defs       map[string]string
	sourceDir  string
	file       string // listfile being processed
	keepEmpty  bool
	instance   *bridge.Instance
	dispatcher *bridge.Dispatcher
}

var _ bridge.Host = (*Scope)(nil)

// Project returns the owning project.
func (s *Scope) Project() *Project { return s.project }

// Parent returns the enclosing scope, nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// SourceDir returns the scope's source directory.
func (s *Scope) SourceDir() string { return s.sourceDir }

// File returns the listfile currently being processed, if any.
func (s *Scope) File() string { return s.file }

// Bridge returns the scope's script interpreter instance.
func (s *Scope) Bridge() *bridge.Instance { return s.instance }

// Get returns the value of a definition.
func (s *Scope) Get(name string) (string, bool) {
	v, ok := s.defs[name]
	return v, ok
}

// Set defines name in this scope.
func (s *Scope) Set(name, value string) {
	s.defs[name] = value
}

// Unset removes name from this scope.
func (s *Scope) Unset(name string) {
	delete(s.defs, name)
}

// Names returns the defined names (unordered).
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	return names
}

// Execute runs a host command issued by a script. Script arguments are complete
// values: they are neither variable-expanded nor list-split.
func (s *Scope) Execute(inv bridge.CommandInvocation) error {
	return s.invoke(inv)
}

func (s *Scope) GetDefinition(name string) (string, bool) {
	return s.Get(name)
}

func (s *Scope) AddDependencyFile(path string) {
	s.project.AddDependency(path)
}

func (s *Scope) ResolvePath(spec, baseDir string) (string, error) {
	if spec == "" {
		return "", errors.New("empty path")
	}
	return filepath.Clean(util.ResolvePath(spec, baseDir)), nil
}

func (s *Scope) IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (s *Scope) CurrentSourceDir() string {
	return s.sourceDir
}

func (s *Scope) PreserveEmptyItems() bool {
	return s.keepEmpty
}

// invoke looks up and runs a command. Unquoted arguments are split on list separators.
func (s *Scope) invoke(inv bridge.CommandInvocation) error {
	cmd, ok := s.project.registry.Lookup(inv.Name)
	if !ok {
		return fmt.Errorf("%w `%s`", ErrUnknownCommand, inv.Name)
	}

	args := make([]string, 0, len(inv.Args))
	for _, a := range inv.Args {
		if a.Quoted {
			args = append(args, a.Value)
			continue
		}
		args = append(args, bridge.ExpandList(a.Value, false)...)
	}
	if len(args) < cmd.MinArgs {
		return argumentsError("%s called with incorrect number of arguments", cmd.Name)
	}

	ctx := &command.Context{
		Name:   inv.Name,
		File:   s.file,
		Line:   inv.Line,
		Stdout: s.project.opts.Stdout,
		Stderr: s.project.opts.Stderr,
		Scope:  s,
	}
	err := cmd.Handler.Execute(args, ctx)
	if errors.Is(err, ErrFatal) && s.project.fatal == nil {
		s.project.fatal = err
	}
	return err
}

// RunListfile parses and runs a listfile in this scope. The file becomes a dependency.
func (s *Scope) RunListfile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read listfile: %w", err)
	}
	s.project.AddDependency(path)
	return s.run(path, src)
}

// RunString runs listfile text. name labels it in error messages.
func (s *Scope) RunString(name, text string) error {
	return s.run(name, []byte(text))
}

func (s *Scope) run(name string, src []byte) error {
	invs, err := ParseListfile(name, src)
	if err != nil {
		return err
	}

	prevFile := s.file
	prevDef, hadDef := s.defs[VarCurrentListFile]
	s.file = name
	s.defs[VarCurrentListFile] = name
	defer func() {
		s.file = prevFile
		if hadDef {
			s.defs[VarCurrentListFile] = prevDef
		} else {
			delete(s.defs, VarCurrentListFile)
		}
	}()

	util.Debug("processing listfile", "file", name, "commands", len(invs))
	for _, inv := range invs {
		if err := s.runInvocation(name, inv); err != nil {
			return err
		}
		if fatal := s.project.Fatal(); fatal != nil {
			// Raised from a script; the command itself reported success
			return &ListfileError{File: name, Line: inv.Line, Command: inv.Name, Err: fatal}
		}
	}
	return nil
}

func (s *Scope) runInvocation(file string, inv Invocation) error {
	expanded := bridge.CommandInvocation{
		Name: inv.Name,
		Line: inv.Line,
		Args: make([]bridge.Argument, len(inv.Args)),
	}
	for i, a := range inv.Args {
		v, err := ExpandVariables(a.Value, s.Get)
		if err != nil {
			return &ListfileError{File: file, Line: inv.Line, Command: inv.Name, Err: err}
		}
		expanded.Args[i] = bridge.Argument{Value: v, Quoted: a.Quoted}
	}

	err := s.invoke(expanded)
	if err == nil {
		return nil
	}
	// Errors from nested listfiles already carry their own position
	var lfErr *ListfileError
	if errors.As(err, &lfErr) {
		return err
	}
	return &ListfileError{File: file, Line: inv.Line, Command: inv.Name, Err: err}
}
