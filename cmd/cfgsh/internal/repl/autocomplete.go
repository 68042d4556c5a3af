// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package repl holds the line-editing helpers of the interactive shell.
package repl

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/aplane-algo/cfgbridge/internal/cmdspec"
)

// Source supplies completion candidates from the live configuration state.
type Source interface {
	// Commands returns every command name, including shell commands like "help".
	Commands() []string

	// ArgSpecs returns the argument specs of a listfile command.
	ArgSpecs(command string) ([]cmdspec.ArgSpec, bool)

	// Variables returns the names defined in the current scope.
	Variables() []string

	// BaseDir is the directory relative paths complete against.
	BaseDir() string
}

// stringsToRuneSuggestionsPartial converts strings to suggestions showing only the remaining part
func stringsToRuneSuggestionsPartial(strs []string, partialLen int, suffix string) [][]rune {
	suggestions := make([][]rune, 0, len(strs))
	for _, s := range strs {
		if partialLen <= len(s) {
			tail := s[partialLen:]
			if !strings.HasSuffix(s, "/") {
				tail += suffix
			}
			if tail == "" {
				continue
			}
			suggestions = append(suggestions, []rune(tail))
		}
	}
	return suggestions
}

// filterByPrefix returns strings that match the prefix (case-insensitive)
func filterByPrefix(strs []string, prefix string) []string {
	prefixLower := strings.ToLower(prefix)
	var result []string
	for _, s := range strs {
		if strings.HasPrefix(strings.ToLower(s), prefixLower) {
			result = append(result, s)
		}
	}
	sort.Strings(result)
	return result
}

// Completer completes command names and, inside an argument list, arguments
// according to the command's ArgSpecs.
type Completer struct {
	source Source
}

var _ readline.AutoCompleter = (*Completer)(nil)

// NewCompleter returns a completer over source.
func NewCompleter(source Source) *Completer {
	return &Completer{source: source}
}

// Do implements readline.AutoCompleter
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	stmt := Statement(string(line[:pos]))

	open := strings.IndexByte(stmt, '(')
	if open < 0 {
		partial := strings.TrimLeft(stmt, " \t")
		if strings.ContainsAny(partial, " \t") {
			return nil, 0
		}
		return stringsToRuneSuggestionsPartial(filterByPrefix(c.source.Commands(), partial), len(partial), ""), len(partial)
	}

	name := strings.ToLower(strings.TrimSpace(stmt[:open]))
	specs, ok := c.source.ArgSpecs(name)
	if !ok {
		return nil, 0
	}

	argText := stmt[open+1:]
	args := strings.Fields(argText)
	argIndex := len(args)
	partial := ""
	if len(args) > 0 && !strings.HasSuffix(argText, " ") && !strings.HasSuffix(argText, "\t") {
		argIndex--
		partial = args[argIndex]
		args = args[:argIndex]
	}

	spec, ok := cmdspec.Resolve(specs, args, argIndex)
	if !ok {
		return nil, 0
	}
	candidates := filterByPrefix(c.suggestionsFor(spec, partial), partial)
	return stringsToRuneSuggestionsPartial(candidates, len(partial), " "), len(partial)
}

func (c *Completer) suggestionsFor(spec cmdspec.ArgSpec, partial string) []string {
	switch spec.Type {
	case cmdspec.ArgTypeKeyword:
		return spec.Values
	case cmdspec.ArgTypeVariable:
		return c.source.Variables()
	case cmdspec.ArgTypeFile:
		return c.paths(partial, false)
	case cmdspec.ArgTypeDir:
		return c.paths(partial, true)
	default:
		return nil
	}
}

// paths lists the entries next to partial. Directories carry a trailing slash so
// completion can continue into them.
func (c *Completer) paths(partial string, dirsOnly bool) []string {
	dirPart := ""
	if i := strings.LastIndex(partial, "/"); i >= 0 {
		dirPart = partial[:i+1]
	}
	dir := dirPart
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.source.BaseDir(), dirPart)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") && !strings.HasPrefix(partial[len(dirPart):], ".") {
			continue
		}
		switch {
		case e.IsDir():
			out = append(out, dirPart+e.Name()+"/")
		case !dirsOnly:
			out = append(out, dirPart+e.Name())
		}
	}
	return out
}
