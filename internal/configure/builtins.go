// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package configure

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aplane-algo/cfgbridge/internal/bridge"
	"github.com/aplane-algo/cfgbridge/internal/cmdspec"
	"github.com/aplane-algo/cfgbridge/internal/command"
	"github.com/aplane-algo/cfgbridge/internal/util"
)

// scopeHandler adapts a function over *Scope to command.Handler.
func scopeHandler(fn func(s *Scope, args []string, ctx *command.Context) error) command.Handler {
	return command.NewInternalHandler(func(args []string, ctx *command.Context) error {
		s, ok := ctx.Scope.(*Scope)
		if !ok {
			return fmt.Errorf("%s must run inside a configuration scope", ctx.Name)
		}
		return fn(s, args, ctx)
	})
}

func registerBuiltins(r *command.Registry) error {
	builtins := []*command.Command{
		{
			Name:        "set",
			Usage:       "set(<name> [<value>...] [PARENT_SCOPE])",
			Description: "Define a variable; several values are joined as a list",
			LongHelp:    "With no value the variable is removed. PARENT_SCOPE sets it in the enclosing directory scope.",
			Category:    command.CategoryVariables,
			MinArgs:     1,
			Handler:     scopeHandler(cmdSet),
			ArgSpecs:    []cmdspec.ArgSpec{{Type: cmdspec.ArgTypeVariable}},
		},
		{
			Name:        "unset",
			Usage:       "unset(<name> [PARENT_SCOPE])",
			Description: "Remove a variable",
			Category:    command.CategoryVariables,
			MinArgs:     1,
			Handler:     scopeHandler(cmdUnset),
			ArgSpecs:    []cmdspec.ArgSpec{{Type: cmdspec.ArgTypeVariable}},
		},
		{
			Name:        "list",
			Usage:       "list(APPEND|LENGTH|GET|JOIN <list> ...)",
			Description: "Operate on a ';'-separated list variable",
			LongHelp: strings.Join([]string{
				"list(APPEND <list> [<item>...])",
				"list(LENGTH <list> <out>)",
				"list(GET <list> <index> [<index>...] <out>)   negative indexes count from the end",
				"list(JOIN <list> <glue> <out>)",
			}, "\n"),
			Category: command.CategoryLists,
			MinArgs:  2,
			Handler:  scopeHandler(cmdList),
			ArgSpecs: []cmdspec.ArgSpec{
				{Type: cmdspec.ArgTypeKeyword, Values: []string{"APPEND", "LENGTH", "GET", "JOIN"}},
				{Type: cmdspec.ArgTypeVariable},
			},
		},
		{
			Name:        "message",
			Usage:       "message([STATUS|NOTICE|WARNING|SEND_ERROR|FATAL_ERROR] <text>...)",
			Description: "Print a message; error modes fail the configuration",
			LongHelp:    "SEND_ERROR records an error and continues. FATAL_ERROR stops processing.",
			Category:    command.CategoryOutput,
			Handler:     scopeHandler(cmdMessage),
			ArgSpecs: []cmdspec.ArgSpec{
				{Type: cmdspec.ArgTypeKeyword, Values: messageModes},
			},
		},
		{
			Name:        "include",
			Usage:       "include(<file>)",
			Description: "Process another listfile in the current scope",
			Category:    command.CategoryStructure,
			MinArgs:     1,
			Handler:     scopeHandler(cmdInclude),
			ArgSpecs:    []cmdspec.ArgSpec{{Type: cmdspec.ArgTypeFile}},
		},
		{
			Name:        "add_subdirectory",
			Usage:       "add_subdirectory(<dir>)",
			Description: "Process <dir>'s listfile in a child scope",
			LongHelp:    "The child starts with a copy of the current definitions and gets its own script interpreter.",
			Category:    command.CategoryStructure,
			MinArgs:     1,
			Handler:     scopeHandler(cmdAddSubdirectory),
			ArgSpecs:    []cmdspec.ArgSpec{{Type: cmdspec.ArgTypeDir}},
		},
		{
			Name:        "policy",
			Usage:       "policy(EMPTY_LIST_ITEMS ON|OFF)",
			Description: "Set a behaviour policy for this scope",
			LongHelp:    "EMPTY_LIST_ITEMS controls whether list expansion keeps empty items.",
			Category:    command.CategoryPolicy,
			MinArgs:     2,
			Handler:     scopeHandler(cmdPolicy),
			ArgSpecs: []cmdspec.ArgSpec{
				{Type: cmdspec.ArgTypeKeyword, Values: []string{"EMPTY_LIST_ITEMS"}},
				{Type: cmdspec.ArgTypeKeyword, Values: []string{"ON", "OFF"}},
			},
		},
		{
			Name:        "bridge",
			Usage:       "bridge(SCRIPT <file> | CALL <function> [<arg>...] | RESET)",
			Description: "Run a script file or a script function",
			LongHelp: strings.Join([]string{
				"SCRIPT runs a script file; relative paths resolve against the current source directory.",
				"CALL runs a global script function with string arguments.",
				"RESET discards the interpreter, e.g. after its bootstrap failed to load.",
			}, "\n"),
			Category: command.CategoryScripting,
			Handler:  scopeHandler(cmdBridge),
			ArgSpecs: []cmdspec.ArgSpec{
				{Type: cmdspec.ArgTypeKeyword, Values: []string{"SCRIPT", "CALL", "RESET"}},
				{Branches: []cmdspec.ArgBranch{
					{When: cmdspec.ArgCondition{Arg: 0, Equals: "SCRIPT"}, Specs: []cmdspec.ArgSpec{{Type: cmdspec.ArgTypeFile}}},
					{When: cmdspec.ArgCondition{Arg: 0, Equals: "CALL"}, Specs: []cmdspec.ArgSpec{{Type: cmdspec.ArgTypeText}}},
				}},
			},
		},
	}

	for _, cmd := range builtins {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// splitParentScope strips a trailing PARENT_SCOPE keyword.
func splitParentScope(args []string) ([]string, bool) {
	last := len(args) - 1
	if last >= 1 && args[last] == "PARENT_SCOPE" {
		return args[:last], true
	}
	return args, false
}

func cmdSet(s *Scope, args []string, ctx *command.Context) error {
	args, parent := splitParentScope(args)
	target := s
	if parent {
		if s.parent == nil {
			util.Warn("PARENT_SCOPE has no effect in the top-level scope", "location", ctx.Location())
			return nil
		}
		target = s.parent
	}

	name := args[0]
	if len(args) == 1 {
		target.Unset(name)
		return nil
	}
	target.Set(name, bridge.JoinList(args[1:]))
	return nil
}

func cmdUnset(s *Scope, args []string, ctx *command.Context) error {
	args, parent := splitParentScope(args)
	if len(args) != 1 {
		return argumentsError("unset called with incorrect number of arguments")
	}
	if parent {
		if s.parent != nil {
			s.parent.Unset(args[0])
		}
		return nil
	}
	s.Unset(args[0])
	return nil
}

func cmdList(s *Scope, args []string, ctx *command.Context) error {
	op, name := args[0], args[1]
	// An undefined or empty variable is an empty list under either policy
	var items []string
	if current, _ := s.Get(name); current != "" {
		items = bridge.ExpandList(current, s.keepEmpty)
	}

	switch op {
	case "APPEND":
		if len(args) == 2 {
			return nil
		}
		items = append(items, args[2:]...)
		s.Set(name, bridge.JoinList(items))
	case "LENGTH":
		if len(args) != 3 {
			return argumentsError("list(LENGTH) requires a list and an output variable")
		}
		s.Set(args[2], strconv.Itoa(len(items)))
	case "GET":
		if len(args) < 4 {
			return argumentsError("list(GET) requires a list, at least one index and an output variable")
		}
		out := args[len(args)-1]
		var picked []string
		for _, raw := range args[2 : len(args)-1] {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return argumentsError("list index %q is not an integer", raw)
			}
			if idx < 0 {
				idx += len(items)
			}
			if idx < 0 || idx >= len(items) {
				return argumentsError("list index %s out of range (-%d, %d)", raw, len(items), len(items)-1)
			}
			picked = append(picked, items[idx])
		}
		s.Set(out, bridge.JoinList(picked))
	case "JOIN":
		if len(args) != 4 {
			return argumentsError("list(JOIN) requires a list, a glue string and an output variable")
		}
		s.Set(args[3], strings.Join(items, args[2]))
	default:
		return argumentsError("unknown list operation %q", op)
	}
	return nil
}

var messageModes = []string{"STATUS", "NOTICE", "WARNING", "SEND_ERROR", "FATAL_ERROR"}

func cmdMessage(s *Scope, args []string, ctx *command.Context) error {
	mode := "NOTICE"
	if len(args) > 0 {
		for _, m := range messageModes {
			if args[0] == m {
				mode = m
				args = args[1:]
				break
			}
		}
	}
	text := strings.Join(args, "")
	paint := s.project.opts.Painter.Paint

	switch mode {
	case "STATUS":
		_, _ = fmt.Fprintln(ctx.Stdout, paint(util.SeverityStatus, "-- "+text))
	case "WARNING":
		_, _ = fmt.Fprintf(ctx.Stderr, "%s\n  %s\n", paint(util.SeverityWarning, "Warning at "+ctx.Location()+":"), text)
	case "SEND_ERROR":
		_, _ = fmt.Fprintf(ctx.Stderr, "%s\n  %s\n", paint(util.SeverityError, "Error at "+ctx.Location()+":"), text)
		s.project.reportError(fmt.Errorf("%s: %s", ctx.Location(), text))
	case "FATAL_ERROR":
		return fmt.Errorf("%w: %s", ErrFatal, text)
	default:
		_, _ = fmt.Fprintln(ctx.Stderr, paint(util.SeverityNotice, text))
	}
	return nil
}

func cmdInclude(s *Scope, args []string, ctx *command.Context) error {
	if len(args) != 1 {
		return argumentsError("include called with incorrect number of arguments, expected 1")
	}
	path, err := s.ResolvePath(args[0], s.sourceDir)
	if err != nil {
		return err
	}
	if s.IsDirectory(path) {
		return fmt.Errorf("include location %s is a directory but a file was expected", path)
	}
	return s.RunListfile(path)
}

func cmdAddSubdirectory(s *Scope, args []string, ctx *command.Context) error {
	if len(args) != 1 {
		return argumentsError("add_subdirectory called with incorrect number of arguments, expected 1")
	}
	dir, err := s.ResolvePath(args[0], s.sourceDir)
	if err != nil {
		return err
	}
	if !s.IsDirectory(dir) {
		return fmt.Errorf("given source %q which is not an existing directory", args[0])
	}
	listfile := filepath.Join(dir, s.project.opts.Listfile)
	if _, err := os.Stat(listfile); err != nil {
		return fmt.Errorf("the source directory %s does not contain a %s file", dir, s.project.opts.Listfile)
	}

	child := s.project.newScope(s, dir)
	defer s.project.releaseScope(child)
	return child.RunListfile(listfile)
}

func cmdPolicy(s *Scope, args []string, ctx *command.Context) error {
	if len(args) != 2 {
		return argumentsError("policy called with incorrect number of arguments, expected 2")
	}
	if args[0] != "EMPTY_LIST_ITEMS" {
		return argumentsError("unknown policy %q", args[0])
	}
	switch strings.ToUpper(args[1]) {
	case "ON", "TRUE", "1", "YES":
		s.keepEmpty = true
	case "OFF", "FALSE", "0", "NO":
		s.keepEmpty = false
	default:
		return argumentsError("policy value must be ON or OFF, got %q", args[1])
	}
	return nil
}

func cmdBridge(s *Scope, args []string, ctx *command.Context) error {
	return s.dispatcher.Dispatch(s, args)
}
