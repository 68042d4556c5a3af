// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/aplane-algo/cfgbridge/cmd/cfgsh/internal/repl"
	"github.com/aplane-algo/cfgbridge/internal/bridge"
	"github.com/aplane-algo/cfgbridge/internal/cmdspec"
	"github.com/aplane-algo/cfgbridge/internal/command"
	"github.com/aplane-algo/cfgbridge/internal/fsutil"
)

// Shell commands understood by the REPL in addition to listfile commands.
var shellCommands = []string{"help", "vars", "deps", "reconfigure", "quit", "exit"}

const (
	prompt             = "cfgsh> "
	continuationPrompt = "  ...> "
	stdinName          = "<stdin>"
)

func (a *app) startREPL() int {
	fmt.Println("cfgsh - interactive configuration shell")
	fmt.Println("Type 'help' for available commands or 'quit' to exit")
	fmt.Println("Features: Command history (↑/↓), Tab completion, Ctrl+C to interrupt a script")

	if _, err := os.Stat(filepath.Join(a.sourceDir, a.config.Listfile)); err == nil {
		_ = a.configure()
	} else if _, err := a.project.Root(a.sourceDir); err != nil {
		a.printError(err.Error())
		return 1
	}

	if dir := filepath.Dir(a.config.HistoryFile); dir != "." {
		if err := fsutil.MkdirAll(dir, fsutil.DataDirPerm); err != nil {
			a.printError(fmt.Sprintf("history disabled: %v", err))
			a.config.HistoryFile = ""
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       a.config.HistoryFile,
		HistoryLimit:      1000,
		AutoComplete:      repl.NewCompleter(&completionSource{app: a}),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Printf("Failed to create readline instance, falling back to basic input: %v\n", err)
		return a.startBasicREPL(os.Stdin)
	}
	defer func() {
		_ = rl.Close() // Best-effort close, errors during shutdown not critical
	}()

	var pending strings.Builder
	for {
		if pending.Len() == 0 {
			rl.SetPrompt(prompt)
		} else {
			rl.SetPrompt(continuationPrompt)
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if pending.Len() > 0 {
					pending.Reset()
					continue
				}
				if len(line) == 0 {
					fmt.Println("Use 'quit' or 'exit' to exit")
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				break
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		pending.WriteString(line)
		pending.WriteString("\n")
		if !repl.Complete(pending.String()) {
			continue
		}
		text := pending.String()
		pending.Reset()

		if quit := a.execute(text); quit {
			break
		}
	}
	return a.exitCode()
}

// startBasicREPL reads from r without history or completion.
func (a *app) startBasicREPL(r io.Reader) int {
	fmt.Println("Running in basic mode (no history/completion)")
	scanner := bufio.NewScanner(r)
	var pending strings.Builder
	for {
		if pending.Len() == 0 {
			fmt.Print(prompt)
		} else {
			fmt.Print(continuationPrompt)
		}
		if !scanner.Scan() {
			break
		}
		pending.WriteString(scanner.Text())
		pending.WriteString("\n")
		if !repl.Complete(pending.String()) {
			continue
		}
		text := pending.String()
		pending.Reset()
		if quit := a.execute(text); quit {
			break
		}
	}
	return a.exitCode()
}

func (a *app) exitCode() int {
	if len(a.project.Errors()) > 0 {
		return 1
	}
	return 0
}

// execute runs one complete REPL input. It reports whether the session should end.
func (a *app) execute(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	fields := strings.Fields(trimmed)
	if !strings.Contains(trimmed, "(") {
		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			return true
		case "help":
			a.showHelp(fields[1:])
			return false
		case "vars":
			a.showVariables()
			return false
		case "deps":
			for _, dep := range a.project.Dependencies() {
				_, _ = fmt.Fprintln(a.stdout, dep)
			}
			return false
		case "reconfigure":
			a.project.Reset()
			_ = a.configure()
			return false
		}
	}

	root, err := a.project.Root(a.sourceDir)
	if err != nil {
		a.printError(err.Error())
		return false
	}
	a.interrupts.Store(0)
	if err := root.RunString(stdinName, text); err != nil {
		a.printError(err.Error())
		if errors.Is(err, bridge.ErrScriptRuntime) && a.interrupts.Load() > 0 {
			a.printError("The interpreter was interrupted; run bridge(RESET) before using it again.")
		}
	}
	// FATAL_ERROR stops one input, not the session
	a.project.ClearFatal()
	return false
}

func (a *app) showHelp(args []string) {
	registry := a.project.Registry()
	if len(args) == 0 {
		command.ShowHelp(a.stdout, registry)
		_, _ = fmt.Fprintf(a.stdout, "\nShell commands: %s\n", strings.Join(shellCommands, ", "))
		return
	}
	cmd, ok := registry.Lookup(args[0])
	if !ok {
		a.printError(fmt.Sprintf("unknown command `%s`", args[0]))
		return
	}
	command.ShowCommandHelp(a.stdout, cmd)
}

func (a *app) showVariables() {
	root, err := a.project.Root(a.sourceDir)
	if err != nil {
		a.printError(err.Error())
		return
	}
	names := root.Names()
	sort.Strings(names)
	for _, name := range names {
		value, _ := root.Get(name)
		_, _ = fmt.Fprintf(a.stdout, "%s = %s\n", name, value)
	}
}

// completionSource exposes the live session to the completer.
type completionSource struct {
	app *app
}

func (c *completionSource) Commands() []string {
	return append(c.app.project.Registry().Names(), shellCommands...)
}

func (c *completionSource) ArgSpecs(name string) ([]cmdspec.ArgSpec, bool) {
	cmd, ok := c.app.project.Registry().Lookup(name)
	if !ok || len(cmd.ArgSpecs) == 0 {
		return nil, false
	}
	return cmd.ArgSpecs, true
}

func (c *completionSource) Variables() []string {
	root, err := c.app.project.Root(c.app.sourceDir)
	if err != nil {
		return nil
	}
	return root.Names()
}

func (c *completionSource) BaseDir() string {
	return c.app.sourceDir
}
