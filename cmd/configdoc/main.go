// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// configdoc generates markdown documentation from Go struct tags and the
// built-in command registry.
// Usage: go run ./cmd/configdoc > doc/REFERENCE.md
package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/aplane-algo/cfgbridge/internal/command"
	"github.com/aplane-algo/cfgbridge/internal/configure"
	"github.com/aplane-algo/cfgbridge/internal/util"
)

// EnvVar represents an environment variable configuration
type EnvVar struct {
	Name        string
	Description string
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--help" {
		fmt.Println("Usage: go run ./cmd/configdoc > doc/REFERENCE.md")
		fmt.Println()
		fmt.Println("Generates markdown documentation from Go struct tags and the command registry.")
		os.Exit(0)
	}
	if err := render(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func render(w io.Writer) error {
	_, _ = fmt.Fprintln(w, "# cfgsh Reference")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Auto-generated from Go struct tags and the command registry. Do not edit manually.")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "---")
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "## Configuration")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "File: `config.yaml` in the cfgsh data directory (`-d` or `CFGSH_DATA`, default `~/.cfgsh`)")
	_, _ = fmt.Fprintln(w)
	printStructTable(w, reflect.TypeOf(util.Config{}))
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "## Listfile Commands")
	_, _ = fmt.Fprintln(w)
	// The engine is never started; the project only supplies its registry
	project, err := configure.NewProject(configure.Options{Engine: "lua", Stdout: io.Discard, Stderr: io.Discard})
	if err != nil {
		return err
	}
	defer project.Close()
	printCommands(w, project.Registry())
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "## Environment Variables")
	_, _ = fmt.Fprintln(w)
	printEnvVars(w)
	return nil
}

func printStructTable(w io.Writer, t reflect.Type) {
	_, _ = fmt.Fprintln(w, "| Field | Type | Default | Description |")
	_, _ = fmt.Fprintln(w, "|-------|------|---------|-------------|")

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag := field.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		// Handle tag options like "omitempty"
		fieldName := strings.Split(tag, ",")[0]

		desc := field.Tag.Get("description")
		if desc == "" {
			desc = "(no description)"
		}

		def := field.Tag.Get("default")
		switch def {
		case "":
			def = "(none)"
		case `""`:
			def = "(empty string)"
		}

		_, _ = fmt.Fprintf(w, "| `%s` | %s | `%s` | %s |\n", fieldName, formatType(field.Type), def, desc)
	}
}

func formatType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "[]" + formatType(t.Elem())
	default:
		return t.String()
	}
}

func printCommands(w io.Writer, registry *command.Registry) {
	categories := registry.ByCategory()
	for _, category := range command.CategoryOrder {
		commands := categories[category]
		if len(commands) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "### %s\n\n", category)
		for _, cmd := range commands {
			_, _ = fmt.Fprintf(w, "- `%s`: %s\n", cmd.Usage, cmd.Description)
			if cmd.LongHelp != "" {
				for _, line := range strings.Split(cmd.LongHelp, "\n") {
					_, _ = fmt.Fprintf(w, "  - %s\n", line)
				}
			}
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printEnvVars(w io.Writer) {
	envVars := []EnvVar{
		{"CFGSH_DATA", "Data directory (config.yaml, REPL history)"},
		{util.DebugEnv, "Set to any value to enable debug logging"},
		{util.BootstrapDirEnv, "Installation root; bootstrap libraries are read from `share/cfgbridge` under it"},
		{"TERM", "`dumb` or empty disables colored output in `auto` mode"},
	}

	_, _ = fmt.Fprintln(w, "| Variable | Description |")
	_, _ = fmt.Fprintln(w, "|----------|-------------|")
	for _, env := range envVars {
		_, _ = fmt.Fprintf(w, "| `%s` | %s |\n", env.Name, env.Description)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "### Bootstrap Directory Resolution")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "1. `-bootstrap-dir` flag or `bootstrap_dir` config option")
	_, _ = fmt.Fprintf(w, "2. `$%s/share/cfgbridge`\n", util.BootstrapDirEnv)
	_, _ = fmt.Fprintln(w, "3. `<executable dir>/../share/cfgbridge`")
}
