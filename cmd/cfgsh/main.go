// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Command cfgsh configures a source tree from its listfiles, running embedded
// scripts through the script bridge.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/aplane-algo/cfgbridge/internal/util"
	"github.com/aplane-algo/cfgbridge/internal/version"
)

// definitions collects repeated -D NAME=VALUE flags.
type definitions map[string]string

func (d definitions) String() string {
	parts := make([]string, 0, len(d))
	for name, value := range d {
		parts = append(parts, name+"="+value)
	}
	return strings.Join(parts, ",")
}

func (d definitions) Set(s string) error {
	name, value, _ := strings.Cut(s, "=")
	if name == "" {
		return fmt.Errorf("definition %q has no name", s)
	}
	d[name] = value
	return nil
}

func main() {
	// Define all flags upfront before parsing
	printVersion := flag.Bool("version", false, "Print version and exit")
	showConfig := flag.Bool("show-config", false, "Print the effective configuration and exit")
	dataDir := flag.String("d", "", "Data directory (default: ~/.cfgsh or CFGSH_DATA)")
	sourceDir := flag.String("C", ".", "Source directory to configure")
	listfile := flag.String("f", "", "Listfile name read from each directory (default from config)")
	engine := flag.String("engine", "", "Script engine: lua or goja (default from config)")
	bootstrapDir := flag.String("bootstrap-dir", "", "Directory holding the bridge bootstrap libraries")
	color := flag.String("color", "", "Colored output: auto, always or never (default from config)")
	depfile := flag.String("depfile", "", "Write a Make-syntax dependency file after configuring")
	depTarget := flag.String("target", "configure.stamp", "Target named in the dependency file")
	watchMode := flag.Bool("watch", false, "Re-run the configuration whenever one of its inputs changes")
	interactive := flag.Bool("i", false, "Start an interactive session in the top-level scope")
	expr := flag.String("e", "", "Run the given listfile commands instead of the source directory's listfile")
	defs := definitions{}
	flag.Var(defs, "D", "Define NAME=VALUE in the top-level scope (repeatable)")
	flag.Parse()

	// Handle early-exit flags
	if *printVersion {
		fmt.Printf("cfgsh %s\n", version.String())
		os.Exit(0)
	}

	resolvedDataDir := util.GetDataDir(*dataDir)
	if *showConfig {
		util.DisplayConfig(resolvedDataDir)
		os.Exit(0)
	}

	// Initialize logger (supports CFGSH_DEBUG environment variable)
	util.InitLogger()

	config, err := util.LoadConfig(resolvedDataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Command-line flags override the config file
	if *engine != "" {
		config.Engine = *engine
	}
	if *listfile != "" {
		config.Listfile = *listfile
	}
	if *bootstrapDir != "" {
		config.BootstrapDir = *bootstrapDir
	}
	if *color != "" {
		config.Color = *color
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a, err := newApp(config, *sourceDir, defs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var code int
	switch {
	case *expr != "":
		code = a.runExpression(*expr)
	case *interactive:
		code = a.startREPL()
	case *watchMode:
		code = a.runWatch(*depfile, *depTarget)
	default:
		code = a.runOnce(*depfile, *depTarget)
	}
	a.close()
	os.Exit(code)
}
