// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aplane-algo/cfgbridge/internal/configure"
	"github.com/aplane-algo/cfgbridge/internal/util"
	"github.com/aplane-algo/cfgbridge/internal/watch"
)

// app is one cfgsh session.
type app struct {
	config    util.Config
	sourceDir string
	project   *configure.Project
	painter   util.Painter
	stdout    io.Writer
	stderr    io.Writer

	interrupts atomic.Int32
	stopSignal func()
}

func newApp(config util.Config, sourceDir string, defs map[string]string) (*app, error) {
	abs, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve source directory: %w", err)
	}

	a := &app{
		config:    config,
		sourceDir: abs,
		painter:   util.NewPainter(config.Color, os.Stdout),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	project, err := configure.NewProject(configure.Options{
		Engine:             config.Engine,
		BootstrapDir:       config.ResolveBootstrapDir(),
		PreserveEmptyItems: config.PreserveEmptyItems,
		Listfile:           config.Listfile,
		Definitions:        defs,
		Stdout:             a.stdout,
		Stderr:             a.stderr,
		Painter:            a.painter,
	})
	if err != nil {
		return nil, err
	}
	a.project = project
	a.handleInterrupts()
	return a, nil
}

// handleInterrupts aborts the running script on SIGINT. A second SIGINT while the
// first is still pending exits.
func (a *app) handleInterrupts() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-sigs:
				if a.interrupts.Add(1) > 1 {
					fmt.Fprintln(a.stderr, "\nInterrupted")
					os.Exit(130)
				}
				a.project.Interrupt("interrupted")
			}
		}
	}()
	a.stopSignal = func() {
		signal.Stop(sigs)
		close(done)
	}
}

func (a *app) close() {
	if a.stopSignal != nil {
		a.stopSignal()
		a.stopSignal = nil
	}
	a.project.Close()
}

// configure runs the whole configuration and prints the summary line.
func (a *app) configure() error {
	a.interrupts.Store(0)
	start := time.Now()
	err := a.project.Configure(a.sourceDir)
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil:
		a.status(fmt.Sprintf("Configuring done (%.1fs)", elapsed))
	case errors.Is(err, configure.ErrIncomplete):
		a.printError("Configuring incomplete, errors occurred!")
	default:
		a.printError(err.Error())
		a.printError("Configuring incomplete, errors occurred!")
	}
	return err
}

func (a *app) status(msg string) {
	_, _ = fmt.Fprintln(a.stdout, a.painter.Paint(util.SeverityStatus, "-- "+msg))
}

func (a *app) printError(msg string) {
	_, _ = fmt.Fprintln(a.stderr, a.painter.Paint(util.SeverityError, msg))
}

func (a *app) writeDepfile(path, target string) error {
	if path == "" {
		return nil
	}
	if err := a.project.WriteDepfile(path, target); err != nil {
		return fmt.Errorf("failed to write dependency file: %w", err)
	}
	util.Debug("dependency file written", "path", path, "inputs", len(a.project.Dependencies()))
	return nil
}

func (a *app) runOnce(depfile, target string) int {
	if err := a.configure(); err != nil {
		return 1
	}
	if err := a.writeDepfile(depfile, target); err != nil {
		a.printError(err.Error())
		return 1
	}
	return 0
}

// runExpression runs listfile text given on the command line in the top-level scope.
func (a *app) runExpression(text string) int {
	root, err := a.project.Root(a.sourceDir)
	if err != nil {
		a.printError(err.Error())
		return 1
	}
	if err := root.RunString("<command line>", text); err != nil {
		a.printError(err.Error())
		return 1
	}
	if len(a.project.Errors()) > 0 {
		return 1
	}
	return 0
}

// runWatch configures, then re-configures from scratch whenever an input changes.
// A failed run keeps watching the inputs it managed to record.
func (a *app) runWatch(depfile, target string) int {
	a.rerun(depfile, target)

	debounce := time.Duration(a.config.WatchDebounceMs) * time.Millisecond
	w, err := watch.New(a.watchedFiles(), debounce)
	if err != nil {
		a.printError(err.Error())
		return 1
	}
	defer func() { _ = w.Close() }()

	// SIGINT stops watching; while a run is in progress it aborts the script first
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a.status(fmt.Sprintf("Watching %d files for changes", len(w.Files())))
	err = w.Run(ctx, func(changed []string) {
		names := make([]string, len(changed))
		for i, path := range changed {
			names[i] = a.relative(path)
		}
		a.status("Re-running configuration: " + strings.Join(names, ", ") + " changed")
		a.rerun(depfile, target)
		if err := w.Set(a.watchedFiles()); err != nil {
			a.printError(err.Error())
		}
	})
	if err != nil {
		a.printError(err.Error())
		return 1
	}
	return 0
}

func (a *app) rerun(depfile, target string) {
	a.project.Reset()
	if err := a.configure(); err != nil {
		return
	}
	if err := a.writeDepfile(depfile, target); err != nil {
		a.printError(err.Error())
	}
}

// watchedFiles is the recorded dependency set, or the top-level listfile when a
// run failed before recording anything.
func (a *app) watchedFiles() []string {
	deps := a.project.Dependencies()
	if len(deps) == 0 {
		deps = []string{filepath.Join(a.sourceDir, a.config.Listfile)}
	}
	return deps
}

func (a *app) relative(path string) string {
	if rel, err := filepath.Rel(a.sourceDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
