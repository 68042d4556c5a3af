// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aplane-algo/cfgbridge/internal/configure"
	"github.com/aplane-algo/cfgbridge/internal/util"
)

type testApp struct {
	*app
	out *bytes.Buffer
	err *bytes.Buffer
}

func newTestApp(t *testing.T, files map[string]string) *testApp {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	ta := &testApp{out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	project, err := configure.NewProject(configure.Options{
		Engine:       "lua",
		BootstrapDir: filepath.Join("..", "..", "share", "cfgbridge"),
		Stdout:       ta.out,
		Stderr:       ta.err,
	})
	if err != nil {
		t.Fatal(err)
	}
	ta.app = &app{
		config:    util.DefaultConfig(),
		sourceDir: dir,
		project:   project,
		stdout:    ta.out,
		stderr:    ta.err,
	}
	t.Cleanup(ta.close)
	return ta
}

func TestDefinitions(t *testing.T) {
	defs := definitions{}
	for _, arg := range []string{"A=1", "B=", "C=x=y", "A=2"} {
		if err := defs.Set(arg); err != nil {
			t.Fatalf("Set(%q) error = %v", arg, err)
		}
	}
	want := map[string]string{"A": "2", "B": "", "C": "x=y"}
	for name, value := range want {
		if defs[name] != value {
			t.Errorf("%s = %q, want %q", name, defs[name], value)
		}
	}
	if err := defs.Set("=value"); err == nil {
		t.Error("Set(\"=value\") expected error")
	}
}

func TestRunOnce_WritesDepfile(t *testing.T) {
	ta := newTestApp(t, map[string]string{
		"Configure.txt": "include(extra.txt)\n",
		"extra.txt":     "set(X 1)\n",
	})
	depfile := filepath.Join(ta.sourceDir, "build", "configure.d")

	if code := ta.runOnce(depfile, "configure.stamp"); code != 0 {
		t.Fatalf("runOnce() = %d, stderr:\n%s", code, ta.err)
	}
	if !strings.Contains(ta.out.String(), "-- Configuring done") {
		t.Errorf("stdout = %q", ta.out)
	}
	data, err := os.ReadFile(depfile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "configure.stamp:") || !strings.Contains(string(data), "extra.txt") {
		t.Errorf("depfile = %q", data)
	}
}

func TestRunOnce_Failure(t *testing.T) {
	ta := newTestApp(t, map[string]string{"Configure.txt": "message(SEND_ERROR broken)\n"})
	depfile := filepath.Join(ta.sourceDir, "configure.d")

	if code := ta.runOnce(depfile, "configure.stamp"); code != 1 {
		t.Errorf("runOnce() = %d, want 1", code)
	}
	if !strings.Contains(ta.err.String(), "Configuring incomplete, errors occurred!") {
		t.Errorf("stderr = %q", ta.err)
	}
	if _, err := os.Stat(depfile); !os.IsNotExist(err) {
		t.Error("depfile written for a failed run")
	}
}

func TestRunExpression(t *testing.T) {
	ta := newTestApp(t, nil)
	if code := ta.runExpression(`set(A hi) message(STATUS "${A}")`); code != 0 {
		t.Fatalf("runExpression() = %d, stderr:\n%s", code, ta.err)
	}
	if ta.out.String() != "-- hi\n" {
		t.Errorf("stdout = %q", ta.out)
	}

	if code := ta.runExpression("nope()"); code != 1 {
		t.Errorf("runExpression(unknown) = %d, want 1", code)
	}
	if !strings.Contains(ta.err.String(), "<command line>:1: nope: unknown command `nope`") {
		t.Errorf("stderr = %q", ta.err)
	}
}

func TestExecute(t *testing.T) {
	ta := newTestApp(t, nil)

	if quit := ta.execute("set(GREETING hello)\n"); quit {
		t.Fatal("execute() ended the session")
	}
	ta.execute("vars\n")
	if !strings.Contains(ta.out.String(), "GREETING = hello\n") {
		t.Errorf("vars output = %q", ta.out)
	}

	ta.out.Reset()
	ta.execute("help bridge\n")
	if !strings.Contains(ta.out.String(), "Command: bridge") {
		t.Errorf("help output = %q", ta.out)
	}
	ta.execute("help frobnicate\n")
	if !strings.Contains(ta.err.String(), "unknown command `frobnicate`") {
		t.Errorf("stderr = %q", ta.err)
	}

	ta.execute("message(FATAL_ERROR stop)\n")
	ta.out.Reset()
	ta.execute("message(STATUS \"still running\")\n")
	if ta.out.String() != "-- still running\n" {
		t.Errorf("after FATAL_ERROR stdout = %q, want the session to continue", ta.out)
	}

	for _, cmd := range []string{"quit\n", "EXIT\n"} {
		if !ta.execute(cmd) {
			t.Errorf("execute(%q) did not end the session", cmd)
		}
	}
}

func TestStartBasicREPL(t *testing.T) {
	ta := newTestApp(t, nil)
	input := strings.NewReader("set(L\n  a b)\nmessage(STATUS ${L})\nquit\nmessage(STATUS never)\n")

	if code := ta.startBasicREPL(input); code != 0 {
		t.Errorf("startBasicREPL() = %d", code)
	}
	if ta.out.String() != "-- ab\n" {
		t.Errorf("stdout = %q", ta.out)
	}
}

func TestCompletionSource(t *testing.T) {
	ta := newTestApp(t, nil)
	src := &completionSource{app: ta.app}

	commands := src.Commands()
	for _, want := range []string{"bridge", "set", "help", "quit"} {
		found := false
		for _, c := range commands {
			found = found || c == want
		}
		if !found {
			t.Errorf("Commands() missing %q", want)
		}
	}
	if _, ok := src.ArgSpecs("bridge"); !ok {
		t.Error("ArgSpecs(bridge) not found")
	}
	if _, ok := src.ArgSpecs("nope"); ok {
		t.Error("ArgSpecs(nope) found")
	}
	vars := strings.Join(src.Variables(), " ")
	if !strings.Contains(vars, configure.VarSourceDir) {
		t.Errorf("Variables() = %s", vars)
	}
	if src.BaseDir() != ta.sourceDir {
		t.Errorf("BaseDir() = %q", src.BaseDir())
	}
}
