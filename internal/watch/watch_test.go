// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package watch

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestSettle_ContentChangesOnly(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "Configure.txt")
	b := filepath.Join(dir, "gen.lua")
	writeFile(t, a, "set(A 1)\n")
	writeFile(t, b, "cmd.set('B', '1')\n")

	w, err := New([]string{a, b}, time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	writeFile(t, a, "set(A 1)\n") // touched, same content
	writeFile(t, b, "cmd.set('B', '2')\n")
	if got := w.settle(map[string]bool{a: true, b: true}); !reflect.DeepEqual(got, []string{b}) {
		t.Errorf("settle() = %v, want [%s]", got, b)
	}
	if got := w.settle(map[string]bool{b: true}); len(got) != 0 {
		t.Errorf("settle() reported %v twice", got)
	}

	if err := os.Remove(a); err != nil {
		t.Fatal(err)
	}
	if got := w.settle(map[string]bool{a: true}); !reflect.DeepEqual(got, []string{a}) {
		t.Errorf("settle() after remove = %v, want [%s]", got, a)
	}
	writeFile(t, a, "set(A 1)\n")
	if got := w.settle(map[string]bool{a: true}); !reflect.DeepEqual(got, []string{a}) {
		t.Errorf("settle() after recreate = %v, want [%s]", got, a)
	}
}

func TestSet_ReplacesWatchedDirectories(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "lib")
	if err := os.Mkdir(sub, 0700); err != nil {
		t.Fatal(err)
	}
	top := filepath.Join(root, "Configure.txt")
	child := filepath.Join(sub, "Configure.txt")
	writeFile(t, top, "")
	writeFile(t, child, "")

	w, err := New([]string{top, child}, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	if got := len(w.fsw.WatchList()); got != 2 {
		t.Errorf("watching %d directories, want 2", got)
	}
	if err := w.Set([]string{top}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := w.fsw.WatchList(); !reflect.DeepEqual(got, []string{root}) {
		t.Errorf("WatchList() = %v, want [%s]", got, root)
	}
	if got := w.Files(); !reflect.DeepEqual(got, []string{top}) {
		t.Errorf("Files() = %v", got)
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "Configure.txt")
	if _, err := New([]string{missing}, time.Millisecond); err == nil {
		t.Fatal("New() expected error for a missing directory")
	}
}

func TestRun_ReportsDebouncedChange(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "Configure.txt")
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, watched, "v1")

	w, err := New([]string{watched}, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(changed []string) { changes <- changed })
	}()

	writeFile(t, other, "ignored")
	writeFile(t, watched, "v2")
	writeFile(t, watched, "v3")

	select {
	case got := <-changes:
		if !reflect.DeepEqual(got, []string{watched}) {
			t.Errorf("changed = %v, want [%s]", got, watched)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case got := <-changes:
		t.Errorf("unexpected second report %v", got)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
