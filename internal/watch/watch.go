// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package watch reports changes to the input files of a configuration run.
package watch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/blake2b"

	"github.com/aplane-algo/cfgbridge/internal/util"
)

// Watcher watches a set of files. Parent directories are watched rather than the
// files themselves so editors that replace files on save are still seen.
//
// A change is reported only once the file set has been quiet for the debounce
// period, and only for files whose content actually differs from the last report.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	files    map[string][]byte // path -> content digest, nil while missing
}

// New watches files. Call Close when done.
func New(files []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{fsw: fsw, debounce: debounce}
	if err := w.Set(files); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Set replaces the watched file set, typically with the dependencies recorded by
// the latest run. It must not race with Run; calling it from the change callback is fine.
func (w *Watcher) Set(files []string) error {
	next := make(map[string][]byte, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		path := filepath.Clean(f)
		next[path] = digest(path)
		dirs[filepath.Dir(path)] = true
	}

	for _, dir := range w.fsw.WatchList() {
		if !dirs[dir] {
			_ = w.fsw.Remove(dir)
		}
	}
	for dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.files = next
	util.Debug("watching files", "files", len(next), "dirs", len(dirs))
	return nil
}

// Files returns the watched paths, sorted.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for path := range w.files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Run delivers changes to onChange until ctx is done or the watcher is closed.
// onChange runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if _, watched := w.files[path]; !watched {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[path] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			util.Warn("file watcher error", "error", err)

		case <-timer.C:
			changed := w.settle(pending)
			pending = make(map[string]bool)
			if len(changed) > 0 {
				onChange(changed)
			}
		}
	}
}

// settle re-digests the pending files and returns those whose content changed.
func (w *Watcher) settle(pending map[string]bool) []string {
	var changed []string
	for path := range pending {
		d := digest(path)
		if bytes.Equal(d, w.files[path]) {
			continue
		}
		w.files[path] = d
		changed = append(changed, path)
	}
	sort.Strings(changed)
	return changed
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func digest(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	sum := blake2b.Sum256(data)
	return sum[:]
}
