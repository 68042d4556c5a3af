// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package fsutil provides filesystem helpers for configuration outputs.
// Outputs are written atomically so a build tool never reads a half-written file.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// OutputDirPerm is the permission mode for created output directories.
const OutputDirPerm os.FileMode = 0755

// OutputFilePerm is the permission mode for output files.
const OutputFilePerm os.FileMode = 0644

// DataDirPerm is the permission mode for the per-user data directory.
const DataDirPerm os.FileMode = 0700

// MkdirAll creates a directory and all parents with mode perm.
// Unlike os.MkdirAll, this explicitly sets permissions on the leaf to
// bypass umask restrictions.
func MkdirAll(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}

// WriteFileAtomic writes data to a temporary file next to path and renames it into place.
// Parent directories are created as needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := MkdirAll(dir, OutputDirPerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmp := f.Name()
	cleanup := func() { _ = os.Remove(tmp) }

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Chmod(OutputFilePerm); err != nil {
		_ = f.Close()
		cleanup()
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
