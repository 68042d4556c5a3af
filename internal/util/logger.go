// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the process-wide logger. It stays usable before InitLogger runs (e.g. in tests).
var Logger = slog.Default()

// DebugEnv enables debug logging when set to any non-empty value.
const DebugEnv = "CFGSH_DEBUG"

// InitLogger initializes the global logger with appropriate log level
// Set CFGSH_DEBUG=1 environment variable to enable debug logging
func InitLogger() {
	InitLoggerTo(os.Stderr)
}

// InitLoggerTo is InitLogger with an explicit destination.
func InitLoggerTo(w io.Writer) {
	level := slog.LevelInfo // Default: only show Info, Warn, Error

	if os.Getenv(DebugEnv) != "" {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		// Time and level are noise in CLI output
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	})

	Logger = slog.New(handler)
}

// Debug logs a debug message (only shown when CFGSH_DEBUG is set)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
