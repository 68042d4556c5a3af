// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import "github.com/aplane-algo/cfgbridge/internal/scripting"

// LineTracker holds the current script line of one interpreter instance.
// Only the hook returned by Hook writes it; callbacks read it through Line.
type LineTracker struct {
	line int
}

// Hook returns the position-reporting callback to install on an engine.
func (t *LineTracker) Hook() scripting.PositionHook {
	return func(line int) {
		t.line = line
	}
}

// Line returns the most recently reported line, 0 before any report.
func (t *LineTracker) Line() int {
	return t.line
}
