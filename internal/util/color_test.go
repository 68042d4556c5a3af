// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewPainter(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		mode    string
		enabled bool
	}{
		{"never", false},
		{"auto", false}, // a buffer is never a terminal
		{"always", true},
	}
	for _, tt := range tests {
		p := NewPainter(tt.mode, &buf)
		if p.Enabled() != tt.enabled {
			t.Errorf("NewPainter(%q).Enabled() = %v, want %v", tt.mode, p.Enabled(), tt.enabled)
		}
	}
}

func TestPainter_Paint(t *testing.T) {
	var buf bytes.Buffer

	plain := NewPainter("never", &buf)
	if got := plain.Paint(SeverityError, "boom"); got != "boom" {
		t.Errorf("disabled Paint() = %q, want text unchanged", got)
	}

	var zero Painter
	if got := zero.Paint(SeverityWarning, "careful"); got != "careful" {
		t.Errorf("zero Painter Paint() = %q", got)
	}

	colored := NewPainter("always", &buf)
	for _, sev := range []Severity{SeverityNotice, SeverityStatus, SeverityWarning, SeverityError} {
		got := colored.Paint(sev, "text")
		if !strings.Contains(got, "text") || !strings.Contains(got, "\x1b[") {
			t.Errorf("Paint(%d) = %q, want ANSI-styled text", sev, got)
		}
	}
}
