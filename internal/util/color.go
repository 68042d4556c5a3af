// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Severity is the kind of a user-facing message.
type Severity int

const (
	SeverityNotice Severity = iota
	SeverityStatus
	SeverityWarning
	SeverityError
)

// supportsColor checks if w is a terminal that supports ANSI color codes
func supportsColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { // #nosec G115 - file descriptors are small integers
		return false
	}

	termEnv := os.Getenv("TERM")
	if termEnv == "" || termEnv == "dumb" {
		return false
	}

	return true
}

// Painter renders messages, colored or not according to the color mode.
type Painter struct {
	enabled bool
	styles  map[Severity]lipgloss.Style
}

// NewPainter resolves mode ("auto", "always", "never") against w.
func NewPainter(mode string, w io.Writer) Painter {
	enabled := false
	switch mode {
	case "always":
		enabled = true
	case "never":
	default:
		enabled = supportsColor(w)
	}
	if !enabled {
		return Painter{}
	}

	r := lipgloss.NewRenderer(w)
	if mode == "always" {
		r.SetColorProfile(termenv.ANSI256)
	}
	return Painter{
		enabled: true,
		styles: map[Severity]lipgloss.Style{
			SeverityNotice: r.NewStyle().
				Foreground(lipgloss.Color("241")),
			SeverityStatus: r.NewStyle().
				Foreground(lipgloss.Color("42")),
			SeverityWarning: r.NewStyle().
				Foreground(lipgloss.Color("214")).
				Bold(true),
			SeverityError: r.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true),
		},
	}
}

// Enabled reports whether output is colored.
func (p Painter) Enabled() bool {
	return p.enabled
}

// Paint styles text for the given severity.
func (p Painter) Paint(sev Severity, text string) string {
	style, ok := p.styles[sev]
	if !p.enabled || !ok {
		return text
	}
	return style.Render(text)
}
