// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package repl

// Complete reports whether text holds only whole command invocations, i.e. every
// argument list is closed and no quoted argument is left open. The REPL keeps
// reading continuation lines until it is.
func Complete(text string) bool {
	depth := 0
	inQuote := false
	comment := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case comment:
			if ch == '\n' {
				comment = false
			}
		case inQuote:
			switch ch {
			case '\\':
				i++
			case '"':
				inQuote = false
			}
		case ch == '#':
			comment = true
		case ch == '"':
			inQuote = true
		case ch == '(':
			depth++
		case ch == ')':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth == 0 && !inQuote
}

// Statement returns the text of the invocation being typed at the end of line:
// everything after the last top-level closing parenthesis.
func Statement(line string) string {
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case inQuote:
			switch ch {
			case '\\':
				i++
			case '"':
				inQuote = false
			}
		case ch == '"':
			inQuote = true
		case ch == '(':
			depth++
		case ch == ')':
			if depth > 0 {
				depth--
				if depth == 0 {
					start = i + 1
				}
			}
		}
	}
	return line[start:]
}
