// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package configure

import (
	"fmt"
	"os"
	"strings"
)

// Lookup returns the value of a definition.
type Lookup func(name string) (string, bool)

// ExpandVariables replaces ${NAME} with the value of definition NAME and $ENV{NAME}
// with the environment variable NAME. References nest: ${A_${B}} looks up B first.
// Undefined names expand to the empty string.
func ExpandVariables(s string, lookup Lookup) (string, error) {
	if !strings.Contains(s, "{") {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		env := strings.HasPrefix(s[i:], "$ENV{")
		if !env && !strings.HasPrefix(s[i:], "${") {
			b.WriteByte(s[i])
			i++
			continue
		}

		open := i + len("${")
		if env {
			open = i + len("$ENV{")
		}
		end, err := matchBrace(s, open)
		if err != nil {
			return "", err
		}
		name, err := ExpandVariables(s[open:end], lookup)
		if err != nil {
			return "", err
		}

		if env {
			b.WriteString(os.Getenv(name))
		} else if v, ok := lookup(name); ok {
			b.WriteString(v)
		}
		i = end + 1
	}
	return b.String(), nil
}

// matchBrace returns the index of the '}' closing a reference whose name starts at start.
func matchBrace(s string, start int) (int, error) {
	depth := 0
	for j := start; j < len(s); j++ {
		switch {
		case s[j] == '$' && strings.HasPrefix(s[j:], "${"):
			depth++
			j++
		case s[j] == '$' && strings.HasPrefix(s[j:], "$ENV{"):
			depth++
			j += len("$ENV")
		case s[j] == '}':
			if depth == 0 {
				return j, nil
			}
			depth--
		}
	}
	return -1, fmt.Errorf("%w: unterminated variable reference in %q", ErrSyntax, s)
}
