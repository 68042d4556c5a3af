// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"strings"

	"github.com/aplane-algo/cfgbridge/internal/scripting"
)

// NativeResult is the outcome of a native call as seen by the script.
// Error is meaningful only when Success is false.
type NativeResult struct {
	Success bool
	Error   string
}

// Values marshals the result as (true, nil) or (false, message).
func (r NativeResult) Values() []scripting.Value {
	if r.Success {
		return []scripting.Value{true, nil}
	}
	return []scripting.Value{false, r.Error}
}

// ListExpansion is the result of expanding a delimited list.
type ListExpansion struct {
	Items []string
	Count int // always len(Items)
}

func newListExpansion(items []string) ListExpansion {
	return ListExpansion{Items: items, Count: len(items)}
}

// Values marshals the expansion as (items, count).
func (l ListExpansion) Values() []scripting.Value {
	return []scripting.Value{l.Items, l.Count}
}

// ExpandList splits value on ';'.
//
// Semicolons inside square brackets do not split, and "\;" yields a literal ';'.
// Empty items are kept only when keepEmpty is set; an empty value then yields one
// empty item, otherwise none.
func ExpandList(value string, keepEmpty bool) []string {
	if value == "" {
		if keepEmpty {
			return []string{""}
		}
		return []string{}
	}

	items := make([]string, 0, strings.Count(value, ";")+1)
	var current strings.Builder
	depth := 0
	flush := func() {
		if current.Len() > 0 || keepEmpty {
			items = append(items, current.String())
		}
		current.Reset()
	}

	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch == '\\' && i+1 < len(value) && value[i+1] == ';':
			current.WriteByte(';')
			i++
		case ch == '[':
			depth++
			current.WriteByte(ch)
		case ch == ']' && depth > 0:
			depth--
			current.WriteByte(ch)
		case ch == ';' && depth == 0:
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()

	return items
}

// JoinList is the inverse of ExpandList for items without separators.
func JoinList(items []string) string {
	return strings.Join(items, ";")
}

// newInvocation builds a CommandInvocation from the raw callback arguments.
// Script values are complete strings, so every argument is marked quoted.
func newInvocation(name string, line int, values []string) CommandInvocation {
	args := make([]Argument, len(values))
	for i, v := range values {
		args[i] = Argument{Value: v, Quoted: true}
	}
	return CommandInvocation{Name: name, Line: line, Args: args}
}
