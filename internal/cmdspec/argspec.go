// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package cmdspec provides argument specification types shared across packages.
// These types define how command arguments are described for autocomplete and help.
package cmdspec

// ArgType constants for autocomplete argument types
const (
	ArgTypeKeyword  = "keyword"  // Fixed keyword values
	ArgTypeVariable = "variable" // Name of a definition in the current scope
	ArgTypeFile     = "file"     // File path
	ArgTypeDir      = "dir"      // Directory path
	ArgTypeText     = "text"     // Free text (no completion)
)

// ArgCondition specifies when a branch should be activated.
// Matches a previous argument exactly (case-sensitive, as keywords are).
type ArgCondition struct {
	Arg    int    `yaml:"arg"`    // Argument index to check (0-based)
	Equals string `yaml:"equals"` // Value the argument must have
}

// ArgBranch represents a conditional branch in ArgSpecs.
// When the condition matches, use these specs for subsequent arguments.
type ArgBranch struct {
	When  ArgCondition `yaml:"when"`  // Condition to activate this branch
	Specs []ArgSpec    `yaml:"specs"` // ArgSpecs to use when condition matches
}

// ArgSpec describes an argument's autocomplete behavior.
//
// Simple usage (non-branching):
//
//	ArgSpec{Type: ArgTypeVariable}
//	ArgSpec{Type: ArgTypeKeyword, Values: []string{"SCRIPT", "CALL", "RESET"}}
//
// Branching usage (context-dependent completion):
//
//	ArgSpec{Branches: []ArgBranch{
//	    {When: ArgCondition{Arg: 0, Equals: "SCRIPT"}, Specs: [...]},
//	}}
type ArgSpec struct {
	Type     string      `yaml:"type,omitempty"`     // One of ArgType* constants
	Values   []string    `yaml:"values,omitempty"`   // For "keyword": valid values
	Branches []ArgBranch `yaml:"branches,omitempty"` // Conditional branches (if set, Type is ignored)
}

// Resolve returns the spec for argument position pos given the arguments typed so far.
// Branches are followed recursively; ok is false when nothing describes the position.
func Resolve(specs []ArgSpec, args []string, pos int) (ArgSpec, bool) {
	for i, spec := range specs {
		if len(spec.Branches) == 0 {
			if i == pos {
				return spec, true
			}
			continue
		}
		// A branching spec applies from its own position onward
		for _, b := range spec.Branches {
			if b.When.Arg < len(args) && args[b.When.Arg] == b.When.Equals {
				return Resolve(b.Specs, args[i:], pos-i)
			}
		}
		return ArgSpec{}, false
	}
	return ArgSpec{}, false
}
