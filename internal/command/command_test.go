// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package command

import (
	"testing"
)

func TestCommand_Struct(t *testing.T) {
	cmd := &Command{
		Name:        "test",
		Aliases:     []string{"t", "tst"},
		Usage:       "test(<arg>)",
		Description: "Test command description",
		LongHelp:    "Detailed help for test command",
		Category:    CategoryVariables,
		MinArgs:     1,
		Handler:     &MockHandler{},
	}

	if cmd.Name != "test" {
		t.Errorf("Command.Name = %v, want test", cmd.Name)
	}
	if len(cmd.Aliases) != 2 {
		t.Errorf("Command.Aliases count = %v, want 2", len(cmd.Aliases))
	}
	if cmd.Usage != "test(<arg>)" {
		t.Errorf("Command.Usage = %v, want 'test(<arg>)'", cmd.Usage)
	}
	if cmd.Description != "Test command description" {
		t.Errorf("Command.Description = %v, want 'Test command description'", cmd.Description)
	}
	if cmd.LongHelp != "Detailed help for test command" {
		t.Errorf("Command.LongHelp = %v", cmd.LongHelp)
	}
	if cmd.Category != CategoryVariables {
		t.Errorf("Command.Category = %v, want %v", cmd.Category, CategoryVariables)
	}
	if cmd.MinArgs != 1 {
		t.Errorf("Command.MinArgs = %v, want 1", cmd.MinArgs)
	}
	if cmd.Handler == nil {
		t.Error("Command.Handler should not be nil")
	}
}

func TestCategories(t *testing.T) {
	seen := make(map[string]bool)
	for _, cat := range CategoryOrder {
		if cat == "" {
			t.Error("Category constant should not be empty")
		}
		if seen[cat] {
			t.Errorf("Category %q listed twice", cat)
		}
		seen[cat] = true
	}
}

func TestHandler_Execute(t *testing.T) {
	executed := false
	handler := &MockHandler{
		executeFunc: func(args []string, ctx *Context) error {
			executed = true
			if len(args) != 2 {
				t.Errorf("Execute() args count = %v, want 2", len(args))
			}
			if args[0] != "arg1" {
				t.Errorf("Execute() args[0] = %v, want arg1", args[0])
			}
			return nil
		},
	}

	ctx := &Context{Name: "test"}
	err := handler.Execute([]string{"arg1", "arg2"}, ctx)
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !executed {
		t.Error("Execute() should have been called")
	}
}

func TestHandler_Execute_NilFunc(t *testing.T) {
	handler := &MockHandler{} // executeFunc is nil
	err := handler.Execute([]string{}, &Context{})
	if err != nil {
		t.Errorf("Execute() with nil func should return nil, got %v", err)
	}
}

func TestInternalHandler(t *testing.T) {
	var gotName string
	h := NewInternalHandler(func(args []string, ctx *Context) error {
		gotName = ctx.Name
		return nil
	})
	if err := h.Execute(nil, &Context{Name: "SET"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if gotName != "SET" {
		t.Errorf("handler saw name %q, want SET", gotName)
	}
}

func TestContext_Location(t *testing.T) {
	tests := []struct {
		ctx  Context
		want string
	}{
		{Context{File: "Configure.txt", Line: 4}, "Configure.txt:4"},
		{Context{File: "Configure.txt"}, "Configure.txt"},
		{Context{Line: 9}, "line 9"},
	}
	for _, tt := range tests {
		if got := tt.ctx.Location(); got != tt.want {
			t.Errorf("Location() = %q, want %q", got, tt.want)
		}
	}
}
