// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/aplane-algo/cfgbridge/internal/scripting"
)

func TestExpandList(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		keepEmpty bool
		want      []string
	}{
		{"simple", "a;b;c", false, []string{"a", "b", "c"}},
		{"single", "a", false, []string{"a"}},
		{"empty dropped", "", false, []string{}},
		{"empty kept", "", true, []string{""}},
		{"inner empty dropped", "a;;b", false, []string{"a", "b"}},
		{"inner empty kept", "a;;b", true, []string{"a", "", "b"}},
		{"trailing kept", "a;", true, []string{"a", ""}},
		{"only separators dropped", ";;", false, []string{}},
		{"escaped separator", `a\;b;c`, false, []string{"a;b", "c"}},
		{"brackets", "[x;y];z", false, []string{"[x;y]", "z"}},
		{"nested brackets", "[[a;b];c];d", false, []string{"[[a;b];c]", "d"}},
		{"unbalanced close", "a];b", false, []string{"a]", "b"}},
		{"backslash kept", `a\b`, false, []string{`a\b`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandList(tt.value, tt.keepEmpty)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpandList(%q, %v) = %q, want %q", tt.value, tt.keepEmpty, got, tt.want)
			}
			exp := newListExpansion(got)
			if exp.Count != len(exp.Items) {
				t.Errorf("Count = %d, len(Items) = %d", exp.Count, len(exp.Items))
			}
		})
	}
}

func TestJoinList(t *testing.T) {
	items := []string{"a", "b", "c"}
	if got := JoinList(items); got != "a;b;c" {
		t.Errorf("JoinList = %q", got)
	}
	if got := ExpandList(JoinList(items), false); !reflect.DeepEqual(got, items) {
		t.Errorf("ExpandList(JoinList) = %q, want %q", got, items)
	}
}

func TestNativeResult_Values(t *testing.T) {
	if got := commandResult(nil).Values(); !reflect.DeepEqual(got, []scripting.Value{true, nil}) {
		t.Errorf("success values = %v", got)
	}
	got := commandResult(errors.New("no such command")).Values()
	if !reflect.DeepEqual(got, []scripting.Value{false, "no such command"}) {
		t.Errorf("failure values = %v", got)
	}
	if got := commandResult(errors.New("")).Error; got == "" {
		t.Error("empty failure text should be replaced")
	}
}

func TestNewInvocation(t *testing.T) {
	inv := newInvocation("set", 7, []string{"A", "x;y"})
	if inv.Name != "set" || inv.Line != 7 {
		t.Errorf("invocation = %+v", inv)
	}
	for _, a := range inv.Args {
		if !a.Quoted {
			t.Errorf("argument %q not quoted", a.Value)
		}
	}
	if got := inv.Values(); !reflect.DeepEqual(got, []string{"A", "x;y"}) {
		t.Errorf("Values() = %q", got)
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("stat failed")
	tests := []struct {
		err  error
		kind error
		msg  string
	}{
		{argumentError("invalid command `%s`", "X"), ErrArgument, "invalid command `X`"},
		{pathError("bad path", cause), ErrPath, "bad path"},
		{initializationError("failed to load", cause), ErrInitialization, "failed to load: stat failed"},
		{scriptRuntimeError("", &scripting.ScriptError{Message: "boom"}), ErrScriptRuntime, "boom"},
		{scriptRuntimeError("CALL fn", &scripting.ScriptError{Message: "boom"}), ErrScriptRuntime, "CALL fn: boom"},
		{hostCommandError(CommandInvocation{Name: "set", Line: 3}, cause), ErrHostCommand, "set (line 3): stat failed"},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.kind) {
			t.Errorf("%v: errors.Is(%v) = false", tt.err, tt.kind)
		}
		if tt.err.Error() != tt.msg {
			t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.msg)
		}
		for _, other := range []error{ErrArgument, ErrPath, ErrInitialization, ErrScriptRuntime, ErrHostCommand} {
			if other != tt.kind && errors.Is(tt.err, other) {
				t.Errorf("%v also matches %v", tt.err, other)
			}
		}
	}

	if !errors.Is(pathError("x", cause), cause) {
		t.Error("pathError should unwrap to its cause")
	}
	if scriptRuntimeError("x", nil) != nil {
		t.Error("scriptRuntimeError(nil) should be nil")
	}
}

func TestCallbacks_NoHostBound(t *testing.T) {
	c := newCallbacks(&LineTracker{})
	for name, fn := range map[string]scripting.NativeFunc{
		NativeCommand:    c.issueCommand,
		NativeDefinition: c.getDefinition,
		NativeExpandList: c.expandList,
	} {
		_, err := fn([]string{"x"})
		if !errors.Is(err, errNoHost) {
			t.Errorf("%s() error = %v, want errNoHost", name, err)
		}
	}
}

func TestCallbacks_Misuse(t *testing.T) {
	c := newCallbacks(&LineTracker{})
	c.Bind(newFakeHost(t))

	tests := []struct {
		name string
		fn   scripting.NativeFunc
		args []string
	}{
		{NativeCommand, c.issueCommand, nil},
		{NativeCommand, c.issueCommand, []string{""}},
		{NativeDefinition, c.getDefinition, nil},
		{NativeExpandList, c.expandList, nil},
	}
	for _, tt := range tests {
		_, err := tt.fn(tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.name) {
			t.Errorf("%s(%q) error = %v, want a usage error", tt.name, tt.args, err)
		}
	}
}

func TestCallbacks_CommandStampsLine(t *testing.T) {
	tracker := &LineTracker{}
	c := newCallbacks(tracker)
	host := newFakeHost(t)
	c.Bind(host)

	tracker.Hook()(12)
	if _, err := c.issueCommand([]string{"set", "A"}); err != nil {
		t.Fatal(err)
	}
	if host.commands[0].Line != 12 {
		t.Errorf("Line = %d, want 12", host.commands[0].Line)
	}
}
