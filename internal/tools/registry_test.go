package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type fakeTool struct {
	name     string
	schema   string
	lastArgs json.RawMessage
	result   *Result
	err      error
}

func (f *fakeTool) Name() string            { return f.name }
func (f *fakeTool) Description() string     { return "fake tool for tests" }
func (f *fakeTool) Schema() json.RawMessage { return json.RawMessage(f.schema) }

func (f *fakeTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	f.lastArgs = params
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return TextResult("ok"), nil
}

const objectSchema = `{"type":"object","properties":{"q":{"type":"string"}}}`

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(&fakeTool{name: "echo", schema: objectSchema}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&fakeTool{name: "echo", schema: objectSchema}); err == nil {
		t.Fatal("duplicate register should fail")
	}
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry(nil)
	for _, name := range []string{"c", "a", "b"} {
		if err := r.Register(&fakeTool{name: name, schema: objectSchema}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	var got []string
	for _, tool := range r.All() {
		got = append(got, tool.Name())
	}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("catalog order = %v, want %v", got, want)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry(nil)
	got := r.Dispatch(context.Background(), "does_not_exist", nil)
	if got != "unknown tool: does_not_exist" {
		t.Errorf("dispatch = %q", got)
	}
}

func TestDispatchDegradesBadArguments(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"malformed json", `{"q":`},
		{"schema violation", `{"q":123}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTool{name: "echo", schema: objectSchema}
			r := NewRegistry(nil)
			if err := r.Register(ft); err != nil {
				t.Fatalf("register: %v", err)
			}
			r.Dispatch(context.Background(), "echo", json.RawMessage(tt.args))
			if string(ft.lastArgs) != "{}" {
				t.Errorf("tool received %q, want empty argument set", ft.lastArgs)
			}
		})
	}
}

func TestDispatchPassesValidArguments(t *testing.T) {
	ft := &fakeTool{name: "echo", schema: objectSchema}
	r := NewRegistry(nil)
	if err := r.Register(ft); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.Dispatch(context.Background(), "echo", json.RawMessage(`{"q":"hi"}`))
	if string(ft.lastArgs) != `{"q":"hi"}` {
		t.Errorf("tool received %q, want original arguments", ft.lastArgs)
	}
}

func TestDispatchNeverPropagatesExecuteError(t *testing.T) {
	ft := &fakeTool{name: "echo", schema: objectSchema, err: errors.New("boom")}
	r := NewRegistry(nil)
	if err := r.Register(ft); err != nil {
		t.Fatalf("register: %v", err)
	}
	got := r.Dispatch(context.Background(), "echo", nil)
	if !strings.Contains(got, "echo tool hit an internal problem") {
		t.Errorf("dispatch = %q, want internal-problem text", got)
	}
}
