package toolregistry

import (
	"context"
	"testing"
)

func TestRegistryRegisterGetUnregister(t *testing.T) {
	r := New()
	tool := newEchoTool("echo")
	r.Register(tool)

	got, ok := r.Get("echo")
	if !ok || got.Name() != "echo" {
		t.Fatalf("expected to find registered tool")
	}

	r.Unregister("echo")
	if _, ok := r.Get("echo"); ok {
		t.Fatalf("expected tool to be gone after Unregister")
	}
}

func TestRegistryDispatchUnknown(t *testing.T) {
	r := New()
	_, known := r.Dispatch(context.Background(), ToolCall{Name: "missing"})
	if known {
		t.Fatalf("expected unknown tool to report known=false")
	}
}

func TestRegistryDispatchKnown(t *testing.T) {
	r := New()
	r.Register(newEchoTool("echo"))
	result, known := r.Dispatch(context.Background(), ToolCall{Name: "echo", Input: "hi"})
	if !known || !result.Success || result.Output != "hi" {
		t.Fatalf("expected successful dispatch, got %+v (known=%v)", result, known)
	}
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"*", "anything", true},
		{"shell_*", "shell_exec", true},
		{"shell_*", "file_delete", false},
		{"http_get", "http_get", true},
		{"http_get", "http_post", false},
	}
	for _, c := range cases {
		if got := MatchPattern(c.pattern, c.name); got != c.want {
			t.Errorf("MatchPattern(%q, %q) = %v, want %v", c.pattern, c.name, got, c.want)
		}
	}
}
