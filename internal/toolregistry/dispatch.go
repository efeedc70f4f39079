package toolregistry

import (
	"context"
	"strings"
	"sync"
)

// Registry maps tool name to executor. Immutable after construction in the
// typical path; Register/Unregister exist for dynamic tool sets (e.g. MCP
// bridges adding tools at runtime).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool under its own name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns the tool registered under name, if any.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns every registered tool name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	return names
}

// Dispatch executes call.Name with call.Input. The boolean return is false
// iff the name is unknown to the registry (spec.md's "None iff unknown"
// contract); a known tool always returns a populated ExecutionResult.
func (r *Registry) Dispatch(ctx context.Context, call ToolCall) (*ExecutionResult, bool) {
	r.mu.RLock()
	tool, ok := r.tools[call.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return tool.Execute(ctx, call.Input), true
}

// MatchPattern reports whether toolName falls under pattern: "*" (all),
// "prefix*" (prefix match), or an exact name — the same three-way pattern
// language used across C3/C4/C5/C6.
func MatchPattern(pattern, toolName string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(toolName, strings.TrimSuffix(pattern, "*"))
	default:
		return pattern == toolName
	}
}
