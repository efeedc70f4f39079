// Package toolregistry implements the tool registry and dispatch surface
// (C3): a mapping from tool name to executor whose dispatch always
// returns a structured, observable result — no exception propagates out
// of dispatch. Grounded on the teacher's sync.RWMutex-guarded registry
// pattern (formerly internal/agent/tool_registry.go).
package toolregistry

import (
	"context"
)

// FailureCategory enumerates why a tool execution failed.
type FailureCategory string

const (
	FailureInvalidInput  FailureCategory = "invalid_input"
	FailureNetworkError  FailureCategory = "network_error"
	FailureTimeout       FailureCategory = "timeout"
	FailureInternalError FailureCategory = "internal_error"
	FailureCustom        FailureCategory = "custom"
	FailurePermission    FailureCategory = "permission_denied"
	FailureSecurity      FailureCategory = "security"
)

// FailureReason details a failed execution.
type FailureReason struct {
	Category FailureCategory
	Message  string
	// Operation names the timed-out operation, populated iff Category is
	// FailureTimeout.
	Operation string
}

// ExecutionResult is the tagged Success/Failure outcome of a tool call. It
// is always populated — dispatch never panics past this boundary.
type ExecutionResult struct {
	Success bool
	Output  string
	Failure *FailureReason
}

// Ok constructs a successful ExecutionResult.
func Ok(output string) *ExecutionResult {
	return &ExecutionResult{Success: true, Output: output}
}

// Fail constructs a failed ExecutionResult.
func Fail(category FailureCategory, message string) *ExecutionResult {
	return &ExecutionResult{Failure: &FailureReason{Category: category, Message: message}}
}

// FailTimeout constructs a failed ExecutionResult for a timed-out operation.
func FailTimeout(operation string) *ExecutionResult {
	return &ExecutionResult{Failure: &FailureReason{Category: FailureTimeout, Operation: operation, Message: "operation timed out: " + operation}}
}

// ToolCall pairs a validated tool name with opaque input. The input is
// opaque bytes to the registry but may be rejected by the tool itself.
type ToolCall struct {
	Name  string
	Input string
}

// Tool is anything the registry can dispatch to.
type Tool interface {
	Name() string
	// Declares the categories of operation this tool performs (e.g.
	// "fs:read", "http:get"), consulted by the policy engine during
	// secure dispatch.
	Operations() []string
	Execute(ctx context.Context, input string) *ExecutionResult
}
