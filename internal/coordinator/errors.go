package coordinator

import (
	"fmt"
	"strings"
)

// ToolDispatchFailedError reports that every tool call in a dispatched
// batch failed.
type ToolDispatchFailedError struct {
	FailedTools []string
}

func (e *ToolDispatchFailedError) Error() string {
	return fmt.Sprintf("tool dispatch failed for: %s", strings.Join(e.FailedTools, ", "))
}

// ContextUpdateFailedError reports that a memory write backing the agent's
// context failed.
type ContextUpdateFailedError struct {
	Key    string
	Reason string
}

func (e *ContextUpdateFailedError) Error() string {
	return fmt.Sprintf("context update failed for key %q: %s", e.Key, e.Reason)
}

// StepFailedError reports any other reason a coordinator step could not
// proceed, including step-budget exhaustion.
type StepFailedError struct {
	Reason string
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("step failed: %s", e.Reason)
}
