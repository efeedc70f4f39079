// Package coordinator drives a single agent's typestate phases through one
// logical step: observe, dispatch pending tool calls through the secure
// wrapper, and act once the phase reaches typestate.Complete. A Coordinator
// owns exactly one agent execution at a time; multiplexing many agents
// across worker goroutines is the caller's concern (see internal/mesh).
package coordinator

import (
	"context"
	"fmt"

	"github.com/skreaver/skreaver/internal/memory"
	"github.com/skreaver/skreaver/internal/toolregistry"
	"github.com/skreaver/skreaver/internal/typestate"
)

// DefaultMaxSteps bounds a single Run call so a misbehaving agent cannot
// loop forever between Processing and ToolExecution.
const DefaultMaxSteps = 25

// Coordinator composes a secure tool dispatcher with a memory store to
// drive one agent's execution loop.
type Coordinator struct {
	Wrapper   *toolregistry.SecureWrapper
	Memory    memory.Writer
	Principal toolregistry.Principal
	MaxSteps  int
}

// New builds a Coordinator with DefaultMaxSteps.
func New(wrapper *toolregistry.SecureWrapper, mem memory.Writer, principal toolregistry.Principal) *Coordinator {
	return &Coordinator{Wrapper: wrapper, Memory: mem, Principal: principal, MaxSteps: DefaultMaxSteps}
}

// Run executes one agent turn for input, returning the terminal Complete
// phase or a structured CoordinatorError (ToolDispatchFailedError,
// ContextUpdateFailedError, or StepFailedError).
func (c *Coordinator) Run(ctx context.Context, input string) (*typestate.Complete, error) {
	maxSteps := c.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	processing := typestate.NewInitial().Observe(input)
	if err := c.storeContext(ctx, "last_input", input); err != nil {
		return nil, err
	}

	var current typestate.Phase = processing
	for step := 0; step < maxSteps; step++ {
		switch p := current.(type) {
		case typestate.Processing:
			next, err := c.advanceProcessing(p)
			if err != nil {
				return nil, err
			}
			current = next

		case typestate.ToolExecution:
			next, err := c.dispatchBatch(ctx, p)
			if err != nil {
				return nil, err
			}
			current = next

		case typestate.Complete:
			action := p.Act()
			if err := c.storeContext(ctx, "last_action", action.Summary); err != nil {
				return nil, err
			}
			return &p, nil

		default:
			return nil, &StepFailedError{Reason: fmt.Sprintf("unrecognized phase %T", p)}
		}
	}
	return nil, &StepFailedError{Reason: "budget exceeded"}
}

func (c *Coordinator) advanceProcessing(p typestate.Processing) (typestate.Phase, error) {
	if !p.HasPendingTools() {
		return p.CompleteWithoutTools(), nil
	}
	te, err := p.RequestTools()
	if err != nil {
		return nil, &StepFailedError{Reason: err.Error()}
	}
	return te, nil
}

func (c *Coordinator) dispatchBatch(ctx context.Context, te typestate.ToolExecution) (typestate.Phase, error) {
	calls := te.Pending.Calls()
	results := make([]typestate.ToolResult, 0, len(calls))
	failed := make([]string, 0)

	for _, call := range calls {
		res := c.Wrapper.Dispatch(ctx, call, c.Principal)
		tr := typestate.ToolResult{Call: call, Success: res.Success, Output: res.Output}
		if !res.Success {
			if res.Failure != nil {
				tr.FailureMessage = res.Failure.Message
			}
			failed = append(failed, call.Name)
		}
		results = append(results, tr)
	}

	if len(failed) == len(results) && te.RetryCount >= typestate.MaxRetries {
		return nil, &ToolDispatchFailedError{FailedTools: failed}
	}

	next, err := te.HandleResults(results)
	if err != nil {
		return nil, &ToolDispatchFailedError{FailedTools: failed}
	}
	return next, nil
}

func (c *Coordinator) storeContext(ctx context.Context, key, value string) error {
	if c.Memory == nil {
		return nil
	}
	k, err := memory.NewKey(key)
	if err != nil {
		return &ContextUpdateFailedError{Key: key, Reason: err.Error()}
	}
	if err := c.Memory.Store(ctx, memory.Update{Key: k, Value: value}); err != nil {
		return &ContextUpdateFailedError{Key: key, Reason: err.Error()}
	}
	return nil
}
