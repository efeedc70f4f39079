// Package typestate implements the agent phase core (C7): each phase of an
// agent's execution is a distinct Go type, and every transition consumes
// the previous value and returns the next, so a stale reference to a prior
// phase cannot be mistaken for the current one. This mirrors the teacher's
// preference for small, value-typed state machines over a single mutable
// struct with a status enum.
package typestate

import (
	"errors"

	"github.com/skreaver/skreaver/internal/toolregistry"
)

// Context carries accumulated agent state across phase transitions. Keys
// are free-form; the coordinator reserves "last_input" and "last_action".
type Context map[string]string

func (c Context) clone() Context {
	cp := make(Context, len(c))
	for k, v := range c {
		cp[k] = v
	}
	return cp
}

// Phase is implemented by every phase type. It exists so a coordinator can
// hold a single variable across the loop and type-switch on the concrete
// phase, without letting arbitrary values masquerade as a phase.
type Phase interface {
	phase()
}

// Initial is the phase before any input has been observed.
type Initial struct{}

func (Initial) phase() {}

// NewInitial returns a fresh Initial phase.
func NewInitial() Initial { return Initial{} }

// Observe consumes Initial and produces Processing, the only transition
// Initial exposes.
func (Initial) Observe(input string) Processing {
	return Processing{Input: input, Context: Context{}}
}

// Processing holds an observed input awaiting either direct completion or
// tool dispatch.
type Processing struct {
	Input        string
	Context      Context
	PendingTools []toolregistry.ToolCall
	RetryCount   int
}

func (Processing) phase() {}

// HasPendingTools reports whether the agent requested tool calls this turn.
func (p Processing) HasPendingTools() bool { return len(p.PendingTools) > 0 }

// CompleteWithoutTools consumes Processing and produces Complete directly,
// valid only when there are no pending tool calls.
func (p Processing) CompleteWithoutTools() Complete {
	return Complete{Input: p.Input, Context: p.Context.clone()}
}

// ErrNoPendingTools is returned by RequestTools when Processing carries no
// tool calls to dispatch.
var ErrNoPendingTools = errors.New("typestate: cannot request tools with an empty pending list")

// RequestTools consumes Processing and produces ToolExecution, valid only
// when PendingTools is non-empty.
func (p Processing) RequestTools() (ToolExecution, error) {
	pending, err := NewNonEmptyToolCalls(p.PendingTools)
	if err != nil {
		return ToolExecution{}, ErrNoPendingTools
	}
	return ToolExecution{
		Input:      p.Input,
		Context:    p.Context.clone(),
		Pending:    pending,
		RetryCount: p.RetryCount,
	}, nil
}

// NonEmptyToolCalls is a slice of tool calls guaranteed to hold at least
// one element; it can only be constructed through NewNonEmptyToolCalls.
type NonEmptyToolCalls struct {
	calls []toolregistry.ToolCall
}

// ErrEmptyToolCalls is returned by NewNonEmptyToolCalls when given no
// calls.
var ErrEmptyToolCalls = errors.New("typestate: non-empty tool call list requires at least one call")

// NewNonEmptyToolCalls copies calls into a NonEmptyToolCalls, failing if
// calls is empty.
func NewNonEmptyToolCalls(calls []toolregistry.ToolCall) (NonEmptyToolCalls, error) {
	if len(calls) == 0 {
		return NonEmptyToolCalls{}, ErrEmptyToolCalls
	}
	cp := make([]toolregistry.ToolCall, len(calls))
	copy(cp, calls)
	return NonEmptyToolCalls{calls: cp}, nil
}

// Calls returns the held tool calls. The returned slice is a copy's view
// and must not be mutated by callers expecting to affect the original.
func (n NonEmptyToolCalls) Calls() []toolregistry.ToolCall { return n.calls }

// Len returns the number of held calls, always >= 1.
func (n NonEmptyToolCalls) Len() int { return len(n.calls) }

// ToolExecution holds a batch of tool calls awaiting results.
type ToolExecution struct {
	Input      string
	Context    Context
	Pending    NonEmptyToolCalls
	RetryCount int
}

func (ToolExecution) phase() {}

// ToolResult records the outcome of one dispatched call.
type ToolResult struct {
	Call           toolregistry.ToolCall
	Success        bool
	Output         string
	FailureMessage string
}

// MaxRetries bounds the Processing<->ToolExecution retry loop; once
// exceeded, HandleResults returns an error rather than looping forever on
// a tool that keeps failing.
const MaxRetries = 3

// ErrRetriesExhausted is returned by HandleResults when every call in
// results failed and RetryCount has already reached MaxRetries.
var ErrRetriesExhausted = errors.New("typestate: retry budget exhausted")

// HandleResults consumes ToolExecution and produces the next phase: if
// every call succeeded, Complete; if at least one call succeeded (or the
// retry budget remains), Processing carrying the failures for the agent to
// reconsider; if every call failed and the retry budget is exhausted, an
// error (the coordinator maps this to CoordinatorError::ToolDispatchFailed
// at the batch level, since a full-batch failure past the budget is not
// worth retrying further).
func (t ToolExecution) HandleResults(results []ToolResult) (Phase, error) {
	allSucceeded := true
	anyFailed := false
	for _, r := range results {
		if !r.Success {
			anyFailed = true
			allSucceeded = false
		}
	}
	if allSucceeded {
		return Complete{Input: t.Input, Context: t.Context.clone(), Results: results}, nil
	}
	if anyFailed && t.RetryCount >= MaxRetries {
		return nil, ErrRetriesExhausted
	}
	ctx := t.Context.clone()
	for _, r := range results {
		if !r.Success {
			ctx["last_tool_failure:"+r.Call.Name] = r.FailureMessage
		}
	}
	return Processing{
		Input:      t.Input,
		Context:    ctx,
		RetryCount: t.RetryCount + 1,
	}, nil
}

// Action is the outcome an agent step reports once Complete.
type Action struct {
	Summary string
	Data    map[string]string
}

// Complete is the terminal phase; only Complete exposes Act().
type Complete struct {
	Input   string
	Context Context
	Results []ToolResult
}

func (Complete) phase() {}

// Act derives the agent's action for this turn from its final input,
// context, and any tool results gathered along the way.
func (c Complete) Act() Action {
	data := make(map[string]string, len(c.Context))
	for k, v := range c.Context {
		data[k] = v
	}
	summary := "observed input, no tools invoked"
	if len(c.Results) > 0 {
		summary = "completed after dispatching tool calls"
	}
	return Action{Summary: summary, Data: data}
}
