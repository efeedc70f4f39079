package jobs

import (
	"context"
	"encoding/json"

	"github.com/skreaver/skreaver/internal/jobs"
	"github.com/skreaver/skreaver/internal/toolregistry"
)

// StatusTool exposes job status via tool call.
type StatusTool struct {
	store jobs.Store
}

// NewStatusTool returns a job status tool.
func NewStatusTool(store jobs.Store) *StatusTool {
	return &StatusTool{store: store}
}

func (t *StatusTool) Name() string { return "job_status" }

func (t *StatusTool) Description() string {
	return "Fetch job status/result by job_id"
}

func (t *StatusTool) Operations() []string { return []string{"jobs:read"} }

func (t *StatusTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"job_id":{"type":"string"}},"required":["job_id"]}`)
}

func (t *StatusTool) Execute(ctx context.Context, rawInput string) *toolregistry.ExecutionResult {
	if t.store == nil {
		return toolregistry.Fail(toolregistry.FailureInternalError, "job store unavailable")
	}
	var input struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal([]byte(rawInput), &input); err != nil {
		return toolregistry.Fail(toolregistry.FailureInvalidInput, err.Error())
	}
	if input.JobID == "" {
		return toolregistry.Fail(toolregistry.FailureInvalidInput, "job_id is required")
	}
	job, err := t.store.Get(ctx, input.JobID)
	if err != nil {
		return toolregistry.Fail(toolregistry.FailureInternalError, err.Error())
	}
	if job == nil {
		return toolregistry.Fail(toolregistry.FailureCustom, "job not found")
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return toolregistry.Fail(toolregistry.FailureInternalError, err.Error())
	}
	return toolregistry.Ok(string(payload))
}
