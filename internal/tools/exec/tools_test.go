package exec

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestExecToolRunsCommand(t *testing.T) {
	mgr := NewManager(t.TempDir())
	tool := NewExecTool("exec", mgr)
	params, _ := json.Marshal(map[string]interface{}{
		"command": "echo hello",
	})
	result := tool.Execute(context.Background(), string(params))
	if !result.Success {
		t.Fatalf("expected success: %+v", result.Failure)
	}
	if !strings.Contains(result.Output, "hello") {
		t.Fatalf("expected stdout in result: %s", result.Output)
	}
}

func TestProcessToolLifecycle(t *testing.T) {
	mgr := NewManager(t.TempDir())
	execTool := NewExecTool("exec", mgr)
	procTool := NewProcessTool(mgr)

	params, _ := json.Marshal(map[string]interface{}{
		"command":    "echo background",
		"background": true,
	})
	result := execTool.Execute(context.Background(), string(params))
	if !result.Success {
		t.Fatalf("expected success: %+v", result.Failure)
	}

	var payload struct {
		ProcessID string `json:"process_id"`
	}
	if err := json.Unmarshal([]byte(result.Output), &payload); err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if payload.ProcessID == "" {
		t.Fatalf("expected process_id")
	}

	time.Sleep(50 * time.Millisecond)
	statusParams, _ := json.Marshal(map[string]interface{}{
		"action":     "status",
		"process_id": payload.ProcessID,
	})
	statusResult := procTool.Execute(context.Background(), string(statusParams))
	if !statusResult.Success {
		t.Fatalf("expected status success: %+v", statusResult.Failure)
	}

	removeParams, _ := json.Marshal(map[string]interface{}{
		"action":     "remove",
		"process_id": payload.ProcessID,
	})
	removeResult := procTool.Execute(context.Background(), string(removeParams))
	if !removeResult.Success {
		t.Fatalf("expected remove success: %+v", removeResult.Failure)
	}
}
