package a2a

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skreaver/skreaver/internal/mcp"
)

// MCPAgent adapts a single MCP tool into the UnifiedAgent contract, so
// an MCP-backed capability can sit behind a ProxyAgent or FanOutAgent
// alongside HTTPClient-backed A2A peers. Each SendMessage maps the
// first text Part of msg onto the tool's "input" argument (mirroring
// ToolBridge.Execute's plain-text convention in internal/mcp/bridge.go)
// and completes the task synchronously, since MCP tool calls have no
// native multi-turn task concept.
type MCPAgent struct {
	caller   mcp.ToolCaller
	serverID string
	toolName string

	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewMCPAgent wraps caller's serverID/toolName tool as a UnifiedAgent.
func NewMCPAgent(caller mcp.ToolCaller, serverID, toolName string) *MCPAgent {
	return &MCPAgent{
		caller:   caller,
		serverID: serverID,
		toolName: toolName,
		tasks:    make(map[string]*Task),
	}
}

func firstText(msg Message) string {
	for _, part := range msg.Parts {
		if part.Text != "" {
			return part.Text
		}
	}
	return ""
}

func (a *MCPAgent) call(ctx context.Context, msg Message) (*Task, error) {
	args := map[string]any{"input": firstText(msg)}
	result, err := a.caller.CallTool(ctx, a.serverID, a.toolName, args)
	if err != nil {
		return nil, fmt.Errorf("a2a: mcp tool call: %w", err)
	}

	task := &Task{
		ID:        uuid.NewString(),
		Status:    TaskStatusCompleted,
		Messages:  []Message{msg},
		UpdatedAt: time.Now(),
	}
	if result != nil {
		reply := Message{Role: RoleAgent}
		for _, content := range result.Content {
			switch content.Type {
			case "text":
				reply.Parts = append(reply.Parts, Part{Text: content.Text})
			default:
				reply.Parts = append(reply.Parts, Part{Data: []byte(content.Data), MimeType: content.MimeType})
			}
		}
		task.Messages = append(task.Messages, reply)
		if result.IsError {
			task.Status = TaskStatusFailed
		}
	}

	a.mu.Lock()
	a.tasks[task.ID] = task
	a.mu.Unlock()
	return task, nil
}

// SendMessage invokes the wrapped tool once, producing a terminal task.
func (a *MCPAgent) SendMessage(ctx context.Context, msg Message) (*Task, error) {
	return a.call(ctx, msg)
}

// SendMessageToTask re-invokes the tool; MCP tool calls have no
// continuation state, so this behaves identically to SendMessage but
// appends to the existing task's message history when the task is
// still known.
func (a *MCPAgent) SendMessageToTask(ctx context.Context, taskID string, msg Message) (*Task, error) {
	a.mu.RLock()
	prior, ok := a.tasks[taskID]
	a.mu.RUnlock()

	task, err := a.call(ctx, msg)
	if err != nil {
		return nil, err
	}
	if ok {
		task.ID = taskID
		task.Messages = append(append([]Message{}, prior.Messages...), task.Messages...)
		a.mu.Lock()
		a.tasks[taskID] = task
		a.mu.Unlock()
	}
	return task, nil
}

// SendMessageStreaming emits a single terminal StreamEvent, since MCP
// tool calls are request/response rather than incremental.
func (a *MCPAgent) SendMessageStreaming(ctx context.Context, msg Message) (<-chan StreamEvent, error) {
	task, err := a.call(ctx, msg)
	if err != nil {
		return nil, err
	}
	events := make(chan StreamEvent, 1)
	events <- StreamEvent{Type: StreamEventStatusUpdate, TaskID: task.ID, Status: task.Status, Final: true}
	close(events)
	return events, nil
}

// GetTask returns the cached result of a prior SendMessage call.
func (a *MCPAgent) GetTask(ctx context.Context, taskID string) (*Task, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	task, ok := a.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("a2a: unknown task %q", taskID)
	}
	return task, nil
}

// CancelTask is a no-op beyond marking the cached task canceled: MCP
// tool calls complete synchronously and cannot be interrupted
// mid-flight from this adapter.
func (a *MCPAgent) CancelTask(ctx context.Context, taskID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	task, ok := a.tasks[taskID]
	if !ok {
		return fmt.Errorf("a2a: unknown task %q", taskID)
	}
	task.Status = TaskStatusCanceled
	return nil
}

// SupportsStreaming reports false: MCPAgent's "streaming" is a single
// terminal event, not genuine incremental delivery, so FanOutAgent
// should prefer a genuinely streaming peer when one is available.
func (a *MCPAgent) SupportsStreaming() bool {
	return false
}
