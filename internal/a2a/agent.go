// Package a2a implements the C13 protocol-bridge surface: a UnifiedAgent
// contract abstracting MCP and A2A agent exchange, the ProxyAgent and
// FanOutAgent compositions, and elicitation (form/URL) support, grounded
// on original_source/examples/a2a_client.rs's A2aClient surface and
// generalized from internal/mcp/bridge.go's tool-adaptation shape to
// whole-agent message exchange.
package a2a

import (
	"context"
	"time"
)

// Role identifies the originator of a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one turn of a conversation, carrying zero or more content
// parts.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a single piece of message content. Exactly one of Text or
// Data is populated; MimeType describes Data when present.
type Part struct {
	Text     string `json:"text,omitempty"`
	Data     []byte `json:"data,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// TaskStatus mirrors the A2A task lifecycle states named in
// original_source's skreaver_a2a::TaskStatus.
type TaskStatus string

const (
	TaskStatusSubmitted     TaskStatus = "submitted"
	TaskStatusWorking       TaskStatus = "working"
	TaskStatusInputRequired TaskStatus = "input_required"
	TaskStatusCompleted     TaskStatus = "completed"
	TaskStatusFailed        TaskStatus = "failed"
	TaskStatusCanceled      TaskStatus = "canceled"
)

// Artifact is a named output produced by a task, distinct from the
// conversational Messages exchanged to produce it.
type Artifact struct {
	Name  string `json:"name"`
	Parts []Part `json:"parts"`
}

// Task is the unit of work a UnifiedAgent tracks across one or more
// SendMessage calls.
type Task struct {
	ID        string     `json:"id"`
	Status    TaskStatus `json:"status"`
	Messages  []Message  `json:"messages"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// StreamEventType distinguishes the kinds of events SendMessageStreaming
// emits.
type StreamEventType string

const (
	StreamEventMessage        StreamEventType = "message"
	StreamEventStatusUpdate   StreamEventType = "status_update"
	StreamEventArtifactUpdate StreamEventType = "artifact_update"
)

// StreamEvent is one element of the lazy sequence spec.md §4.9 describes
// SendMessageStreaming as returning.
type StreamEvent struct {
	Type     StreamEventType `json:"type"`
	TaskID   string          `json:"task_id"`
	Message  *Message        `json:"message,omitempty"`
	Status   TaskStatus      `json:"status,omitempty"`
	Artifact *Artifact       `json:"artifact,omitempty"`
	Final    bool            `json:"final"`
}

// UnifiedAgent abstracts MCP and A2A agent exchange behind one contract,
// per spec.md §4.9. A bridge adapts a UnifiedAgent into the handler
// interface of a specific protocol server; ProxyAgent and FanOutAgent
// compose UnifiedAgents without caring which protocol backs them.
type UnifiedAgent interface {
	// SendMessage starts a new task with msg as its first turn.
	SendMessage(ctx context.Context, msg Message) (*Task, error)

	// SendMessageToTask continues an existing task, per the original's
	// continue_task.
	SendMessageToTask(ctx context.Context, taskID string, msg Message) (*Task, error)

	// SendMessageStreaming is like SendMessage but returns incremental
	// events on the returned channel instead of waiting for completion.
	// The channel is closed when the task reaches a terminal status or
	// ctx is canceled.
	SendMessageStreaming(ctx context.Context, msg Message) (<-chan StreamEvent, error)

	// GetTask fetches the current state of a previously started task.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// CancelTask requests cancellation of a running task.
	CancelTask(ctx context.Context, taskID string) error
}

// StreamCapable reports whether a UnifiedAgent implementation supports
// SendMessageStreaming; FanOutAgent uses this to pick its streaming
// fallback target per spec.md §4.9.
type StreamCapable interface {
	SupportsStreaming() bool
}
