// Package observability provides diagnostic event types and emission.
package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// DiagnosticEventType identifies the type of diagnostic event.
type DiagnosticEventType string

const (
	EventTypeToolExecution  DiagnosticEventType = "tool.execution"
	EventTypeAgentPhase     DiagnosticEventType = "agent.phase"
	EventTypeMeshTask       DiagnosticEventType = "mesh.task"
	EventTypeMeshDLQ        DiagnosticEventType = "mesh.dlq"
	EventTypeBackpressure   DiagnosticEventType = "mesh.backpressure"
	EventTypeWSConnection   DiagnosticEventType = "ws.connection"
	EventTypeAuthDecision   DiagnosticEventType = "auth.decision"
	EventTypeHeartbeat      DiagnosticEventType = "diagnostic.heartbeat"
)

// DiagnosticEvent is the base event structure.
type DiagnosticEvent struct {
	Type DiagnosticEventType `json:"type"`
	Seq  int64               `json:"seq"`
	Ts   int64               `json:"ts"`
}

// ToolExecutionEvent tracks one dispatch through internal/toolregistry.
type ToolExecutionEvent struct {
	DiagnosticEvent
	SessionID  string `json:"session_id,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
	ToolName   string `json:"tool_name"`
	Operation  string `json:"operation,omitempty"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AgentPhaseEvent tracks a typestate phase transition (C7).
type AgentPhaseEvent struct {
	DiagnosticEvent
	SessionID string `json:"session_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	FromPhase string `json:"from_phase,omitempty"`
	ToPhase   string `json:"to_phase"`
	Step      int    `json:"step,omitempty"`
}

// MeshTaskEvent tracks one agent-mesh task's lifecycle transition (C11).
type MeshTaskEvent struct {
	DiagnosticEvent
	TaskID     string `json:"task_id"`
	Worker     string `json:"worker,omitempty"`
	Status     string `json:"status"` // "queued", "assigned", "completed", "failed"
	RetryCount int    `json:"retry_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// MeshDLQEvent tracks a message entering or leaving the dead letter queue.
type MeshDLQEvent struct {
	DiagnosticEvent
	TaskID     string `json:"task_id"`
	Action     string `json:"action"` // "added", "retried", "expired", "exhausted"
	QueueDepth int    `json:"queue_depth"`
	Reason     string `json:"reason,omitempty"`
}

// BackpressureEvent tracks a backpressure signal transition (C11).
type BackpressureEvent struct {
	DiagnosticEvent
	Signal     string `json:"signal"` // "normal", "warning", "critical"
	QueueDepth int    `json:"queue_depth"`
}

// WSConnectionEvent tracks a WebSocket connection lifecycle event (C10).
type WSConnectionEvent struct {
	DiagnosticEvent
	SessionID        string `json:"session_id"`
	Action           string `json:"action"` // "opened", "closed", "subscription_rejected"
	Reason           string `json:"reason,omitempty"`
	ActiveSubscriber int    `json:"active_subscriptions,omitempty"`
}

// AuthDecisionEvent tracks one authentication decision (C9).
type AuthDecisionEvent struct {
	DiagnosticEvent
	Method    string `json:"method"` // "jwt", "api_key"
	Principal string `json:"principal,omitempty"`
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
}

// DiagnosticHeartbeatEvent tracks periodic diagnostic heartbeats emitted
// by the C11 scheduled sweep (internal/cron-driven DLQ/backpressure/
// worker-health check).
type DiagnosticHeartbeatEvent struct {
	DiagnosticEvent
	ActiveConnections int `json:"active_connections"`
	DLQDepth          int `json:"dlq_depth"`
	QueueDepth        int `json:"queue_depth"`
}

// DiagnosticEventPayload is a union type for all diagnostic events.
type DiagnosticEventPayload interface {
	EventType() DiagnosticEventType
	Sequence() int64
	Timestamp() int64
}

func (e *DiagnosticEvent) EventType() DiagnosticEventType { return e.Type }
func (e *DiagnosticEvent) Sequence() int64                { return e.Seq }
func (e *DiagnosticEvent) Timestamp() int64               { return e.Ts }

// DiagnosticListener receives diagnostic events.
type DiagnosticListener func(event DiagnosticEventPayload)

// DiagnosticEmitter manages diagnostic event emission.
type DiagnosticEmitter struct {
	mu        sync.RWMutex
	seq       int64
	enabled   bool
	listeners []DiagnosticListener
}

var globalEmitter = &DiagnosticEmitter{}

// SetDiagnosticsEnabled enables or disables diagnostic events.
func SetDiagnosticsEnabled(enabled bool) {
	globalEmitter.mu.Lock()
	defer globalEmitter.mu.Unlock()
	globalEmitter.enabled = enabled
}

// IsDiagnosticsEnabled returns whether diagnostics are enabled.
func IsDiagnosticsEnabled() bool {
	globalEmitter.mu.RLock()
	defer globalEmitter.mu.RUnlock()
	return globalEmitter.enabled
}

// OnDiagnosticEvent registers a listener for diagnostic events.
func OnDiagnosticEvent(listener DiagnosticListener) func() {
	globalEmitter.mu.Lock()
	defer globalEmitter.mu.Unlock()
	globalEmitter.listeners = append(globalEmitter.listeners, listener)

	return func() {
		globalEmitter.mu.Lock()
		defer globalEmitter.mu.Unlock()
		for i, l := range globalEmitter.listeners {
			if &l == &listener {
				globalEmitter.listeners = append(globalEmitter.listeners[:i], globalEmitter.listeners[i+1:]...)
				break
			}
		}
	}
}

func nextSeq() int64 {
	return atomic.AddInt64(&globalEmitter.seq, 1)
}

func emit(event DiagnosticEventPayload) {
	globalEmitter.mu.RLock()
	if !globalEmitter.enabled {
		globalEmitter.mu.RUnlock()
		return
	}
	listeners := make([]DiagnosticListener, len(globalEmitter.listeners))
	copy(listeners, globalEmitter.listeners)
	globalEmitter.mu.RUnlock()

	for _, listener := range listeners {
		func() {
			defer func() {
				if recovered := recover(); recovered != nil {
					_ = recovered
				}
			}()
			listener(event)
		}()
	}
}

// EmitToolExecution emits a tool execution event.
func EmitToolExecution(e *ToolExecutionEvent) {
	e.Type = EventTypeToolExecution
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitAgentPhase emits an agent phase transition event.
func EmitAgentPhase(e *AgentPhaseEvent) {
	e.Type = EventTypeAgentPhase
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitMeshTask emits a mesh task lifecycle event.
func EmitMeshTask(e *MeshTaskEvent) {
	e.Type = EventTypeMeshTask
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitMeshDLQ emits a dead letter queue event.
func EmitMeshDLQ(e *MeshDLQEvent) {
	e.Type = EventTypeMeshDLQ
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitBackpressure emits a backpressure signal transition event.
func EmitBackpressure(e *BackpressureEvent) {
	e.Type = EventTypeBackpressure
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitWSConnection emits a WebSocket connection lifecycle event.
func EmitWSConnection(e *WSConnectionEvent) {
	e.Type = EventTypeWSConnection
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitAuthDecision emits an authentication decision event.
func EmitAuthDecision(e *AuthDecisionEvent) {
	e.Type = EventTypeAuthDecision
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitDiagnosticHeartbeat emits a diagnostic heartbeat event.
func EmitDiagnosticHeartbeat(e *DiagnosticHeartbeatEvent) {
	e.Type = EventTypeHeartbeat
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// ResetDiagnosticsForTest resets diagnostic state for testing.
func ResetDiagnosticsForTest() {
	globalEmitter.mu.Lock()
	defer globalEmitter.mu.Unlock()
	atomic.StoreInt64(&globalEmitter.seq, 0)
	globalEmitter.listeners = nil
}
