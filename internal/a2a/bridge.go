package a2a

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// errorEnvelope mirrors the JSON error body shape spec.md §6 requires:
// {type: SCREAMING_SNAKE_CASE_KIND, message, details?, request_id, timestamp}.
// Defined locally rather than imported from internal/httpapi to keep the
// protocol-bridge surface independently embeddable (e.g. behind a
// standalone A2A listener, not only the REST gateway).
type errorEnvelope struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func writeBridgeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Type:      kind,
		Message:   message,
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeBridgeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Bridge adapts a UnifiedAgent into the A2A server handler interface
// spec.md §4.9 describes: discovery, message send/continue, streaming,
// status, and cancellation, mirroring the routes
// internal/a2a.HTTPClient speaks as a client (grounded symmetrically on
// a2a_client.rs's request shapes).
type Bridge struct {
	agent UnifiedAgent
	card  AgentCard
}

// NewBridge builds a Bridge serving agent, advertising card at
// /.well-known/agent.json.
func NewBridge(agent UnifiedAgent, card AgentCard) *Bridge {
	return &Bridge{agent: agent, card: card}
}

// ServeHTTP dispatches by path shape using the same manual
// segment-splitting style as internal/httpapi.dispatchAgents, since the
// dynamic /tasks/{id}/... routes don't compose cleanly with the
// enhanced ServeMux's flat pattern registration for a handler embedded
// as a sub-tree.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/.well-known/agent.json":
		writeBridgeJSON(w, http.StatusOK, b.card)
	case r.Method == http.MethodPost && r.URL.Path == "/tasks/send":
		b.handleSend(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/tasks/sendSubscribe":
		b.handleSendStreaming(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/tasks/"):
		b.handleGetTask(w, r)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/tasks/"):
		b.routePostTaskAction(w, r)
	default:
		writeBridgeError(w, http.StatusNotFound, "NOT_FOUND", "unknown route")
	}
}

type sendRequest struct {
	Message Message `json:"message"`
}

func (b *Bridge) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBridgeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	task, err := b.agent.SendMessage(r.Context(), req.Message)
	if err != nil {
		writeBridgeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeBridgeJSON(w, http.StatusOK, task)
}

// handleGetTask serves GET /tasks/{id}.
func (b *Bridge) handleGetTask(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/tasks/")
	segments := strings.Split(rest, "/")
	taskID := segments[0]
	if taskID == "" || len(segments) != 1 {
		writeBridgeError(w, http.StatusBadRequest, "BAD_REQUEST", "missing task id")
		return
	}

	task, err := b.agent.GetTask(r.Context(), taskID)
	if err != nil {
		writeBridgeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	writeBridgeJSON(w, http.StatusOK, task)
}

// routePostTaskAction parses /tasks/{id}/{action} (action is "send" or
// "cancel") and dispatches to handlePostTaskAction.
func (b *Bridge) routePostTaskAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/tasks/")
	segments := strings.Split(rest, "/")
	if len(segments) != 2 || segments[0] == "" {
		writeBridgeError(w, http.StatusNotFound, "NOT_FOUND", "unknown route")
		return
	}
	b.handlePostTaskAction(w, r, segments[0], segments[1])
}

// handlePostTaskAction dispatches POST /tasks/{id}/send and
// /tasks/{id}/cancel.
func (b *Bridge) handlePostTaskAction(w http.ResponseWriter, r *http.Request, taskID, action string) {
	switch action {
	case "send":
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBridgeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
			return
		}
		task, err := b.agent.SendMessageToTask(r.Context(), taskID, req.Message)
		if err != nil {
			writeBridgeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
			return
		}
		writeBridgeJSON(w, http.StatusOK, task)
	case "cancel":
		if err := b.agent.CancelTask(r.Context(), taskID); err != nil {
			writeBridgeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
			return
		}
		writeBridgeJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
	default:
		writeBridgeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("unknown task action %q", action))
	}
}

func (b *Bridge) handleSendStreaming(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBridgeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeBridgeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming unsupported")
		return
	}

	events, err := b.agent.SendMessageStreaming(r.Context(), req.Message)
	if err != nil {
		writeBridgeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}
