package httpapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skreaver/skreaver/internal/coordinator"
	"github.com/skreaver/skreaver/internal/memory/backend"
	"github.com/skreaver/skreaver/internal/toolregistry"
	"github.com/skreaver/skreaver/internal/typestate"
)

// AgentStatus is the lifecycle state the REST surface reports for one
// agent instance, mirroring the shape of typestate.Phase without
// exposing the phase types themselves over the wire.
type AgentStatus string

const (
	AgentStatusIdle    AgentStatus = "idle"
	AgentStatusRunning AgentStatus = "running"
	AgentStatusError   AgentStatus = "error"
)

// AgentHandle is one registered agent: a Coordinator plus the
// bookkeeping GET /agents/{id}/status reports.
type AgentHandle struct {
	mu sync.Mutex

	ID            string
	AgentType     string
	CreatedAt     time.Time
	Coordinator   *coordinator.Coordinator
	Status        AgentStatus
	ObserveCount  int64
	LastObservedAt time.Time
	LastError     string
	streamCh      chan streamEvent
}

type streamEvent struct {
	Phase   string `json:"phase"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *AgentHandle) snapshot() agentStatusView {
	h.mu.Lock()
	defer h.mu.Unlock()
	return agentStatusView{
		ID:             h.ID,
		AgentType:      h.AgentType,
		Status:         string(h.Status),
		CreatedAt:      h.CreatedAt.UTC().Format(time.RFC3339),
		ObserveCount:   h.ObserveCount,
		LastObservedAt: formatOptionalTime(h.LastObservedAt),
		LastError:      h.LastError,
	}
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type agentStatusView struct {
	ID             string `json:"id"`
	AgentType      string `json:"agent_type"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	ObserveCount   int64  `json:"observe_count"`
	LastObservedAt string `json:"last_observed_at,omitempty"`
	LastError      string `json:"last_error,omitempty"`
}

// AgentManager registers and drives agent instances for the C9 HTTP
// surface's /agents endpoints. Grounded on internal/coordinator.Coordinator
// for the per-agent execution loop; one Coordinator (and one in-memory
// context store) is created per registered agent, matching the "a
// Coordinator owns exactly one agent execution at a time" contract
// documented on coordinator.Coordinator.
type AgentManager struct {
	mu      sync.RWMutex
	agents  map[string]*AgentHandle
	wrapper *toolregistry.SecureWrapper
	nextID  int64
}

// NewAgentManager builds an AgentManager dispatching tool calls through
// wrapper.
func NewAgentManager(wrapper *toolregistry.SecureWrapper) *AgentManager {
	return &AgentManager{agents: make(map[string]*AgentHandle), wrapper: wrapper}
}

// Create registers a new agent of agentType for principal and returns its handle.
func (m *AgentManager) Create(agentType string, principal toolregistry.Principal) *AgentHandle {
	m.mu.Lock()
	m.nextID++
	id := fmt.Sprintf("agent-%d", m.nextID)
	m.mu.Unlock()

	mem := backend.NewInMemory()
	handle := &AgentHandle{
		ID:          id,
		AgentType:   agentType,
		CreatedAt:   time.Now(),
		Status:      AgentStatusIdle,
		Coordinator: coordinator.New(m.wrapper, mem, principal),
		streamCh:    make(chan streamEvent, 16),
	}

	m.mu.Lock()
	m.agents[id] = handle
	m.mu.Unlock()
	return handle
}

// Get looks up an agent by id.
func (m *AgentManager) Get(id string) (*AgentHandle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.agents[id]
	return h, ok
}

// List returns every registered agent's status snapshot.
func (m *AgentManager) List() []agentStatusView {
	m.mu.RLock()
	handles := make([]*AgentHandle, 0, len(m.agents))
	for _, h := range m.agents {
		handles = append(handles, h)
	}
	m.mu.RUnlock()

	views := make([]agentStatusView, 0, len(handles))
	for _, h := range handles {
		views = append(views, h.snapshot())
	}
	return views
}

// Observe submits input to the agent's coordinator and records the
// outcome for status reporting and streaming.
func (h *AgentHandle) Observe(ctx context.Context, input string) (*typestate.Complete, error) {
	h.mu.Lock()
	h.Status = AgentStatusRunning
	h.mu.Unlock()

	complete, err := h.Coordinator.Run(ctx, input)

	h.mu.Lock()
	h.ObserveCount++
	h.LastObservedAt = time.Now()
	if err != nil {
		h.Status = AgentStatusError
		h.LastError = err.Error()
	} else {
		h.Status = AgentStatusIdle
		h.LastError = ""
	}
	h.mu.Unlock()

	event := streamEvent{Phase: string(h.Status)}
	if err != nil {
		event.Error = err.Error()
	} else if complete != nil {
		event.Summary = complete.Act().Summary
	}
	select {
	case h.streamCh <- event:
	default:
		// streaming is best-effort; a full buffer drops the oldest
		// unread update rather than blocking the observe call.
	}

	return complete, err
}

// Subscribe returns the channel a streaming handler reads from.
func (h *AgentHandle) Subscribe() <-chan streamEvent {
	return h.streamCh
}
