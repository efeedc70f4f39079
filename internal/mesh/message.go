// Package mesh implements the agent mesh transport (C11): message routing
// between agents, a dead-letter queue for undeliverable messages, a
// backpressure monitor for queue depth, and a supervisor/worker pattern for
// task distribution. Grounded on original_source's skreaver-mesh crate,
// translated from tokio::sync::RwLock + Arc to sync.RWMutex-guarded Go
// structs, and from async fn to blocking methods (the teacher's codebase
// is itself synchronous at this layer; callers run each mesh operation on
// its own goroutine).
package mesh

import (
	"time"

	"github.com/google/uuid"

	"github.com/skreaver/skreaver/internal/identifier"
)

// AgentID identifies a participant in the mesh.
type AgentID = identifier.Identifier

// NewAgentID validates s as an agent id.
func NewAgentID(s string) (AgentID, error) {
	return identifier.Validate(s, identifier.KindName)
}

// RouteKind selects how a Message is delivered.
type RouteKind int

const (
	RouteUnicast RouteKind = iota
	RouteBroadcast
	RouteSystem
	RouteAnonymous
)

// Route describes a Message's delivery target.
type Route struct {
	Kind RouteKind
	// To is populated iff Kind is RouteUnicast.
	To AgentID
}

// UnicastTo builds a Route addressed to a single agent.
func UnicastTo(id AgentID) Route { return Route{Kind: RouteUnicast, To: id} }

// Broadcast builds a Route fanned out to every subscriber.
func Broadcast() Route { return Route{Kind: RouteBroadcast} }

// SystemRoute builds a Route for mesh-internal control messages.
func SystemRoute() Route { return Route{Kind: RouteSystem} }

// AnonymousRoute builds a Route with no resolvable sender identity.
func AnonymousRoute() Route { return Route{Kind: RouteAnonymous} }

// Message is the unit of mesh transport.
type Message struct {
	ID        string
	From      AgentID
	Route     Route
	Payload   string
	CreatedAt time.Time
}

// NewMessage builds a Message with a fresh UUIDv4 id.
func NewMessage(from AgentID, route Route, payload string) Message {
	return Message{
		ID:        uuid.NewString(),
		From:      from,
		Route:     route,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// Mesh is the abstract transport: send to one agent, or broadcast to all
// subscribers. Implementations may be in-process (channels) or brokered
// (a message queue, a pub/sub service).
type Mesh interface {
	Send(to AgentID, msg Message) error
	Broadcast(msg Message) error
}
