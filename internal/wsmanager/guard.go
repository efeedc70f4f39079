package wsmanager

import "sync"

// ConnectionGuard gives Go's defer the same cleanup guarantee
// original_source/crates/skreaver-http/src/websocket/guard.rs gets
// from Drop: created once AddConnection has already registered the
// connection, it guarantees RemoveConnection runs exactly once no
// matter which path — normal return, early return, or a recovered
// panic — exits the call site, as long as the caller writes
// `defer guard.Cleanup()` immediately after constructing it. Go has no
// destructor, so there is no automatic fallback if a caller forgets
// the defer; that discipline is the one thing every call site must
// get right (see DESIGN.md's Open Question decision on this package).
type ConnectionGuard struct {
	mu      sync.Mutex
	connID  string
	manager *Manager
	cleaned bool
}

// NewConnectionGuard wraps an already-registered connection. It does
// NOT call AddConnection itself — the caller must have registered the
// connection first, exactly mirroring the Rust type's contract.
func NewConnectionGuard(connID string, manager *Manager) *ConnectionGuard {
	return &ConnectionGuard{connID: connID, manager: manager}
}

// ConnID returns the guarded connection's ID.
func (g *ConnectionGuard) ConnID() string {
	return g.connID
}

// Cleanup removes the connection if it has not already been removed.
// Safe to call multiple times and safe to call from a deferred
// position after an explicit call already ran.
func (g *ConnectionGuard) Cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cleaned {
		return
	}
	g.manager.RemoveConnection(g.connID)
	g.cleaned = true
}
