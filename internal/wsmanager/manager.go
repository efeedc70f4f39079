package wsmanager

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/skreaver/skreaver/internal/observability"
)

// AuthenticateFunc validates a client-presented token and returns the
// principal identifier it resolves to. Bridges to auth.Service's
// ValidateJWT/ValidateAPIKey without this package importing internal/auth
// directly, keeping the quota/lifecycle logic decoupled from credential
// format.
type AuthenticateFunc func(token string) (principal string, err error)

// PermissionFunc authorizes principal against a private_-prefixed
// channel, per spec.md §4.7's "additional permission check" clause.
type PermissionFunc func(principal, channel string) bool

const privateChannelPrefix = "private_"

// Manager owns the connection registry and the subscription index.
// Reads (broadcast fanout, list, stats) take the read lock; mutations
// (add/remove connection, subscribe/unsubscribe) take the write lock —
// matching spec.md §5's "WebSocket subscription index ... under a
// reader-writer primitive" requirement.
type Manager struct {
	mu sync.RWMutex

	config Config

	connections        map[string]*ConnectionInfo
	channelSubscribers map[string]map[string]struct{} // channel -> set of connection IDs
	perIPCounts        map[string]int

	authenticate    AuthenticateFunc
	checkPermission PermissionFunc
	metrics         *observability.Metrics
}

// NewManager builds a Manager. authenticate and checkPermission may be
// nil — a nil authenticate rejects every authenticate call, and a nil
// checkPermission denies every private_ channel (fail closed).
func NewManager(config Config, authenticate AuthenticateFunc, checkPermission PermissionFunc, metrics *observability.Metrics) *Manager {
	return &Manager{
		config:             config,
		connections:        make(map[string]*ConnectionInfo),
		channelSubscribers: make(map[string]map[string]struct{}),
		perIPCounts:        make(map[string]int),
		authenticate:       authenticate,
		checkPermission:    checkPermission,
		metrics:            metrics,
	}
}

// AddConnection registers a new connection from addr, enforcing the
// per-IP concurrent-connection cap.
func (m *Manager) AddConnection(id, addr string) (*ConnectionInfo, error) {
	ip := hostOf(addr)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.MaxConnectionsPerIP > 0 && m.perIPCounts[ip] >= m.config.MaxConnectionsPerIP {
		return nil, ErrRateLimitExceeded
	}

	conn := newConnectionInfo(id, addr, 64)
	m.connections[id] = conn
	m.perIPCounts[ip]++

	if m.metrics != nil {
		m.metrics.WSConnectionOpened()
	}
	observability.EmitWSConnection(&observability.WSConnectionEvent{SessionID: id, Action: "opened"})
	return conn, nil
}

// RemoveConnection tears down a connection's subscriptions and
// per-IP accounting. Idempotent: removing an already-removed ID is a
// no-op, matching ConnectionGuard's double-cleanup safety requirement.
func (m *Manager) RemoveConnection(id string) {
	m.mu.Lock()
	conn, ok := m.connections[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.connections, id)

	ip := hostOf(conn.Addr)
	if m.perIPCounts[ip] > 0 {
		m.perIPCounts[ip]--
	}
	if m.perIPCounts[ip] == 0 {
		delete(m.perIPCounts, ip)
	}

	for _, channel := range conn.Subscriptions() {
		if subs, ok := m.channelSubscribers[channel]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(m.channelSubscribers, channel)
			}
		}
	}
	lifetime := time.Since(conn.CreatedAt)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.WSConnectionClosed(lifetime.Seconds())
	}
	observability.EmitWSConnection(&observability.WSConnectionEvent{SessionID: id, Action: "closed"})
}

// Authenticate validates token for the given connection and records the
// resolved principal on success.
func (m *Manager) Authenticate(id, token string) (string, error) {
	m.mu.RLock()
	conn, ok := m.connections[id]
	m.mu.RUnlock()
	if !ok {
		return "", ErrConnectionNotFound
	}
	if m.authenticate == nil {
		return "", ErrAuthenticationFailed
	}
	principal, err := m.authenticate(token)
	if err != nil || strings.TrimSpace(principal) == "" {
		return "", ErrAuthenticationFailed
	}
	conn.setPrincipal(principal)
	return principal, nil
}

// Subscribe enforces the per-connection and per-channel quotas and
// registers the subscription atomically under a single write-lock
// critical section — spec.md §4.7 forbids the read-then-write
// double-checked pattern here.
func (m *Manager) Subscribe(id, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[id]
	if !ok {
		return ErrConnectionNotFound
	}

	if strings.HasPrefix(channel, privateChannelPrefix) {
		principal, authed := conn.Principal()
		if !authed {
			return ErrAuthenticationFailed
		}
		if m.checkPermission == nil || !m.checkPermission(principal, channel) {
			return ErrPermissionDenied
		}
	}

	if conn.hasSubscription(channel) {
		return nil
	}

	if m.config.MaxSubscriptionsPerConn > 0 && conn.SubscriptionCount() >= m.config.MaxSubscriptionsPerConn {
		if m.metrics != nil {
			m.metrics.RecordWSSubscriptionQuotaRejection()
		}
		observability.EmitWSConnection(&observability.WSConnectionEvent{SessionID: id, Action: "subscription_rejected", Reason: "per_connection_limit"})
		return ErrSubscriptionLimitExceeded
	}

	subs := m.channelSubscribers[channel]
	if m.config.MaxSubscribersPerChannel > 0 && len(subs) >= m.config.MaxSubscribersPerChannel {
		observability.EmitWSConnection(&observability.WSConnectionEvent{SessionID: id, Action: "subscription_rejected", Reason: "per_channel_limit"})
		return ErrChannelSubscriberLimitExceeded
	}

	if subs == nil {
		subs = make(map[string]struct{})
		m.channelSubscribers[channel] = subs
	}
	subs[id] = struct{}{}
	conn.addSubscription(channel)
	return nil
}

// Unsubscribe removes channel from id's subscription set, if present.
func (m *Manager) Unsubscribe(id, channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[id]
	if !ok {
		return
	}
	conn.removeSubscription(channel)
	if subs, ok := m.channelSubscribers[channel]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(m.channelSubscribers, channel)
		}
	}
}

// Broadcast sends payload to every connection subscribed to channel. The
// subscriber list is snapshotted under the read lock and released
// before any send is attempted, per spec.md §4.7's "releases the lock,
// then iterates send attempts without holding any lock" requirement —
// this prevents fanout from deadlocking against subscribe/unsubscribe.
func (m *Manager) Broadcast(channel string, payload []byte) int {
	m.mu.RLock()
	subs := m.channelSubscribers[channel]
	recipients := make([]*ConnectionInfo, 0, len(subs))
	for id := range subs {
		if conn, ok := m.connections[id]; ok {
			recipients = append(recipients, conn)
		}
	}
	m.mu.RUnlock()

	delivered := 0
	for _, conn := range recipients {
		select {
		case conn.Outbound <- payload:
			delivered++
		default:
			// full outbound buffer: drop rather than block fanout on one
			// slow reader.
		}
	}
	return delivered
}

// Heartbeat records a liveness signal for id (ping frame or any
// received message refreshes last_heartbeat).
func (m *Manager) Heartbeat(id string) {
	m.mu.RLock()
	conn, ok := m.connections[id]
	m.mu.RUnlock()
	if ok {
		conn.touchHeartbeat()
	}
}

// Get looks up a connection by ID.
func (m *Manager) Get(id string) (*ConnectionInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.connections[id]
	return conn, ok
}

// ConnectionCount reports the number of currently registered connections.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// ExpireStale removes every connection whose last heartbeat is older
// than cfg.ConnectionTimeout, per spec.md §4.7's periodic expiry task.
func (m *Manager) ExpireStale() int {
	if m.config.ConnectionTimeout <= 0 {
		return 0
	}
	m.mu.RLock()
	var stale []string
	for id, conn := range m.connections {
		if conn.idleSince() > m.config.ConnectionTimeout {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.RemoveConnection(id)
	}
	return len(stale)
}

// RunExpiryLoop periodically calls ExpireStale until ctx is cancelled,
// grounded on the teacher's startTicking goroutine pattern.
func (m *Manager) RunExpiryLoop(ctx context.Context) {
	interval := m.config.HeartbeatInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ExpireStale()
		}
	}
}

func hostOf(addr string) string {
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
