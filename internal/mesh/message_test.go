package mesh

import "testing"

func mustAgentID(t *testing.T, s string) AgentID {
	t.Helper()
	id, err := NewAgentID(s)
	if err != nil {
		t.Fatalf("NewAgentID(%q): %v", s, err)
	}
	return id
}

func TestNewMessageGeneratesUniqueIDs(t *testing.T) {
	from := mustAgentID(t, "agent-a")
	m1 := NewMessage(from, UnicastTo(mustAgentID(t, "agent-b")), "hello")
	m2 := NewMessage(from, UnicastTo(mustAgentID(t, "agent-b")), "hello")
	if m1.ID == m2.ID {
		t.Fatalf("expected distinct message ids, got %q twice", m1.ID)
	}
	if m1.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be populated")
	}
}

func TestRouteConstructors(t *testing.T) {
	to := mustAgentID(t, "agent-b")

	if r := UnicastTo(to); r.Kind != RouteUnicast || r.To != to {
		t.Fatalf("UnicastTo: got %+v", r)
	}
	if r := Broadcast(); r.Kind != RouteBroadcast {
		t.Fatalf("Broadcast: got %+v", r)
	}
	if r := SystemRoute(); r.Kind != RouteSystem {
		t.Fatalf("SystemRoute: got %+v", r)
	}
	if r := AnonymousRoute(); r.Kind != RouteAnonymous {
		t.Fatalf("AnonymousRoute: got %+v", r)
	}
}

func TestNewAgentIDRejectsInvalid(t *testing.T) {
	if _, err := NewAgentID(""); err == nil {
		t.Fatal("expected error for empty agent id")
	}
	if _, err := NewAgentID("has a space"); err == nil {
		t.Fatal("expected error for agent id containing whitespace")
	}
}
