package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/skreaver/skreaver/internal/memory"
)

func key(t *testing.T, s string) memory.Key {
	t.Helper()
	k, err := memory.NewKey(s)
	if err != nil {
		t.Fatalf("NewKey(%q): %v", s, err)
	}
	return k
}

func TestInMemoryStoreLoad(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	k := key(t, "alpha")

	if _, ok, err := b.Load(ctx, k); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := b.Store(ctx, memory.Update{Key: k, Value: "v1"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	v, ok, err := b.Load(ctx, k)
	if err != nil || !ok || v != "v1" {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}

	// last store wins
	if err := b.Store(ctx, memory.Update{Key: k, Value: "v2"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	v, _, _ = b.Load(ctx, k)
	if v != "v2" {
		t.Fatalf("expected last write to win, got %q", v)
	}
}

func TestInMemorySnapshotIsolated(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	k := key(t, "alpha")
	b.Store(ctx, memory.Update{Key: k, Value: "v1"})

	snap, err := b.CreateSnapshot(ctx)
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}

	b.Store(ctx, memory.Update{Key: k, Value: "v2"})

	v, _, _ := snap.Load(ctx, k)
	if v != "v1" {
		t.Fatalf("snapshot should be frozen at v1, got %q", v)
	}
	live, _, _ := b.Load(ctx, k)
	if live != "v2" {
		t.Fatalf("live store should reflect v2, got %q", live)
	}
}

func TestInMemoryTransactionRollback(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	k := key(t, "alpha")
	b.Store(ctx, memory.Update{Key: k, Value: "v1"})

	wantErr := errors.New("boom")
	err := b.Transaction(ctx, func(ctx context.Context, w memory.ReadWriter) error {
		w.Store(ctx, memory.Update{Key: k, Value: "v2"})
		return wantErr
	})
	if err == nil {
		t.Fatal("expected transaction error")
	}

	v, _, _ := b.Load(ctx, k)
	if v != "v1" {
		t.Fatalf("expected rollback to v1, got %q", v)
	}
}

func TestInMemoryTransactionCommit(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	k := key(t, "alpha")

	err := b.Transaction(ctx, func(ctx context.Context, w memory.ReadWriter) error {
		return w.Store(ctx, memory.Update{Key: k, Value: "committed"})
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}

	v, ok, _ := b.Load(ctx, k)
	if !ok || v != "committed" {
		t.Fatalf("expected committed value visible, got %q ok=%v", v, ok)
	}
}
