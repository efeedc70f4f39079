package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryBlacklistRevokeAndExpire(t *testing.T) {
	bl := NewMemoryBlacklist()
	if bl.IsRevoked("jti-1") {
		t.Fatal("expected jti-1 not revoked initially")
	}

	bl.Revoke("jti-1", 10*time.Millisecond)
	if !bl.IsRevoked("jti-1") {
		t.Fatal("expected jti-1 revoked immediately after Revoke")
	}

	time.Sleep(20 * time.Millisecond)
	if bl.IsRevoked("jti-1") {
		t.Fatal("expected jti-1 no longer revoked after TTL elapses")
	}
}

// fakeRedisClient is an in-memory double satisfying the RedisClient
// interface, avoiding a real go-redis dependency in unit tests.
type fakeRedisClient struct {
	store map[string]time.Time
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{store: make(map[string]time.Time)}
}

func (f *fakeRedisClient) Set(_ context.Context, key string, _ any, ttl time.Duration) error {
	f.store[key] = time.Now().Add(ttl)
	return nil
}

func (f *fakeRedisClient) Exists(_ context.Context, key string) (bool, error) {
	expiresAt, ok := f.store[key]
	if !ok {
		return false, nil
	}
	return time.Now().Before(expiresAt), nil
}

func TestRedisBlacklistRevokeAndExpire(t *testing.T) {
	client := newFakeRedisClient()
	bl := NewRedisBlacklist(client)

	if bl.IsRevoked("jti-1") {
		t.Fatal("expected jti-1 not revoked initially")
	}
	bl.Revoke("jti-1", 10*time.Millisecond)
	if !bl.IsRevoked("jti-1") {
		t.Fatal("expected jti-1 revoked immediately after Revoke")
	}

	time.Sleep(20 * time.Millisecond)
	if bl.IsRevoked("jti-1") {
		t.Fatal("expected jti-1 no longer revoked after TTL elapses")
	}
}

func TestRedisBlacklistNilClient(t *testing.T) {
	bl := NewRedisBlacklist(nil)
	if bl.IsRevoked("jti-1") {
		t.Fatal("expected nil client to report not revoked")
	}
	bl.Revoke("jti-1", time.Second) // must not panic
}
