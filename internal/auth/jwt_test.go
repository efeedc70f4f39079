package auth

import (
	"testing"
	"time"
)

func TestJWTServiceIssueValidate(t *testing.T) {
	service := NewJWTService("secret", time.Hour, 24*time.Hour, nil)
	pair, err := service.IssuePair(Principal{ID: "user-1", Roles: []string{"agent"}})
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected non-empty access and refresh tokens")
	}
	if pair.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %q", pair.TokenType)
	}

	principal, err := service.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if principal.ID != "user-1" {
		t.Fatalf("expected principal id user-1, got %q", principal.ID)
	}
	if len(principal.Roles) != 1 || principal.Roles[0] != "agent" {
		t.Fatalf("expected roles [agent], got %v", principal.Roles)
	}
}

func TestJWTServiceRejectsBadSignature(t *testing.T) {
	service := NewJWTService("secret", time.Hour, time.Hour, nil)
	other := NewJWTService("different-secret", time.Hour, time.Hour, nil)

	pair, err := other.IssuePair(Principal{ID: "user-1"})
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	if _, err := service.Validate(pair.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTServiceRejectsExpired(t *testing.T) {
	service := NewJWTService("secret", -time.Hour, time.Hour, nil)
	pair, err := service.IssuePair(Principal{ID: "user-1"})
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	if _, err := service.Validate(pair.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestJWTServiceRevoke(t *testing.T) {
	blacklist := NewMemoryBlacklist()
	service := NewJWTService("secret", time.Hour, time.Hour, blacklist)

	pair, err := service.IssuePair(Principal{ID: "user-1"})
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	if _, err := service.Validate(pair.AccessToken); err != nil {
		t.Fatalf("expected valid token before revoke, got %v", err)
	}

	if err := service.Revoke(pair.AccessToken); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	if _, err := service.Validate(pair.AccessToken); err != ErrTokenRevoked {
		t.Fatalf("expected ErrTokenRevoked after revoke, got %v", err)
	}
}

func TestJWTServiceDisabledWithoutSecret(t *testing.T) {
	service := NewJWTService("", time.Hour, time.Hour, nil)
	if _, err := service.IssuePair(Principal{ID: "user-1"}); err != ErrAuthDisabled {
		t.Fatalf("expected ErrAuthDisabled, got %v", err)
	}
}
