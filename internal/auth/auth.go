// Package auth implements the C9 HTTP runtime's two equivalent
// authentication methods (JWT bearer tokens and API keys), grounded on
// the teacher's internal/auth.Service/JWTService shape. [EXPANSION]
// extends the teacher's jwt.go with a jti claim plus blacklist check
// and a refresh-token pair per spec.md §4.6, ported from
// original_source/crates/skreaver-core/src/auth/blacklist.rs; API-key
// validation stores a salted SHA-256 hash rather than the teacher's
// plaintext-in-memory map, ported from
// original_source/crates/skreaver-core/src/auth/api_key.rs's
// hash_key/is_valid/is_expired shape.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrAuthDisabled is returned when no credentials are configured at all.
	ErrAuthDisabled = errors.New("auth disabled")
	// ErrInvalidToken covers any JWT validation failure (signature,
	// expiry, not-before, or blacklist).
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidKey covers API-key lookup failure.
	ErrInvalidKey = errors.New("invalid api key")
	// ErrTokenRevoked is returned when a presented jti is on the blacklist.
	ErrTokenRevoked = errors.New("token revoked")
)

// Principal is the identity attached to an authenticated request.
type Principal struct {
	ID    string
	Roles []string
}

// Config configures the Service.
type Config struct {
	JWTSecret     string
	TokenExpiry   time.Duration
	RefreshExpiry time.Duration
	APIKeys       []APIKeyConfig
	Blacklist     TokenBlacklist
}

// APIKeyConfig declares a statically configured API key. HashedKey is a
// hex-encoded SHA-256 digest of the raw key plus Salt; Salt may be empty
// for keys hashed without one (the teacher's nexus deployment predates
// salting, and this keeps existing configs valid).
type APIKeyConfig struct {
	HashedKey string
	Salt      string
	Principal string
	Roles     []string
}

// apiKeyRecord is the resolved, in-memory form of an APIKeyConfig plus
// mutable last-used bookkeeping.
type apiKeyRecord struct {
	hashedKey string
	salt      string
	principal Principal
	lastUsed  time.Time
}

// Service validates JWTs and API keys and issues new JWT pairs.
type Service struct {
	mu        sync.RWMutex
	jwt       *JWTService
	apiKeys   []*apiKeyRecord
	blacklist TokenBlacklist
}

// NewService constructs an auth Service from static configuration.
func NewService(cfg Config) *Service {
	svc := &Service{blacklist: cfg.Blacklist}
	if svc.blacklist == nil {
		svc.blacklist = NewMemoryBlacklist()
	}
	if strings.TrimSpace(cfg.JWTSecret) != "" {
		svc.jwt = NewJWTService(cfg.JWTSecret, cfg.TokenExpiry, cfg.RefreshExpiry, svc.blacklist)
	}
	for _, k := range cfg.APIKeys {
		hashed := strings.TrimSpace(k.HashedKey)
		if hashed == "" {
			continue
		}
		svc.apiKeys = append(svc.apiKeys, &apiKeyRecord{
			hashedKey: hashed,
			salt:      k.Salt,
			principal: Principal{ID: k.Principal, Roles: k.Roles},
		})
	}
	return svc
}

// Enabled reports whether auth checks should run at all.
func (s *Service) Enabled() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jwt != nil || len(s.apiKeys) > 0
}

// IssueTokenPair generates an access+refresh token pair for principal,
// the body of POST /auth/token.
func (s *Service) IssueTokenPair(principal Principal) (*TokenPair, error) {
	if s == nil || s.jwt == nil {
		return nil, ErrAuthDisabled
	}
	return s.jwt.IssuePair(principal)
}

// ValidateJWT validates a bearer token and returns the embedded principal.
func (s *Service) ValidateJWT(token string) (*Principal, error) {
	if s == nil || s.jwt == nil {
		return nil, ErrAuthDisabled
	}
	return s.jwt.Validate(token)
}

// RevokeJWT adds token's jti to the blacklist with TTL equal to its
// remaining validity.
func (s *Service) RevokeJWT(token string) error {
	if s == nil || s.jwt == nil {
		return ErrAuthDisabled
	}
	return s.jwt.Revoke(token)
}

// ValidateAPIKey hashes key with each configured salt and compares
// against the stored hash using constant-time comparison, then updates
// last_used_at on match.
func (s *Service) ValidateAPIKey(key string) (*Principal, error) {
	if s == nil {
		return nil, ErrAuthDisabled
	}
	s.mu.RLock()
	records := s.apiKeys
	s.mu.RUnlock()
	if len(records) == 0 {
		return nil, ErrAuthDisabled
	}

	trimmed := strings.TrimSpace(key)
	var matched *apiKeyRecord
	for _, rec := range records {
		if subtle.ConstantTimeCompare([]byte(hashAPIKey(trimmed, rec.salt)), []byte(rec.hashedKey)) == 1 {
			matched = rec
		}
	}
	if matched == nil {
		return nil, ErrInvalidKey
	}

	s.mu.Lock()
	matched.lastUsed = time.Now()
	s.mu.Unlock()

	p := matched.principal
	return &p, nil
}

// hashAPIKey computes the salted SHA-256 digest stored in APIKeyConfig.
func hashAPIKey(key, salt string) string {
	sum := sha256.Sum256([]byte(salt + key))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey returns a fresh random API key plus its salted hash,
// for callers provisioning a new APIKeyConfig entry.
func GenerateAPIKey() (rawKey, hashedKey, salt string, err error) {
	rawBuf := make([]byte, 32)
	if _, err := rand.Read(rawBuf); err != nil {
		return "", "", "", err
	}
	saltBuf := make([]byte, 16)
	if _, err := rand.Read(saltBuf); err != nil {
		return "", "", "", err
	}
	rawKey = hex.EncodeToString(rawBuf)
	salt = hex.EncodeToString(saltBuf)
	hashedKey = hashAPIKey(rawKey, salt)
	return rawKey, hashedKey, salt, nil
}
