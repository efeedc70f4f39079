package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skreaver/skreaver/internal/identifier"
)

// JWTService handles token signing and verification for one HS256
// secret. Grounded on the teacher's internal/auth.JWTService;
// [EXPANSION] adds a jti claim checked against a TokenBlacklist on
// every Validate call, plus Roles and a paired refresh token, per
// spec.md §4.6's /auth/token contract.
type JWTService struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	blacklist     TokenBlacklist
}

// NewJWTService builds a JWT helper with the given secret and expiries.
func NewJWTService(secret string, accessExpiry, refreshExpiry time.Duration, blacklist TokenBlacklist) *JWTService {
	if blacklist == nil {
		blacklist = NewMemoryBlacklist()
	}
	return &JWTService{secret: []byte(secret), accessExpiry: accessExpiry, refreshExpiry: refreshExpiry, blacklist: blacklist}
}

// Claims is the JWT claim set Skreaver issues and validates.
type Claims struct {
	Roles     []string `json:"roles,omitempty"`
	TokenUse  string   `json:"token_use,omitempty"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// TokenPair is the body of a successful POST /auth/token response.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// IssuePair generates a signed access token and a signed refresh token
// for principal.
func (s *JWTService) IssuePair(principal Principal) (*TokenPair, error) {
	if s == nil || len(s.secret) == 0 {
		return nil, ErrAuthDisabled
	}
	if strings.TrimSpace(principal.ID) == "" {
		return nil, fmt.Errorf("auth: principal id required")
	}

	access, err := s.sign(principal, "access", s.accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(principal, "refresh", s.refreshExpiry)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
	}, nil
}

func (s *JWTService) sign(principal Principal, use string, expiry time.Duration) (string, error) {
	now := time.Now()
	jti := identifier.Sanitize(fmt.Sprintf("%s-%d-%s", use, now.UnixNano(), principal.ID), identifier.KindKey)
	claims := Claims{
		Roles:    principal.Roles,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if expiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiry))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a JWT: signature, exp, nbf, and jti
// blacklist membership, per spec.md §4.6.
func (s *JWTService) Validate(token string) (*Principal, error) {
	if s == nil || len(s.secret) == 0 {
		return nil, ErrAuthDisabled
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}

	if claims.ID != "" && s.blacklist.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}

	return &Principal{ID: claims.Subject, Roles: claims.Roles}, nil
}

// Revoke parses token (without requiring it still be unexpired-and-valid
// in every other respect) and adds its jti to the blacklist with TTL
// equal to the token's remaining validity.
func (s *JWTService) Revoke(token string) error {
	if s == nil || len(s.secret) == 0 {
		return ErrAuthDisabled
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return ErrInvalidToken
	}
	_ = err // a token may be past expiry and still need explicit revocation

	if claims.ID == "" {
		return ErrInvalidToken
	}

	ttl := s.accessExpiry
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	s.blacklist.Revoke(claims.ID, ttl)
	return nil
}
