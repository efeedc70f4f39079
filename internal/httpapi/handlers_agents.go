package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/skreaver/skreaver/internal/auth"
	"github.com/skreaver/skreaver/internal/rbac"
	"github.com/skreaver/skreaver/internal/toolregistry"
)

type createAgentRequest struct {
	AgentType string `json:"agent_type"`
}

type observeRequest struct {
	Input string `json:"input"`
}

// handleAgents implements GET/POST /agents: list registered agents, or
// create a new one of the requested agent_type.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"agents": s.agents.List()})
	case http.MethodPost:
		var req createAgentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, errKindBadRequest, "invalid request body", nil)
			return
		}
		if req.AgentType == "" {
			writeError(w, r, http.StatusUnprocessableEntity, errKindUnprocessable, "agent_type is required", nil)
			return
		}
		handle := s.agents.Create(req.AgentType, principalFor(r))
		writeJSON(w, http.StatusCreated, handle.snapshot())
	default:
		writeError(w, r, http.StatusBadRequest, errKindBadRequest, "method not allowed", nil)
	}
}

// principalFor converts the request's authenticated auth.Principal (if
// any) into a toolregistry.Principal for dispatch, defaulting to an
// anonymous role-less principal when auth is disabled.
func principalFor(r *http.Request) toolregistry.Principal {
	authPrincipal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return toolregistry.Principal{ID: "anonymous"}
	}
	roles := make([]rbac.Role, 0, len(authPrincipal.Roles))
	for _, name := range authPrincipal.Roles {
		roles = append(roles, roleFromName(name))
	}
	return toolregistry.Principal{ID: authPrincipal.ID, Roles: roles}
}

func roleFromName(name string) rbac.Role {
	switch name {
	case "admin":
		return rbac.RoleAdmin
	case "agent":
		return rbac.RoleAgent
	case "viewer":
		return rbac.RoleViewer
	default:
		return rbac.CustomRole(name)
	}
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	handle, ok := s.agents.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, errKindNotFound, fmt.Sprintf("agent %q not found", id), nil)
		return
	}
	writeJSON(w, http.StatusOK, handle.snapshot())
}

func (s *Server) handleAgentObserve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	handle, ok := s.agents.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, errKindNotFound, fmt.Sprintf("agent %q not found", id), nil)
		return
	}

	var req observeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, errKindBadRequest, "invalid request body", nil)
		return
	}

	complete, err := handle.Observe(r.Context(), req.Input)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, errKindUnprocessable, err.Error(), nil)
		return
	}

	action := complete.Act()
	writeJSON(w, http.StatusOK, map[string]any{
		"agent_id": id,
		"action":   action.Summary,
	})
}

// handleAgentStream implements GET /agents/{id}/stream via
// server-sent events: each Observe call's outcome is pushed to every
// open stream for that agent, per spec.md §4.6's "streaming updates
// for agents supporting streaming".
func (s *Server) handleAgentStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	handle, ok := s.agents.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, errKindNotFound, fmt.Sprintf("agent %q not found", id), nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, errKindInternal, "streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := handle.Subscribe()
	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-events:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
