// Package httpapi implements the C9 HTTP runtime: route registration,
// JWT/API-key authentication, three-dimension rate limiting,
// backpressure admission, and the /health, /ready, /metrics, and
// /agents surfaces spec.md §4.6 and §6 describe. Server lifecycle
// (net.Listen → http.Server.Serve in a goroutine →
// errors.Is(err, http.ErrServerClosed) → graceful Shutdown with a
// bounded fallback context) is grounded verbatim on the teacher's
// internal/gateway/http_server.go.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skreaver/skreaver/internal/auth"
	"github.com/skreaver/skreaver/internal/config"
	"github.com/skreaver/skreaver/internal/mesh"
	"github.com/skreaver/skreaver/internal/observability"
	"github.com/skreaver/skreaver/internal/ratelimit"
	"github.com/skreaver/skreaver/internal/toolregistry"
	"github.com/skreaver/skreaver/internal/wsmanager"
)

// Server owns the HTTP listener, the agent registry, and every
// cross-cutting concern (auth, rate limiting, backpressure, metrics)
// the registered routes run through.
type Server struct {
	cfg     config.ServerConfig
	logger  *slog.Logger
	version string

	auth         *auth.Service
	metrics      *observability.Metrics
	tracer       *observability.Tracer
	agents       *AgentManager
	backpressure *BackpressureAdmission
	dlq          *mesh.DeadLetterQueue
	rateLimiters *rateLimiters
	ws           *wsmanager.Manager
	wsHandler    http.Handler

	componentCheckers map[string]ComponentChecker

	startTime time.Time
	httpServer   *http.Server
	httpListener net.Listener
}

// Dependencies bundles the pre-built components a Server composes. Any
// field may be nil; Server degrades the corresponding concern to a
// no-op (matching the teacher's nil-guarded optional-feature style).
type Dependencies struct {
	Auth         *auth.Service
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
	Wrapper      *toolregistry.SecureWrapper
	Backpressure *BackpressureAdmission
	DLQ          *mesh.DeadLetterQueue
	ComponentCheckers map[string]ComponentChecker
}

// NewServer builds a Server from cfg and deps.
func NewServer(cfg config.ServerConfig, logger *slog.Logger, version string, deps Dependencies) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:               cfg,
		logger:            logger,
		version:           version,
		auth:              deps.Auth,
		metrics:           deps.Metrics,
		tracer:            deps.Tracer,
		agents:            NewAgentManager(deps.Wrapper),
		backpressure:      deps.Backpressure,
		dlq:               deps.DLQ,
		componentCheckers: deps.ComponentCheckers,
		startTime:         time.Now(),
	}
	if s.componentCheckers == nil {
		s.componentCheckers = map[string]ComponentChecker{}
	}
	return s
}

// WithRateLimiters configures the three admission-control dimensions
// from rlCfg, building one internal/ratelimit.Limiter per dimension
// per spec.md §4.6.
func (s *Server) WithRateLimiters(rlCfg config.RateLimitConfig) *Server {
	if !rlCfg.Enabled {
		return s
	}
	s.rateLimiters = &rateLimiters{
		global:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerSecond: rlCfg.GlobalRPS, BurstSize: rlCfg.GlobalBurst, Enabled: true}),
		perIP:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerSecond: rlCfg.PerIPRPS, BurstSize: rlCfg.PerIPBurst, Enabled: true}),
		perUser: ratelimit.NewLimiter(ratelimit.Config{RequestsPerSecond: rlCfg.PerUserRPS, BurstSize: rlCfg.PerUserBurst, Enabled: true}),
	}
	return s
}

// WithWebSocketManager mounts the C10 subscription manager at GET /ws,
// authenticated the same way as the rest of the protected surface.
func (s *Server) WithWebSocketManager(manager *wsmanager.Manager) *Server {
	s.ws = manager
	s.wsHandler = wsmanager.NewHandler(manager, s.logger, s.metrics)
	return s
}

// Mux builds the *http.ServeMux routing table with every middleware
// applied, exported so tests and cmd/skreaverctl can exercise it
// without a live listener.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /docs", s.handleDocs)
	mux.HandleFunc("GET /openapi.json", s.handleOpenAPI)
	mux.HandleFunc("POST /auth/token", s.handleIssueToken)
	mux.HandleFunc("POST /auth/revoke", s.handleRevokeToken)

	protected := chain(
		http.HandlerFunc(s.dispatchAgents),
		requestIDMiddleware(),
		metricsMiddleware(s.metrics),
		authMiddleware(s.auth, s.metrics),
		rateLimitMiddleware(s.rateLimiters, s.metrics),
		backpressureMiddleware(s.backpressure, s.metrics),
	)
	mux.Handle("/agents", protected)
	mux.Handle("/agents/", protected)

	queueMetrics := chain(
		http.HandlerFunc(s.handleQueueMetrics),
		requestIDMiddleware(),
		authMiddleware(s.auth, s.metrics),
	)
	mux.Handle("GET /queue/metrics", queueMetrics)

	if s.wsHandler != nil {
		ws := chain(
			s.wsHandler,
			requestIDMiddleware(),
			authMiddleware(s.auth, s.metrics),
		)
		mux.Handle("GET /ws", ws)
	}

	return mux
}

// dispatchAgents routes the /agents subtree by path shape, since the
// enhanced ServeMux's {id} wildcard cannot be combined with a plain
// prefix handler in one registration alongside the auth-middleware-
// wrapped subtree registered above.
func (s *Server) dispatchAgents(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path)
	switch {
	case len(segments) == 1 && segments[0] == "agents":
		s.handleAgents(w, r)
	case len(segments) == 3 && segments[0] == "agents" && segments[2] == "status":
		r.SetPathValue("id", segments[1])
		s.handleAgentStatus(w, r)
	case len(segments) == 3 && segments[0] == "agents" && segments[2] == "observe":
		r.SetPathValue("id", segments[1])
		s.handleAgentObserve(w, r)
	case len(segments) == 3 && segments[0] == "agents" && segments[2] == "stream":
		r.SetPathValue("id", segments[1])
		s.handleAgentStream(w, r)
	default:
		writeError(w, r, http.StatusNotFound, errKindNotFound, "unknown route", nil)
	}
}

func splitPath(path string) []string {
	var segments []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				segments = append(segments, path[start:i])
			}
			start = i + 1
		}
	}
	return segments
}

// Start begins listening on cfg.Host:cfg.HTTPPort and serves requests
// in a background goroutine, grounded verbatim on the teacher's
// startHTTPServer.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.HTTPPort)

	server := &http.Server{
		Addr:              addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	s.httpServer = server
	s.httpListener = listener

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	s.logger.Info("starting http server", "addr", addr)
	return nil
}

// Stop gracefully shuts down the server, falling back to a bounded
// timeout context if ctx is nil, grounded verbatim on the teacher's
// stopHTTPServer.
func (s *Server) Stop(ctx context.Context) {
	if s.httpServer == nil {
		return
	}
	shutdownCtx := ctx
	var cancel context.CancelFunc
	if shutdownCtx == nil {
		shutdownCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http server shutdown error", "error", err)
	}
	s.httpServer = nil
	s.httpListener = nil
}
