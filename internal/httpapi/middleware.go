package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skreaver/skreaver/internal/auth"
	"github.com/skreaver/skreaver/internal/observability"
	"github.com/skreaver/skreaver/internal/ratelimit"
)

// Middleware wraps an http.Handler with cross-cutting behavior. The
// chain built in routes.go mirrors the teacher's web.AuthMiddleware
// composition style (a func(http.Handler) http.Handler per concern,
// applied outermost-first: request ID, auth, rate limit, backpressure).
type Middleware func(http.Handler) http.Handler

// chain applies middlewares to h in the order given, so the first
// middleware in the slice runs first on the way in.
func chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// requestIDMiddleware assigns (or propagates) an X-Request-Id and
// attaches it to the request context for ErrorEnvelope.request_id and
// structured logging correlation.
func requestIDMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if strings.TrimSpace(id) == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-Id", id)
			r = r.WithContext(withRequestID(r.Context(), id))
			next.ServeHTTP(w, r)
		})
	}
}

// metricsMiddleware records HTTPRequestDuration/Counter with the
// matched route pattern (never the raw path) to keep label
// cardinality bounded, per SPEC_FULL.md's C12 surface.
func metricsMiddleware(metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusRecordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			if metrics == nil {
				return
			}
			route := r.Pattern
			if route == "" {
				route = r.URL.Path
			}
			metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(sw.status), time.Since(start).Seconds())
		})
	}
}

type statusRecordingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusRecordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// authMiddleware enforces the JWT-or-API-key scheme spec.md §4.6
// describes: Authorization: Bearer <token-or-key>, or X-API-Key:
// <key>. A bearer value is tried as a JWT first, then as an API key,
// matching the teacher's UnaryInterceptor's try-JWT-then-try-key
// fallthrough.
func authMiddleware(svc *auth.Service, metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc == nil || !svc.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			principal, method, err := authenticate(svc, r)
			if err != nil {
				if metrics != nil {
					metrics.RecordAuthDecision(method, false)
				}
				observability.EmitAuthDecision(&observability.AuthDecisionEvent{Method: method, Allowed: false, Reason: err.Error()})
				writeError(w, r, http.StatusUnauthorized, errKindUnauthorized, "missing or invalid credentials", nil)
				return
			}

			if metrics != nil {
				metrics.RecordAuthDecision(method, true)
			}
			observability.EmitAuthDecision(&observability.AuthDecisionEvent{Method: method, Principal: principal.ID, Allowed: true})

			r = r.WithContext(auth.WithPrincipal(r.Context(), principal))
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(svc *auth.Service, r *http.Request) (*auth.Principal, string, error) {
	if apiKey := strings.TrimSpace(r.Header.Get("X-API-Key")); apiKey != "" {
		principal, err := svc.ValidateAPIKey(apiKey)
		return principal, "api_key", err
	}

	authz := r.Header.Get("Authorization")
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authz, bearerPrefix) {
		return nil, "jwt", auth.ErrAuthDisabled
	}
	credential := strings.TrimSpace(authz[len(bearerPrefix):])
	if credential == "" {
		return nil, "jwt", auth.ErrAuthDisabled
	}

	if principal, err := svc.ValidateJWT(credential); err == nil {
		return principal, "jwt", nil
	}
	principal, err := svc.ValidateAPIKey(credential)
	return principal, "api_key", err
}

// rateLimitMiddleware applies the three-dimension admission control
// spec.md §4.6 requires (global, per-IP, per-user) via three
// independently configured internal/ratelimit.Limiter instances,
// generalizing the single-dimension teacher limiter by composing a
// dimension per caller characteristic rather than one MultiLimiter
// keyed only on IP.
type rateLimiters struct {
	global  *ratelimit.Limiter
	perIP   *ratelimit.Limiter
	perUser *ratelimit.Limiter
}

func rateLimitMiddleware(limiters *rateLimiters, metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiters == nil {
				next.ServeHTTP(w, r)
				return
			}

			if limiters.global != nil {
				if !admit(w, r, limiters.global, "global", ratelimit.CompositeKey("global"), metrics) {
					return
				}
			}
			if limiters.perIP != nil {
				if !admit(w, r, limiters.perIP, "per_ip", ratelimit.CompositeKey("ip", clientIP(r)), metrics) {
					return
				}
			}
			if limiters.perUser != nil {
				if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
					if !admit(w, r, limiters.perUser, "per_user", ratelimit.CompositeKey("user", principal.ID), metrics) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func admit(w http.ResponseWriter, r *http.Request, limiter *ratelimit.Limiter, dimension, key string, metrics *observability.Metrics) bool {
	if limiter.Allow(key) {
		if metrics != nil {
			metrics.RecordRateLimitDecision(dimension, true)
		}
		return true
	}
	if metrics != nil {
		metrics.RecordRateLimitDecision(dimension, false)
	}
	retryAfter := limiter.WaitTime(key)
	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
	writeError(w, r, http.StatusTooManyRequests, errKindRateLimited, "rate limit exceeded", map[string]string{"dimension": dimension})
	return false
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

// backpressureMiddleware admits a request only while fewer than
// BlockingThreshold requests are in flight, per spec.md §4.6's global
// semaphore description; between WarningThreshold and
// BlockingThreshold it still admits but records a warning signal.
func backpressureMiddleware(monitor *BackpressureAdmission, metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if monitor == nil {
				next.ServeHTTP(w, r)
				return
			}

			signal, admitted := monitor.Enter()
			if !admitted {
				if metrics != nil {
					metrics.RecordBackpressureRejection("critical")
				}
				observability.EmitBackpressure(&observability.BackpressureEvent{Signal: "critical", QueueDepth: monitor.Depth()})
				w.Header().Set("Retry-After", "1")
				writeError(w, r, http.StatusServiceUnavailable, errKindUnavailable, "backpressure: request rejected", nil)
				return
			}
			defer monitor.Leave()

			if signal == "warning" {
				observability.EmitBackpressure(&observability.BackpressureEvent{Signal: "warning", QueueDepth: monitor.Depth()})
			}

			next.ServeHTTP(w, r)
		})
	}
}
