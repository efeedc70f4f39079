package httpapi

import (
	"net/http"
	"runtime"
	"time"
)

// componentCheck is one named dependency's health, the element type of
// GET /ready's components map.
type componentCheck struct {
	Status         string `json:"status"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	Metadata       any    `json:"metadata,omitempty"`
}

// ComponentChecker probes one dependency (memory backend, mesh worker
// pool, auth blacklist backend, ...) for GET /ready.
type ComponentChecker func() (status string, metadata any)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"memory_mb":      mem.Alloc / (1024 * 1024),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady runs every registered ComponentChecker and aggregates
// their results into the components{name→{status,...}} shape spec.md
// §4.6/§6 names, generalized from the teacher's handleHealthz's
// single flat status.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]componentCheck, len(s.componentCheckers))
	overall := "healthy"

	for name, check := range s.componentCheckers {
		start := time.Now()
		status, metadata := check()
		components[name] = componentCheck{
			Status:         status,
			ResponseTimeMs: time.Since(start).Milliseconds(),
			Metadata:       metadata,
		}
		switch status {
		case "unhealthy":
			overall = "unhealthy"
		case "degraded":
			if overall != "unhealthy" {
				overall = "degraded"
			}
		}
	}

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{
		"status":         overall,
		"components":     components,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
