package httpapi

import "net/http"

// handleQueueMetrics implements GET /queue/metrics: backpressure and
// queue depths, per spec.md §4.6.
func (s *Server) handleQueueMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"signal": "normal",
	}
	if s.backpressure != nil {
		stats := s.backpressure.Stats()
		payload["signal"] = s.backpressure.Signal().String()
		payload["current_depth"] = stats.CurrentDepth
		payload["max_depth"] = stats.MaxDepth
		payload["warning_count"] = stats.WarningCount
		payload["critical_count"] = stats.CriticalCount
	}
	if s.dlq != nil {
		dlqStats := s.dlq.Stats()
		payload["dlq"] = map[string]any{
			"current_size":    dlqStats.CurrentSize,
			"total_added":     dlqStats.TotalAdded,
			"total_removed":   dlqStats.TotalRemoved,
			"total_expired":   dlqStats.TotalExpired,
			"total_exhausted": dlqStats.TotalExhausted,
			"total_retried":   dlqStats.TotalRetried,
		}
	}
	writeJSON(w, http.StatusOK, payload)
}
