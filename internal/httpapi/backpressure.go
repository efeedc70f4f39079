package httpapi

import (
	"sync/atomic"

	"github.com/skreaver/skreaver/internal/mesh"
)

// BackpressureAdmission bounds concurrent in-flight HTTP requests,
// reusing internal/mesh.BackpressureMonitor's warning/critical
// classification (C11) rather than reimplementing threshold logic:
// the in-flight request count plays the role of mesh.BackpressureMonitor's
// queue depth. Admission returns 503 once the signal reaches Critical,
// per spec.md §4.6's "admission timeout returns 503".
type BackpressureAdmission struct {
	monitor   *mesh.BackpressureMonitor
	inFlight  int64
}

// NewBackpressureAdmission builds an admission gate from config.
func NewBackpressureAdmission(config mesh.BackpressureConfig) *BackpressureAdmission {
	return &BackpressureAdmission{monitor: mesh.NewBackpressureMonitor(config)}
}

// Enter admits one request unless the signal is Critical, returning
// the signal string ("normal", "warning", "critical") and whether
// admission succeeded.
func (a *BackpressureAdmission) Enter() (string, bool) {
	depth := int(atomic.AddInt64(&a.inFlight, 1))
	signal := a.monitor.UpdateDepth(depth)
	if signal == mesh.SignalCritical {
		atomic.AddInt64(&a.inFlight, -1)
		a.monitor.UpdateDepth(int(atomic.LoadInt64(&a.inFlight)))
		return signal.String(), false
	}
	return signal.String(), true
}

// Leave releases one admitted request's slot.
func (a *BackpressureAdmission) Leave() {
	depth := atomic.AddInt64(&a.inFlight, -1)
	if depth < 0 {
		depth = 0
	}
	a.monitor.UpdateDepth(int(depth))
}

// Depth returns the current in-flight request count.
func (a *BackpressureAdmission) Depth() int {
	return int(atomic.LoadInt64(&a.inFlight))
}

// Stats exposes the underlying monitor's accumulated statistics, the
// body of GET /queue/metrics.
func (a *BackpressureAdmission) Stats() mesh.BackpressureStats {
	return a.monitor.Stats()
}

// Signal returns the most recently computed backpressure signal.
func (a *BackpressureAdmission) Signal() mesh.BackpressureSignal {
	return a.monitor.Signal()
}
