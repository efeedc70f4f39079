package mesh

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Sweeper runs periodic dead-letter and backpressure maintenance on a
// cron schedule, grounded on the teacher's internal/cron schedule-
// parsing conventions and on cklxx-elephant.ai's scheduler.go
// cron.New/AddFunc/Start/Stop lifecycle (the teacher itself only
// parses cron expressions for user-facing schedules; it never drives
// an internal maintenance loop, so the runner shape is adopted from
// the wider example pack instead).
type Sweeper struct {
	cron   *cron.Cron
	dlq    *DeadLetterQueue
	bp     *BackpressureMonitor
	logger *slog.Logger
}

// NewSweeper builds a Sweeper. Either dlq or bp may be nil; the
// corresponding maintenance step is skipped.
func NewSweeper(dlq *DeadLetterQueue, bp *BackpressureMonitor, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cron:   cron.New(),
		dlq:    dlq,
		bp:     bp,
		logger: logger,
	}
}

// Start schedules the sweep on spec and begins running it in the
// background. spec is a standard 5-field cron expression; "@every 1m"
// style descriptors are also accepted since cron.New defaults to
// cron.Descriptor-less standard parsing plus the same predefined
// schedule aliases (@every, @hourly, ...) the robfig/cron/v3 default
// parser recognizes.
func (s *Sweeper) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop cancels the schedule and waits for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	if s.dlq != nil && s.dlq.IsEnabled() {
		expired := s.dlq.CleanupExpired()
		exhausted := s.dlq.CleanupExhausted()
		if expired > 0 || exhausted > 0 {
			s.logger.Info("dlq sweep", "expired", expired, "exhausted", exhausted, "remaining", s.dlq.Size())
		}
	}
	if s.bp != nil {
		stats := s.bp.Stats()
		if s.bp.Signal() != SignalNormal {
			s.logger.Warn("backpressure signal", "signal", s.bp.Signal().String(), "depth", stats.CurrentDepth)
		}
	}
}
