package mesh

import (
	"sync"
	"time"
)

// DLQConfig configures a DeadLetterQueue. A nil *DLQConfig passed to
// NewDeadLetterQueue disables the queue entirely (failed messages are
// dropped), mirroring original_source's Option<DlqConfig>.
type DLQConfig struct {
	MaxSize        int
	DefaultTTL     time.Duration
	MaxRetries     int
}

// DefaultDLQConfig returns the teacher's original default: 10,000 entries,
// 24h TTL, 3 retries.
func DefaultDLQConfig() *DLQConfig {
	return &DLQConfig{MaxSize: 10_000, DefaultTTL: 24 * time.Hour, MaxRetries: 3}
}

// DLQEntry is one failed message held for inspection or retry.
type DLQEntry struct {
	Message       Message
	AddedAt       time.Time
	ExpiresAt     time.Time
	RetryCount    int
	FailureReason string
	LastError     string
}

func (e DLQEntry) isExpired(now time.Time) bool { return now.After(e.ExpiresAt) }
func (e DLQEntry) hasExhaustedRetries(maxRetries int) bool { return e.RetryCount >= maxRetries }

// DLQStats tracks lifetime DLQ activity. All counters use saturating
// arithmetic (never wrap past the type's max) to survive long-running
// eviction thrash.
type DLQStats struct {
	CurrentSize    int
	TotalAdded     uint64
	TotalRemoved   uint64
	TotalExpired   uint64
	TotalExhausted uint64
	TotalRetried   uint64
}

func saturatingAddU64(a uint64, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// DeadLetterQueue is a ring buffer of failed messages bounded by
// config.MaxSize; the oldest entry is evicted when full. A nil config
// disables the queue.
type DeadLetterQueue struct {
	mu     sync.RWMutex
	config *DLQConfig
	queue  []DLQEntry
	stats  DLQStats
}

// NewDeadLetterQueue builds a DLQ. Pass nil to build a disabled DLQ.
func NewDeadLetterQueue(config *DLQConfig) *DeadLetterQueue {
	return &DeadLetterQueue{config: config}
}

// IsEnabled reports whether the DLQ accepts entries.
func (d *DeadLetterQueue) IsEnabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config != nil
}

// Add appends message with failureReason. If the DLQ is disabled the
// message is silently dropped, matching original_source's documented
// behavior.
func (d *DeadLetterQueue) Add(message Message, failureReason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.config == nil {
		return
	}

	if len(d.queue) >= d.config.MaxSize {
		d.queue = d.queue[1:]
	}

	now := time.Now()
	d.queue = append(d.queue, DLQEntry{
		Message:       message,
		AddedAt:       now,
		ExpiresAt:     now.Add(d.config.DefaultTTL),
		FailureReason: failureReason,
	})
	d.stats.TotalAdded = saturatingAddU64(d.stats.TotalAdded, 1)
	d.stats.CurrentSize = len(d.queue)
}

// List returns a snapshot of every entry currently held.
func (d *DeadLetterQueue) List() []DLQEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]DLQEntry, len(d.queue))
	copy(out, d.queue)
	return out
}

// GetRetriable returns up to limit entries that have neither expired nor
// exhausted their retry budget, in insertion order.
func (d *DeadLetterQueue) GetRetriable(limit int) []DLQEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.config == nil {
		return nil
	}
	now := time.Now()
	out := make([]DLQEntry, 0, limit)
	for _, e := range d.queue {
		if len(out) >= limit {
			break
		}
		if e.isExpired(now) || e.hasExhaustedRetries(d.config.MaxRetries) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Remove deletes the entry for messageID, e.g. after a successful retry.
func (d *DeadLetterQueue) Remove(messageID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range d.queue {
		if e.Message.ID == messageID {
			d.queue = append(d.queue[:i], d.queue[i+1:]...)
			d.stats.TotalRemoved = saturatingAddU64(d.stats.TotalRemoved, 1)
			d.stats.CurrentSize = len(d.queue)
			return
		}
	}
}

// MarkRetried increments the retry count and records lastErr for
// messageID, if present.
func (d *DeadLetterQueue) MarkRetried(messageID, lastErr string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.queue {
		if d.queue[i].Message.ID == messageID {
			d.queue[i].RetryCount++
			d.queue[i].LastError = lastErr
			return
		}
	}
}

// CleanupExpired removes every entry past its TTL and returns the count
// removed.
func (d *DeadLetterQueue) CleanupExpired() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.retain(func(e DLQEntry) bool { return !e.isExpired(time.Now()) }, &d.stats.TotalExpired)
}

// CleanupExhausted removes every entry that has exhausted its retry budget
// and returns the count removed. A disabled DLQ has nothing to clean.
func (d *DeadLetterQueue) CleanupExhausted() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.config == nil {
		return 0
	}
	maxRetries := d.config.MaxRetries
	return d.retain(func(e DLQEntry) bool { return !e.hasExhaustedRetries(maxRetries) }, &d.stats.TotalExhausted)
}

// retain keeps entries satisfying keep, returning the number dropped and
// bumping the given saturating counter. Caller holds the write lock.
func (d *DeadLetterQueue) retain(keep func(DLQEntry) bool, counter *uint64) int {
	kept := d.queue[:0]
	removed := 0
	for _, e := range d.queue {
		if keep(e) {
			kept = append(kept, e)
		} else {
			removed++
		}
	}
	d.queue = kept
	if removed > 0 {
		*counter = saturatingAddU64(*counter, uint64(removed))
		d.stats.CurrentSize = len(d.queue)
	}
	return removed
}

// Stats returns a snapshot of lifetime counters.
func (d *DeadLetterQueue) Stats() DLQStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// Size returns the current entry count.
func (d *DeadLetterQueue) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.queue)
}

// Clear drops every entry without affecting lifetime counters other than
// CurrentSize.
func (d *DeadLetterQueue) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = nil
	d.stats.CurrentSize = 0
}
