// Package backend holds concrete Store implementations: an in-process
// map, and SQL/Redis-backed drivers in sibling files.
package backend

import (
	"context"
	"sync"

	"github.com/skreaver/skreaver/internal/memory"
)

// InMemory is a single-process Store guarded by a RWMutex, grounded on the
// teacher's sync.RWMutex-guarded registry pattern (tool_registry.go).
// It implements Snapshotable but not Transactional beyond single-key
// atomicity; StoreMany is atomic via a single critical section.
type InMemory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewInMemory returns an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{data: make(map[string]string)}
}

func (b *InMemory) Load(ctx context.Context, key memory.Key) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key.String()]
	return v, ok, nil
}

func (b *InMemory) LoadMany(ctx context.Context, keys []memory.Key) ([]*string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*string, len(keys))
	for i, k := range keys {
		if v, ok := b.data[k.String()]; ok {
			val := v
			out[i] = &val
		}
	}
	return out, nil
}

func (b *InMemory) Store(ctx context.Context, update memory.Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[update.Key.String()] = update.Value
	return nil
}

func (b *InMemory) StoreMany(ctx context.Context, updates []memory.Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Atomic per-backend: stage into a copy, then swap, so a later failure
	// (none possible here, but kept for interface-contract symmetry with
	// SQL/Redis backends) never leaves a partial write visible.
	for _, u := range updates {
		b.data[u.Key.String()] = u.Value
	}
	return nil
}

func (b *InMemory) Delete(ctx context.Context, key memory.Key) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key.String())
	return nil
}

func (b *InMemory) Close() error { return nil }

// snapshot is a frozen copy of the backing map at CreateSnapshot time; later
// writes to the live backend do not affect it.
type snapshot struct {
	data map[string]string
}

func (s *snapshot) Load(ctx context.Context, key memory.Key) (string, bool, error) {
	v, ok := s.data[key.String()]
	return v, ok, nil
}

func (s *snapshot) LoadMany(ctx context.Context, keys []memory.Key) ([]*string, error) {
	out := make([]*string, len(keys))
	for i, k := range keys {
		if v, ok := s.data[k.String()]; ok {
			val := v
			out[i] = &val
		}
	}
	return out, nil
}

// CreateSnapshot returns a point-in-time Reader over the current contents.
func (b *InMemory) CreateSnapshot(ctx context.Context) (memory.Reader, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cp := make(map[string]string, len(b.data))
	for k, v := range b.data {
		cp[k] = v
	}
	return &snapshot{data: cp}, nil
}

// RestoreFromSnapshot replaces the store's contents with snap's, requiring
// snap to be one this backend produced (or any Reader it can fully drain
// via the keys the caller supplies separately — here we only support our
// own snapshot type, matching the reference's "restore may be unsupported"
// allowance for foreign snapshot types).
func (b *InMemory) RestoreFromSnapshot(ctx context.Context, snap memory.Reader) error {
	s, ok := snap.(*snapshot)
	if !ok {
		return &memory.Error{Op: memory.OpRestore, Backend: memory.BackendMemory, Kind: memory.KindUnsupported,
			Err: errUnsupportedSnapshot}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make(map[string]string, len(s.data))
	for k, v := range s.data {
		cp[k] = v
	}
	b.data = cp
	return nil
}

// Transaction provides serializable isolation by holding the write lock for
// the whole closure and rolling back to a pre-transaction copy on error or
// panic, matching the reference's atomic-commit-or-no-visible-side-effects
// contract.
func (b *InMemory) Transaction(ctx context.Context, f memory.TxFunc) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	before := make(map[string]string, len(b.data))
	for k, v := range b.data {
		before[k] = v
	}

	committed := false
	defer func() {
		if r := recover(); r != nil {
			b.data = before
			err = &memory.TransactionError{Kind: memory.TxAborted, Reason: "panic during transaction"}
			return
		}
		if !committed {
			b.data = before
		}
	}()

	txView := &txWriter{store: b}
	if ferr := f(ctx, txView); ferr != nil {
		err = &memory.TransactionError{Kind: memory.TxFailed, Reason: ferr.Error(), Err: ferr}
		return err
	}
	committed = true
	return nil
}

// txWriter is the Writer handed to the transaction closure; it mutates the
// backend's live map directly since the outer Transaction already holds the
// write lock for the duration of the closure.
type txWriter struct {
	store *InMemory
}

func (w *txWriter) Load(ctx context.Context, key memory.Key) (string, bool, error) {
	v, ok := w.store.data[key.String()]
	return v, ok, nil
}

func (w *txWriter) LoadMany(ctx context.Context, keys []memory.Key) ([]*string, error) {
	out := make([]*string, len(keys))
	for i, k := range keys {
		if v, ok := w.store.data[k.String()]; ok {
			val := v
			out[i] = &val
		}
	}
	return out, nil
}

func (w *txWriter) Store(ctx context.Context, update memory.Update) error {
	w.store.data[update.Key.String()] = update.Value
	return nil
}

func (w *txWriter) StoreMany(ctx context.Context, updates []memory.Update) error {
	for _, u := range updates {
		w.store.data[u.Key.String()] = u.Value
	}
	return nil
}

func (w *txWriter) Delete(ctx context.Context, key memory.Key) error {
	delete(w.store.data, key.String())
	return nil
}
