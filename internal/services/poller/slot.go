// Package poller implements polling units: state slots refreshed by a fetch
// function on a shared timer.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/j-veylop/gemini-token-dashboard/internal/logger"
	"github.com/j-veylop/gemini-token-dashboard/internal/metrics"
)

// Result describes what happened to one refresh.
type Result int

const (
	// ResultApplied means the response replaced the snapshot.
	ResultApplied Result = iota
	// ResultFailed means the fetch failed and the previous snapshot was kept.
	ResultFailed
	// ResultStale means a newer request had already been applied.
	ResultStale
	// ResultDisposed means the slot was disposed before the response arrived.
	ResultDisposed
)

// String returns the string representation of the Result.
func (r Result) String() string {
	switch r {
	case ResultApplied:
		return "applied"
	case ResultFailed:
		return "failed"
	case ResultStale:
		return "stale"
	case ResultDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// FetchFunc produces a complete snapshot.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Refresher is a slot as seen by a Unit.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) (Result, error)
	Dispose()
}

// Slot holds one atomically replaced snapshot. Each refresh takes a sequence
// number when it is sent; a response is applied only if no later-sent
// response has been applied already, and never after Dispose.
type Slot[T any] struct {
	name  string
	unit  string
	fetch FetchFunc[T]
	now   func() time.Time

	mu        sync.RWMutex
	value     T
	sent      uint64
	applied   uint64
	disposed  bool
	updatedAt time.Time
	lastErr   error
	onApply   func(prev, next T)
}

// NewSlot creates a slot holding initial until the first successful fetch.
func NewSlot[T any](name string, initial T, fetch FetchFunc[T]) *Slot[T] {
	return &Slot[T]{
		name:  name,
		unit:  "none",
		fetch: fetch,
		now:   time.Now,
		value: initial,
	}
}

// OnApply registers a callback run after each applied snapshot, outside the lock.
func (s *Slot[T]) OnApply(fn func(prev, next T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onApply = fn
}

// Name returns the slot name.
func (s *Slot[T]) Name() string {
	return s.name
}

// Get returns the current snapshot.
func (s *Slot[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// UpdatedAt returns when the snapshot was last replaced, zero if never.
func (s *Slot[T]) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// LastError returns the error of the most recent failed refresh, cleared by
// the next applied one.
func (s *Slot[T]) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Disposed reports whether Dispose has been called.
func (s *Slot[T]) Disposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

// Dispose makes every later or in-flight response a no-op.
func (s *Slot[T]) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}

func (s *Slot[T]) bind(unit string, now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unit = unit
	s.now = now
}

// Refresh fetches once and applies the response if it is still current.
func (s *Slot[T]) Refresh(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return s.record(ResultDisposed), nil
	}
	s.sent++
	seq := s.sent
	unit := s.unit
	s.mu.Unlock()

	v, err := s.fetch(ctx)

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		logger.Debug("discarding response for disposed slot", "unit", unit, "slot", s.name, "seq", seq)
		return s.record(ResultDisposed), err
	}

	if err != nil {
		if seq > s.applied {
			s.lastErr = err
		}
		s.mu.Unlock()
		logger.Warn("refresh failed, keeping previous snapshot",
			"unit", unit, "slot", s.name, "seq", seq, "error", err)
		return s.record(ResultFailed), err
	}

	if seq <= s.applied {
		applied := s.applied
		s.mu.Unlock()
		logger.Debug("discarding stale response",
			"unit", unit, "slot", s.name, "seq", seq, "applied", applied)
		return s.record(ResultStale), nil
	}

	prev := s.value
	s.value = v
	s.applied = seq
	s.updatedAt = s.now()
	s.lastErr = nil
	onApply := s.onApply
	s.mu.Unlock()

	if onApply != nil {
		onApply(prev, v)
	}
	return s.record(ResultApplied), nil
}

func (s *Slot[T]) record(r Result) Result {
	s.mu.RLock()
	unit := s.unit
	s.mu.RUnlock()
	metrics.RefreshResultsTotal.WithLabelValues(unit, s.name, r.String()).Inc()
	return r
}
