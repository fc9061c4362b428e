package poller

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/gemini-token-dashboard/internal/logger"
	"github.com/j-veylop/gemini-token-dashboard/internal/metrics"
)

// DefaultInterval is the refresh period used when none is configured.
const DefaultInterval = 30 * time.Second

const updateBuffer = 16

// Update is emitted after each slot refresh finishes.
type Update struct {
	Unit   string
	Slot   string
	Result Result
	Err    error
}

// Unit drives a group of slots from one timer. Every cycle refreshes each
// slot in its own goroutine; cycles may overlap.
type Unit struct {
	name       string
	interval   time.Duration
	clock      Clock
	refreshers []Refresher

	mu        sync.Mutex
	updates   chan Update
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	inflight  sync.WaitGroup
	started   bool
	stopped   bool
	closed    bool
	cycles    uint64
	lastCycle time.Time
}

// NewUnit creates a stopped unit. A nil clock means the real clock and a
// non-positive interval means DefaultInterval.
func NewUnit(name string, interval time.Duration, clock Clock, refreshers ...Refresher) *Unit {
	if clock == nil {
		clock = RealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	u := &Unit{
		name:       name,
		interval:   interval,
		clock:      clock,
		refreshers: refreshers,
		updates:    make(chan Update, updateBuffer),
		done:       make(chan struct{}),
	}

	for _, r := range refreshers {
		if b, ok := r.(interface {
			bind(unit string, now func() time.Time)
		}); ok {
			b.bind(name, clock.Now)
		}
	}

	return u
}

// Name returns the unit name.
func (u *Unit) Name() string {
	return u.name
}

// Interval returns the refresh period.
func (u *Unit) Interval() time.Duration {
	return u.interval
}

// Updates delivers one Update per finished refresh. Closed by Stop.
func (u *Unit) Updates() <-chan Update {
	return u.updates
}

// Running reports whether the unit has started and not stopped.
func (u *Unit) Running() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.started && !u.stopped
}

// Cycles returns how many refresh cycles have fired.
func (u *Unit) Cycles() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cycles
}

// LastCycle returns when the most recent cycle fired.
func (u *Unit) LastCycle() time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastCycle
}

// Start fires one cycle immediately and then one per interval. Calling Start
// again, or after Stop, does nothing.
func (u *Unit) Start() {
	u.mu.Lock()
	if u.started || u.stopped {
		u.mu.Unlock()
		return
	}
	u.started = true
	u.ctx, u.cancel = context.WithCancel(context.Background())
	ticker := u.clock.NewTicker(u.interval)
	u.mu.Unlock()

	logger.Debug("polling unit started", "unit", u.name, "interval", u.interval)

	u.fire()
	go u.loop(ticker)
}

// RefreshNow fires an extra cycle without touching the timer.
func (u *Unit) RefreshNow() {
	u.fire()
}

// Stop cancels the timer and in-flight requests, disposes every slot and
// closes Updates. It waits for outstanding refreshes to return.
func (u *Unit) Stop() {
	u.mu.Lock()
	if u.stopped {
		u.mu.Unlock()
		return
	}
	u.stopped = true
	started := u.started
	cancel := u.cancel
	u.mu.Unlock()

	for _, r := range u.refreshers {
		r.Dispose()
	}
	if cancel != nil {
		cancel()
	}
	if started {
		<-u.done
	}
	u.inflight.Wait()

	u.mu.Lock()
	u.closed = true
	close(u.updates)
	u.mu.Unlock()

	logger.Debug("polling unit stopped", "unit", u.name, "cycles", u.Cycles())
}

func (u *Unit) loop(ticker Ticker) {
	defer close(u.done)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			u.fire()
		case <-u.ctx.Done():
			return
		}
	}
}

// fire launches one refresh per slot.
func (u *Unit) fire() {
	u.mu.Lock()
	if !u.started || u.stopped {
		u.mu.Unlock()
		return
	}
	u.cycles++
	u.lastCycle = u.clock.Now()
	ctx := u.ctx
	u.inflight.Add(len(u.refreshers))
	u.mu.Unlock()

	metrics.PollCyclesTotal.WithLabelValues(u.name).Inc()

	for _, r := range u.refreshers {
		go func(r Refresher) {
			defer u.inflight.Done()
			res, err := r.Refresh(ctx)
			u.emit(Update{Unit: u.name, Slot: r.Name(), Result: res, Err: err})
		}(r)
	}
}

// emit never blocks; when the reader is behind the oldest update is dropped.
func (u *Unit) emit(up Update) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return
	}

	select {
	case u.updates <- up:
	default:
		select {
		case <-u.updates:
		default:
		}
		select {
		case u.updates <- up:
		default:
		}
	}
}

// WaitForUpdate returns a tea.Cmd that waits for the next update on ch.
func WaitForUpdate(ch <-chan Update) tea.Cmd {
	return func() tea.Msg {
		up, ok := <-ch
		if !ok {
			return nil
		}
		return up
	}
}
