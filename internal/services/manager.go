// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/gemini-token-dashboard/internal/api"
	"github.com/j-veylop/gemini-token-dashboard/internal/config"
	"github.com/j-veylop/gemini-token-dashboard/internal/logger"
	"github.com/j-veylop/gemini-token-dashboard/internal/models"
	"github.com/j-veylop/gemini-token-dashboard/internal/services/poller"
)

type (
	// RecordEvent is emitted when a summary snapshot raises the peak-day record.
	RecordEvent struct {
		Previous int64
		Current  int64
	}

	// ConfigReloadedEvent is emitted after the .env file changed and the new
	// configuration was applied.
	ConfigReloadedEvent struct {
		BaseURL string
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (RecordEvent) isServiceEvent()         {}
func (ConfigReloadedEvent) isServiceEvent() {}

// Options tunes how the manager builds its feeds.
type Options struct {
	// Clock drives both polling units. Nil means the real clock.
	Clock poller.Clock

	// Overrides are re-applied whenever the watched .env file is reloaded.
	Overrides config.Overrides
}

// Manager wires the API client, the two feeds and the config watcher, and
// routes their events to subscribers.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	client      *api.Client
	summary     *SummaryFeed
	usage       *UsageFeed
	watcher     *config.Watcher
	stopChan    chan struct{}
	subscribers []chan ServiceEvent
	closeOnce   sync.Once

	notify func(title, body string) error
}

// NewManager creates a new service manager. The feeds are built but not
// started; each panel starts its own.
func NewManager(cfg *config.Config, opts Options) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)

	m := &Manager{
		cfg:      cfg,
		client:   client,
		summary:  NewSummaryFeed(client, cfg.RefreshInterval, opts.Clock),
		usage:    NewUsageFeed(client, cfg.RefreshInterval, opts.Clock),
		stopChan: make(chan struct{}),
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}

	m.summary.Stats.OnApply(m.checkRecord)

	w, err := config.NewWatcher(cfg, opts.Overrides)
	if err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	}
	if w != nil {
		m.watcher = w
		go m.watchConfig()
	}

	return m, nil
}

// Summary returns the summary feed.
func (m *Manager) Summary() *SummaryFeed {
	return m.summary
}

// Usage returns the usage feed.
func (m *Manager) Usage() *UsageFeed {
	return m.usage
}

// Client returns the API client shared by both feeds.
func (m *Manager) Client() *api.Client {
	return m.client
}

// Config returns a copy of the configuration currently in effect.
func (m *Manager) Config() config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.cfg
}

// RefreshNow fires an extra cycle on both feeds.
func (m *Manager) RefreshNow() {
	logger.Debug("manual refresh requested")
	m.summary.Unit.RefreshNow()
	m.usage.Unit.RefreshNow()
}

// checkRecord raises an alert when the peak-day counter beats a previously
// seen non-zero record.
func (m *Manager) checkRecord(prev, next models.SummaryStats) {
	m.mu.RLock()
	enabled := m.cfg.NotifyRecords
	m.mu.RUnlock()

	if !enabled || prev.PeakDay == 0 || next.PeakDay <= prev.PeakDay {
		return
	}

	logger.Info("new peak-day record", "previous", prev.PeakDay, "current", next.PeakDay)

	title := "New peak-day record"
	body := fmt.Sprintf("%s tokens (previous %s)", humanize.Comma(next.PeakDay), humanize.Comma(prev.PeakDay))
	if err := m.notify(title, body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}

	m.broadcast(RecordEvent{Previous: prev.PeakDay, Current: next.PeakDay})
}

func (m *Manager) watchConfig() {
	for {
		select {
		case cfg, ok := <-m.watcher.Updates():
			if !ok {
				return
			}
			m.applyConfig(cfg)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) applyConfig(cfg *config.Config) {
	m.mu.Lock()
	old := m.cfg
	m.cfg = cfg
	m.mu.Unlock()

	if cfg.APIBaseURL != old.APIBaseURL {
		m.client.SetBaseURL(cfg.APIBaseURL)
		logger.Info("statistics backend changed", "from", old.APIBaseURL, "to", cfg.APIBaseURL)
	}
	if cfg.RefreshInterval != old.RefreshInterval {
		logger.Info("refresh interval change applies on next start",
			"current", m.summary.Unit.Interval(), "configured", cfg.RefreshInterval)
	}

	m.broadcast(ConfigReloadedEvent{BaseURL: cfg.APIBaseURL})
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events. The channel is
// closed by Unsubscribe or Close.
func (m *Manager) Subscribe() chan ServiceEvent {
	ch := make(chan ServiceEvent, 16)

	m.mu.Lock()
	select {
	case <-m.stopChan:
		close(ch)
	default:
		m.subscribers = append(m.subscribers, ch)
	}
	m.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close stops both feeds and the config watcher. Safe to call more than once.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.mu.Lock()
		close(m.stopChan)
		m.mu.Unlock()

		if m.watcher != nil {
			err = m.watcher.Close()
		}

		m.summary.Unit.Stop()
		m.usage.Unit.Stop()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()
	})
	return err
}
