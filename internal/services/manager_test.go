package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/j-veylop/gemini-token-dashboard/internal/api"
	"github.com/j-veylop/gemini-token-dashboard/internal/config"
	"github.com/j-veylop/gemini-token-dashboard/internal/models"
	"github.com/j-veylop/gemini-token-dashboard/internal/services/poller"
)

// statsBackend serves /api/stats with a peak_day the test can change.
type statsBackend struct {
	peak atomic.Int64
	srv  *httptest.Server
}

func newStatsBackend(t *testing.T) *statsBackend {
	t.Helper()
	b := &statsBackend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case api.EndpointStats:
			fmt.Fprintf(w, `{"daily_total":1,"monthly_total":2,"peak_day":%d,"lifetime_total":4}`, b.peak.Load())
		case api.EndpointTokenUsage:
			fmt.Fprint(w, `[{"hour":1,"tokens":10}]`)
		case api.EndpointGraphStats:
			fmt.Fprint(w, `{"input_tokens":1,"output_tokens":2,"peak_hours":"N/A","daily_change":"0%"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		APIBaseURL:      baseURL,
		RefreshInterval: time.Minute,
		RequestTimeout:  time.Second,
		NotifyRecords:   true,
	}
}

func statsWithPeak(n int64) models.SummaryStats {
	return models.SummaryStats{PeakDay: n}
}

func nextEvent(t *testing.T, ch <-chan ServiceEvent) ServiceEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for service event")
		return nil
	}
}

func waitApplied(t *testing.T, u *poller.Unit) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case up := <-u.Updates():
			if up.Result == poller.ResultApplied {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for an applied refresh")
		}
	}
}

func TestNewManager(t *testing.T) {
	mgr, err := NewManager(testConfig("http://localhost:5000"), Options{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	if mgr.Summary() == nil || mgr.Usage() == nil {
		t.Fatal("feeds should be initialized")
	}
	if mgr.Summary().Unit.Name() != SummaryUnit || mgr.Usage().Unit.Name() != UsageUnit {
		t.Error("unexpected unit names")
	}
	if mgr.Summary().Unit.Running() || mgr.Usage().Unit.Running() {
		t.Error("feeds should not start until a panel starts them")
	}
	if mgr.Client().BaseURL() != "http://localhost:5000" {
		t.Errorf("BaseURL() = %q", mgr.Client().BaseURL())
	}
	if mgr.Config().RefreshInterval != time.Minute {
		t.Errorf("Config().RefreshInterval = %v", mgr.Config().RefreshInterval)
	}
}

func TestNewManager_NilConfig(t *testing.T) {
	if _, err := NewManager(nil, Options{}); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestManager_UsageFeedSharesOneUnit(t *testing.T) {
	backend := newStatsBackend(t)
	mgr, _ := NewManager(testConfig(backend.srv.URL), Options{Clock: poller.NewFakeClock(time.Now())})
	defer mgr.Close()

	feed := mgr.Usage()
	feed.Unit.Start()

	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case up := <-feed.Unit.Updates():
			seen[up.Slot] = true
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out, saw %v", seen)
		}
	}

	if got := feed.Series.Get(); len(got) != 1 || got[0].Tokens != 10 {
		t.Errorf("Series = %+v", got)
	}
	if feed.Stats.Get().OutputTokens != 2 {
		t.Errorf("Stats = %+v", feed.Stats.Get())
	}
	if feed.LastUpdated().IsZero() {
		t.Error("LastUpdated should be set after refresh")
	}
}

func TestManager_PeakDayRecord(t *testing.T) {
	backend := newStatsBackend(t)
	backend.peak.Store(100)

	mgr, _ := NewManager(testConfig(backend.srv.URL), Options{Clock: poller.NewFakeClock(time.Now())})
	defer mgr.Close()

	var mu sync.Mutex
	var notified []string
	mgr.notify = func(title, body string) error {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, body)
		return nil
	}

	events := mgr.Subscribe()
	unit := mgr.Summary().Unit

	unit.Start()
	waitApplied(t, unit)

	// First snapshot only establishes the record.
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %#v", ev)
	default:
	}

	backend.peak.Store(250)
	mgr.RefreshNow()
	waitApplied(t, unit)

	ev, ok := nextEvent(t, events).(RecordEvent)
	if !ok {
		t.Fatalf("expected RecordEvent, got %#v", ev)
	}
	if ev.Previous != 100 || ev.Current != 250 {
		t.Errorf("RecordEvent = %+v", ev)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(notified) != 1 || notified[0] != "250 tokens (previous 100)" {
		t.Errorf("notifications = %v", notified)
	}
}

func TestManager_RecordDisabled(t *testing.T) {
	cfg := testConfig("http://localhost:5000")
	cfg.NotifyRecords = false
	mgr, _ := NewManager(cfg, Options{})
	defer mgr.Close()

	called := false
	mgr.notify = func(string, string) error {
		called = true
		return nil
	}

	mgr.checkRecord(statsWithPeak(10), statsWithPeak(20))
	if called {
		t.Error("notification should be disabled")
	}
}

func TestManager_ConfigReload(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	t.Setenv("API_BASE_URL", "")
	if err := os.WriteFile(envPath, []byte("API_BASE_URL=http://first:5000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(config.Overrides{EnvFile: envPath, LogFile: filepath.Join(dir, "gtd.log")})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	mgr, err := NewManager(cfg, Options{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	events := mgr.Subscribe()

	if err := os.WriteFile(envPath, []byte("API_BASE_URL=http://second:6000/\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ev, ok := nextEvent(t, events).(ConfigReloadedEvent)
	if !ok {
		t.Fatalf("expected ConfigReloadedEvent, got %#v", ev)
	}
	if ev.BaseURL != "http://second:6000" {
		t.Errorf("BaseURL = %q", ev.BaseURL)
	}
	if mgr.Client().BaseURL() != "http://second:6000" {
		t.Errorf("client BaseURL = %q", mgr.Client().BaseURL())
	}
}

func TestManager_CloseIdempotent(t *testing.T) {
	mgr, _ := NewManager(testConfig("http://localhost:5000"), Options{})
	ch := mgr.Subscribe()

	if err := mgr.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}

	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}

	late := mgr.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribing after Close should yield a closed channel")
	}
}

func TestManager_Unsubscribe(t *testing.T) {
	mgr, _ := NewManager(testConfig("http://localhost:5000"), Options{})
	defer mgr.Close()

	ch := mgr.Subscribe()
	mgr.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	mgr.broadcast(RecordEvent{Previous: 1, Current: 2})
}
