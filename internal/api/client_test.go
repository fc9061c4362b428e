package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/gemini-token-dashboard/internal/models"
)

// MockRoundTripper implements http.RoundTripper for testing
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

// newBackend serves fixed bodies per path.
func newBackend(t *testing.T, routes map[string]struct {
	status int
	body   string
}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(route.status)
		_, _ = w.Write([]byte(route.body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type route = struct {
	status int
	body   string
}

func TestClient_FetchSummaryStats(t *testing.T) {
	srv := newBackend(t, map[string]route{
		EndpointStats: {200, `{"daily_total":1234567,"monthly_total":20,"peak_day":300,"lifetime_total":9007199254740993,"extra":"ignored"}`},
	})

	c := NewClient(srv.URL+"/", time.Second)
	got, err := c.FetchSummaryStats(context.Background())
	if err != nil {
		t.Fatalf("FetchSummaryStats() failed: %v", err)
	}

	want := models.SummaryStats{
		DailyTotal:    1234567,
		MonthlyTotal:  20,
		PeakDay:       300,
		LifetimeTotal: 9007199254740993,
	}
	if got != want {
		t.Errorf("FetchSummaryStats() = %+v, want %+v", got, want)
	}
}

func TestClient_FetchTokenUsage(t *testing.T) {
	srv := newBackend(t, map[string]route{
		EndpointTokenUsage: {200, `[
			{"hour":13.5,"tokens":200,"timestamp":"2024-01-01T13:30:00"},
			{"hour":0,"tokens":10.6},
			{"hour":24,"tokens":0}
		]`},
	})

	c := NewClient(srv.URL, time.Second)
	got, err := c.FetchTokenUsage(context.Background())
	if err != nil {
		t.Fatalf("FetchTokenUsage() failed: %v", err)
	}

	want := []models.HourlyTokenPoint{
		{Hour: 0, Tokens: 11},
		{Hour: 13.5, Tokens: 200},
		{Hour: 24, Tokens: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestClient_FetchTokenUsage_Empty(t *testing.T) {
	srv := newBackend(t, map[string]route{
		EndpointTokenUsage: {200, `[]`},
	})

	got, err := NewClient(srv.URL, time.Second).FetchTokenUsage(context.Background())
	if err != nil {
		t.Fatalf("FetchTokenUsage() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty series, got %v", got)
	}
}

func TestClient_FetchGraphStats(t *testing.T) {
	srv := newBackend(t, map[string]route{
		EndpointGraphStats: {200, `{"input_tokens":1500,"output_tokens":2500,"peak_hours":"14:00-15:00","daily_change":"+12.5%"}`},
	})

	got, err := NewClient(srv.URL, time.Second).FetchGraphStats(context.Background())
	if err != nil {
		t.Fatalf("FetchGraphStats() failed: %v", err)
	}

	want := models.GraphStats{InputTokens: 1500, OutputTokens: 2500, PeakHours: "14:00-15:00", DailyChange: "+12.5%"}
	if got != want {
		t.Errorf("FetchGraphStats() = %+v, want %+v", got, want)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := newBackend(t, map[string]route{
		EndpointStats: {500, `{"error":"redis unavailable"}`},
	})

	_, err := NewClient(srv.URL, time.Second).FetchSummaryStats(context.Background())
	if err == nil {
		t.Fatal("expected error for status 500")
	}
	if !errors.Is(err, ErrStatus) {
		t.Errorf("expected ErrStatus, got %v", err)
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.StatusCode != 500 || fe.Endpoint != EndpointStats {
		t.Errorf("FetchError = %+v", fe)
	}
	if !strings.Contains(err.Error(), "redis unavailable") {
		t.Errorf("error should carry body snippet, got %q", err.Error())
	}
	if Outcome(err) != "status" {
		t.Errorf("Outcome() = %q, want status", Outcome(err))
	}
}

func TestClient_InvalidPayloads(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		body     string
	}{
		{"StatsNotJSON", EndpointStats, `<html>oops</html>`},
		{"StatsArray", EndpointStats, `[]`},
		{"StatsMissingField", EndpointStats, `{"daily_total":1,"monthly_total":2,"peak_day":3}`},
		{"StatsWrongType", EndpointStats, `{"daily_total":"1","monthly_total":2,"peak_day":3,"lifetime_total":4}`},
		{"StatsNegative", EndpointStats, `{"daily_total":-1,"monthly_total":2,"peak_day":3,"lifetime_total":4}`},
		{"StatsNull", EndpointStats, `{"daily_total":null,"monthly_total":2,"peak_day":3,"lifetime_total":4}`},
		{"UsageObject", EndpointTokenUsage, `{"hour":1,"tokens":2}`},
		{"UsageHourTooLarge", EndpointTokenUsage, `[{"hour":25,"tokens":2}]`},
		{"UsageHourNegative", EndpointTokenUsage, `[{"hour":-0.5,"tokens":2}]`},
		{"UsageMissingTokens", EndpointTokenUsage, `[{"hour":1}]`},
		{"UsageElementNotObject", EndpointTokenUsage, `[1,2,3]`},
		{"UsageTruncated", EndpointTokenUsage, `[{"hour":1,"tokens":2}`},
		{"GraphPeakHoursNumber", EndpointGraphStats, `{"input_tokens":1,"output_tokens":2,"peak_hours":14,"daily_change":"0%"}`},
		{"GraphMissingChange", EndpointGraphStats, `{"input_tokens":1,"output_tokens":2,"peak_hours":"N/A"}`},
		{"Empty", EndpointGraphStats, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t, map[string]route{tt.endpoint: {200, tt.body}})
			c := NewClient(srv.URL, time.Second)

			var err error
			switch tt.endpoint {
			case EndpointStats:
				_, err = c.FetchSummaryStats(context.Background())
			case EndpointTokenUsage:
				_, err = c.FetchTokenUsage(context.Background())
			case EndpointGraphStats:
				_, err = c.FetchGraphStats(context.Background())
			}

			if !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("expected ErrInvalidPayload, got %v", err)
			}
			var fe *FetchError
			if !errors.As(err, &fe) || fe.Endpoint != tt.endpoint {
				t.Errorf("expected FetchError for %s, got %v", tt.endpoint, err)
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	c := NewClient("http://stats.invalid", time.Second)
	c.httpClient.Transport = &MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		},
	}

	_, err := c.FetchGraphStats(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if Outcome(err) != "transport" {
		t.Errorf("Outcome() = %q, want transport", Outcome(err))
	}
	if errors.Is(err, ErrStatus) || errors.Is(err, ErrInvalidPayload) {
		t.Errorf("transport error misclassified: %v", err)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClient(srv.URL, 5*time.Second).FetchSummaryStats(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClient_SetBaseURL(t *testing.T) {
	c := NewClient("", 0)
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}

	var gotURL string
	c.httpClient.Transport = &MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			gotURL = req.URL.String()
			return &http.Response{
				StatusCode: 200,
				Body:       http.NoBody,
				Header:     make(http.Header),
			}, nil
		},
	}

	c.SetBaseURL("http://elsewhere:9000/")
	_, _ = c.FetchGraphStats(context.Background())
	if gotURL != "http://elsewhere:9000/api/graph-stats" {
		t.Errorf("request URL = %q", gotURL)
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" {
		t.Error("Outcome(nil) should be ok")
	}
	if Outcome(&FetchError{Err: payloadErrorf("x")}) != "payload" {
		t.Error("payload errors should classify as payload")
	}
}
