// Package api is the HTTP client for the token statistics backend.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/gemini-token-dashboard/internal/logger"
	"github.com/j-veylop/gemini-token-dashboard/internal/metrics"
	"github.com/j-veylop/gemini-token-dashboard/internal/models"
)

// Backend endpoints, relative to the base URL.
const (
	EndpointStats      = "/api/stats"
	EndpointTokenUsage = "/api/token-usage"
	EndpointGraphStats = "/api/graph-stats"
)

// DefaultBaseURL is where the statistics backend listens by default.
const DefaultBaseURL = "http://localhost:5000"

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Client fetches statistics snapshots. It is safe for concurrent use.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the current backend address.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL re-points the client. Requests already in flight are unaffected.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// FetchSummaryStats retrieves the summary card counters.
func (c *Client) FetchSummaryStats(ctx context.Context) (models.SummaryStats, error) {
	body, err := c.get(ctx, EndpointStats)
	if err != nil {
		return models.SummaryStats{}, err
	}
	stats, err := decodeSummaryStats(body)
	c.observeDecode(EndpointStats, err)
	if err != nil {
		return models.SummaryStats{}, &FetchError{Endpoint: EndpointStats, Err: err}
	}
	return stats, nil
}

// FetchTokenUsage retrieves the intraday usage series. The backend's order is
// normalised here: points come back sorted by hour.
func (c *Client) FetchTokenUsage(ctx context.Context) ([]models.HourlyTokenPoint, error) {
	body, err := c.get(ctx, EndpointTokenUsage)
	if err != nil {
		return nil, err
	}
	points, err := decodeTokenUsage(body)
	c.observeDecode(EndpointTokenUsage, err)
	if err != nil {
		return nil, &FetchError{Endpoint: EndpointTokenUsage, Err: err}
	}
	models.SortByHour(points)
	return points, nil
}

// FetchGraphStats retrieves the stats shown beside the chart.
func (c *Client) FetchGraphStats(ctx context.Context) (models.GraphStats, error) {
	body, err := c.get(ctx, EndpointGraphStats)
	if err != nil {
		return models.GraphStats{}, err
	}
	stats, err := decodeGraphStats(body)
	c.observeDecode(EndpointGraphStats, err)
	if err != nil {
		return models.GraphStats{}, &FetchError{Endpoint: EndpointGraphStats, Err: err}
	}
	return stats, nil
}

// get performs a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+endpoint, http.NoBody)
	if err != nil {
		return nil, c.fail(endpoint, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(endpoint, 0, fmt.Errorf("request failed: %w", err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.fail(endpoint, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(endpoint, resp.StatusCode, fmt.Errorf("%w: %s", ErrStatus, snippet(body)))
	}

	return body, nil
}

func (c *Client) fail(endpoint string, status int, err error) error {
	metrics.FetchRequestsTotal.WithLabelValues(endpoint, Outcome(err)).Inc()
	return &FetchError{Endpoint: endpoint, StatusCode: status, Err: err}
}

func (c *Client) observeDecode(endpoint string, err error) {
	metrics.FetchRequestsTotal.WithLabelValues(endpoint, Outcome(err)).Inc()
}

// snippet trims an error body for logging.
func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
