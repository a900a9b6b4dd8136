// package health probes each upstream collaborator's read surface and
// reports reachability without invoking any transfer logic.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/playthelist/playtl/internal/shared"
)

// Status is the coarse health of one check or of the whole system.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of probing one upstream.
type CheckResult struct {
	Status         Status  `json:"status"`
	Message        string  `json:"message"`
	ResponseTimeMS float64 `json:"response_time_ms"`
}

// Report aggregates all checks. Overall status is the worst individual one.
type Report struct {
	Status        Status                 `json:"status"`
	Timestamp     time.Time              `json:"timestamp"`
	UptimeSeconds int                    `json:"uptime_seconds"`
	Checks        map[string]CheckResult `json:"checks"`
}

// Summary is the condensed form of a Report for cheap liveness endpoints.
type Summary struct {
	Status        Status    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds int       `json:"uptime_seconds"`
	ChecksPassed  int       `json:"checks_passed"`
	TotalChecks   int       `json:"total_checks"`
}

// Checker probes the catalogs, the oracle, and the rate-limit store. Base
// URLs are fields so tests can point probes at local servers.
type Checker struct {
	SpotifyURL string
	OpenAIURL  string
	ProxyURL   string

	httpClient *http.Client
	openAIKey  string
	storePing  func(ctx context.Context) error
	started    time.Time
	logger     *log.Logger
}

// NewChecker creates a Checker from the application config. storePing
// reports the rate-limit store's reachability and may be nil when no durable
// store is configured.
func NewChecker(cfg *shared.Config, storePing func(ctx context.Context) error, logger *log.Logger) *Checker {
	return &Checker{
		SpotifyURL: "https://api.spotify.com/v1",
		OpenAIURL:  "https://api.openai.com/v1",
		ProxyURL:   cfg.Credentials.YouTube.ProxyURL,

		httpClient: &http.Client{Timeout: 5 * time.Second},
		openAIKey:  cfg.Credentials.OpenAI.APIKey,
		storePing:  storePing,
		started:    time.Now(),
		logger:     logger,
	}
}

func (c *Checker) probe(ctx context.Context, rawURL string, headers map[string]string, acceptable func(int) bool) CheckResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: err.Error(), ResponseTimeMS: elapsed}
	}
	defer resp.Body.Close()

	if acceptable(resp.StatusCode) {
		return CheckResult{Status: StatusHealthy, Message: "accessible", ResponseTimeMS: elapsed}
	}
	return CheckResult{
		Status:         StatusUnhealthy,
		Message:        fmt.Sprintf("unexpected status %d", resp.StatusCode),
		ResponseTimeMS: elapsed,
	}
}

// CheckSpotify probes the Spotify search endpoint. A 401 is expected without
// credentials and still proves reachability.
func (c *Checker) CheckSpotify(ctx context.Context) CheckResult {
	return c.probe(ctx, c.SpotifyURL+"/search?q=test&type=track&limit=1", nil, func(code int) bool {
		return code == http.StatusOK || code == http.StatusUnauthorized
	})
}

// CheckOpenAI probes the models listing with the configured API key.
func (c *Checker) CheckOpenAI(ctx context.Context) CheckResult {
	if c.openAIKey == "" {
		return CheckResult{Status: StatusDegraded, Message: "no API key configured"}
	}
	headers := map[string]string{"Authorization": "Bearer " + c.openAIKey}
	return c.probe(ctx, c.OpenAIURL+"/models", headers, func(code int) bool {
		return code == http.StatusOK
	})
}

// CheckProxy probes the YouTube Music proxy's health endpoint.
func (c *Checker) CheckProxy(ctx context.Context) CheckResult {
	if c.ProxyURL == "" {
		return CheckResult{Status: StatusDegraded, Message: "no proxy configured"}
	}
	return c.probe(ctx, c.ProxyURL+"/health", nil, func(code int) bool {
		return code >= 200 && code < 300
	})
}

// CheckStore probes the rate-limit counter store. An unreachable store is
// degraded rather than unhealthy: the governor keeps serving from its
// in-memory fallback.
func (c *Checker) CheckStore(ctx context.Context) CheckResult {
	if c.storePing == nil {
		return CheckResult{Status: StatusDegraded, Message: "durable store not configured, using fallback"}
	}

	start := time.Now()
	err := c.storePing(ctx)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		return CheckResult{Status: StatusDegraded, Message: err.Error(), ResponseTimeMS: elapsed}
	}
	return CheckResult{Status: StatusHealthy, Message: "connected", ResponseTimeMS: elapsed}
}

// Run executes every check and aggregates the overall status.
func (c *Checker) Run(ctx context.Context) *Report {
	checks := map[string]CheckResult{
		"spotify": c.CheckSpotify(ctx),
		"openai":  c.CheckOpenAI(ctx),
		"youtube": c.CheckProxy(ctx),
		"store":   c.CheckStore(ctx),
	}

	overall := StatusHealthy
	for name, check := range checks {
		switch check.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
		if check.Status != StatusHealthy {
			c.logger.Warn("health check failed", "check", name, "status", check.Status, "message", check.Message)
		}
	}

	return &Report{
		Status:        overall,
		Timestamp:     time.Now(),
		UptimeSeconds: int(time.Since(c.started).Seconds()),
		Checks:        checks,
	}
}

// Summarize condenses a full report.
func Summarize(r *Report) Summary {
	passed := 0
	for _, check := range r.Checks {
		if check.Status == StatusHealthy {
			passed++
		}
	}
	return Summary{
		Status:        r.Status,
		Timestamp:     r.Timestamp,
		UptimeSeconds: r.UptimeSeconds,
		ChecksPassed:  passed,
		TotalChecks:   len(r.Checks),
	}
}
