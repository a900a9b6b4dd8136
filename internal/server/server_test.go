package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/playthelist/playtl/internal/health"
	"github.com/playthelist/playtl/internal/ratelimit"
	"github.com/playthelist/playtl/internal/shared"
	"github.com/playthelist/playtl/internal/transfer"
)

var discard = shared.NewLogger(io.Discard)

// stubEngine returns a canned result or error.
type stubEngine struct {
	result *transfer.Result
	err    error
	calls  int
}

func (s *stubEngine) Transfer(ctx context.Context, req transfer.Request, progress chan<- transfer.ProgressUpdate) (*transfer.Result, error) {
	s.calls++
	return s.result, s.err
}

func newTestServer(engine Engine, maxRequests int) *Server {
	governor := ratelimit.NewGovernor("", ratelimit.Config{
		MaxRequests: maxRequests,
		Window:      time.Hour,
	}, discard)

	return New(Opts{
		Engine:   engine,
		Governor: governor,
		Checker:  health.NewChecker(&shared.Config{}, nil, discard),
		Logger:   discard,
	})
}

func postTransfer(t *testing.T, srv *Server, body, user string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/transfers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer(t *testing.T) {
	validBody := `{"url": "https://open.spotify.com/playlist/abc", "target": "youtube"}`

	t.Run("TransferSuccess", func(t *testing.T) {
		engine := &stubEngine{result: &transfer.Result{
			PlaylistURL:  "https://music.youtube.com/playlist?list=PLnew",
			PlaylistName: "Road Trip",
			Missing:      []string{"Song B - Artist Y"},
			Total:        2,
			Resolved:     1,
		}}
		srv := newTestServer(engine, 3)

		rec := postTransfer(t, srv, validBody, "user-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var result transfer.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if result.PlaylistURL == "" || len(result.Missing) != 1 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("RateLimitDenies", func(t *testing.T) {
		engine := &stubEngine{result: &transfer.Result{PlaylistURL: "https://example.com"}}
		srv := newTestServer(engine, 1)

		if rec := postTransfer(t, srv, validBody, "user-1"); rec.Code != http.StatusOK {
			t.Fatalf("first request should pass, got %d", rec.Code)
		}

		rec := postTransfer(t, srv, validBody, "user-1")
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header on denial")
		}
		if engine.calls != 1 {
			t.Errorf("denied request must not reach the engine, got %d calls", engine.calls)
		}
	})

	t.Run("RateLimitIsolatesUsers", func(t *testing.T) {
		engine := &stubEngine{result: &transfer.Result{}}
		srv := newTestServer(engine, 1)

		postTransfer(t, srv, validBody, "user-a")
		if rec := postTransfer(t, srv, validBody, "user-b"); rec.Code != http.StatusOK {
			t.Errorf("user-b should not share user-a's window, got %d", rec.Code)
		}
	})

	t.Run("InvalidBodyRejected", func(t *testing.T) {
		srv := newTestServer(&stubEngine{}, 3)

		if rec := postTransfer(t, srv, `{not json`, "user-1"); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for malformed body, got %d", rec.Code)
		}
		if rec := postTransfer(t, srv, `{"url": ""}`, "user-1"); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for missing fields, got %d", rec.Code)
		}
	})

	t.Run("ErrorMapping", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			want int
		}{
			{"invalid url", shared.ErrInvalidURL, http.StatusBadRequest},
			{"playlist unavailable", shared.ErrPlaylistUnavailable, http.StatusNotFound},
			{"create failed", shared.ErrPlaylistCreate, http.StatusBadGateway},
			{"append failed", shared.ErrAppendFailed, http.StatusBadGateway},
			{"not authenticated", shared.ErrNotAuthenticated, http.StatusUnauthorized},
			{"adapter missing", shared.ErrServiceUnavailable, http.StatusServiceUnavailable},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				srv := newTestServer(&stubEngine{err: tc.err}, 10)
				rec := postTransfer(t, srv, validBody, "user-1")
				if rec.Code != tc.want {
					t.Errorf("expected %d for %v, got %d", tc.want, tc.err, rec.Code)
				}
			})
		}
	})

	t.Run("LimitsEndpoint", func(t *testing.T) {
		srv := newTestServer(&stubEngine{result: &transfer.Result{}}, 3)
		postTransfer(t, srv, validBody, "user-1")

		req := httptest.NewRequest(http.MethodGet, "/api/limits", nil)
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var info ratelimit.Info
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if info.Current != 1 || info.Remaining != 2 {
			t.Errorf("unexpected limits info: %+v", info)
		}
	})

	t.Run("MetricsEndpoint", func(t *testing.T) {
		srv := newTestServer(&stubEngine{}, 3)

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "go_goroutines") {
			t.Error("expected prometheus exposition output")
		}
	})

	t.Run("HealthEndpoint", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer upstream.Close()

		checker := health.NewChecker(&shared.Config{}, nil, discard)
		checker.SpotifyURL = upstream.URL
		checker.OpenAIURL = upstream.URL
		checker.ProxyURL = upstream.URL

		governor := ratelimit.NewGovernor("", ratelimit.Config{}, discard)
		srv := New(Opts{Engine: &stubEngine{}, Governor: governor, Checker: checker, Logger: discard})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for degraded-or-better, got %d", rec.Code)
		}
		var report health.Report
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if len(report.Checks) != 4 {
			t.Errorf("expected 4 checks, got %d", len(report.Checks))
		}
	})
}
