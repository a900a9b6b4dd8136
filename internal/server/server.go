// package server exposes the transfer engine, health checks, and metrics
// over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/playthelist/playtl/internal/health"
	"github.com/playthelist/playtl/internal/history"
	"github.com/playthelist/playtl/internal/metrics"
	"github.com/playthelist/playtl/internal/ratelimit"
	"github.com/playthelist/playtl/internal/shared"
	"github.com/playthelist/playtl/internal/transfer"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the transfer entry point the server depends on.
type Engine interface {
	Transfer(ctx context.Context, req transfer.Request, progress chan<- transfer.ProgressUpdate) (*transfer.Result, error)
}

// Server wires the HTTP surface. History is optional; when nil, completed
// transfers are simply not recorded.
type Server struct {
	echo     *echo.Echo
	engine   Engine
	governor *ratelimit.Governor
	checker  *health.Checker
	store    *history.Store
	logger   *log.Logger
}

// Opts contains dependencies for creating a Server.
type Opts struct {
	Engine   Engine
	Governor *ratelimit.Governor
	Checker  *health.Checker
	Store    *history.Store
	Logger   *log.Logger
}

// New creates a Server and registers its routes.
func New(opts Opts) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		echo:     e,
		engine:   opts.Engine,
		governor: opts.Governor,
		checker:  opts.Checker,
		store:    opts.Store,
		logger:   opts.Logger,
	}

	e.POST("/api/transfers", s.handleTransfer)
	e.GET("/api/limits", s.handleLimits)
	e.GET("/health", s.handleHealth)
	e.GET("/health/summary", s.handleHealthSummary)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	s.logger.Info("server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// userID identifies the caller for rate limiting. An explicit X-User-ID
// header wins; otherwise the client IP stands in.
func userID(c echo.Context) string {
	if id := c.Request().Header.Get("X-User-ID"); id != "" {
		return id
	}
	return c.RealIP()
}

type errorResponse struct {
	Error string `json:"error"`
}

type deniedResponse struct {
	Error             string  `json:"error"`
	RetryAfterSeconds float64 `json:"retry_after_seconds"`
}

func (s *Server) handleTransfer(c echo.Context) error {
	var req transfer.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.SourceURL == "" || req.Target == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "url and target are required"})
	}

	user := userID(c)
	verdict := s.governor.Admit(c.Request().Context(), user)
	if !verdict.Allowed {
		metrics.RateLimitDenials.Inc()
		metrics.TransfersTotal.WithLabelValues("rejected").Inc()
		c.Response().Header().Set("Retry-After", retryAfterHeader(verdict.RetryAfter))
		return c.JSON(http.StatusTooManyRequests, deniedResponse{
			Error:             verdict.Reason,
			RetryAfterSeconds: verdict.RetryAfter.Seconds(),
		})
	}
	if verdict.FailOpen {
		s.logger.Warn("transfer admitted without rate enforcement", "user", user)
	}

	start := time.Now()
	result, err := s.engine.Transfer(c.Request().Context(), req, nil)
	if err != nil {
		metrics.TransfersTotal.WithLabelValues("failed").Inc()
		s.logger.Error("transfer failed", "user", user, "err", err)
		return c.JSON(statusForError(err), errorResponse{Error: err.Error()})
	}

	metrics.TransfersTotal.WithLabelValues("completed").Inc()
	metrics.ObserveTransfer(time.Since(start), result.Resolved, len(result.Missing))
	s.recordTransfer(req, result)

	return c.JSON(http.StatusOK, result)
}

func (s *Server) recordTransfer(req transfer.Request, result *transfer.Result) {
	if s.store == nil {
		return
	}

	source, _ := transfer.DetectPlatform(req.SourceURL)
	rec := &history.Record{
		SourceURL:      req.SourceURL,
		SourcePlatform: string(source),
		TargetPlatform: string(req.Target),
		PlaylistName:   result.PlaylistName,
		PlaylistURL:    result.PlaylistURL,
		TotalTracks:    result.Total,
		ResolvedTracks: result.Resolved,
		Missing:        result.Missing,
	}
	if err := s.store.Save(rec); err != nil {
		s.logger.Warn("failed to record transfer", "err", err)
	}
}

func (s *Server) handleLimits(c echo.Context) error {
	info := s.governor.Info(c.Request().Context(), userID(c))
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleHealth(c echo.Context) error {
	report := s.checker.Run(c.Request().Context())
	return c.JSON(healthStatusCode(report.Status), report)
}

func (s *Server) handleHealthSummary(c echo.Context) error {
	report := s.checker.Run(c.Request().Context())
	return c.JSON(healthStatusCode(report.Status), health.Summarize(report))
}

func healthStatusCode(status health.Status) int {
	if status == health.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// statusForError maps domain sentinels to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidURL), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrPlaylistUnavailable):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrPlaylistCreate), errors.Is(err, shared.ErrAppendFailed),
		errors.Is(err, shared.ErrSearchUnavailable), errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func retryAfterHeader(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
