// Package server exposes search and answer synthesis over HTTP.
//
// Routes:
//
//	GET  /api/search?q=&episode_title=&n=
//	POST /api/ask      {"query", "episode_title", "num_results"}
//	GET  /healthz
//	GET  /metrics      Prometheus exposition
//
// n and num_results are capped at search.MaxNumResults.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/llm"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/search"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/vecstore"
)

// Config wires a Server.
type Config struct {
	Pipeline *search.Pipeline

	// Completer answers /api/ask. When nil the route returns 503.
	Completer llm.Completer

	// Index is checked by /healthz.
	Index vecstore.Index

	// Registry collects the server metrics. A fresh registry is used when
	// nil.
	Registry *prometheus.Registry

	Logger *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	pipeline  *search.Pipeline
	completer llm.Completer
	index     vecstore.Index
	logger    *slog.Logger
	echo      *echo.Echo

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New builds the routes.
func New(cfg Config) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("server: Config.Pipeline is required")
	}
	s := &Server{
		pipeline:  cfg.Pipeline,
		completer: cfg.Completer,
		index:     cfg.Index,
		logger:    cfg.Logger,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "podsearch",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "podsearch",
			Name:      "query_duration_seconds",
			Help:      "Time spent answering search and ask requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"route"}),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if err := reg.Register(s.requests); err != nil {
		return nil, fmt.Errorf("server: register metrics: %w", err)
	}
	if err := reg.Register(s.latency); err != nil {
		return nil, fmt.Errorf("server: register metrics: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(s.instrument)

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	api := e.Group("/api")
	api.GET("/search", s.search)
	api.POST("/ask", s.ask)

	s.echo = e
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errc <- s.echo.Start(addr)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) instrument(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		} else if err != nil {
			status = http.StatusInternalServerError
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.requests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
		if route == "/api/search" || route == "/api/ask" {
			s.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
		return err
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	req := c.Request()
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", code, "method", req.Method, "path", req.URL.Path, "error", err)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

// searchError maps pipeline errors onto HTTP errors.
func searchError(err error) error {
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	case errors.Is(err, search.ErrTooManyResults):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("num_results must be at most %d", search.MaxNumResults))
	case errors.Is(err, vecstore.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "index unavailable").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}

type searchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

func (s *Server) search(c echo.Context) error {
	opts := search.Options{EpisodeTitle: c.QueryParam("episode_title")}
	if n := c.QueryParam("n"); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil || v < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "n must be a positive integer")
		}
		if v > search.MaxNumResults {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("n must be at most %d", search.MaxNumResults))
		}
		opts.NumResults = v
	}
	q := c.QueryParam("q")
	results, err := s.pipeline.Query(c.Request().Context(), q, opts)
	if err != nil {
		return searchError(err)
	}
	return c.JSON(http.StatusOK, searchResponse{Query: q, Results: results})
}

type askRequest struct {
	Query        string `json:"query"`
	EpisodeTitle string `json:"episode_title"`
	NumResults   int    `json:"num_results"`
}

type askResponse struct {
	Query   string          `json:"query"`
	Answer  string          `json:"answer"`
	Results []search.Result `json:"results"`
}

func (s *Server) ask(c echo.Context) error {
	if s.completer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "answer model not configured")
	}
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	results, err := s.pipeline.Query(ctx, req.Query, search.Options{
		EpisodeTitle: req.EpisodeTitle,
		NumResults:   req.NumResults,
	})
	if err != nil {
		return searchError(err)
	}
	answer, err := search.Answer(ctx, s.completer, req.Query, results)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "answer model failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, askResponse{Query: req.Query, Answer: answer, Results: results})
}

func (s *Server) healthz(c echo.Context) error {
	if s.index == nil {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
	}
	n, err := s.index.Count(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "index unavailable").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "segments": n})
}
