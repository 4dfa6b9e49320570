// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the solver and the replay emulator over HTTP.
//
// Routes:
//
//	GET  /v1/lifter/health   liveness
//	POST /v1/lifter/solve    solve a map within a time limit
//	GET  /v1/lifter/replay   websocket replay session
//	GET  /metrics            Prometheus scrape endpoint
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianLifter/services/lifter/archive"
	"github.com/AleutianAI/AleutianLifter/services/lifter/search"
	"github.com/AleutianAI/AleutianLifter/services/lifter/telemetry"
)

// Config holds server settings.
type Config struct {
	// Port is the listen port.
	Port int

	// DefaultTimeLimit applies when a request names no time limit.
	DefaultTimeLimit time.Duration

	// MaxTimeLimit caps the time limit a request may ask for.
	MaxTimeLimit time.Duration

	// SolveRate is the sustained number of solves started per second.
	SolveRate float64

	// SolveBurst is how many solves may start at once.
	SolveBurst int

	// Search is the base solver configuration for every request. It can be
	// replaced while serving, see WatchConfig.
	Search search.FullConfig
}

// DefaultConfig returns defaults for a local server.
func DefaultConfig() Config {
	return Config{
		Port:             12220,
		DefaultTimeLimit: 10 * time.Second,
		MaxTimeLimit:     150 * time.Second,
		SolveRate:        1,
		SolveBurst:       4,
		Search:           search.DefaultFullConfig(),
	}
}

// Server is the lifter HTTP service.
//
// Thread Safety: Safe for concurrent use. Each request solves on its own
// tree; identical concurrent solve requests share one solve.
type Server struct {
	config  Config
	search  atomic.Pointer[search.FullConfig]
	router  *gin.Engine
	limiter *rate.Limiter
	flight  singleflight.Group
	archive *archive.Archive
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithArchive keeps every solve result in a.
func WithArchive(a *archive.Archive) Option {
	return func(s *Server) {
		s.archive = a
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds the server and its routes.
//
// Inputs:
//   - cfg: Server configuration.
//   - opts: Optional archive and logger.
//
// Outputs:
//   - *Server: Ready to Run or to serve through Router.
//   - error: Non-nil if metric instruments cannot be created.
func New(cfg Config, opts ...Option) (*Server, error) {
	metrics, err := telemetry.NewMetrics(otel.Meter("lifter"))
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	s := &Server{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.SolveRate), cfg.SolveBurst),
		metrics: metrics,
		logger:  slog.Default(),
	}
	s.SetSearchConfig(cfg.Search)
	for _, opt := range opts {
		opt(s)
	}
	s.initRouter()
	return s, nil
}

// SearchConfig returns the solver configuration new solves start from.
func (s *Server) SearchConfig() search.FullConfig {
	return *s.search.Load()
}

// SetSearchConfig replaces the solver configuration. Solves already
// running keep the one they started with.
func (s *Server) SetSearchConfig(cfg search.FullConfig) {
	s.search.Store(&cfg)
}

// Router returns the gin engine, for tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) initRouter() {
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(otelgin.Middleware(s.config.Search.Observability.ServiceName))
	s.router.Use(telemetry.MetricsMiddleware(s.metrics))

	metricsHandler := telemetry.MetricsHandler()
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	s.router.GET("/metrics", gin.WrapH(metricsHandler))

	v1 := s.router.Group("/v1/lifter")
	{
		v1.GET("/health", s.handleHealth)
		v1.POST("/solve", s.handleSolve)
		v1.GET("/replay", s.handleReplay)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
//
// Inputs:
//   - ctx: Cancel to stop the server.
//
// Outputs:
//   - error: Listen errors. Nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting lifter server", slog.Int("port", s.config.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down lifter server")
	return srv.Shutdown(shutdownCtx)
}
