// SPDX-License-Identifier: MIT

// Package api exposes the daemon's HTTP surface: health and metrics
// endpoints, the feed listing, and the session input/state endpoints
// that stand in for the browser event surface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/glintworks/reels/internal/feed"
	xglog "github.com/glintworks/reels/internal/log"
	"github.com/glintworks/reels/internal/playback/session"
)

// FeedSource supplies the current feed snapshot.
type FeedSource interface {
	Items() []feed.Item
}

// SessionProvider yields the mounted playback session, or nil before
// mount / after unmount.
type SessionProvider func() *session.Session

// Config tunes the HTTP server.
type Config struct {
	Listen string
	// RateLimit is the per-IP request budget per minute on the input
	// endpoints.
	RateLimit int
	// ShutdownGrace bounds graceful shutdown.
	ShutdownGrace time.Duration
}

func (c Config) withDefaults() Config {
	if c.Listen == "" {
		c.Listen = ":8088"
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 600
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 5 * time.Second
	}
	return c
}

// Server serves the reels HTTP API.
type Server struct {
	cfg     Config
	source  FeedSource
	session SessionProvider
	logger  zerolog.Logger
	httpSrv *http.Server
}

// New builds the server around the feed source and session provider.
func New(cfg Config, source FeedSource, provider SessionProvider) *Server {
	s := &Server{
		cfg:     cfg.withDefaults(),
		source:  source,
		session: provider,
		logger:  xglog.WithComponent("api"),
	}
	s.httpSrv = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           otelhttp.NewHandler(s.Router(), "reels-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router assembles the chi route tree. Exposed for httptest use.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer(s.logger))
	r.Use(requestID)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/feed", s.handleFeed)
		r.Get("/feed/{id}", s.handleFeedItem)
		r.Get("/session", s.handleSessionState)
		r.With(inputRateLimit(s.cfg.RateLimit)).
			Post("/session/input", s.handleSessionInput)
	})
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", s.cfg.Listen).Msg("http server listening")
		if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
