// Package microservice hosts the catalog HTTP surface alongside liveness,
// readiness and metrics endpoints, and releases backend clients on shutdown.
package microservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/events"
	"github.com/rs/zerolog"
)

// CatalogServerConfig describes what a CatalogServer serves and owns.
type CatalogServerConfig struct {
	HTTPPort string
	// API is mounted at the root.
	API http.Handler
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Checks are probed by /readyz.
	Checks []ReadinessCheck
	// Publisher is stopped after the HTTP server drains.
	Publisher events.Publisher
	// Closers are closed in order after the publisher stops.
	Closers []io.Closer
}

// CatalogServer serves the catalog API on a single listener.
type CatalogServer struct {
	httpPort   string
	httpServer *http.Server
	mux        *http.ServeMux
	checks     []ReadinessCheck
	publisher  events.Publisher
	closers    []io.Closer
	logger     zerolog.Logger

	mu         sync.RWMutex
	actualAddr string
}

// NewCatalogServer builds the mux: /healthz, /readyz, optional /metrics and
// the API at the root.
func NewCatalogServer(cfg CatalogServerConfig, logger zerolog.Logger) *CatalogServer {
	s := &CatalogServer{
		httpPort:  cfg.HTTPPort,
		mux:       http.NewServeMux(),
		checks:    cfg.Checks,
		publisher: cfg.Publisher,
		closers:   cfg.Closers,
		logger:    logger.With().Str("component", "CatalogServer").Logger(),
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}

	s.mux.HandleFunc("/healthz", HealthzHandler)
	s.mux.HandleFunc("/readyz", s.readyzHandler)
	if cfg.Metrics != nil {
		s.mux.Handle("/metrics", cfg.Metrics)
	}
	if cfg.API != nil {
		s.mux.Handle("/", cfg.API)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start listens on the configured port and serves in a background goroutine
// until Shutdown.
func (s *CatalogServer) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.httpPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.httpPort, err)
	}

	s.mu.Lock()
	s.actualAddr = listener.Addr().String()
	s.mu.Unlock()

	s.logger.Info().Str("address", s.actualAddr).Int("readiness_checks", len(s.checks)).Msg("Catalog server listening.")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()
	return nil
}

// Shutdown drains HTTP traffic within ctx, flushes pending change events and
// closes the registered clients.
func (s *CatalogServer) Shutdown(ctx context.Context) error {
	var errs []error
	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error during HTTP server shutdown.")
		errs = append(errs, err)
	}
	s.publisher.Stop()
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Failed to close client.")
			errs = append(errs, err)
		}
	}
	s.logger.Info().Msg("Catalog server stopped.")
	return errors.Join(errs...)
}

// GetHTTPPort returns the port being served, resolving ":0" once started.
func (s *CatalogServer) GetHTTPPort() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, port, err := net.SplitHostPort(s.actualAddr)
	if err != nil {
		return s.httpPort
	}
	return ":" + port
}
