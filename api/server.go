// Package api exposes the assistant over HTTP.
//
// Endpoints:
//
//	POST /api/query  -> interpret a natural-language query and reply
//	GET  /health     -> liveness probe
//	GET  /ready      -> readiness probe (checks the language model)
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: recovery, request ID, rate limiting, logging
//   - health.go: health check endpoints (/health, /ready)
//   - query.go: the query endpoint
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/stockchat/stockchat/internal/agent"
	"github.com/stockchat/stockchat/internal/log"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Model-backed composition can take a while on slow hardware.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// QueryAgent handles one natural-language query end to end.
// Satisfied by *agent.Agent.
type QueryAgent interface {
	Process(ctx context.Context, query string) agent.Reply
}

// ReadinessProber reports whether the language model is reachable and the
// configured model is available. Satisfied by *ollama.Client.
type ReadinessProber interface {
	Probe(ctx context.Context) error
}

// ServerConfig carries the server's collaborators and tuning knobs.
type ServerConfig struct {
	Agent     QueryAgent
	Readiness ReadinessProber
	Logger    log.Logger

	// RateBurst bounds concurrent query bursts per instance.
	// Zero disables rate limiting.
	RateBurst int
}

// Server is the HTTP server for the assistant's REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
	burst  int
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg ServerConfig) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		logger: cfg.Logger,
		burst:  cfg.RateBurst,
	}

	NewHealthHandler(cfg.Readiness, cfg.Logger).RegisterRoutes(mux)
	NewQueryHandler(cfg.Agent, cfg.Logger).RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery -> request ID -> rate limit -> logging.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		requestIDMiddleware,
		rateLimitMiddleware(s.burst, s.logger),
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
