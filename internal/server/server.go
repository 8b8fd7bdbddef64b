// Package server wraps the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"traveld/internal/config"
	"traveld/internal/httpapi"
)

// Server wraps the HTTP server and related dependencies.
type Server struct {
	cfg    config.ServerConfig
	logger *zap.Logger
	server *http.Server
	mux    *http.ServeMux
}

// New constructs a server with middleware wiring; routes are attached
// by the caller through Mux.
func New(cfg config.ServerConfig, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.RequestLogger(logger, mux),
		ReadHeaderTimeout: cfg.ReadHeaderTimeoutDuration(),
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		server: srv,
		mux:    mux,
	}
}

// Mux exposes the underlying mux for route registration.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// Run starts the HTTP server and blocks until it exits or errors.
func (s *Server) Run() error {
	s.logger.Info("api server listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server within the context timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
