// Package server runs the HTTP API with graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/recipebook/backend/config"
	"github.com/recipebook/backend/internal/logging"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Server represents the HTTP server
type Server struct {
	http *http.Server
	log  *zap.Logger
}

// New creates a server listening on the configured address
func New(cfg *config.Config, handler http.Handler, log *zap.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logging.OrNop(log),
	}
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
