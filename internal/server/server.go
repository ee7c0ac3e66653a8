// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"grantmatch/internal/common/config"
	"grantmatch/internal/common/logger"
)

// Server owns the HTTP listener lifecycle.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

// New constructs a Server around the provided handler.
func New(cfg config.ServerConfig, handler http.Handler, log logger.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Millisecond,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		logger:     log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

// Start begins listening for HTTP traffic. Blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("starting http server", map[string]interface{}{
		"address": s.httpServer.Addr,
	})
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server", nil)
	return s.httpServer.Shutdown(ctx)
}
