// Package api is the thin HTTP surface the spec leaves in scope: the
// event-bus SSE streams (spec §6) and a manual scan trigger (spec §2,
// "triggered manually or on a timer"). General request routing,
// validation, and auth beyond that are explicit Non-goals.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/fleetwatch/internal/config"
)

// Server is the fleetwatch HTTP server.
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer builds the server with routes wired to bus and scanner.
func NewServer(cfg config.ServerConfig, handlers *Handlers) *Server {
	return &Server{
		config:  cfg,
		handler: SetupRoutes(handlers),
	}
}

// ListenAndServe starts the HTTP server on addr. SSE connections are
// long-lived, so write/read timeouts are deliberately generous.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}
