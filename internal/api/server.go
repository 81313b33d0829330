// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/playgrid/playgrid/internal/config"
	"github.com/playgrid/playgrid/internal/logging"
)

// Server runs the HTTP listener under the supervision tree.
// Implements suture.Service.
type Server struct {
	server *http.Server
}

// NewServer wraps the route tree in an http.Server with the configured
// address and timeouts.
func NewServer(cfg *config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Timeout,
			IdleTimeout:       120 * time.Second,
			// No WriteTimeout: it would sever long-lived WebSocket
			// connections.
		},
	}
}

// Serve listens until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *Server) String() string { return "http-server" }
