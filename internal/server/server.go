package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"go-calculator/internal/observability"
)

const shutdownTimeout = 5 * time.Second

// Server exposes health and metrics next to the interactive session.
type Server struct {
	srv      *http.Server
	listener net.Listener
}

// Start listens on addr and serves NewRouter(gatherer) in the background.
// Listen errors are returned immediately.
func Start(addr string, gatherer prometheus.Gatherer) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s := &Server{
		srv: &http.Server{
			Handler:           NewRouter(gatherer),
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
	}

	observability.Logger.Info("metrics server started", zap.String("addr", s.Addr()))

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	return s, nil
}

// Addr is the bound address, useful when Start was given port 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.srv.Shutdown(ctx)
}
