package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatr/internal/config"
	"github.com/matheus3301/chatr/internal/metrics"
)

// MetricsServer serves /metrics on config's metrics_addr. With no address
// configured it does nothing.
type MetricsServer struct {
	addr     string
	server   *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// NewMetricsServer creates the server; it does not listen until Start.
func NewMetricsServer(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	return &MetricsServer{
		addr: cfg.MetricsAddr,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the listener and serves in the background. A bind failure is
// returned so a bad metrics_addr fails startup.
func (s *MetricsServer) Start() error {
	if s.addr == "" {
		return nil
	}
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen metrics %s: %w", s.addr, err)
	}
	s.listener = l
	s.logger.Info("metrics server starting", zap.String("addr", l.Addr().String()))
	go func() {
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or "" when not listening.
func (s *MetricsServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down.
func (s *MetricsServer) Stop(ctx context.Context) {
	if s.listener == nil {
		return
	}
	s.logger.Info("metrics server stopping")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("metrics server shutdown", zap.Error(err))
	}
}
