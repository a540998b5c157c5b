package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Server exposes health, readiness, and Prometheus metrics endpoints over
// HTTP for operational monitoring of a pipeline run.
type Server struct {
	server   *http.Server
	listener net.Listener
	provider *sdkmetric.MeterProvider
	logger   *slog.Logger
}

// NewServer starts an HTTP server at addr with /healthz, /readyz, and
// /metrics endpoints. Instruments created from [Server.MeterProvider] appear
// in /metrics scrape output. Ready checks gate /readyz; passing none means
// always ready.
func NewServer(ctx context.Context, addr string, logger *slog.Logger, checks ...ReadyCheck) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, metricsHandler, err := NewPrometheusProvider()
	if err != nil {
		return nil, fmt.Errorf("create prometheus provider: %w", err)
	}

	mux := http.NewServeMux()

	mux.Handle("/healthz", HealthHandler())
	mux.Handle("/readyz", ReadyHandler(checks...))
	mux.Handle("/metrics", metricsHandler)

	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux}

	go func() {
		serveErr := srv.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", slog.Any("error", serveErr))
		}
	}()

	return &Server{server: srv, listener: listener, provider: provider, logger: logger}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// MeterProvider returns the provider backing the /metrics endpoint.
func (s *Server) MeterProvider() *sdkmetric.MeterProvider {
	return s.provider
}

// Close gracefully shuts down the server and flushes the meter provider.
func (s *Server) Close(ctx context.Context) error {
	shutdownErr := s.server.Shutdown(ctx)
	providerErr := s.provider.Shutdown(ctx)

	err := errors.Join(shutdownErr, providerErr)
	if err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}

	return nil
}
