// Package server exposes the watch loop's health and metrics endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nholik/fleetctl/internal/healthcheck"
	"github.com/nholik/fleetctl/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Start serves /healthz and /readyz on healthPort and /metrics on
// metricsPort. Matching ports share a single listener; a port of zero
// disables that endpoint group. Servers shut down when ctx is canceled.
func Start(ctx context.Context, logger zerolog.Logger, pollInterval time.Duration, tracker *healthcheck.Tracker, metricsCollector *metrics.Metrics, healthPort, metricsPort int) {
	muxes := make(map[int]*http.ServeMux)
	route := func(port int) *http.ServeMux {
		if muxes[port] == nil {
			muxes[port] = http.NewServeMux()
		}
		return muxes[port]
	}

	if healthPort > 0 {
		mux := route(healthPort)
		mux.HandleFunc("/healthz", healthcheck.HealthHandler(tracker, pollInterval))
		mux.HandleFunc("/readyz", healthcheck.ReadyHandler(tracker))
	}
	if metricsPort > 0 && metricsCollector != nil {
		route(metricsPort).Handle("/metrics", metricsCollector.Handler())
	}

	for port, mux := range muxes {
		serve(ctx, logger, mux, port)
	}
}

func serve(ctx context.Context, logger zerolog.Logger, handler http.Handler, port int) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Int("port", port).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Int("port", port).Msg("http server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Int("port", port).Msg("http server shutdown failed")
		}
	}()
}
