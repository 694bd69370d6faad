package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beatmaplib/assetstore/internal/logger"
	"github.com/beatmaplib/assetstore/internal/telemetry"
	"github.com/beatmaplib/assetstore/pkg/config"
	"github.com/beatmaplib/assetstore/pkg/metrics"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// InitTelemetry initializes OpenTelemetry tracing and Pyroscope profiling
// from configuration. The returned shutdown function flushes and tears
// down both; it is a no-op for whichever of the two is disabled.
func InitTelemetry(ctx context.Context, cfg *config.Config) (shutdown func(context.Context) error, err error) {
	traceShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "assetstore",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	profileShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "assetstore",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		_ = traceShutdown(ctx)
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}

	return func(ctx context.Context) error {
		profileErr := profileShutdown()
		traceErr := traceShutdown(ctx)
		if traceErr != nil {
			return traceErr
		}
		return profileErr
	}, nil
}

// InitMetrics creates the asset store's Prometheus collectors and, if
// cfg.Metrics.Enabled, serves them over HTTP at /metrics. When disabled it
// returns metrics.NullMetrics(), which makes every recording call on it a
// no-op, and a shutdown function that does nothing.
func InitMetrics(cfg *config.Config) (m *metrics.Metrics, shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Metrics.Enabled {
		return metrics.NullMetrics(), noop, nil
	}

	registry := prometheus.NewRegistry()
	m = metrics.New(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}

	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", serveErr)
		}
	}()
	logger.Info("metrics server listening", "port", cfg.Metrics.Port)

	return m, server.Shutdown, nil
}
