// Package main provides the entry point for the lab stats HTTP API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixir/lab-stats-service/internal/app"
	"github.com/helixir/lab-stats-service/internal/config"
	"github.com/helixir/lab-stats-service/internal/observability"
	httpserver "github.com/helixir/lab-stats-service/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.WithComponent(observability.NewLogger(cfg.Logging, observability.ProcessAPI), "server")
	logger.Info().Str("lab", cfg.Lab.Acronym).Msg("lab-stats-service server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics are always collected; exposure is controlled by metrics.enabled.
	metrics := observability.NewMetricsWith(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)

	// Open the profile catalog.
	catalog, err := app.OpenCatalog(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalog.Close()
	logger.Info().Str("backend", cfg.Catalog.Backend).Msg("profile catalog ready")

	statsService := app.NewStatsService(cfg, logger, metrics)

	var health httpserver.HealthChecker
	if catalog.DB != nil {
		health = catalog.DB
	}

	httpCfg := httpserver.Config{
		Address:            cfg.Server.HTTPAddress(),
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		IdleTimeout:        2 * time.Minute,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}
	httpSrv := httpserver.NewServer(httpCfg, catalog.Repository, statsService, health, metrics, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("lab-stats-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down lab-stats-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("lab-stats-service shutdown complete")
	return nil
}
