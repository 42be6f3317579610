// Command forecaster runs the finplan forecast service.
//
// Every run:
//  1. Collects observations through an adapter (prometheus, http, csv, or synthetic)
//  2. Cleans the chosen field, selects an ARIMA order by AIC and validates it on a held-out tail
//  3. Refits on the full series and forecasts the horizon with confidence bounds
//  4. Derives optimistic, pessimistic and custom scenarios, sensitivity and a budget plan
//  5. Stores the report for the HTTP API
//
// The HTTP API (port 8081 by default) provides:
//   - GET /report/latest?series=<name> - latest report
//   - GET /healthz - health check
//   - GET /metrics - Prometheus metrics
//
// With -once the forecaster runs a single cycle, prints the report as JSON
// to stdout and exits without starting the HTTP server.
//
// Usage:
//
//	forecaster -adapter=csv -field=Sales -horizon=30 -order=1,1,1
//	ADAPTER_PATH=./sales.csv forecaster -adapter=csv -once
//
// Environment variables (flags take precedence):
//
//	ADAPTER        - Adapter kind (default: synthetic)
//	ADAPTER_*      - Adapter settings, e.g. ADAPTER_QUERY, ADAPTER_PATH, ADAPTER_VALUE_PATH
//	FIELD          - Column to forecast (default: Sales)
//	SERIES         - Report name (default: the field)
//	HORIZON        - Forecast steps (default: 30)
//	ORDER          - Fixed ARIMA order p,d,q (default: selected by AIC)
//	CONFIDENCE     - Confidence level of the bounds (default: 0.95)
//	INTERVAL       - Run interval (default: 1h)
//	SCHEDULE       - Cron schedule, overrides INTERVAL
//	STORAGE        - memory or redis (default: memory)
//	LOG_LEVEL      - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT     - Logging format: text, json (default: text)
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/HatiCode/finplan/cmd/forecaster/config"
	"github.com/HatiCode/finplan/cmd/forecaster/logger"
	"github.com/HatiCode/finplan/cmd/forecaster/metrics"
	"github.com/HatiCode/finplan/cmd/forecaster/router"
	"github.com/HatiCode/finplan/pkg/adapters"
	"github.com/HatiCode/finplan/pkg/httpx"
	"github.com/HatiCode/finplan/pkg/pipeline"
	"github.com/HatiCode/finplan/pkg/storage"
	"github.com/HatiCode/finplan/pkg/tls"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()

	logger := logger.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)

	logger.Info("starting finplan forecaster",
		"version", version,
		"series", cfg.Series,
		"field", cfg.Field,
		"adapter", cfg.Adapter,
	)

	pcfg, err := cfg.Pipeline()
	if err != nil {
		logger.Error("invalid model configuration", "error", err)
		os.Exit(2)
	}

	adapter, err := buildAdapter(cfg, logger)
	if err != nil {
		logger.Error("failed to create adapter", "error", err)
		os.Exit(2)
	}

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		logger.Error("failed to create store", "storage", cfg.Storage, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	m := metrics.New(prometheus.DefaultRegisterer, cfg.Series)

	p, err := pipeline.New(pcfg, logger, pipeline.WithObserver(m))
	if err != nil {
		logger.Error("failed to create pipeline", "error", err)
		os.Exit(2)
	}

	f := New(cfg.Series, cfg.Field, adapter, p, store, cfg.Window, logger, m)

	if cfg.Once {
		code := runOnce(f, logger)
		closeStore()
		os.Exit(code)
	}

	schedule, err := cfg.CronSchedule()
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(2)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit*2)+1)
	}

	handler := router.SetupRoutes(store, router.Options{
		Gatherer:   prometheus.DefaultGatherer,
		StaleAfter: cfg.StaleAfter(time.Now()),
		Limiter:    limiter,
	}, logger)
	httpServer := httpx.NewServer(cfg.Listen, handler, logger)

	if cfg.TLS.Enabled {
		tlsConfig, err := tls.NewServerConfig(cfg.TLS)
		if err != nil {
			logger.Error("failed to load TLS configuration", "error", err)
			os.Exit(1)
		}
		httpServer.SetTLSConfig(tlsConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := f.RunSchedule(ctx, schedule); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("forecast loop failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	logger.Info("shutting down")
	cancel()

	if err := httpServer.Stop(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// runOnce performs a single cycle and prints the report to stdout. It
// returns the process exit code.
func runOnce(f *Forecaster, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	snapshot, err := f.Tick(ctx)
	if err != nil {
		logger.Error("forecast failed", "error", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		logger.Error("failed to write report", "error", err)
		return 1
	}
	return 0
}

func buildAdapter(cfg *config.Config, logger *slog.Logger) (adapters.Adapter, error) {
	adapter, err := adapters.New(cfg.Adapter, cfg.AdapterConfig, int(cfg.Step.Seconds()))
	if err != nil {
		return nil, err
	}
	if cfg.FallbackSynthetic && cfg.Adapter != "synthetic" {
		adapter = &adapters.FallbackAdapter{
			Primary:  adapter,
			Fallback: &adapters.SyntheticAdapter{Seed: adapters.DefaultSyntheticSeed},
			Logger:   logger,
		}
	}
	return adapter, nil
}

func buildStore(cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.Storage {
	case "redis":
		rs, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() {
			if err := rs.Close(); err != nil {
				slog.Error("failed to close store", "error", err)
			}
		}, nil
	default:
		if cfg.MemoryTTL > 0 {
			ms := storage.NewMemoryStoreWithTTL(cfg.MemoryTTL, 0)
			return ms, ms.Stop, nil
		}
		return storage.NewMemoryStore(), func() {}, nil
	}
}
