// Package router configures the forecaster's HTTP API.
//
// Routes:
//   - GET /report/latest?series=<name> - latest stored report as JSON
//   - GET /healthz - health check (503 when the store cannot be reached)
//   - GET /metrics - Prometheus metrics
//
// Reports older than the stale threshold carry an X-Finplan-Stale header.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/HatiCode/finplan/pkg/httpx"
	"github.com/HatiCode/finplan/pkg/storage"
)

// StaleHeader is set to "true" on reports older than the stale threshold.
const StaleHeader = "X-Finplan-Stale"

var seriesNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]{0,251}[a-zA-Z0-9])?$`)

// Options configures the routes. Zero values select defaults.
type Options struct {
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
	// StaleAfter marks reports older than this as stale; 0 disables it.
	StaleAfter time.Duration
	// Limiter rate-limits the report endpoint; nil disables limiting.
	Limiter *rate.Limiter
}

// SetupRoutes returns the handler of the forecaster's HTTP API.
func SetupRoutes(store storage.Store, opts Options, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()

	// Stores that can be probed (Redis) make /healthz report their state.
	var check func(context.Context) error
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		check = p.Ping
	}
	mux.Handle("GET /healthz", httpx.HealthHandlerWithCheck(check))

	report := httpx.RateLimitMiddleware(opts.Limiter)(handleGetReport(store, opts.StaleAfter, logger))
	mux.Handle("GET /report/latest", report)

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	var h http.Handler = mux
	h = httpx.LoggingMiddleware(logger)(h)
	h = httpx.RecoveryMiddleware(logger)(h)
	return h
}

// handleGetReport returns a handler for GET /report/latest?series=<name>.
func handleGetReport(store storage.Store, staleAfter time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("series")
		if name == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "series parameter required")
			return
		}

		if !seriesNameRegex.MatchString(name) {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "invalid series name format")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		snapshot, found, err := store.GetLatest(ctx, name)
		if err != nil {
			logger.Error("failed to get report", "series", name, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("report not found for series %q", name))
			return
		}

		if staleAfter > 0 && time.Since(snapshot.GeneratedAt) > staleAfter {
			w.Header().Set(StaleHeader, "true")
		}

		if err := httpx.WriteJSON(w, http.StatusOK, snapshot); err != nil {
			logger.Error("failed to write JSON response", "error", err)
		}
	}
}
