package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/robfig/cron/v3"

	"github.com/HatiCode/finplan/cmd/forecaster/metrics"
	"github.com/HatiCode/finplan/pkg/adapters"
	"github.com/HatiCode/finplan/pkg/pipeline"
	"github.com/HatiCode/finplan/pkg/series"
	"github.com/HatiCode/finplan/pkg/storage"
)

// resultCacheSize bounds the pipeline results kept for unchanged data.
const resultCacheSize = 8

// Forecaster orchestrates the forecast loop: collect → pipeline → store.
type Forecaster struct {
	series   string
	field    string
	adapter  adapters.Adapter
	pipeline *pipeline.Pipeline
	store    storage.Store
	window   time.Duration
	cache    *lru.Cache[uint64, *pipeline.Result]
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates a Forecaster reporting field of the collected data under
// name. m may be nil.
func New(
	name, field string,
	adapter adapters.Adapter,
	p *pipeline.Pipeline,
	store storage.Store,
	window time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}

	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[uint64, *pipeline.Result](resultCacheSize)

	return &Forecaster{
		series:   name,
		field:    field,
		adapter:  adapter,
		pipeline: p,
		store:    store,
		window:   window,
		cache:    cache,
		logger:   logger.With("series", name),
		metrics:  m,
		now:      time.Now,
	}
}

// Run executes Tick immediately and then every interval.
// Blocks until ctx is canceled.
func (f *Forecaster) Run(ctx context.Context, interval time.Duration) error {
	return f.RunSchedule(ctx, cron.Every(interval))
}

// RunSchedule executes Tick immediately and then at every activation of
// schedule. Blocks until ctx is canceled.
func (f *Forecaster) RunSchedule(ctx context.Context, schedule cron.Schedule) error {
	f.logger.Info("starting forecast loop", "window", f.window)

	if _, err := f.Tick(ctx); err != nil {
		f.logger.Error("initial forecast tick failed", "error", err)
	}

	for {
		next := schedule.Next(f.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			f.logger.Info("forecast loop stopped")
			return ctx.Err()
		case <-timer.C:
			if _, err := f.Tick(ctx); err != nil {
				f.logger.Error("forecast tick failed", "error", err)
			}
		}
	}
}

// Tick performs one forecast cycle and returns the stored report.
func (f *Forecaster) Tick(ctx context.Context) (storage.Snapshot, error) {
	start := time.Now()
	f.logger.Debug("starting forecast tick")

	s, err := f.collect(ctx)
	if err != nil {
		f.recordError("adapter", "collect_failed")
		return storage.Snapshot{}, fmt.Errorf("collect: %w", err)
	}

	res, cached, err := f.run(ctx, s)
	if err != nil {
		reason := "run_failed"
		var se *pipeline.StageError
		if errors.As(err, &se) {
			reason = se.Stage + "_failed"
		}
		f.recordError("pipeline", reason)
		return storage.Snapshot{}, fmt.Errorf("pipeline: %w", err)
	}

	snapshot := storage.NewSnapshot(f.series, f.field, res, f.now())
	if err := f.store.Put(ctx, snapshot); err != nil {
		f.recordError("store", "put_failed")
		return storage.Snapshot{}, fmt.Errorf("store: %w", err)
	}

	if f.metrics != nil {
		f.metrics.RecordReport(res.Forecast.Total(), res.Metrics, snapshot.GeneratedAt)
	}

	f.logger.Info("forecast tick complete",
		"order", res.Order.String(),
		"observations", snapshot.Observations,
		"forecast_points", len(snapshot.Forecast.Points),
		"forecast_total", res.Forecast.Total(),
		"accuracy", res.Metrics.Accuracy,
		"cached", cached,
		"total_ms", time.Since(start).Milliseconds(),
	)

	return snapshot, nil
}

// collect retrieves observations from the adapter and extracts the field.
func (f *Forecaster) collect(ctx context.Context) (series.Series, error) {
	start := time.Now()

	df, err := f.adapter.Collect(ctx, int(f.window.Seconds()))
	if err != nil {
		return series.Series{}, err
	}

	duration := time.Since(start)
	if f.metrics != nil {
		f.metrics.RecordCollect(duration.Seconds())
	}

	f.logger.Info("collected observations",
		"adapter", f.adapter.Name(),
		"rows", len(df.Rows),
		"window_seconds", int(f.window.Seconds()),
		"duration_ms", duration.Milliseconds(),
	)

	return adapters.ToSeries(df, f.field, f.series)
}

// run returns the pipeline result for s, reusing the result of an earlier
// run on identical data.
func (f *Forecaster) run(ctx context.Context, s series.Series) (*pipeline.Result, bool, error) {
	key := fingerprint(s)
	if res, ok := f.cache.Get(key); ok {
		if f.metrics != nil {
			f.metrics.RecordCacheHit()
		}
		f.logger.Debug("data unchanged, reusing pipeline result")
		return res, true, nil
	}

	res, err := f.pipeline.Run(ctx, s)
	if err != nil {
		return nil, false, err
	}
	f.cache.Add(key, res)
	return res, false, nil
}

func (f *Forecaster) recordError(component, reason string) {
	if f.metrics != nil {
		f.metrics.RecordError(component, reason)
	}
}

// fingerprint hashes the timestamps and values of s.
func fingerprint(s series.Series) uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 16)
	for i, v := range s.Values {
		buf = buf[:0]
		if s.HasTimestamps() {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(s.Timestamps[i].UnixNano()))
		}
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}
