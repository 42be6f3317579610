// Package storage keeps the latest forecast report of each series so the
// HTTP API can serve it without rerunning the pipeline.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HatiCode/finplan/pkg/budget"
	"github.com/HatiCode/finplan/pkg/models"
	"github.com/HatiCode/finplan/pkg/pipeline"
	"github.com/HatiCode/finplan/pkg/scenario"
	"github.com/HatiCode/finplan/pkg/series"
	"github.com/HatiCode/finplan/pkg/validation"
)

// Snapshot is the serialisable report of one pipeline run. Fitted models
// are not part of it.
type Snapshot struct {
	Series       string    `json:"series"`
	Field        string    `json:"field"`
	GeneratedAt  time.Time `json:"generated_at"`
	Observations int       `json:"observations"`

	Order   models.Order        `json:"order"`
	AIC     float64             `json:"aic"`
	Prepare series.PrepareStats `json:"prepare"`
	Metrics validation.Metrics  `json:"metrics"`

	Forecast models.Forecast `json:"forecast"`
	// Dates of the forecast points, when the input carried timestamps.
	Dates []time.Time `json:"dates,omitempty"`

	Comparison  []scenario.Comparison        `json:"comparison"`
	Sensitivity []scenario.SensitivityResult `json:"sensitivity,omitempty"`
	Budget      budget.Plan                  `json:"budget"`
}

// Store keeps the latest snapshot per series.
type Store interface {
	Put(ctx context.Context, snapshot Snapshot) error
	GetLatest(ctx context.Context, series string) (Snapshot, bool, error)
}

// NewSnapshot builds the report of a completed run.
func NewSnapshot(name, field string, res *pipeline.Result, now time.Time) Snapshot {
	s := Snapshot{
		Series:       name,
		Field:        field,
		GeneratedAt:  now,
		Observations: res.Prepared.Len(),
		Order:        res.Order,
		Prepare:      res.PrepareStats,
		Metrics:      res.Metrics,
		Forecast:     res.Forecast,
		Comparison:   res.Comparison,
		Sensitivity:  res.Sensitivity,
		Budget:       res.Budget,
	}
	if res.Model != nil {
		s.AIC = res.Model.AIC()
	}
	s.Dates = forecastDates(res.Prepared, len(res.Forecast.Points))
	return s
}

// forecastDates continues the timestamps of s by its last spacing.
func forecastDates(s series.Series, horizon int) []time.Time {
	n := len(s.Timestamps)
	if n < 2 || horizon == 0 {
		return nil
	}
	last := s.Timestamps[n-1]
	prev := s.Timestamps[n-2]

	out := make([]time.Time, horizon)
	for i := range out {
		// Daily and coarser data is stepped by calendar days so month
		// lengths and DST shifts do not accumulate.
		if step := last.Sub(prev); step%(24*time.Hour) == 0 {
			out[i] = last.AddDate(0, 0, int(step/(24*time.Hour))*(i+1))
		} else {
			out[i] = last.Add(step * time.Duration(i+1))
		}
	}
	return out
}

func validateSeriesName(name string) error {
	if name == "" {
		return errors.New("series name required")
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '_') {
			return fmt.Errorf("invalid series name %q: only alphanumeric, hyphens, and underscores allowed", name)
		}
	}
	return nil
}
