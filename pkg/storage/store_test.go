package storage

import (
	"context"
	"testing"
	"time"

	"github.com/HatiCode/finplan/pkg/adapters"
	"github.com/HatiCode/finplan/pkg/models"
	"github.com/HatiCode/finplan/pkg/pipeline"
	"github.com/HatiCode/finplan/pkg/series"
)

func TestNewSnapshot(t *testing.T) {
	df, err := (&adapters.SyntheticAdapter{Periods: 120}).Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	s, err := adapters.ToSeries(df, "Sales", "Sales")
	if err != nil {
		t.Fatalf("ToSeries() error = %v", err)
	}

	cfg := pipeline.DefaultConfig()
	cfg.Order = &models.Order{P: 1, D: 1, Q: 0}
	cfg.Horizon = 10
	p, err := pipeline.New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := NewSnapshot("sales", "Sales", res, now)

	if snap.Series != "sales" || snap.Field != "Sales" || !snap.GeneratedAt.Equal(now) {
		t.Errorf("identity fields = %q %q %v", snap.Series, snap.Field, snap.GeneratedAt)
	}
	if snap.Observations != 120 {
		t.Errorf("Observations = %d, want 120", snap.Observations)
	}
	if snap.Order != *cfg.Order {
		t.Errorf("Order = %v, want %v", snap.Order, *cfg.Order)
	}
	if snap.AIC != res.Model.AIC() {
		t.Errorf("AIC = %v, want %v", snap.AIC, res.Model.AIC())
	}
	if len(snap.Forecast.Points) != 10 || len(snap.Dates) != 10 {
		t.Fatalf("got %d points and %d dates, want 10", len(snap.Forecast.Points), len(snap.Dates))
	}
	last := s.Timestamps[len(s.Timestamps)-1]
	if want := last.AddDate(0, 0, 1); !snap.Dates[0].Equal(want) {
		t.Errorf("Dates[0] = %v, want %v", snap.Dates[0], want)
	}
	if len(snap.Comparison) != 3 {
		t.Errorf("Comparison has %d rows, want 3", len(snap.Comparison))
	}
	if len(snap.Budget.Allocations) != 4 {
		t.Errorf("Budget has %d allocations, want 4", len(snap.Budget.Allocations))
	}
}

func TestForecastDates(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	hour := func(h int) time.Time { return time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		s       series.Series
		horizon int
		want    []time.Time
	}{
		{"positional", series.New("x", []float64{1, 2, 3}), 2, nil},
		{"daily", series.Series{Timestamps: []time.Time{day(1), day(2)}, Values: []float64{1, 2}}, 2, []time.Time{day(3), day(4)}},
		{"weekly", series.Series{Timestamps: []time.Time{day(1), day(8)}, Values: []float64{1, 2}}, 1, []time.Time{day(15)}},
		{"hourly", series.Series{Timestamps: []time.Time{hour(1), hour(2)}, Values: []float64{1, 2}}, 2, []time.Time{hour(3), hour(4)}},
		{"zero horizon", series.Series{Timestamps: []time.Time{day(1), day(2)}, Values: []float64{1, 2}}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := forecastDates(tt.s, tt.horizon)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d dates, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("date %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
