package series

import (
	"errors"
	"math"
	"testing"
	"time"
)

func days(n int) []time.Time {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := make([]time.Time, n)
	for i := range ts {
		ts[i] = start.AddDate(0, 0, i)
	}
	return ts
}

func TestSeries_Validate(t *testing.T) {
	ts := days(3)
	tests := []struct {
		name    string
		s       Series
		wantErr error
	}{
		{name: "positional", s: New("sales", []float64{1, 2, 3})},
		{name: "timestamped", s: Series{Timestamps: ts, Values: []float64{1, 2, 3}}},
		{name: "empty", s: Series{}, wantErr: ErrEmptySeries},
		{name: "length mismatch", s: Series{Timestamps: ts[:2], Values: []float64{1, 2, 3}}, wantErr: ErrLengthMismatch},
		{
			name:    "duplicate timestamp",
			s:       Series{Timestamps: []time.Time{ts[0], ts[1], ts[1]}, Values: []float64{1, 2, 3}},
			wantErr: ErrDuplicateTimestamp,
		},
		{
			name:    "out of order",
			s:       Series{Timestamps: []time.Time{ts[0], ts[2], ts[1]}, Values: []float64{1, 2, 3}},
			wantErr: ErrUnordered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrData) {
				t.Errorf("error %v should be a data error", err)
			}
		})
	}
}

func TestSeries_SliceIsIndependent(t *testing.T) {
	s := Series{Name: "x", Timestamps: days(4), Values: []float64{1, 2, 3, 4}}
	part := s.Slice(1, 3)
	part.Values[0] = 100
	if s.Values[1] != 2 {
		t.Fatalf("Slice shares backing array with the source")
	}
	if !part.Timestamps[0].Equal(s.Timestamps[1]) {
		t.Errorf("timestamp = %v, want %v", part.Timestamps[0], s.Timestamps[1])
	}
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{name: "median odd", values: []float64{3, 1, 2}, q: 0.5, want: 2},
		{name: "median even", values: []float64{1, 2, 3, 4}, q: 0.5, want: 2.5},
		{name: "q1 interpolated", values: []float64{1, 2, 3, 4}, q: 0.25, want: 1.75},
		{name: "q3 interpolated", values: []float64{1, 2, 3, 4}, q: 0.75, want: 3.25},
		{name: "single", values: []float64{7}, q: 0.25, want: 7},
		{name: "ignores NaN", values: []float64{math.NaN(), 1, 3}, q: 0.5, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quantile(tt.values, tt.q); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Quantile() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := Quantile([]float64{math.NaN()}, 0.5); !math.IsNaN(got) {
		t.Errorf("Quantile(all NaN) = %v, want NaN", got)
	}
}
