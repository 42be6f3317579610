package series

import (
	"fmt"
	"math"
	"time"
)

// DefaultOutlierMultiplier is the Tukey fence width used when
// PrepareOptions.OutlierMultiplier is zero.
const DefaultOutlierMultiplier = 1.5

// PrepareOptions controls Prepare.
type PrepareOptions struct {
	// OutlierMultiplier is k in [Q1 - k*IQR, Q3 + k*IQR]. Zero selects
	// DefaultOutlierMultiplier; negative values are rejected.
	OutlierMultiplier float64

	// SkipClipping disables outlier clipping entirely.
	SkipClipping bool
}

// PrepareStats describes what Prepare changed.
type PrepareStats struct {
	Filled  int     `json:"filled"`
	Dropped int     `json:"dropped"`
	Clipped int     `json:"clipped"`
	Q1      float64 `json:"q1"`
	Q3      float64 `json:"q3"`
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
}

// Prepare returns a cleaned copy of s ready for modelling.
//
// Missing values are forward-filled, then backward-filled. A position that
// has no observed value on either side cannot be filled and is dropped, so
// no value outside the series' own observations is ever invented. Values
// outside the IQR fences are clipped to the nearest fence; clipping keeps
// the length and alignment of the series.
func Prepare(s Series, opts PrepareOptions) (Series, PrepareStats, error) {
	var stats PrepareStats

	if err := s.Validate(); err != nil {
		return Series{}, stats, err
	}

	k := opts.OutlierMultiplier
	if k == 0 {
		k = DefaultOutlierMultiplier
	}
	if k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return Series{}, stats, fmt.Errorf("%w: got %v", ErrInvalidMultiplier, opts.OutlierMultiplier)
	}

	filled, nFilled := fill(s.Values)
	stats.Filled = nFilled

	out := Series{Name: s.Name}
	if s.Timestamps != nil {
		out.Timestamps = make([]time.Time, 0, len(filled))
	}
	out.Values = make([]float64, 0, len(filled))
	for i, v := range filled {
		if math.IsNaN(v) {
			stats.Dropped++
			continue
		}
		out.Values = append(out.Values, v)
		if s.Timestamps != nil {
			out.Timestamps = append(out.Timestamps, s.Timestamps[i])
		}
	}
	if len(out.Values) == 0 {
		return Series{}, stats, fmt.Errorf("%w: field %q", ErrAllMissing, s.Name)
	}

	if opts.SkipClipping {
		return out, stats, nil
	}

	stats.Q1, stats.Q3, stats.Lower, stats.Upper = IQRBounds(out.Values, k)
	out.Values, stats.Clipped = Clip(out.Values, stats.Lower, stats.Upper)

	return out, stats, nil
}

// Clip bounds every value to [lower, upper] and reports how many changed.
func Clip(values []float64, lower, upper float64) ([]float64, int) {
	out := make([]float64, len(values))
	n := 0
	for i, v := range values {
		switch {
		case v < lower:
			out[i] = lower
			n++
		case v > upper:
			out[i] = upper
			n++
		default:
			out[i] = v
		}
	}
	return out, n
}

// fill forward-fills and then backward-fills NaNs. Positions still NaN
// afterwards had no observation to copy.
func fill(values []float64) ([]float64, int) {
	out := clone(values)
	n := 0

	last := math.NaN()
	for i, v := range out {
		if math.IsNaN(v) {
			if !math.IsNaN(last) {
				out[i] = last
				n++
			}
			continue
		}
		last = v
	}

	next := math.NaN()
	for i := len(out) - 1; i >= 0; i-- {
		if math.IsNaN(out[i]) {
			if !math.IsNaN(next) {
				out[i] = next
				n++
			}
			continue
		}
		next = out[i]
	}

	return out, n
}
