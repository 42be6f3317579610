// Package series holds the univariate time series type used across finplan
// and the preparation steps applied before modelling: gap filling, IQR
// outlier clipping, chronological train/test splitting and differencing.
//
// Every function returns fresh slices; inputs are never modified.
package series

import (
	"fmt"
	"math"
	"time"
)

// Series is an ordered sequence of observations of one named field.
//
// Timestamps is optional. When nil the series is indexed by position; when set
// it must have the same length as Values and be strictly increasing.
// Missing observations are represented as NaN.
type Series struct {
	Name       string
	Timestamps []time.Time
	Values     []float64
}

// New creates a positional series, copying values.
func New(name string, values []float64) Series {
	return Series{Name: name, Values: clone(values)}
}

// Len returns the number of observations.
func (s Series) Len() int {
	return len(s.Values)
}

// HasTimestamps reports whether the series is indexed by time.
func (s Series) HasTimestamps() bool {
	return s.Timestamps != nil
}

// Slice returns the observations in [from, to) as an independent series.
func (s Series) Slice(from, to int) Series {
	out := Series{Name: s.Name, Values: clone(s.Values[from:to])}
	if s.Timestamps != nil {
		out.Timestamps = make([]time.Time, to-from)
		copy(out.Timestamps, s.Timestamps[from:to])
	}
	return out
}

// Clone returns a deep copy.
func (s Series) Clone() Series {
	return s.Slice(0, s.Len())
}

// Last returns the final observation.
func (s Series) Last() float64 {
	return s.Values[len(s.Values)-1]
}

// Missing counts NaN values.
func (s Series) Missing() int {
	n := 0
	for _, v := range s.Values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Validate checks structural invariants: non-empty, consistent lengths and
// strictly increasing timestamps.
func (s Series) Validate() error {
	if len(s.Values) == 0 {
		return ErrEmptySeries
	}
	if s.Timestamps == nil {
		return nil
	}
	if len(s.Timestamps) != len(s.Values) {
		return fmt.Errorf("%w: %d timestamps, %d values", ErrLengthMismatch, len(s.Timestamps), len(s.Values))
	}
	for i := 1; i < len(s.Timestamps); i++ {
		prev, cur := s.Timestamps[i-1], s.Timestamps[i]
		if cur.Equal(prev) {
			return fmt.Errorf("%w at index %d (%s)", ErrDuplicateTimestamp, i, cur.Format(time.RFC3339))
		}
		if cur.Before(prev) {
			return fmt.Errorf("%w at index %d", ErrUnordered, i)
		}
	}
	return nil
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
