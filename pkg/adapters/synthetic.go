package adapters

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Default shape of the synthetic generator.
const (
	DefaultSyntheticPeriods = 365
	DefaultSyntheticSeed    = 42
)

// SyntheticStart is the first day generated when Start is zero.
var SyntheticStart = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

// SyntheticAdapter generates daily financial data with a trend, two
// seasonal cycles and Gaussian noise:
//
//	Sales   = linear 100000→150000 + 20000·sin(0→4π) + N(0, 5000)
//	Cost    = 0.6·Sales + N(0, 2000)
//	Revenue = 1.5·Sales
//
// The output depends only on Seed, Periods and Start.
type SyntheticAdapter struct {
	Periods int
	Seed    uint64
	Start   time.Time
}

func (s *SyntheticAdapter) Name() string { return "synthetic" }

// Collect implements Adapter. The window is ignored.
func (s *SyntheticAdapter) Collect(ctx context.Context, _ int) (*DataFrame, error) {
	if err := ctx.Err(); err != nil {
		return &DataFrame{}, err
	}

	n := s.Periods
	if n <= 0 {
		n = DefaultSyntheticPeriods
	}
	start := s.Start
	if start.IsZero() {
		start = SyntheticStart
	}

	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
	rows := make([]Row, n)
	for i := range rows {
		sales := linspace(100000, 150000, n, i) +
			20000*math.Sin(linspace(0, 4*math.Pi, n, i)) +
			rng.NormFloat64()*5000
		rows[i] = Row{
			TimestampField: start.AddDate(0, 0, i),
			"Sales":        sales,
			"Revenue":      sales * 1.5,
		}
	}
	// Cost noise follows all Sales noise in the random stream.
	for i := range rows {
		rows[i]["Cost"] = rows[i]["Sales"].(float64)*0.6 + rng.NormFloat64()*2000
	}

	return &DataFrame{Rows: rows}, nil
}

// linspace returns the i-th of n evenly spaced points from lo to hi inclusive.
func linspace(lo, hi float64, n, i int) float64 {
	if n == 1 {
		return lo
	}
	return lo + (hi-lo)*float64(i)/float64(n-1)
}
