package models

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// aicTolerance is the relative AIC distance under which two candidates are
// considered tied.
const aicTolerance = 1e-9

// SearchOptions bounds the automatic order search. Zero values select the
// package defaults; Workers <= 0 uses GOMAXPROCS.
type SearchOptions struct {
	MaxP    int
	MaxD    int
	MaxQ    int
	Workers int
}

// DefaultSearchOptions returns bounds p,q <= 5 and d <= 2.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{MaxP: DefaultMaxP, MaxD: DefaultMaxD, MaxQ: DefaultMaxQ}
}

// Candidate is the outcome of fitting one order of the grid.
type Candidate struct {
	Order Order   `json:"order"`
	AIC   float64 `json:"aic"`
	Err   error   `json:"-"`
}

// SearchResult summarises an automatic order search.
type SearchResult struct {
	Best       Order        `json:"best"`
	AIC        float64      `json:"aic"`
	Evaluated  int          `json:"evaluated"`
	Failed     int          `json:"failed"`
	Candidates []Candidate  `json:"-"`
	Model      *FittedModel `json:"-"`
}

// AutoOrder fits every order with p in [0,MaxP], d in [0,MaxD] and q in
// [0,MaxQ] and returns the one with the lowest AIC. Ties within a relative
// tolerance go to the smaller p+d+q, then the smaller p, q and d in that
// order. Orders that fail to fit are skipped and counted.
//
// Candidates are fitted concurrently; the selection does not depend on the
// completion order so the result equals a sequential search.
func AutoOrder(ctx context.Context, values []float64, opts SearchOptions) (SearchResult, error) {
	if opts.MaxP < 0 || opts.MaxD < 0 || opts.MaxQ < 0 {
		return SearchResult{}, fmt.Errorf("%w: negative search bound (%d,%d,%d)",
			ErrInvalidOrder, opts.MaxP, opts.MaxD, opts.MaxQ)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	grid := make([]Order, 0, (opts.MaxP+1)*(opts.MaxD+1)*(opts.MaxQ+1))
	for p := 0; p <= opts.MaxP; p++ {
		for d := 0; d <= opts.MaxD; d++ {
			for q := 0; q <= opts.MaxQ; q++ {
				grid = append(grid, Order{P: p, D: d, Q: q})
			}
		}
	}

	candidates := make([]Candidate, len(grid))
	fitted := make([]*FittedModel, len(grid))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, order := range grid {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			model, err := Fit(values, order)
			if err != nil {
				candidates[i] = Candidate{Order: order, AIC: math.Inf(1), Err: err}
				return nil
			}
			candidates[i] = Candidate{Order: order, AIC: model.AIC()}
			fitted[i] = model
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{Evaluated: len(grid), Candidates: candidates}
	best := -1
	for i, c := range candidates {
		if c.Err != nil {
			result.Failed++
			continue
		}
		if best < 0 || better(c, candidates[best]) {
			best = i
		}
	}
	if best < 0 {
		return result, fmt.Errorf("%w: all %d candidates failed", ErrNoFittableOrder, len(grid))
	}

	result.Best = candidates[best].Order
	result.AIC = candidates[best].AIC
	result.Model = fitted[best]
	return result, nil
}

// better reports whether a should be preferred over b.
func better(a, b Candidate) bool {
	if math.IsInf(a.AIC, 0) || math.IsInf(b.AIC, 0) {
		if a.AIC != b.AIC {
			return a.AIC < b.AIC
		}
	}
	scale := math.Max(1, math.Max(math.Abs(a.AIC), math.Abs(b.AIC)))
	if math.Abs(a.AIC-b.AIC) > aicTolerance*scale {
		return a.AIC < b.AIC
	}
	if a.Order.Terms() != b.Order.Terms() {
		return a.Order.Terms() < b.Order.Terms()
	}
	if a.Order.P != b.Order.P {
		return a.Order.P < b.Order.P
	}
	if a.Order.Q != b.Order.Q {
		return a.Order.Q < b.Order.Q
	}
	return a.Order.D < b.Order.D
}
