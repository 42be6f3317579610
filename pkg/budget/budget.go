// Package budget splits a forecast total across spending categories by
// fixed percentage shares.
package budget

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrBudget is the category of every budget error.
var ErrBudget = errors.New("budget error")

var (
	ErrInvalidAllocation = fmt.Errorf("%w: invalid allocation", ErrBudget)
	ErrInvalidPeriods    = fmt.Errorf("%w: periods must be >= 1", ErrBudget)
)

// shareTolerance is how far the shares may drift from 100 in total.
const shareTolerance = 0.01

// Share is the percentage of the total assigned to a category.
type Share struct {
	Category string  `json:"category"`
	Percent  float64 `json:"percent"`
}

// Allocation is the amount planned for one category.
type Allocation struct {
	Category  string  `json:"category"`
	Percent   float64 `json:"percent"`
	Amount    float64 `json:"amount"`
	PerPeriod float64 `json:"per_period"`
}

// Plan is a complete allocation of Total over Periods. Allocations follow
// the order of the shares they were computed from.
type Plan struct {
	Total       float64      `json:"total"`
	Periods     int          `json:"periods"`
	Allocations []Allocation `json:"allocations"`
}

// DefaultShares returns Operations 40%, Marketing 25%, R&D 20% and
// Administration 15%.
func DefaultShares() []Share {
	return []Share{
		{Category: "Operations", Percent: 40},
		{Category: "Marketing", Percent: 25},
		{Category: "R&D", Percent: 20},
		{Category: "Administration", Percent: 15},
	}
}

type options struct {
	unit float64
	mode string
}

// Option configures Allocate.
type Option func(*options)

// WithRounding rounds every amount to a multiple of unit (e.g. 0.01 for
// cents). mode is "round" (default), "floor" or "ceil". The difference
// between the rounded amounts and the total goes to the largest share.
func WithRounding(unit float64, mode string) Option {
	return func(o *options) {
		o.unit = unit
		o.mode = mode
	}
}

// Allocate splits total across the shares. Shares must be non-negative,
// uniquely named and sum to 100 within 0.01. Amounts are proportional to
// the actual share sum, so they always add up to total.
func Allocate(total float64, periods int, shares []Share, opts ...Option) (Plan, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if periods < 1 {
		return Plan{}, fmt.Errorf("%w: got %d", ErrInvalidPeriods, periods)
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return Plan{}, fmt.Errorf("%w: total %v is not finite", ErrInvalidAllocation, total)
	}
	if o.unit < 0 || math.IsNaN(o.unit) || math.IsInf(o.unit, 0) {
		return Plan{}, fmt.Errorf("%w: rounding unit %v", ErrInvalidAllocation, o.unit)
	}
	if err := ValidateShares(shares); err != nil {
		return Plan{}, err
	}

	var shareSum float64
	for _, s := range shares {
		shareSum += s.Percent
	}

	plan := Plan{Total: total, Periods: periods, Allocations: make([]Allocation, len(shares))}
	largest := 0
	var sum float64
	for i, s := range shares {
		amount := total * s.Percent / shareSum
		if o.unit > 0 {
			amount = roundTo(amount, o.unit, o.mode)
		}
		plan.Allocations[i] = Allocation{Category: s.Category, Percent: s.Percent, Amount: amount}
		sum += amount
		if s.Percent > shares[largest].Percent {
			largest = i
		}
	}
	if o.unit > 0 {
		plan.Allocations[largest].Amount += total - sum
	}
	for i := range plan.Allocations {
		plan.Allocations[i].PerPeriod = plan.Allocations[i].Amount / float64(periods)
	}
	return plan, nil
}

// ValidateShares checks that shares form a complete allocation.
func ValidateShares(shares []Share) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: no shares", ErrInvalidAllocation)
	}
	seen := make(map[string]struct{}, len(shares))
	var sum float64
	for _, s := range shares {
		if s.Category == "" {
			return fmt.Errorf("%w: empty category", ErrInvalidAllocation)
		}
		if _, dup := seen[s.Category]; dup {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidAllocation, s.Category)
		}
		seen[s.Category] = struct{}{}
		if math.IsNaN(s.Percent) || math.IsInf(s.Percent, 0) || s.Percent < 0 {
			return fmt.Errorf("%w: category %q has share %v", ErrInvalidAllocation, s.Category, s.Percent)
		}
		sum += s.Percent
	}
	if math.Abs(sum-100) > shareTolerance+1e-9 {
		return fmt.Errorf("%w: shares sum to %v, want 100", ErrInvalidAllocation, sum)
	}
	return nil
}

// ParseShares parses "Category=percent" pairs separated by commas, e.g.
// "Operations=40,Marketing=25,R&D=20,Administration=15". The result is not
// validated; Allocate does that.
func ParseShares(s string) ([]Share, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: no shares", ErrInvalidAllocation)
	}

	var out []Share
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q is not category=percent", ErrInvalidAllocation, pair)
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(value), "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: category %q: %v", ErrInvalidAllocation, name, err)
		}
		out = append(out, Share{Category: name, Percent: pct})
	}
	return out, nil
}

func roundTo(x, unit float64, mode string) float64 {
	steps := x / unit
	switch mode {
	case "floor":
		steps = math.Floor(steps)
	case "ceil":
		steps = math.Ceil(steps)
	default:
		steps = math.Round(steps)
	}
	return steps * unit
}
