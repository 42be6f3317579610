// Package scenario derives planning variants from a base forecast and
// measures how sensitive its total is to percentage shocks.
package scenario

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Default rates of the optimistic and pessimistic scenarios.
const (
	DefaultGrowthRate  = 0.15
	DefaultDeclineRate = 0.15
)

// BaseName labels the unmodified forecast.
const BaseName = "Base Forecast"

// Kind is the transform a scenario applies to the base forecast.
type Kind string

const (
	KindBase       Kind = "base"
	KindGrowth     Kind = "growth"
	KindDecline    Kind = "decline"
	KindMultiplier Kind = "multiplier"
)

// Stats are the summary statistics of a scenario's values. StdDev is the
// population standard deviation.
type Stats struct {
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	Total  float64 `json:"total"`
	StdDev float64 `json:"std_dev"`
}

// Scenario is a forecast variant obtained by scaling every value of the
// base forecast by Multiplier.
type Scenario struct {
	Name       string    `json:"name"`
	Kind       Kind      `json:"kind"`
	Rate       float64   `json:"rate,omitempty"`
	Multiplier float64   `json:"multiplier"`
	Values     []float64 `json:"values"`
	Stats      Stats     `json:"stats"`
}

// Option customises a scenario constructor.
type Option func(*Scenario)

// WithName overrides the generated scenario name.
func WithName(name string) Option {
	return func(s *Scenario) {
		s.Name = name
	}
}

// Base wraps the forecast itself.
func Base(values []float64, opts ...Option) (Scenario, error) {
	return build(values, Scenario{Name: BaseName, Kind: KindBase, Multiplier: 1}, opts)
}

// Optimistic scales the forecast by 1+rate. The rate must be finite and
// greater than -1.
func Optimistic(values []float64, rate float64, opts ...Option) (Scenario, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= -1 {
		return Scenario{}, fmt.Errorf("%w: growth rate %v", ErrInvalidRate, rate)
	}
	return build(values, Scenario{Name: OptimisticName(rate), Kind: KindGrowth, Rate: rate, Multiplier: 1 + rate}, opts)
}

// Pessimistic scales the forecast by 1-rate. The rate must be finite and
// lie in (-1, 1) so the values keep their sign.
func Pessimistic(values []float64, rate float64, opts ...Option) (Scenario, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= -1 || rate >= 1 {
		return Scenario{}, fmt.Errorf("%w: decline rate %v", ErrInvalidRate, rate)
	}
	return build(values, Scenario{Name: PessimisticName(rate), Kind: KindDecline, Rate: rate, Multiplier: 1 - rate}, opts)
}

// OptimisticName is the generated name of Optimistic(values, rate).
func OptimisticName(rate float64) string {
	return fmt.Sprintf("Optimistic (%s Growth)", formatPercent(rate))
}

// PessimisticName is the generated name of Pessimistic(values, rate).
func PessimisticName(rate float64) string {
	return fmt.Sprintf("Pessimistic (%s Decline)", formatPercent(rate))
}

// Custom scales the forecast by an arbitrary positive multiplier.
func Custom(values []float64, multiplier float64, name string) (Scenario, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier <= 0 {
		return Scenario{}, fmt.Errorf("%w: %q has %v", ErrInvalidMultiplier, name, multiplier)
	}
	return build(values, Scenario{Name: name, Kind: KindMultiplier, Multiplier: multiplier}, nil)
}

// CustomSpec names a multiplier for Custom.
type CustomSpec struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// ParseCustom parses "Name=multiplier" pairs separated by commas, e.g.
// "Stretch=1.3,Cautious=0.9".
func ParseCustom(s string) ([]CustomSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []CustomSpec
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q is not name=multiplier", ErrInvalidName, pair)
		}
		m, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidMultiplier, name, err)
		}
		out = append(out, CustomSpec{Name: name, Multiplier: m})
	}
	return out, nil
}

func build(values []float64, s Scenario, opts []Option) (Scenario, error) {
	for _, opt := range opts {
		opt(&s)
	}
	if s.Name == "" {
		return Scenario{}, fmt.Errorf("%w: empty scenario name", ErrInvalidName)
	}
	if len(values) == 0 {
		return Scenario{}, fmt.Errorf("%w: scenario %q", ErrEmptyForecast, s.Name)
	}

	s.Values = make([]float64, len(values))
	for i, v := range values {
		s.Values[i] = v * s.Multiplier
	}
	s.Stats = computeStats(s.Values)
	return s, nil
}

func computeStats(values []float64) Stats {
	return Stats{
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Total:  floats.Sum(values),
		Mean:   stat.Mean(values, nil),
		StdDev: stat.PopStdDev(values, nil),
	}
}

func formatPercent(rate float64) string {
	return strconv.FormatFloat(math.Round(rate*10000)/100, 'f', -1, 64) + "%"
}
