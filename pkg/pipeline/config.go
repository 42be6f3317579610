package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/HatiCode/finplan/pkg/budget"
	"github.com/HatiCode/finplan/pkg/models"
	"github.com/HatiCode/finplan/pkg/scenario"
	"github.com/HatiCode/finplan/pkg/series"
)

// ErrConfig is returned, wrapped, for every invalid configuration value.
var ErrConfig = errors.New("invalid pipeline config")

// Default values of a pipeline run.
const (
	DefaultHorizon      = 30
	DefaultTestFraction = 0.2
)

// Config controls one pipeline run.
type Config struct {
	// Order fixes the model order. Nil selects it by AIC within Search.
	Order  *models.Order
	Search models.SearchOptions

	Horizon           int
	Confidence        float64
	TestFraction      float64
	OutlierMultiplier float64

	GrowthRate  float64
	DeclineRate float64
	Custom      []scenario.CustomSpec
	Factors     []scenario.Factor

	Shares       []budget.Share
	RoundingUnit float64
	// RoundingMode is "round", "floor" or "ceil"; only used with RoundingUnit > 0.
	RoundingMode string
}

// DefaultConfig returns automatic order selection over p,q <= 5 and d <= 2,
// a 30 period horizon at 95% confidence, an 80/20 split, 1.5 IQR clipping,
// ±15% scenarios and the default budget shares.
func DefaultConfig() Config {
	return Config{
		Search:            models.DefaultSearchOptions(),
		Horizon:           DefaultHorizon,
		Confidence:        models.DefaultConfidence,
		TestFraction:      DefaultTestFraction,
		OutlierMultiplier: series.DefaultOutlierMultiplier,
		GrowthRate:        scenario.DefaultGrowthRate,
		DeclineRate:       scenario.DefaultDeclineRate,
		Shares:            budget.DefaultShares(),
	}
}

// Validate checks every field so that a run never fails on configuration
// halfway through.
func (c Config) Validate() error {
	s := c.Search
	if s.MaxP < 0 || s.MaxD < 0 || s.MaxQ < 0 {
		return fmt.Errorf("%w: search bounds (%d,%d,%d) must be >= 0", ErrConfig, s.MaxP, s.MaxD, s.MaxQ)
	}
	if c.Order != nil {
		if err := c.Order.Validate(s.MaxP, s.MaxD, s.MaxQ); err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("%w: horizon must be > 0, got %d", ErrConfig, c.Horizon)
	}
	if !(c.Confidence > 0 && c.Confidence < 1) {
		return fmt.Errorf("%w: confidence must be in (0, 1), got %v", ErrConfig, c.Confidence)
	}
	if !(c.TestFraction > 0 && c.TestFraction < 1) {
		return fmt.Errorf("%w: test fraction must be in (0, 1), got %v", ErrConfig, c.TestFraction)
	}
	if !(c.OutlierMultiplier > 0) || math.IsInf(c.OutlierMultiplier, 0) {
		return fmt.Errorf("%w: outlier multiplier must be > 0, got %v", ErrConfig, c.OutlierMultiplier)
	}
	if !(c.GrowthRate > -1) || math.IsInf(c.GrowthRate, 0) {
		return fmt.Errorf("%w: growth rate must be > -1, got %v", ErrConfig, c.GrowthRate)
	}
	if !(c.DeclineRate > -1 && c.DeclineRate < 1) {
		return fmt.Errorf("%w: decline rate must be in (-1, 1), got %v", ErrConfig, c.DeclineRate)
	}

	names := map[string]struct{}{
		scenario.BaseName:                       {},
		scenario.OptimisticName(c.GrowthRate):   {},
		scenario.PessimisticName(c.DeclineRate): {},
	}
	for _, cs := range c.Custom {
		if cs.Name == "" {
			return fmt.Errorf("%w: custom scenario without a name", ErrConfig)
		}
		if _, dup := names[cs.Name]; dup {
			return fmt.Errorf("%w: duplicate scenario name %q", ErrConfig, cs.Name)
		}
		names[cs.Name] = struct{}{}
		if !(cs.Multiplier > 0) || math.IsInf(cs.Multiplier, 0) {
			return fmt.Errorf("%w: scenario %q multiplier must be > 0", ErrConfig, cs.Name)
		}
	}

	factors := make(map[string]struct{}, len(c.Factors))
	for _, f := range c.Factors {
		if f.Name == "" {
			return fmt.Errorf("%w: sensitivity factor without a name", ErrConfig)
		}
		if _, dup := factors[f.Name]; dup {
			return fmt.Errorf("%w: duplicate factor %q", ErrConfig, f.Name)
		}
		factors[f.Name] = struct{}{}
	}

	if err := budget.ValidateShares(c.Shares); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if c.RoundingUnit < 0 || math.IsNaN(c.RoundingUnit) {
		return fmt.Errorf("%w: rounding unit must be >= 0, got %v", ErrConfig, c.RoundingUnit)
	}
	switch c.RoundingMode {
	case "", "round", "floor", "ceil":
	default:
		return fmt.Errorf("%w: unknown rounding mode %q", ErrConfig, c.RoundingMode)
	}
	return nil
}
