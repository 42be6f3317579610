package scenario

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Factor is a named percentage shock applied to the base forecast.
type Factor struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

// SensitivityResult is the effect of one factor on the forecast total.
type SensitivityResult struct {
	Factor      string    `json:"factor"`
	Percent     float64   `json:"percent"`
	Impacts     []float64 `json:"impacts"`
	ResultTotal float64   `json:"result_total"`
	Delta       float64   `json:"delta"`
}

// Sensitivity applies each factor independently to the base forecast. The
// result keeps the order of factors.
func Sensitivity(values []float64, factors []Factor) ([]SensitivityResult, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: sensitivity needs a base forecast", ErrEmptyForecast)
	}

	seen := make(map[string]struct{}, len(factors))
	for _, f := range factors {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: empty factor name", ErrInvalidName)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("%w: factor %q", ErrDuplicateName, f.Name)
		}
		if math.IsNaN(f.Percent) || math.IsInf(f.Percent, 0) {
			return nil, fmt.Errorf("%w: factor %q has %v%%", ErrInvalidRate, f.Name, f.Percent)
		}
		seen[f.Name] = struct{}{}
	}

	base := floats.Sum(values)
	out := make([]SensitivityResult, len(factors))
	for i, f := range factors {
		impacts := make([]float64, len(values))
		for j, v := range values {
			impacts[j] = v * f.Percent / 100
		}
		total := base * (1 + f.Percent/100)
		out[i] = SensitivityResult{
			Factor:      f.Name,
			Percent:     f.Percent,
			Impacts:     impacts,
			ResultTotal: total,
			Delta:       total - base,
		}
	}
	return out, nil
}

// ParseFactors parses "Name=percent" pairs separated by commas, e.g.
// "Price=5,Volume=-3".
func ParseFactors(s string) ([]Factor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []Factor
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q is not name=percent", ErrInvalidName, pair)
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%")), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: factor %q: %v", ErrInvalidRate, name, err)
		}
		out = append(out, Factor{Name: name, Percent: pct})
	}
	return out, nil
}
