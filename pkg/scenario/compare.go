package scenario

import (
	"fmt"

	"github.com/HatiCode/finplan/pkg/series"
)

// Comparison is one row of the scenario comparison table.
type Comparison struct {
	Name   string  `json:"name"`
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Total  float64 `json:"total"`
}

// Summary describes the distribution of a scenario's values.
type Summary struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Compare tabulates the statistics of each scenario in input order.
// Scenario names must be unique.
func Compare(scenarios []Scenario) ([]Comparison, error) {
	if err := uniqueNames(scenarios); err != nil {
		return nil, err
	}
	out := make([]Comparison, len(scenarios))
	for i, s := range scenarios {
		out[i] = Comparison{
			Name:   s.Name,
			Min:    s.Stats.Min,
			Mean:   s.Stats.Mean,
			Max:    s.Stats.Max,
			StdDev: s.Stats.StdDev,
			Total:  s.Stats.Total,
		}
	}
	return out, nil
}

// Summarize returns count, mean, standard deviation, extremes and
// quartiles of every scenario in input order.
func Summarize(scenarios []Scenario) ([]Summary, error) {
	if err := uniqueNames(scenarios); err != nil {
		return nil, err
	}
	out := make([]Summary, len(scenarios))
	for i, s := range scenarios {
		out[i] = Summary{
			Name:   s.Name,
			Count:  len(s.Values),
			Mean:   s.Stats.Mean,
			StdDev: s.Stats.StdDev,
			Min:    s.Stats.Min,
			Q25:    series.Quantile(s.Values, 0.25),
			Median: series.Quantile(s.Values, 0.5),
			Q75:    series.Quantile(s.Values, 0.75),
			Max:    s.Stats.Max,
		}
	}
	return out, nil
}

func uniqueNames(scenarios []Scenario) error {
	seen := make(map[string]struct{}, len(scenarios))
	for _, s := range scenarios {
		if s.Name == "" {
			return fmt.Errorf("%w: empty scenario name", ErrInvalidName)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
