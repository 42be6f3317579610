// Package validation scores a forecast against held-out observations.
package validation

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMetric is the category of every metric computation error.
	ErrMetric = errors.New("metric error")

	ErrLengthMismatch = fmt.Errorf("%w: actual and predicted lengths differ", ErrMetric)
	ErrZeroActuals    = fmt.Errorf("%w: every actual value is zero", ErrMetric)
	ErrNonFinite      = fmt.Errorf("%w: non-finite value", ErrMetric)
)

// Metrics summarises forecast error on a test window.
//
// MAPE is in percent and ignores positions whose actual value is zero;
// those are counted in SkippedZeroActuals. Accuracy is 100 - MAPE floored
// at zero.
type Metrics struct {
	MAE                float64 `json:"mae"`
	RMSE               float64 `json:"rmse"`
	MAPE               float64 `json:"mape"`
	Accuracy           float64 `json:"accuracy"`
	N                  int     `json:"n"`
	SkippedZeroActuals int     `json:"skipped_zero_actuals"`
}

// Compute returns MAE, RMSE, MAPE and accuracy of predicted against actual.
func Compute(actual, predicted []float64) (Metrics, error) {
	if len(actual) != len(predicted) {
		return Metrics{}, fmt.Errorf("%w: %d actual vs %d predicted", ErrLengthMismatch, len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return Metrics{}, fmt.Errorf("%w: no observations", ErrLengthMismatch)
	}

	var (
		absSum, sqSum, pctSum float64
		pctN, skipped         int
	)
	for i := range actual {
		a, p := actual[i], predicted[i]
		if !finite(a) || !finite(p) {
			return Metrics{}, fmt.Errorf("%w: position %d (actual %v, predicted %v)", ErrNonFinite, i, a, p)
		}
		diff := a - p
		absSum += math.Abs(diff)
		sqSum += diff * diff
		if a == 0 {
			skipped++
			continue
		}
		pctSum += math.Abs(diff / a)
		pctN++
	}
	if pctN == 0 {
		return Metrics{}, fmt.Errorf("%w: %d observations", ErrZeroActuals, len(actual))
	}

	n := float64(len(actual))
	mape := pctSum / float64(pctN) * 100
	return Metrics{
		MAE:                absSum / n,
		RMSE:               math.Sqrt(sqSum / n),
		MAPE:               mape,
		Accuracy:           math.Min(100, math.Max(0, 100-mape)),
		N:                  len(actual),
		SkippedZeroActuals: skipped,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
