package series

import (
	"math"
	"slices"
)

// Quantile returns the q-th quantile (0 <= q <= 1) of values using linear
// interpolation between the closest order statistics, the default of
// NumPy/pandas (Hyndman-Fan definition 7). NaN values are ignored; the result
// is NaN when no finite value remains.
func Quantile(values []float64, q float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 || q < 0 || q > 1 {
		return math.NaN()
	}
	slices.Sort(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// IQRBounds returns Q1, Q3 and the clipping interval
// [Q1 - k*IQR, Q3 + k*IQR].
func IQRBounds(values []float64, k float64) (q1, q3, lower, upper float64) {
	q1 = Quantile(values, 0.25)
	q3 = Quantile(values, 0.75)
	iqr := q3 - q1
	return q1, q3, q1 - k*iqr, q3 + k*iqr
}
