package series

// Difference applies the first-difference operator d times. The result is d
// observations shorter than values (empty when d >= len(values)).
func Difference(values []float64, d int) []float64 {
	out := clone(values)
	for range d {
		if len(out) == 0 {
			return out
		}
		next := make([]float64, len(out)-1)
		for i := range next {
			next[i] = out[i+1] - out[i]
		}
		out = next
	}
	return out
}

// Heads returns the first value of values differenced k times, for
// k = 0..d-1. Together with the d-times differenced series they rebuild the
// original exactly (see Integrate).
func Heads(values []float64, d int) []float64 {
	heads := make([]float64, 0, d)
	level := clone(values)
	for range d {
		if len(level) == 0 {
			break
		}
		heads = append(heads, level[0])
		level = Difference(level, 1)
	}
	return heads
}

// Tails returns the last value of values differenced k times, for
// k = 0..d-1. They seed Undifference when projecting forward.
func Tails(values []float64, d int) []float64 {
	tails := make([]float64, 0, d)
	level := clone(values)
	for range d {
		if len(level) == 0 {
			break
		}
		tails = append(tails, level[len(level)-1])
		level = Difference(level, 1)
	}
	return tails
}

// Integrate inverts Difference: given the d-times differenced series and
// the heads of each level it returns the original series, len(diffed)+d long.
func Integrate(diffed, heads []float64) []float64 {
	out := clone(diffed)
	for k := len(heads) - 1; k >= 0; k-- {
		level := make([]float64, len(out)+1)
		level[0] = heads[k]
		for i, v := range out {
			level[i+1] = level[i] + v
		}
		out = level
	}
	return out
}

// Undifference continues a series forward. future holds values on the
// d-times differenced scale that follow the observed data; tails are the
// last observed value at each level (see Tails). The result has the same
// length as future and is on the original scale.
func Undifference(future, tails []float64) []float64 {
	out := clone(future)
	for k := len(tails) - 1; k >= 0; k-- {
		last := tails[k]
		for i, v := range out {
			out[i] = last + v
			last = out[i]
		}
	}
	return out
}
