package series

import (
	"fmt"
	"math"
)

const splitEpsilon = 1e-9

// Split partitions s chronologically. The first floor(n*(1-testFraction))
// observations form the training series and the rest the test series.
// Order is never shuffled.
func Split(s Series, testFraction float64) (train, test Series, err error) {
	if math.IsNaN(testFraction) || testFraction <= 0 || testFraction >= 1 {
		return Series{}, Series{}, fmt.Errorf("%w: got %v", ErrInvalidFraction, testFraction)
	}

	n := s.Len()
	// 1-0.9 is 0.0999..., so nudge exact products back onto the integer.
	at := int(math.Floor(float64(n)*(1-testFraction) + splitEpsilon))
	if at <= 0 || at >= n {
		return Series{}, Series{}, fmt.Errorf("%w: %d observations with test fraction %v leave an empty partition",
			ErrInsufficientData, n, testFraction)
	}

	return s.Slice(0, at), s.Slice(at, n), nil
}
