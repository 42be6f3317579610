package series

import (
	"errors"
	"fmt"
)

// ErrData is the category of every error reported while validating or
// preparing a series.
var ErrData = errors.New("data error")

var (
	ErrEmptySeries        = fmt.Errorf("%w: empty series", ErrData)
	ErrAllMissing         = fmt.Errorf("%w: every value is missing", ErrData)
	ErrInsufficientData   = fmt.Errorf("%w: insufficient data", ErrData)
	ErrDuplicateTimestamp = fmt.Errorf("%w: duplicate timestamp", ErrData)
	ErrUnordered          = fmt.Errorf("%w: timestamps out of order", ErrData)
	ErrLengthMismatch     = fmt.Errorf("%w: timestamps and values differ in length", ErrData)
	ErrInvalidFraction    = fmt.Errorf("%w: test fraction must be in (0, 1)", ErrData)
	ErrInvalidMultiplier  = fmt.Errorf("%w: outlier multiplier must be > 0", ErrData)
)
