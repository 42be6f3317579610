package scenario

import (
	"errors"
	"fmt"
)

// ErrScenario is the category of every scenario error.
var ErrScenario = errors.New("scenario error")

var (
	ErrInvalidRate       = fmt.Errorf("%w: invalid rate", ErrScenario)
	ErrInvalidMultiplier = fmt.Errorf("%w: multiplier must be > 0", ErrScenario)
	ErrInvalidName       = fmt.Errorf("%w: invalid name", ErrScenario)
	ErrDuplicateName     = fmt.Errorf("%w: duplicate name", ErrScenario)
	ErrEmptyForecast     = fmt.Errorf("%w: empty forecast", ErrScenario)
)
