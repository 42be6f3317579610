package models

import (
	"errors"
	"fmt"
)

var (
	// ErrFit is the category of every model estimation error.
	ErrFit = errors.New("fit error")

	// ErrForecast is the category of every forecasting error.
	ErrForecast = errors.New("forecast error")
)

var (
	ErrInvalidOrder     = fmt.Errorf("%w: invalid order", ErrFit)
	ErrInsufficientData = fmt.Errorf("%w: series too short for order", ErrFit)
	ErrSingularMatrix   = fmt.Errorf("%w: singular normal equations", ErrFit)
	ErrNonConvergent    = fmt.Errorf("%w: estimation diverged", ErrFit)
	ErrNoFittableOrder  = fmt.Errorf("%w: no fittable order in search grid", ErrFit)

	ErrInvalidHorizon    = fmt.Errorf("%w: horizon must be > 0", ErrForecast)
	ErrInvalidConfidence = fmt.Errorf("%w: confidence level must be in (0, 1)", ErrForecast)
)

// FitError reports a failed fit together with the order that was attempted.
type FitError struct {
	Order Order
	Err   error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Order, e.Err)
}

func (e *FitError) Unwrap() error {
	return e.Err
}

func fitErr(order Order, format string, args ...any) error {
	return &FitError{Order: order, Err: fmt.Errorf(format, args...)}
}
