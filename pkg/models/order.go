package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Default bounds of the automatic order search.
const (
	DefaultMaxP = 5
	DefaultMaxD = 2
	DefaultMaxQ = 5
)

// Order is an ARIMA(p,d,q) order:
//   - P: autoregressive terms
//   - D: differencing degree
//   - Q: moving-average terms
type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// String returns the order as "arima(p,d,q)".
func (o Order) String() string {
	return fmt.Sprintf("arima(%d,%d,%d)", o.P, o.D, o.Q)
}

// Terms returns p+d+q, the complexity used to break AIC ties.
func (o Order) Terms() int {
	return o.P + o.D + o.Q
}

// Validate checks that every term is non-negative and within the given
// maxima. A negative maximum disables that bound.
func (o Order) Validate(maxP, maxD, maxQ int) error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return fmt.Errorf("%w: %s has a negative term", ErrInvalidOrder, o)
	}
	if maxP >= 0 && o.P > maxP {
		return fmt.Errorf("%w: p=%d exceeds max %d", ErrInvalidOrder, o.P, maxP)
	}
	if maxD >= 0 && o.D > maxD {
		return fmt.Errorf("%w: d=%d exceeds max %d", ErrInvalidOrder, o.D, maxD)
	}
	if maxQ >= 0 && o.Q > maxQ {
		return fmt.Errorf("%w: q=%d exceeds max %d", ErrInvalidOrder, o.Q, maxQ)
	}
	return nil
}

// ParseOrder parses "p,d,q", "(p,d,q)" or "arima(p,d,q)".
func ParseOrder(s string) (Order, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "arima")
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Order{}, fmt.Errorf("%w: %q is not p,d,q", ErrInvalidOrder, s)
	}

	terms := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Order{}, fmt.Errorf("%w: term %d: %v", ErrInvalidOrder, i, err)
		}
		terms[i] = v
	}

	o := Order{P: terms[0], D: terms[1], Q: terms[2]}
	if err := o.Validate(-1, -1, -1); err != nil {
		return Order{}, err
	}
	return o, nil
}
