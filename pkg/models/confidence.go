package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultConfidence is the interval level used when none is configured.
const DefaultConfidence = 0.95

// ParseConfidenceLevel parses a confidence level from p-notation, percent or
// decimal notation.
//
// Examples:
//   - "p95" → 0.95
//   - "90%" → 0.90
//   - "0.80" → 0.80
//   - "" → DefaultConfidence
//
// The level must lie strictly between 0 and 1.
func ParseConfidenceLevel(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return DefaultConfidence, nil
	}

	var (
		level float64
		err   error
	)
	switch {
	case strings.HasPrefix(s, "p"):
		level, err = strconv.ParseFloat(s[1:], 64)
		level /= 100
	case strings.HasSuffix(s, "%"):
		level, err = strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		level /= 100
	default:
		level, err = strconv.ParseFloat(s, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidConfidence, s, err)
	}
	if !(level > 0 && level < 1) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidConfidence, s)
	}
	return level, nil
}

// FormatConfidenceLevel formats a level for display, e.g. 0.95 → "95%".
func FormatConfidenceLevel(c float64) string {
	percent := c * 100
	if r := math.Round(percent); math.Abs(percent-r) < 1e-9 {
		return fmt.Sprintf("%d%%", int(r))
	}
	return fmt.Sprintf("%.1f%%", percent)
}
