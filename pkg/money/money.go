// Package money holds rounding helpers for amounts expressed in minor currency units.
package money

import "math"

// Round rounds half-up toward positive infinity, so Round(-2.5) == -2.
// Stored invoice totals depend on this behaviour; do not swap for math.Round.
func Round(raw float64) int64 {
	return int64(math.Floor(raw + 0.5))
}

// Ceil rounds toward positive infinity.
func Ceil(raw float64) int64 {
	return int64(math.Ceil(raw))
}
