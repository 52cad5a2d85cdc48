// Package rounding implements half-up decimal rounding for derived session
// fields (hours, money amounts, distances).
package rounding

import "math"

// HalfUp rounds value to the given number of decimal places, with ties
// rounding away from zero.
func HalfUp(value float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	pow := math.Pow(10, float64(precision))
	if value < 0 {
		return -math.Floor(-value*pow+0.5) / pow
	}
	return math.Floor(value*pow+0.5) / pow
}
