// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// Argmax returns the index of the maximum value in values. Ties are
// broken by returning the first maximal index. Argmax panics if values
// is empty.
func Argmax(values []float64) int {
	max, idx := values[0], 0
	for i, value := range values {
		if value > max {
			max = value
			idx = i
		}
	}
	return idx
}

// IsFinite reports whether every value is neither infinite nor NaN
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
