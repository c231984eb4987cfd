// Package results holds the percentage arithmetic shared by the aggregation
// query and its tests.
package results

import "math"

// Percentage computes a vote share rounded half-up to one decimal place.
// The rule is load-bearing: stored insights and the JSON API both depend on
// it, so it must not drift.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	return Round1(float64(count) * 100.0 / float64(total))
}

// Round1 rounds half-up to one decimal place.
func Round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
