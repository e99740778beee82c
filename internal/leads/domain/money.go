package domain

import "math"

// Round2 rounds a monetary or rate figure to 2 decimal places. Applied at
// the output boundary only; internal computation keeps full precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds to 1 decimal place, used for day averages.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
