// Package calc holds the pure volume arithmetic: orderable expansion, tube
// loss, estimated blood volume and percentages. Nothing here fails; bad or
// missing inputs degrade to zero.
package calc

import "math"

// epsilon nudges values sitting on a .x5 boundary so binary representation
// error cannot flip the rounding direction.
const epsilon = 0x1p-52

// Round1 rounds x to one decimal place, half away from zero.
func Round1(x float64) float64 {
	return math.Round((x+epsilon)*10) / 10
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func orZero(x float64) float64 {
	if !finite(x) {
		return 0
	}
	return x
}
