package calc

import "github.com/phleb-loss-tracker/internal/domain"

// DailyLossMl sums tube volume times count plus any extra waste, rounded to
// 0.1 mL. Entries naming an unknown tube contribute nothing.
func DailyLossMl(entries []domain.TubeEntry, tubes []domain.Tube) float64 {
	mlByTube := make(map[string]float64, len(tubes))
	for _, t := range tubes {
		mlByTube[t.ID] = t.Ml.Float()
	}

	total := 0.0
	for _, e := range entries {
		total += mlByTube[e.TubeID] * orZero(e.Count)
		total += orZero(e.ExtraMlWaste)
	}
	return Round1(total)
}

// EBVMl returns weight times mL/kg, or 0 when either is not a positive
// finite number. The result is not rounded.
func EBVMl(weightKg, mlPerKg float64) float64 {
	if !finite(weightKg) || weightKg <= 0 {
		return 0
	}
	if !finite(mlPerKg) || mlPerKg <= 0 {
		return 0
	}
	return weightKg * mlPerKg
}

// Percent returns 100*value/denom, or 0 when denom is not positive or either
// argument is not finite.
func Percent(value, denom float64) float64 {
	if !finite(value) || !finite(denom) || denom <= 0 {
		return 0
	}
	return value / denom * 100
}
