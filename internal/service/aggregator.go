package service

import (
	"math"

	"github.com/phleb-loss-tracker/internal/calc"
	"github.com/phleb-loss-tracker/internal/domain"
)

// ResolveMlPerKg picks the blood-volume constant for a patient: a positive
// override, then the selected preset, then the first preset, then 0.
func ResolveMlPerKg(cfg *domain.Config, patient domain.Patient) float64 {
	if v := patient.Override(); v > 0 {
		return v
	}
	if preset, ok := cfg.ResolvePreset(patient.EBVPresetID); ok {
		return preset.MlPerKg.Float()
	}
	return 0
}

// Aggregate computes per-day rows and the running total for a patient.
// The cumulative figure is re-rounded to 0.1 mL after every day, so it can
// differ slightly from an unrounded sum of the rows.
func Aggregate(cfg *domain.Config, patient domain.Patient, days []domain.Day) domain.Summary {
	weight := patient.Weight()
	mlPerKg := ResolveMlPerKg(cfg, patient)
	ebv := calc.EBVMl(weight, mlPerKg)

	summary := domain.Summary{
		WeightKg: weight,
		MlPerKg:  mlPerKg,
		EBVMl:    ebv,
		Rows:     make([]domain.DayRow, 0, len(days)),
	}

	cumulative := 0.0
	for _, day := range days {
		entries := calc.Expand(day.Orderables, cfg.Orderables)
		tubeLoss := calc.DailyLossMl(entries, cfg.Tubes)
		waste := math.Max(0, day.LineWasteMl.Float())

		dailyMl := calc.Round1(tubeLoss + waste)
		cumulative = calc.Round1(cumulative + dailyMl)

		row := domain.DayRow{
			DailyMl: dailyMl,
			PctEBV:  calc.Percent(dailyMl, ebv),
		}
		if weight > 0 {
			row.MlPerKgDay = dailyMl / weight
		}
		summary.Rows = append(summary.Rows, row)
	}

	summary.CumulativeMl = cumulative
	summary.CumulativePctEBV = calc.Percent(cumulative, ebv)
	return summary
}
