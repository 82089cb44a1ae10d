package service

import (
	"fmt"

	"github.com/phleb-loss-tracker/internal/calc"
	"github.com/phleb-loss-tracker/internal/domain"
)

// Cumulative %EBV tiers.
const (
	CumulativeWarnPct = 5.0
	CumulativeBadPct  = 10.0
)

// MissingWeightText is emitted when EBV cannot be computed for lack of a weight.
const MissingWeightText = "Enter weight to compute EBV-based metrics."

// WarningInput carries everything the warning rules look at.
type WarningInput struct {
	Config           *domain.Config
	Patient          domain.Patient
	Days             []domain.Day
	Rows             []domain.DayRow
	WeightKg         float64
	EBVMl            float64
	CumulativePctEBV float64
}

// IsPediatric reports whether the patient's preset is flagged pediatric. An
// unknown preset id resolves to the first preset, as in aggregation.
func IsPediatric(cfg *domain.Config, patient domain.Patient) bool {
	preset, ok := cfg.ResolvePreset(patient.EBVPresetID)
	return ok && preset.Pediatric
}

// EvaluateWarnings applies the threshold rules. Per-day findings come first in
// day order, followed by at most one cumulative finding.
func EvaluateWarnings(in WarningInput) []domain.Warning {
	warnings := make([]domain.Warning, 0)

	pediatric := IsPediatric(in.Config, in.Patient)
	pedsThresh := in.Config.Thresholds.PedsDailyMlPerKgWarn.Float()
	adultThresh := in.Config.Thresholds.AdultHighIntensityDailyMl.Float()

	for i, row := range in.Rows {
		hd := i + 1
		if i < len(in.Days) {
			hd = in.Days[i].HD
		}

		switch {
		case pediatric && pedsThresh > 0 && row.MlPerKgDay > pedsThresh:
			warnings = append(warnings, domain.Warning{
				Level: domain.LevelWarn,
				Text: fmt.Sprintf("HD %d: %s mL/kg/day exceeds %s mL/kg/day.",
					hd, calc.FormatFixed(row.MlPerKgDay, 2), calc.FormatPlain(pedsThresh)),
			})
		case !pediatric && adultThresh > 0 && row.DailyMl > adultThresh:
			warnings = append(warnings, domain.Warning{
				Level: domain.LevelWarn,
				Text: fmt.Sprintf("HD %d: %s mL exceeds %s mL/day.",
					hd, calc.FormatFixed(row.DailyMl, 1), calc.FormatPlain(adultThresh)),
			})
		}
	}

	switch {
	case in.EBVMl > 0:
		pct := calc.FormatFixed(in.CumulativePctEBV, 1)
		if in.CumulativePctEBV >= CumulativeBadPct {
			warnings = append(warnings, domain.Warning{
				Level: domain.LevelBad,
				Text:  fmt.Sprintf("Cumulative loss %s%% of EBV (≥10%%).", pct),
			})
		} else if in.CumulativePctEBV >= CumulativeWarnPct {
			warnings = append(warnings, domain.Warning{
				Level: domain.LevelWarn,
				Text:  fmt.Sprintf("Cumulative loss %s%% of EBV (≥5%%).", pct),
			})
		}
	case in.WeightKg <= 0:
		warnings = append(warnings, domain.Warning{Level: domain.LevelWarn, Text: MissingWeightText})
	}

	return warnings
}
