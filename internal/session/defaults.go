package session

import (
	"github.com/phleb-loss-tracker/internal/domain"
)

const (
	defaultWeightKg    = 10.0
	defaultPresetIndex = 3
	fallbackPresetID   = "child"
)

// DefaultState is the state of a fresh session: a 10 kg patient on the
// catalog's fourth preset and one empty hospital day dated today.
func DefaultState(cfg *domain.Config, today string) *domain.State {
	presetID := fallbackPresetID
	if cfg != nil && len(cfg.EBVPresets) > defaultPresetIndex && cfg.EBVPresets[defaultPresetIndex].ID != "" {
		presetID = cfg.EBVPresets[defaultPresetIndex].ID
	}

	return &domain.State{
		Patient: domain.Patient{
			WeightKg:     domain.Quantity(defaultWeightKg).Ptr(),
			EBVPresetID:  presetID,
			ContextFlags: []string{},
		},
		Days: []domain.Day{
			{HD: 1, DateISO: today, Orderables: []string{}, LineWasteMl: 0},
		},
	}
}
