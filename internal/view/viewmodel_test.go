package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/service"
	"github.com/phleb-loss-tracker/internal/session"
)

func build(cfg *domain.Config, state *domain.State) ViewModel {
	return Build(cfg, state, service.NewCalculator(nil).Compute(context.Background(), cfg, state))
}

func TestBuild_DefaultSession(t *testing.T) {
	cfg := catalog.Default()
	state := session.DefaultState(cfg, "2026-01-13")

	vm := build(cfg, state)

	assert.Equal(t, "Generic US Inpatient Defaults — schema v2", vm.InstitutionLine)
	require.Len(t, vm.PatientMetrics, 2)
	assert.Equal(t, Metric{Label: "EBV", Value: "720 mL", Sub: "72 mL/kg × 10 kg"}, vm.PatientMetrics[0])
	assert.Equal(t, Metric{Label: "Cumulative phlebotomy + waste", Value: "0 mL", Sub: "0% EBV"}, vm.PatientMetrics[1])

	require.Len(t, vm.Days, 1)
	day := vm.Days[0]
	assert.Equal(t, "13JAN", day.DateLabel)
	assert.Equal(t, []Pill{{Label: NoneSelected, Muted: true}}, day.Pills)
	assert.Equal(t, "0.0", day.DailyMl)
	assert.Equal(t, "0.00", day.MlPerKgDay)
	assert.Equal(t, "0.00", day.PctEBV)

	assert.Equal(t, []Metric{
		{Label: "Total days", Value: "1"},
		{Label: "Cumulative loss", Value: "0 mL", Sub: "0% EBV"},
	}, vm.Totals)
	assert.Equal(t, []domain.Warning{{Level: domain.LevelGood, Text: NoWarningsText}}, vm.Warnings)
	assert.Empty(t, vm.Diagnostics)

	require.Len(t, vm.Presets, 5)
	assert.Equal(t, "Child (72 mL/kg)", vm.Presets[3].Label)
	assert.True(t, vm.Presets[3].Selected)
	assert.False(t, vm.Presets[0].Selected)
}

func TestBuild_FiguresAndPills(t *testing.T) {
	cfg := catalog.Default()
	state := &domain.State{
		Patient: domain.Patient{WeightKg: domain.Quantity(3).Ptr(), EBVPresetID: "term"},
		Days: []domain.Day{
			{HD: 1, DateISO: "2026-01-13", Orderables: []string{"cbc", "legacy_test"}, LineWasteMl: 2},
		},
	}

	vm := build(cfg, state)
	day := vm.Days[0]

	assert.Equal(t, []Pill{{ID: "cbc", Label: "CBC"}, {ID: "legacy_test", Label: "legacy_test"}}, day.Pills)
	assert.Equal(t, "5.0", day.DailyMl)
	assert.Equal(t, "1.67", day.MlPerKgDay)
	assert.Equal(t, "1.96", day.PctEBV)
	assert.Equal(t, Metric{Label: "EBV", Value: "255 mL", Sub: "85 mL/kg × 3 kg"}, vm.PatientMetrics[0])
	assert.Equal(t, "2% EBV", vm.PatientMetrics[1].Sub)
}

func TestBuild_UnknownWeight(t *testing.T) {
	cfg := catalog.Default()
	state := &domain.State{Patient: domain.Patient{EBVPresetID: "adult"}, Days: []domain.Day{}}

	vm := build(cfg, state)

	assert.Equal(t, Metric{Label: "EBV", Value: Dash, Sub: "70 mL/kg × — kg"}, vm.PatientMetrics[0])
	assert.Equal(t, EBVNotSet, vm.PatientMetrics[1].Sub)
	assert.Equal(t, "0", vm.Totals[0].Value)
	assert.Equal(t, []domain.Warning{{Level: domain.LevelWarn, Text: service.MissingWeightText}}, vm.Warnings)
	assert.Nil(t, vm.Patient.WeightKg)
}

func TestBuild_InstitutionFallbackAndDiagnostics(t *testing.T) {
	cfg := &domain.Config{
		SchemaVersion: 2,
		Tubes:         []domain.Tube{{ID: "t", Ml: 1}},
		Orderables:    []domain.Orderable{{ID: "o", Requirements: []domain.Requirement{{TubeID: "ghost", Count: 1}}}},
	}
	state := &domain.State{Days: []domain.Day{}}

	vm := build(cfg, state)

	assert.Equal(t, "Config — schema v2", vm.InstitutionLine)
	assert.NotEmpty(t, vm.Diagnostics)
	assert.Empty(t, vm.Presets)
}

func TestPanel(t *testing.T) {
	cfg := catalog.Default()
	state := &domain.State{Days: []domain.Day{
		{HD: 1}, {HD: 2, Orderables: []string{"cbc", "bmp"}},
	}}

	pv, err := Panel(cfg, state, 1)
	require.NoError(t, err)

	assert.Equal(t, "Edit Panels — HD 2", pv.Title)
	require.NotEmpty(t, pv.Groups)
	assert.Equal(t, cfg.CategoryOrder()[0], pv.Groups[0].Category)
	assert.Len(t, pv.Bundles, 4)

	checked := map[string]bool{}
	total := 0
	for _, g := range pv.Groups {
		for _, item := range g.Items {
			total++
			if item.Checked {
				checked[item.ID] = true
			}
		}
	}
	assert.Equal(t, len(cfg.Orderables), total, "every orderable is reachable")
	assert.Equal(t, map[string]bool{"cbc": true, "bmp": true}, checked)

	_, err = Panel(cfg, state, 2)
	assert.ErrorIs(t, err, session.ErrDayNotFound)
}
