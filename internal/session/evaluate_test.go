package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/service"
	"github.com/phleb-loss-tracker/internal/storage"
)

func newEvaluator() *Evaluator {
	logger := testLogger()
	return NewEvaluator(service.NewCalculator(logger), logger)
}

func TestEvaluate_DefaultCatalog(t *testing.T) {
	state := []byte(`{"patient":{"weightKg":10,"ebvPresetId":"child"},"days":[{"hd":1,"orderables":["cbc","bmp"],"lineWasteMl":0}]}`)

	cfg, st, report, err := newEvaluator().Evaluate(context.Background(), nil, state)
	require.NoError(t, err)

	assert.Equal(t, catalog.CurrentSchemaVersion, cfg.SchemaVersion)
	assert.Len(t, st.Days, 1)
	assert.Equal(t, 720.0, report.EBVMl)
	assert.Equal(t, 6.5, report.CumulativeMl)
}

func TestEvaluate_CustomCatalog(t *testing.T) {
	config := []byte(`{"schemaVersion":2,"tubes":[{"id":"t1","ml":2}],"orderables":[{"id":"o1","requirements":[{"tubeId":"t1","count":3}]}],"ebvPresets":[{"id":"p","mlPerKg":80}]}`)
	state := []byte(`{"patient":{"weightKg":5,"ebvPresetId":"p"},"days":[{"hd":1,"orderables":["o1"]}]}`)

	_, _, report, err := newEvaluator().Evaluate(context.Background(), config, state)
	require.NoError(t, err)

	assert.Equal(t, 400.0, report.EBVMl)
	assert.Equal(t, 6.0, report.CumulativeMl)
	assert.InDelta(t, 1.5, report.CumulativePctEBV, 1e-9)
}

func TestEvaluate_InvalidDocuments(t *testing.T) {
	e := newEvaluator()

	_, _, _, err := e.Evaluate(context.Background(), []byte(`{"tubes":[]}`), []byte(`{"patient":{},"days":[]}`))
	assert.True(t, errors.Is(err, catalog.ErrInvalidConfig))

	_, _, _, err = e.Evaluate(context.Background(), nil, []byte(`{"days":[]}`))
	assert.True(t, errors.Is(err, storage.ErrInvalidState))
}

func TestEvaluate_UnversionedCatalogKeepsPediatricRule(t *testing.T) {
	config := []byte(`{
		"ebvPresets":[{"id":"adult","mlPerKg":70},{"id":"child","mlPerKg":72}],
		"tubes":[{"id":"big","ml":35}],
		"orderables":[{"id":"draw","requirements":[{"tubeId":"big","count":1}]}],
		"thresholds":{"pedsDailyMlPerKgWarn":3,"adultHighIntensityDailyMl":30}
	}`)
	state := []byte(`{"patient":{"weightKg":10,"ebvPresetId":"child"},"days":[{"hd":1,"orderables":["draw"]}]}`)

	cfg, _, report, err := newEvaluator().Evaluate(context.Background(), config, state)
	require.NoError(t, err)

	assert.True(t, cfg.EBVPresets[1].Pediatric)
	assert.True(t, report.Pediatric)
	assert.Contains(t, report.Warnings, domain.Warning{Level: domain.LevelWarn, Text: "HD 1: 3.50 mL/kg/day exceeds 3 mL/kg/day."})
	for _, w := range report.Warnings {
		assert.NotContains(t, w.Text, "mL/day.")
	}
}

type countingCalculator struct {
	calls int
}

func (c *countingCalculator) Compute(_ context.Context, _ *domain.Config, state *domain.State) *domain.Report {
	c.calls++
	return &domain.Report{Summary: domain.Summary{CumulativeMl: float64(len(state.Days))}}
}

func TestEvaluate_UsesInjectedCalculator(t *testing.T) {
	calc := &countingCalculator{}
	e := NewEvaluator(calc, testLogger())

	_, _, report, err := e.Evaluate(context.Background(), nil, []byte(`{"patient":{},"days":[{"hd":1},{"hd":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, calc.calls)
	assert.Equal(t, 2.0, report.CumulativeMl)
}
