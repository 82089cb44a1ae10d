package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phleb-loss-tracker/internal/domain"
)

func testCatalog() ([]domain.Tube, []domain.Orderable) {
	tubes := []domain.Tube{
		{ID: "edta_3", Ml: 3},
		{ID: "sst_3_5", Ml: 3.5},
		{ID: "green_3", Ml: 3},
		{ID: "urine_cup", Ml: 0},
	}
	orderables := []domain.Orderable{
		{ID: "cbc", Requirements: []domain.Requirement{{TubeID: "edta_3", Count: 1}}},
		{ID: "cmp", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "mag", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "bmp_lytes", Requirements: []domain.Requirement{{TubeID: "green_3", Count: 1}, {TubeID: "edta_3", Count: 2}}},
		{ID: "ua", Requirements: []domain.Requirement{{TubeID: "urine_cup", Count: 1}}},
		{ID: "ghost", Requirements: []domain.Requirement{{TubeID: "missing_tube", Count: 2}}},
	}
	return tubes, orderables
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0, 0},
		{1.04, 1},
		{1.05, 1.1},
		{2.25, 2.3},
		{1.005, 1},
		{0.1 + 0.2, 0.3},
		{35, 35},
		{11.428571, 11.4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Round1(tt.in), "Round1(%v)", tt.in)
	}
}

func TestExpand(t *testing.T) {
	_, orderables := testCatalog()

	t.Run("sums shared tubes in first-seen order", func(t *testing.T) {
		entries := Expand([]string{"cmp", "bmp_lytes", "mag", "cbc"}, orderables)
		require.Len(t, entries, 3)
		assert.Equal(t, domain.TubeEntry{TubeID: "sst_3_5", Count: 2}, entries[0])
		assert.Equal(t, domain.TubeEntry{TubeID: "green_3", Count: 1}, entries[1])
		assert.Equal(t, domain.TubeEntry{TubeID: "edta_3", Count: 3}, entries[2])
	})

	t.Run("skips unknown orderables", func(t *testing.T) {
		entries := Expand([]string{"nope", "cbc"}, orderables)
		assert.Equal(t, []domain.TubeEntry{{TubeID: "edta_3", Count: 1}}, entries)
	})

	t.Run("duplicate selections count once", func(t *testing.T) {
		entries := Expand([]string{"cbc", "cbc"}, orderables)
		assert.Equal(t, []domain.TubeEntry{{TubeID: "edta_3", Count: 1}}, entries)
	})

	t.Run("empty selection", func(t *testing.T) {
		assert.Empty(t, Expand(nil, orderables))
	})

	t.Run("extra waste starts at zero", func(t *testing.T) {
		for _, e := range Expand([]string{"cbc", "cmp", "bmp_lytes"}, orderables) {
			assert.Zero(t, e.ExtraMlWaste)
		}
	})
}

func TestExpand_MergeEqualsWhole(t *testing.T) {
	tubes, orderables := testCatalog()

	totals := func(entries []domain.TubeEntry) map[string]float64 {
		out := map[string]float64{}
		for _, e := range entries {
			out[e.TubeID] += e.Count
		}
		return out
	}

	left := totals(Expand([]string{"cbc", "cmp"}, orderables))
	for id, n := range totals(Expand([]string{"bmp_lytes", "mag"}, orderables)) {
		left[id] += n
	}
	whole := totals(Expand([]string{"cbc", "cmp", "bmp_lytes", "mag"}, orderables))
	assert.Equal(t, whole, left)

	split := DailyLossMl(Expand([]string{"cbc", "cmp"}, orderables), tubes) +
		DailyLossMl(Expand([]string{"bmp_lytes", "mag"}, orderables), tubes)
	assert.Equal(t, Round1(split), DailyLossMl(Expand([]string{"cbc", "cmp", "bmp_lytes", "mag"}, orderables), tubes))
}

func TestDailyLossMl(t *testing.T) {
	tubes, orderables := testCatalog()

	t.Run("single cbc", func(t *testing.T) {
		entries := Expand([]string{"cbc"}, orderables)
		assert.Equal(t, 3.0, DailyLossMl(entries, tubes))
	})

	t.Run("unknown tube contributes zero", func(t *testing.T) {
		entries := Expand([]string{"ghost", "cbc"}, orderables)
		assert.Equal(t, 3.0, DailyLossMl(entries, tubes))
	})

	t.Run("zero volume tube", func(t *testing.T) {
		entries := Expand([]string{"ua"}, orderables)
		assert.Equal(t, 0.0, DailyLossMl(entries, tubes))
	})

	t.Run("extra waste is added", func(t *testing.T) {
		entries := []domain.TubeEntry{{TubeID: "edta_3", Count: 1, ExtraMlWaste: 0.25}}
		assert.Equal(t, 3.3, DailyLossMl(entries, tubes))
	})

	t.Run("non-finite counts contribute zero", func(t *testing.T) {
		entries := []domain.TubeEntry{{TubeID: "edta_3", Count: math.NaN()}, {TubeID: "sst_3_5", Count: 2}}
		assert.Equal(t, 7.0, DailyLossMl(entries, tubes))
	})

	t.Run("order does not matter", func(t *testing.T) {
		entries := Expand([]string{"cmp", "bmp_lytes", "cbc"}, orderables)
		reversed := make([]domain.TubeEntry, len(entries))
		for i, e := range entries {
			reversed[len(entries)-1-i] = e
		}
		assert.Equal(t, DailyLossMl(entries, tubes), DailyLossMl(reversed, tubes))
	})
}

func TestEBVMl(t *testing.T) {
	assert.Equal(t, 700.0, EBVMl(10, 70))
	assert.Equal(t, 85.5, EBVMl(0.9, 95))

	for _, w := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Zero(t, EBVMl(w, 70), "weight %v", w)
	}
	for _, v := range []float64{0, -70, math.NaN(), math.Inf(1)} {
		assert.Zero(t, EBVMl(10, v), "mlPerKg %v", v)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 80.0/700.0*100, Percent(80, 700))
	assert.InDelta(t, 11.43, Percent(80, 700), 0.01)
	assert.Zero(t, Percent(80, 0))
	assert.Zero(t, Percent(80, -10))
	assert.Zero(t, Percent(math.NaN(), 700))
	assert.Zero(t, Percent(80, math.Inf(1)))
}

func TestFormatFixed(t *testing.T) {
	tests := []struct {
		x        float64
		digits   int
		expected string
	}{
		{6.25, 1, "6.3"},
		{1.005, 2, "1.00"},
		{3.5, 2, "3.50"},
		{35, 1, "35.0"},
		{11.428571428571429, 1, "11.4"},
		{0, 2, "0.00"},
		{0.125, 2, "0.13"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatFixed(tt.x, tt.digits), "FormatFixed(%v, %d)", tt.x, tt.digits)
	}
}

func TestFormatPlain(t *testing.T) {
	assert.Equal(t, "3", FormatPlain(3.0))
	assert.Equal(t, "2.5", FormatPlain(2.5))
	assert.Equal(t, "72", FormatPlain(72))
}
