package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/service"
	"github.com/phleb-loss-tracker/internal/storage"
)

var fixedNow = time.Date(2026, time.January, 13, 9, 30, 0, 0, time.Local)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newTestSession(t *testing.T, store storage.Store) *Session {
	t.Helper()
	logger := testLogger()
	s, err := New(context.Background(),
		storage.NewConfigRepository(store, logger),
		storage.NewStateRepository(store, logger),
		service.NewCalculator(logger),
		logger,
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return s
}

// brokenStore accepts reads but fails every write.
type brokenStore struct {
	*storage.MemoryStore
}

func (brokenStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestNew_DefaultState(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())

	st := s.State()
	require.Len(t, st.Days, 1)
	assert.Equal(t, domain.Day{HD: 1, DateISO: "2026-01-13", Orderables: []string{}}, st.Days[0])
	assert.Equal(t, 10.0, st.Patient.Weight())
	assert.Equal(t, "child", st.Patient.EBVPresetID)
	assert.Nil(t, st.Patient.EBVOverrideMlPerKg)
	assert.Empty(t, st.Patient.ContextFlags)
}

func TestNew_LoadsStoredState(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), storage.StateKey,
		[]byte(`{"patient":{"weightKg":70,"ebvPresetId":"adult"},"days":[]}`)))

	s := newTestSession(t, store)
	st := s.State()
	assert.Equal(t, 70.0, st.Patient.Weight())
	assert.Empty(t, st.Days)
}

func TestDefaultState_PresetFallback(t *testing.T) {
	cfg := &domain.Config{EBVPresets: []domain.EBVPreset{{ID: "a"}, {ID: "b"}}}
	assert.Equal(t, "child", DefaultState(cfg, "2026-01-13").Patient.EBVPresetID)
	assert.Equal(t, "child", DefaultState(nil, "2026-01-13").Patient.EBVPresetID)

	assert.Equal(t, "child", DefaultState(catalog.Default(), "").Patient.EBVPresetID)
}

func TestSession_PatientEdits(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, s.SetWeight(ctx, 3.2))
	require.NoError(t, s.SetPreset(ctx, "term"))
	require.NoError(t, s.SetOverride(ctx, 90))
	require.NoError(t, s.SetContextFlags(ctx, []string{"nicu"}))

	p := s.State().Patient
	assert.Equal(t, 3.2, p.Weight())
	assert.Equal(t, "term", p.EBVPresetID)
	assert.Equal(t, 90.0, p.Override())
	assert.Equal(t, []string{"nicu"}, p.ContextFlags)

	require.NoError(t, s.SetWeight(ctx, 0))
	require.NoError(t, s.SetOverride(ctx, -5))
	p = s.State().Patient
	assert.Nil(t, p.WeightKg, "non-positive weight is unknown")
	assert.Nil(t, p.EBVOverrideMlPerKg, "non-positive override is cleared")
}

func TestSession_UpdatePatientLeavesNilFields(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())
	ctx := context.Background()

	preset := "adult"
	require.NoError(t, s.UpdatePatient(ctx, PatientUpdate{EBVPresetID: &preset}))

	p := s.State().Patient
	assert.Equal(t, "adult", p.EBVPresetID)
	assert.Equal(t, 10.0, p.Weight())
}

func TestSession_AddAndRemoveDays(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())
	ctx := context.Background()

	day, err := s.AddDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, day.HD)
	assert.Equal(t, "2026-01-14", day.DateISO)

	_, err = s.AddDay(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SetDayDate(ctx, 2, "2026-02-28"))
	day, err = s.AddDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", day.DateISO)

	require.NoError(t, s.RemoveDay(ctx, 1))
	st := s.State()
	require.Len(t, st.Days, 3)
	for i, d := range st.Days {
		assert.Equal(t, i+1, d.HD, "hd stays contiguous")
	}
	assert.Equal(t, "2026-02-28", st.Days[1].DateISO)

	assert.ErrorIs(t, s.RemoveDay(ctx, 3), ErrDayNotFound)
	assert.ErrorIs(t, s.RemoveDay(ctx, -1), ErrDayNotFound)
}

func TestSession_AddDayWithoutUsableDate(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, s.RemoveDay(ctx, 0))
	day, err := s.AddDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, day.HD)
	assert.Equal(t, "2026-01-14", day.DateISO, "no days: dated the day after today")

	require.NoError(t, s.SetDayDate(ctx, 0, ""))
	day, err = s.AddDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-14", day.DateISO)
}

func TestSession_WasteIsFloored(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, s.SetDayWaste(ctx, 0, -4))
	assert.Equal(t, 0.0, s.State().Days[0].LineWasteMl.Float())

	require.NoError(t, s.SetDayWaste(ctx, 0, 2.5))
	assert.Equal(t, 2.5, s.State().Days[0].LineWasteMl.Float())

	assert.ErrorIs(t, s.SetDayWaste(ctx, 4, 1), ErrDayNotFound)
}

func TestSession_OrderableSetSemantics(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, s.ToggleOrderable(ctx, 0, "cbc", true))
	require.NoError(t, s.ToggleOrderable(ctx, 0, "bmp", true))
	require.NoError(t, s.ToggleOrderable(ctx, 0, "cbc", true))
	assert.Equal(t, []string{"cbc", "bmp"}, s.State().Days[0].Orderables)

	require.NoError(t, s.ToggleOrderable(ctx, 0, "cbc", false))
	assert.Equal(t, []string{"bmp"}, s.State().Days[0].Orderables)

	require.NoError(t, s.ApplyBundle(ctx, 0, "daily_am_full"))
	assert.Equal(t, []string{"bmp", "cbc", "cmp"}, s.State().Days[0].Orderables)

	require.NoError(t, s.SetOrderables(ctx, 0, []string{"crp", "crp", "mystery"}))
	assert.Equal(t, []string{"crp", "mystery"}, s.State().Days[0].Orderables)

	require.NoError(t, s.ClearOrderables(ctx, 0))
	assert.Empty(t, s.State().Days[0].Orderables)

	assert.ErrorIs(t, s.ApplyBundle(ctx, 0, "nope"), ErrBundleNotFound)
}

func TestSession_ReportRecomputes(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())
	ctx := context.Background()

	assert.Equal(t, 0.0, s.Report(ctx).CumulativeMl)

	require.NoError(t, s.ApplyBundle(ctx, 0, "daily_am_basic"))
	report := s.Report(ctx)
	assert.Equal(t, 6.5, report.CumulativeMl)
	assert.Equal(t, 720.0, report.EBVMl)
	assert.True(t, report.Pediatric)

	require.NoError(t, s.SetTubeMl(ctx, "edta_3", 1))
	assert.Equal(t, 4.5, s.Report(ctx).CumulativeMl)
}

func TestSession_SetTubeMl(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestSession(t, store)
	ctx := context.Background()

	require.NoError(t, s.SetTubeMl(ctx, "sst_5", -2))
	for _, tube := range s.Config().Tubes {
		if tube.ID == "sst_5" {
			assert.Equal(t, 0.0, tube.Ml.Float())
		}
	}
	assert.ErrorIs(t, s.SetTubeMl(ctx, "nope", 1), ErrTubeNotFound)

	reloaded := newTestSession(t, store)
	for _, tube := range reloaded.Config().Tubes {
		if tube.ID == "sst_5" {
			assert.Equal(t, 0.0, tube.Ml.Float(), "catalog edit is persisted")
		}
	}
}

func TestSession_StatePersistsAcrossSessions(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	first := newTestSession(t, store)
	require.NoError(t, first.SetWeight(ctx, 25))
	_, err := first.AddDay(ctx)
	require.NoError(t, err)

	second := newTestSession(t, store)
	assert.Equal(t, first.State(), second.State())
}

func TestSession_ImportStateAllOrNothing(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())
	ctx := context.Background()
	before := s.State()

	err := s.ImportState(ctx, []byte(`{"patient":{}}`))
	assert.ErrorIs(t, err, storage.ErrInvalidState)
	assert.Equal(t, before, s.State())

	require.NoError(t, s.ImportState(ctx, []byte(`{"patient":{"weightKg":4},"days":[{"hd":1,"dateISO":"2026-03-01","orderables":["cbc"],"lineWasteMl":1}]}`)))
	st := s.State()
	assert.Equal(t, 4.0, st.Patient.Weight())
	assert.Equal(t, []string{"cbc"}, st.Days[0].Orderables)
}

func TestSession_ExportImportStateRoundTrip(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, s.ApplyBundle(ctx, 0, "sepsis_eval"))
	_, err := s.AddDay(ctx)
	require.NoError(t, err)

	exported, err := s.ExportState()
	require.NoError(t, err)

	other := newTestSession(t, storage.NewMemoryStore())
	require.NoError(t, other.ImportState(ctx, exported))
	assert.Equal(t, s.State(), other.State())
}

func TestSession_ResetState(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestSession(t, store)
	ctx := context.Background()

	require.NoError(t, s.SetWeight(ctx, 60))
	_, err := s.AddDay(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ResetState(ctx))
	assert.Equal(t, DefaultState(s.Config(), "2026-01-13"), s.State())
}

func TestSession_ConfigImportAndReset(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestSession(t, store)
	ctx := context.Background()

	err := s.ImportConfig(ctx, []byte(`{"tubes":"none","orderables":[]}`))
	assert.ErrorIs(t, err, catalog.ErrInvalidConfig)
	assert.Equal(t, catalog.Default(), s.Config(), "failed import changes nothing")

	require.NoError(t, s.ImportConfig(ctx, []byte(`{"institution":{"name":"Ward 7"},"tubes":[{"id":"t1","ml":2}],"orderables":[{"id":"o1","requirements":[{"tubeId":"t1","count":3}]}]}`)))
	cfg := s.Config()
	assert.Equal(t, "Ward 7", cfg.Institution.Name)
	assert.Equal(t, catalog.CurrentSchemaVersion, cfg.SchemaVersion)

	require.NoError(t, s.SetOrderables(ctx, 0, []string{"o1"}))
	assert.Equal(t, 6.0, s.Report(ctx).CumulativeMl)

	exported, err := s.ExportConfig()
	require.NoError(t, err)
	assert.Contains(t, string(exported), `"name": "Ward 7"`)

	require.NoError(t, s.ResetConfig(ctx))
	assert.Equal(t, catalog.Default(), s.Config())
}

func TestSession_PersistFailureKeepsMutation(t *testing.T) {
	s := newTestSession(t, brokenStore{storage.NewMemoryStore()})

	err := s.SetWeight(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 42.0, s.State().Patient.Weight())
}

func TestSession_Subscribe(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryStore())
	ctx := context.Background()

	var events []Event
	unsubscribe := s.Subscribe(func(ev Event) {
		// Reading the session from a subscriber must not deadlock.
		_ = s.Report(ctx)
		events = append(events, ev)
	})

	require.NoError(t, s.SetWeight(ctx, 5))
	require.NoError(t, s.SetTubeMl(ctx, "sst_5", 4))
	assert.Error(t, s.RemoveDay(ctx, 9))

	require.Len(t, events, 2, "failed mutations do not notify")
	assert.Equal(t, EventStateChanged, events[0].Kind)
	assert.Equal(t, "set_weight", events[0].Action)
	assert.Equal(t, EventConfigChanged, events[1].Kind)
	assert.Equal(t, fixedNow, events[1].At)

	unsubscribe()
	require.NoError(t, s.SetWeight(ctx, 6))
	assert.Len(t, events, 2)
}
