// Package session owns the single live calculator session: the effective
// catalog, the patient state, their persistence and change notification.
// Every read of derived values recomputes from scratch.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/storage"
)

var (
	// ErrDayNotFound is returned when a day index is out of range.
	ErrDayNotFound = errors.New("day not found")

	// ErrBundleNotFound is returned when a bundle id is not in the catalog.
	ErrBundleNotFound = errors.New("bundle not found")

	// ErrTubeNotFound is returned when a tube id is not in the catalog.
	ErrTubeNotFound = errors.New("tube not found")
)

// EventKind tells subscribers which blob changed.
type EventKind string

const (
	EventStateChanged  EventKind = "state"
	EventConfigChanged EventKind = "config"
)

// Event is delivered to subscribers after a mutation commits.
type Event struct {
	Kind   EventKind `json:"kind"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// PatientUpdate carries optional patient edits. Nil fields are left alone.
// A weight or override that is not positive clears the value.
type PatientUpdate struct {
	WeightKg           *float64 `json:"weightKg,omitempty"`
	EBVPresetID        *string  `json:"ebvPresetId,omitempty"`
	EBVOverrideMlPerKg *float64 `json:"ebvOverrideMlPerKg,omitempty"`
	ContextFlags       []string `json:"contextFlags,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock used for "today".
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is the single logical calculator session. All mutations are
// serialised by one mutex.
type Session struct {
	mu    sync.Mutex
	cfg   *domain.Config
	state *domain.State

	configs *storage.ConfigRepository
	states  *storage.StateRepository
	calc    domain.Calculator
	logger  *logrus.Logger
	now     func() time.Time

	subsMu  sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New loads the effective catalog and the stored state, falling back to the
// default state when none is stored.
func New(ctx context.Context, configs *storage.ConfigRepository, states *storage.StateRepository, calc domain.Calculator, logger *logrus.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Session{
		configs: configs,
		states:  states,
		calc:    calc,
		logger:  logger,
		now:     time.Now,
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}

	cfg, err := configs.Effective(ctx)
	if err != nil {
		return nil, err
	}
	state, err := states.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = DefaultState(cfg, s.today())
	}

	s.cfg = cfg
	s.state = state

	logger.WithFields(logrus.Fields{
		"schema_version": cfg.SchemaVersion,
		"days":           len(state.Days),
	}).Info("Session loaded")

	return s, nil
}

func (s *Session) today() string {
	return TodayISO(s.now())
}

// Subscribe registers fn for change events and returns a function that
// removes it. fn runs synchronously after the session lock is released.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) notify(kind EventKind, action string) {
	s.subsMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subsMu.Unlock()

	ev := Event{Kind: kind, Action: action, At: s.now()}
	for _, fn := range fns {
		fn(ev)
	}
}

// Config returns a copy of the effective catalog.
func (s *Session) Config() *domain.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// State returns a copy of the patient state.
func (s *Session) State() *domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Report recomputes the report for the current catalog and state.
func (s *Session) Report(ctx context.Context) *domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calc.Compute(ctx, s.cfg, s.state)
}

// Snapshot returns consistent copies of the catalog and state together with
// the report computed from them.
func (s *Session) Snapshot(ctx context.Context) (*domain.Config, *domain.State, *domain.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone(), s.state.Clone(), s.calc.Compute(ctx, s.cfg, s.state)
}

// mutateState applies fn under the lock and persists the result. A storage
// failure is logged and returned but the mutation stands.
func (s *Session) mutateState(ctx context.Context, action string, fn func(st *domain.State) error) error {
	s.mu.Lock()
	if err := fn(s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	err := s.states.Save(ctx, s.state)
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).WithField("action", action).Error("Failed to persist state")
	}
	s.notify(EventStateChanged, action)
	return err
}

func (s *Session) day(st *domain.State, index int) (*domain.Day, error) {
	if index < 0 || index >= len(st.Days) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrDayNotFound, index, len(st.Days))
	}
	return &st.Days[index], nil
}

// SetWeight sets the weight in kg; a value that is not positive marks the
// weight unknown.
func (s *Session) SetWeight(ctx context.Context, kg float64) error {
	return s.mutateState(ctx, "set_weight", func(st *domain.State) error {
		st.Patient.WeightKg = domain.PositiveOrNil(kg)
		return nil
	})
}

// SetPreset selects the EBV preset by id.
func (s *Session) SetPreset(ctx context.Context, id string) error {
	return s.mutateState(ctx, "set_preset", func(st *domain.State) error {
		st.Patient.EBVPresetID = id
		return nil
	})
}

// SetOverride sets the mL/kg override; a value that is not positive clears it.
func (s *Session) SetOverride(ctx context.Context, mlPerKg float64) error {
	return s.mutateState(ctx, "set_override", func(st *domain.State) error {
		st.Patient.EBVOverrideMlPerKg = domain.PositiveOrNil(mlPerKg)
		return nil
	})
}

// SetContextFlags replaces the informational context flags.
func (s *Session) SetContextFlags(ctx context.Context, flags []string) error {
	return s.mutateState(ctx, "set_context_flags", func(st *domain.State) error {
		st.Patient.ContextFlags = append([]string{}, flags...)
		return nil
	})
}

// UpdatePatient applies several patient edits as one mutation.
func (s *Session) UpdatePatient(ctx context.Context, u PatientUpdate) error {
	return s.mutateState(ctx, "update_patient", func(st *domain.State) error {
		if u.WeightKg != nil {
			st.Patient.WeightKg = domain.PositiveOrNil(*u.WeightKg)
		}
		if u.EBVPresetID != nil {
			st.Patient.EBVPresetID = *u.EBVPresetID
		}
		if u.EBVOverrideMlPerKg != nil {
			st.Patient.EBVOverrideMlPerKg = domain.PositiveOrNil(*u.EBVOverrideMlPerKg)
		}
		if u.ContextFlags != nil {
			st.Patient.ContextFlags = append([]string{}, u.ContextFlags...)
		}
		return nil
	})
}

// AddDay appends a day numbered after the last one and dated the day after
// it. Without a usable last date the new day is dated tomorrow.
func (s *Session) AddDay(ctx context.Context) (domain.Day, error) {
	var added domain.Day
	err := s.mutateState(ctx, "add_day", func(st *domain.State) error {
		last := ""
		if n := len(st.Days); n > 0 {
			last = st.Days[n-1].DateISO
		}
		if last == "" {
			last = s.today()
		}
		next := AddDaysISO(last, 1)
		if next == "" {
			next = AddDaysISO(s.today(), 1)
		}

		added = domain.Day{
			HD:          len(st.Days) + 1,
			DateISO:     next,
			Orderables:  []string{},
			LineWasteMl: 0,
		}
		st.Days = append(st.Days, added)
		return nil
	})
	return added, err
}

// RemoveDay deletes the day at index and renumbers the rest 1..N.
func (s *Session) RemoveDay(ctx context.Context, index int) error {
	return s.mutateState(ctx, "remove_day", func(st *domain.State) error {
		if _, err := s.day(st, index); err != nil {
			return err
		}
		st.Days = append(st.Days[:index], st.Days[index+1:]...)
		for i := range st.Days {
			st.Days[i].HD = i + 1
		}
		return nil
	})
}

// SetDayDate sets the calendar date of a day.
func (s *Session) SetDayDate(ctx context.Context, index int, iso string) error {
	return s.mutateState(ctx, "set_day_date", func(st *domain.State) error {
		d, err := s.day(st, index)
		if err != nil {
			return err
		}
		d.DateISO = iso
		return nil
	})
}

// SetDayWaste sets the line waste of a day, floored at 0.
func (s *Session) SetDayWaste(ctx context.Context, index int, ml float64) error {
	return s.mutateState(ctx, "set_day_waste", func(st *domain.State) error {
		d, err := s.day(st, index)
		if err != nil {
			return err
		}
		d.LineWasteMl = domain.Quantity(clampNonNegative(ml))
		return nil
	})
}

// ToggleOrderable adds or removes one orderable from a day's selection.
// The selection behaves as an insertion-ordered set.
func (s *Session) ToggleOrderable(ctx context.Context, index int, id string, checked bool) error {
	return s.mutateState(ctx, "toggle_orderable", func(st *domain.State) error {
		d, err := s.day(st, index)
		if err != nil {
			return err
		}
		selected := dedupe(d.Orderables)
		if checked {
			selected = addUnique(selected, id)
		} else {
			selected = remove(selected, id)
		}
		d.Orderables = selected
		return nil
	})
}

// SetOrderables replaces a day's selection with ids, without duplicates.
func (s *Session) SetOrderables(ctx context.Context, index int, ids []string) error {
	return s.mutateState(ctx, "set_orderables", func(st *domain.State) error {
		d, err := s.day(st, index)
		if err != nil {
			return err
		}
		d.Orderables = dedupe(ids)
		return nil
	})
}

// ClearOrderables empties a day's selection.
func (s *Session) ClearOrderables(ctx context.Context, index int) error {
	return s.mutateState(ctx, "clear_orderables", func(st *domain.State) error {
		d, err := s.day(st, index)
		if err != nil {
			return err
		}
		d.Orderables = []string{}
		return nil
	})
}

// ApplyBundle adds every orderable of a bundle to a day's selection.
func (s *Session) ApplyBundle(ctx context.Context, index int, bundleID string) error {
	return s.mutateState(ctx, "apply_bundle", func(st *domain.State) error {
		d, err := s.day(st, index)
		if err != nil {
			return err
		}
		bundle, ok := s.cfg.FindBundle(bundleID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrBundleNotFound, bundleID)
		}
		selected := dedupe(d.Orderables)
		for _, id := range bundle.Includes {
			selected = addUnique(selected, id)
		}
		d.Orderables = selected
		return nil
	})
}

// ExportState renders the current state as indented JSON.
func (s *Session) ExportState() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.ExportState(s.state)
}

// ImportState validates data and replaces the state. Nothing changes when
// validation fails.
func (s *Session) ImportState(ctx context.Context, data []byte) error {
	imported, err := storage.DecodeState(data)
	if err != nil {
		return err
	}
	return s.mutateState(ctx, "import_state", func(st *domain.State) error {
		*st = *imported
		return nil
	})
}

// ResetState discards the stored state and starts from the default one.
func (s *Session) ResetState(ctx context.Context) error {
	s.mu.Lock()
	if err := s.states.Reset(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to clear stored state")
	}
	s.mu.Unlock()

	return s.mutateState(ctx, "reset_state", func(st *domain.State) error {
		*st = *DefaultState(s.cfg, s.today())
		return nil
	})
}

// ExportConfig renders the effective catalog as indented JSON.
func (s *Session) ExportConfig() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return catalog.Encode(s.cfg)
}

// ImportConfig validates data, stores it and switches to the resulting
// effective catalog. Nothing changes when validation fails.
func (s *Session) ImportConfig(ctx context.Context, data []byte) error {
	s.mu.Lock()
	cfg, err := s.configs.Import(ctx, data)
	if err == nil {
		s.cfg = cfg
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.logConfig("Config imported", cfg)
	s.notify(EventConfigChanged, "import_config")
	return nil
}

// ResetConfig restores and stores the built-in catalog.
func (s *Session) ResetConfig(ctx context.Context) error {
	s.mu.Lock()
	cfg, err := s.configs.Reset(ctx)
	if err == nil {
		s.cfg = cfg
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.logConfig("Config reset to defaults", cfg)
	s.notify(EventConfigChanged, "reset_config")
	return nil
}

// SetTubeMl edits the draw volume of a tube, floored at 0, and stores the
// catalog.
func (s *Session) SetTubeMl(ctx context.Context, tubeID string, ml float64) error {
	s.mu.Lock()
	idx := -1
	for i, t := range s.cfg.Tubes {
		if t.ID == tubeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTubeNotFound, tubeID)
	}
	s.cfg.Tubes[idx].Ml = domain.Quantity(clampNonNegative(ml))
	err := s.configs.Save(ctx, s.cfg)
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).WithField("tube_id", tubeID).Error("Failed to persist config")
	}
	s.notify(EventConfigChanged, "set_tube_ml")
	return err
}

func (s *Session) logConfig(msg string, cfg *domain.Config) {
	s.logger.WithFields(logrus.Fields{
		"schema_version": cfg.SchemaVersion,
		"presets":        len(cfg.EBVPresets),
		"tubes":          len(cfg.Tubes),
		"orderables":     len(cfg.Orderables),
		"diagnostics":    len(catalog.Lint(cfg)),
	}).Info(msg)
}

func clampNonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = addUnique(out, id)
	}
	return out
}

func addUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
