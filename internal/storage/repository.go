package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/domain"
)

// ConfigRepository persists the catalog blob.
type ConfigRepository struct {
	store    Store
	migrator *catalog.Migrator
	logger   *logrus.Logger
}

// NewConfigRepository creates a catalog repository on store.
func NewConfigRepository(store Store, logger *logrus.Logger) *ConfigRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return &ConfigRepository{
		store:    store,
		migrator: catalog.NewMigrator(logger),
		logger:   logger,
	}
}

// Load returns the stored catalog document, or nil when nothing usable is
// stored. Only storage failures are returned as errors.
func (r *ConfigRepository) Load(ctx context.Context) (map[string]any, error) {
	data, err := r.store.Get(ctx, ConfigKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		r.logger.WithField("key", ConfigKey).Warn("Stored config is not a JSON object; ignoring")
		return nil, nil
	}
	return raw, nil
}

// SaveRaw stores a catalog document as-is.
func (r *ConfigRepository) SaveRaw(ctx context.Context, raw map[string]any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := r.store.Put(ctx, ConfigKey, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Save stores a typed catalog.
func (r *ConfigRepository) Save(ctx context.Context, cfg *domain.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := r.store.Put(ctx, ConfigKey, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Reset stores a fresh copy of the built-in catalog and returns it.
func (r *ConfigRepository) Reset(ctx context.Context) (*domain.Config, error) {
	cfg := catalog.Default()
	if err := r.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Effective returns the catalog to compute with: the defaults when nothing
// is stored, the stored catalog when it is current, otherwise the migrated
// catalog, which is written back.
func (r *ConfigRepository) Effective(ctx context.Context) (*domain.Config, error) {
	raw, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return catalog.Default(), nil
	}

	if r.migrator.NeedsMigration(raw) {
		raw = r.migrator.Migrate(raw)
		if err := r.SaveRaw(ctx, raw); err != nil {
			r.logger.WithError(err).Error("Failed to persist migrated config")
		}
	}

	cfg, err := catalog.Decode(raw)
	if err != nil {
		r.logger.WithError(err).Warn("Stored config could not be decoded; using defaults")
		return catalog.Default(), nil
	}
	return cfg, nil
}

// Export renders the effective catalog as indented JSON.
func (r *ConfigRepository) Export(ctx context.Context) ([]byte, error) {
	cfg, err := r.Effective(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Encode(cfg)
}

// Import validates data, stores it and returns the resulting effective
// catalog. Nothing is stored when validation fails.
func (r *ConfigRepository) Import(ctx context.Context, data []byte) (*domain.Config, error) {
	raw, err := catalog.ParseImport(data)
	if err != nil {
		return nil, err
	}
	if err := r.SaveRaw(ctx, raw); err != nil {
		return nil, err
	}
	return r.Effective(ctx)
}

// StateRepository persists the patient state blob.
type StateRepository struct {
	store  Store
	logger *logrus.Logger
}

// NewStateRepository creates a state repository on store.
func NewStateRepository(store Store, logger *logrus.Logger) *StateRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return &StateRepository{store: store, logger: logger}
}

// Load returns the stored state, or nil when nothing usable is stored.
func (r *StateRepository) Load(ctx context.Context) (*domain.State, error) {
	data, err := r.store.Get(ctx, StateKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	state, err := DecodeState(data)
	if err != nil {
		r.logger.WithError(err).Warn("Stored state is unusable; ignoring")
		return nil, nil
	}
	return state, nil
}

// Save stores state.
func (r *StateRepository) Save(ctx context.Context, state *domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := r.store.Put(ctx, StateKey, data); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Reset removes the stored state.
func (r *StateRepository) Reset(ctx context.Context) error {
	if err := r.store.Delete(ctx, StateKey); err != nil {
		return fmt.Errorf("failed to reset state: %w", err)
	}
	return nil
}

// ExportState renders state as indented JSON.
func ExportState(state *domain.State) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// DecodeState validates and decodes an imported state document. It must be
// an object with a patient object and a days array.
func DecodeState(data []byte) (*domain.State, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidState, err)
	}

	raw, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: invalid JSON: expected an object", ErrInvalidState)
	}

	_, patientOK := raw["patient"].(map[string]any)
	_, daysOK := raw["days"].([]any)
	if !patientOK || !daysOK {
		return nil, fmt.Errorf("%w: state must include patient and days[]", ErrInvalidState)
	}

	state := &domain.State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if state.Days == nil {
		state.Days = []domain.Day{}
	}
	return state, nil
}
