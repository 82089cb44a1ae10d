package session

import (
	"bytes"
	"context"

	"github.com/sirupsen/logrus"

	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/storage"
)

// Evaluator computes reports for caller-supplied documents without touching
// the live session or storage.
type Evaluator struct {
	calc     domain.Calculator
	migrator *catalog.Migrator
	logger   *logrus.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(calc domain.Calculator, logger *logrus.Logger) *Evaluator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Evaluator{
		calc:     calc,
		migrator: catalog.NewMigrator(logger),
		logger:   logger,
	}
}

// Evaluate decodes a state and an optional catalog and computes the report.
// A missing catalog selects the built-in one; an older catalog is migrated.
// Both documents are validated like imports.
func (e *Evaluator) Evaluate(ctx context.Context, configData, stateData []byte) (*domain.Config, *domain.State, *domain.Report, error) {
	cfg, err := e.decodeConfig(configData)
	if err != nil {
		return nil, nil, nil, err
	}

	state, err := storage.DecodeState(stateData)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, state, e.calc.Compute(ctx, cfg, state), nil
}

func (e *Evaluator) decodeConfig(data []byte) (*domain.Config, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return catalog.Default(), nil
	}

	raw, err := catalog.ParseImport(trimmed)
	if err != nil {
		return nil, err
	}
	if e.migrator.NeedsMigration(raw) {
		raw = e.migrator.Migrate(raw)
	}
	return catalog.Decode(raw)
}
