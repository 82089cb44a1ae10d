package catalog

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Step upgrades a raw catalog document from one schema version to the next.
// Steps may modify raw in place.
type Step func(raw map[string]any) map[string]any

// defaultSteps is keyed by the source version of each step.
var defaultSteps = map[int]Step{
	1: markPediatricPresets,
}

// legacyPediatricIDs are the preset ids that were classified as pediatric
// before presets carried an explicit flag.
var legacyPediatricIDs = map[string]bool{
	"preterm": true,
	"term":    true,
	"infant":  true,
	"child":   true,
}

// Migrator brings stored catalogs of any schema version up to the current one.
type Migrator struct {
	steps   map[int]Step
	current int
	logger  *logrus.Logger
}

// NewMigrator creates a migrator for CurrentSchemaVersion.
func NewMigrator(logger *logrus.Logger) *Migrator {
	return newMigrator(CurrentSchemaVersion, defaultSteps, logger)
}

func newMigrator(current int, steps map[int]Step, logger *logrus.Logger) *Migrator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Migrator{steps: steps, current: current, logger: logger}
}

// NeedsMigration reports whether raw carries a schema version other than the
// current one.
func (m *Migrator) NeedsMigration(raw map[string]any) bool {
	v, ok := SchemaVersionOf(raw)
	return !ok || v != m.current
}

// Migrate runs every step from the document's version up to the current one,
// then overlays the result onto a fresh default catalog.
func (m *Migrator) Migrate(raw map[string]any) map[string]any {
	from, _ := SchemaVersionOf(raw)

	applied := 0
	if from > m.current {
		m.logger.WithFields(logrus.Fields{
			"stored_version":  from,
			"current_version": m.current,
		}).Warn("Stored config is newer than this build; overlaying without migration steps")
	} else {
		for v := from; v < m.current; v++ {
			step, ok := m.steps[v]
			if !ok {
				continue
			}
			raw = step(raw)
			applied++
		}
	}

	out := overlay(raw, m.current)

	m.logger.WithFields(logrus.Fields{
		"from_version":  from,
		"to_version":    m.current,
		"steps_applied": applied,
	}).Info("Config migrated")

	return out
}

// overlay takes the default catalog as a base and replaces fields that the
// stored document provides. Thresholds and ui merge key by key.
func overlay(raw map[string]any, version int) map[string]any {
	base, err := ToMap(Default())
	if err != nil {
		base = map[string]any{}
	}

	if inst, ok := raw["institution"].(map[string]any); ok {
		baseInst, _ := base["institution"].(map[string]any)
		if baseInst == nil {
			baseInst = map[string]any{}
		}
		if name, ok := inst["name"].(string); ok && name != "" {
			baseInst["name"] = name
		}
		if notes, ok := inst["notes"].(string); ok && notes != "" {
			baseInst["notes"] = notes
		}
		base["institution"] = baseInst
	}

	for _, key := range []string{"ebvPresets", "tubes", "orderables", "bundles"} {
		if arr, ok := raw[key].([]any); ok {
			base[key] = arr
		}
	}

	for _, key := range []string{"thresholds", "ui"} {
		stored, ok := raw[key].(map[string]any)
		if !ok {
			continue
		}
		merged, _ := base[key].(map[string]any)
		if merged == nil {
			merged = map[string]any{}
		}
		for k, v := range stored {
			merged[k] = v
		}
		base[key] = merged
	}

	base["schemaVersion"] = float64(version)
	return base
}

// markPediatricPresets adds the pediatric flag introduced in schema 2,
// keyed on the preset ids the earlier schema treated as pediatric.
func markPediatricPresets(raw map[string]any) map[string]any {
	fillPediatricFlags(raw)
	raw["schemaVersion"] = float64(2)
	return raw
}

// fillPediatricFlags sets pediatric on every preset that lacks the key.
func fillPediatricFlags(raw map[string]any) {
	presets, ok := raw["ebvPresets"].([]any)
	if !ok {
		return
	}
	for _, item := range presets {
		preset, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if _, set := preset["pediatric"]; set {
			continue
		}
		id, _ := preset["id"].(string)
		preset["pediatric"] = legacyPediatricIDs[id]
	}
}

// SchemaVersionOf returns the schemaVersion of a raw document. ok is false
// when it is missing, not a whole number, or outside the int32 range.
func SchemaVersionOf(raw map[string]any) (int, bool) {
	v, ok := raw["schemaVersion"].(float64)
	if !ok || v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
