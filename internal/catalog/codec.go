package catalog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phleb-loss-tracker/internal/domain"
)

// ErrInvalidConfig is returned when an imported catalog has the wrong shape.
var ErrInvalidConfig = errors.New("invalid config")

// ParseImport validates an imported catalog document and returns it as a
// raw map. The document must be a JSON object with tubes and orderables
// arrays. Optional sections with the wrong JSON shape are replaced by the
// built-in ones, presets without a pediatric flag get the legacy
// classification, and a missing or non-numeric schemaVersion is set to the
// current one.
func ParseImport(data []byte) (map[string]any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidConfig, err)
	}

	raw, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: invalid JSON: expected an object", ErrInvalidConfig)
	}

	_, tubesOK := raw["tubes"].([]any)
	_, orderablesOK := raw["orderables"].([]any)
	if !tubesOK || !orderablesOK {
		return nil, fmt.Errorf("%w: config must include tubes[] and orderables[]", ErrInvalidConfig)
	}

	restoreMistypedSections(raw)
	fillPediatricFlags(raw)

	if _, ok := raw["schemaVersion"].(float64); !ok {
		raw["schemaVersion"] = float64(CurrentSchemaVersion)
	}

	if _, err := Decode(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// DecodeImport validates an imported catalog and decodes it.
func DecodeImport(data []byte) (*domain.Config, error) {
	raw, err := ParseImport(data)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// Decode converts a raw catalog document into its typed form. Fields with
// the wrong JSON type are dropped rather than failing the whole document.
func Decode(raw map[string]any) (*domain.Config, error) {
	data, err := json.Marshal(normalizeDocument(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := &domain.Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Encode renders a catalog as indented JSON.
func Encode(cfg *domain.Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// ToMap converts a typed catalog into its raw document form.
func ToMap(cfg *domain.Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
