package domain

// Config is the versioned, user-editable catalog that drives every
// calculation: EBV presets, tubes, orderables, bundles and thresholds.
type Config struct {
	SchemaVersion int            `json:"schemaVersion"`
	Institution   Institution    `json:"institution"`
	EBVPresets    []EBVPreset    `json:"ebvPresets"`
	Tubes         []Tube         `json:"tubes"`
	Orderables    []Orderable    `json:"orderables"`
	Bundles       []Bundle       `json:"bundles"`
	Thresholds    Thresholds     `json:"thresholds"`
	UI            map[string]any `json:"ui"`
}

// Institution is display metadata only.
type Institution struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// EBVPreset is a named blood-volume constant in mL/kg.
type EBVPreset struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	MlPerKg   Quantity `json:"mlPerKg"`
	Pediatric bool     `json:"pediatric"`
}

// Tube is a specimen container with a fixed draw volume. A zero volume is
// valid for specimens that do not contribute to blood loss.
type Tube struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Ml     Quantity `json:"ml"`
	Family string   `json:"family"`
}

// Orderable is a clinician-facing lab test or panel.
type Orderable struct {
	ID           string        `json:"id"`
	Label        string        `json:"label"`
	Category     string        `json:"category"`
	Requirements []Requirement `json:"requirements"`
}

// Requirement is one tube draw needed by an orderable.
type Requirement struct {
	TubeID string   `json:"tubeId"`
	Count  Quantity `json:"count"`
}

// Bundle groups orderables for one-click selection.
type Bundle struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Includes []string `json:"includes"`
}

// Thresholds configures the warning rules. A zero value disables a rule.
type Thresholds struct {
	PedsDailyMlPerKgWarn      Quantity `json:"pedsDailyMlPerKgWarn"`
	AdultHighIntensityDailyMl Quantity `json:"adultHighIntensityDailyMl"`
}

// FindPreset returns the preset with the given id.
func (c *Config) FindPreset(id string) (EBVPreset, bool) {
	for _, p := range c.EBVPresets {
		if p.ID == id {
			return p, true
		}
	}
	return EBVPreset{}, false
}

// ResolvePreset returns the preset with the given id, falling back to the
// first preset. ok is false only when the catalog has no presets.
func (c *Config) ResolvePreset(id string) (EBVPreset, bool) {
	if p, found := c.FindPreset(id); found {
		return p, true
	}
	if len(c.EBVPresets) > 0 {
		return c.EBVPresets[0], true
	}
	return EBVPreset{}, false
}

// FindOrderable returns the orderable with the given id.
func (c *Config) FindOrderable(id string) (Orderable, bool) {
	for _, o := range c.Orderables {
		if o.ID == id {
			return o, true
		}
	}
	return Orderable{}, false
}

// FindBundle returns the bundle with the given id.
func (c *Config) FindBundle(id string) (Bundle, bool) {
	for _, b := range c.Bundles {
		if b.ID == id {
			return b, true
		}
	}
	return Bundle{}, false
}

// CategoryOrder returns ui.defaultOrderableCategoryOrder as strings.
func (c *Config) CategoryOrder() []string {
	raw, ok := c.UI["defaultOrderableCategoryOrder"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Clone returns a deep copy of the catalog.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	if c.EBVPresets != nil {
		out.EBVPresets = append([]EBVPreset{}, c.EBVPresets...)
	}
	if c.Tubes != nil {
		out.Tubes = append([]Tube{}, c.Tubes...)
	}
	if c.Orderables != nil {
		out.Orderables = make([]Orderable, len(c.Orderables))
		for i, o := range c.Orderables {
			out.Orderables[i] = o
			if o.Requirements != nil {
				out.Orderables[i].Requirements = append([]Requirement{}, o.Requirements...)
			}
		}
	}
	if c.Bundles != nil {
		out.Bundles = make([]Bundle, len(c.Bundles))
		for i, b := range c.Bundles {
			out.Bundles[i] = b
			if b.Includes != nil {
				out.Bundles[i].Includes = append([]string{}, b.Includes...)
			}
		}
	}
	if c.UI != nil {
		out.UI = cloneValue(c.UI).(map[string]any)
	}
	return &out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = cloneValue(item)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, item := range t {
			s[i] = cloneValue(item)
		}
		return s
	case []string:
		return append([]string{}, t...)
	default:
		return v
	}
}
