package catalog

import (
	"fmt"

	"github.com/phleb-loss-tracker/internal/domain"
)

// Diagnostic is a non-fatal catalog problem. Calculations still run; the
// offending reference simply contributes nothing.
type Diagnostic struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// Lint reports dangling references and out-of-range values in a catalog.
func Lint(cfg *domain.Config) []Diagnostic {
	var out []Diagnostic
	add := func(path, format string, args ...any) {
		out = append(out, Diagnostic{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if len(cfg.EBVPresets) == 0 {
		add("ebvPresets", "no EBV presets defined; EBV cannot be computed without an override")
	}
	presetIDs := map[string]bool{}
	for i, p := range cfg.EBVPresets {
		path := fmt.Sprintf("ebvPresets[%d]", i)
		if presetIDs[p.ID] {
			add(path, "duplicate preset id %q", p.ID)
		}
		presetIDs[p.ID] = true
		if p.MlPerKg.Float() <= 0 {
			add(path, "mlPerKg must be greater than 0 (preset %q)", p.ID)
		}
	}

	tubeIDs := map[string]bool{}
	for i, t := range cfg.Tubes {
		path := fmt.Sprintf("tubes[%d]", i)
		if tubeIDs[t.ID] {
			add(path, "duplicate tube id %q", t.ID)
		}
		tubeIDs[t.ID] = true
		if t.Ml.Float() < 0 {
			add(path, "ml must not be negative (tube %q)", t.ID)
		}
	}

	orderableIDs := map[string]bool{}
	for i, o := range cfg.Orderables {
		path := fmt.Sprintf("orderables[%d]", i)
		if orderableIDs[o.ID] {
			add(path, "duplicate orderable id %q", o.ID)
		}
		orderableIDs[o.ID] = true
		for j, req := range o.Requirements {
			reqPath := fmt.Sprintf("%s.requirements[%d]", path, j)
			if !tubeIDs[req.TubeID] {
				add(reqPath, "orderable %q references unknown tube %q", o.ID, req.TubeID)
			}
			if req.Count.Float() < 0 {
				add(reqPath, "count must not be negative (orderable %q)", o.ID)
			}
		}
	}

	bundleIDs := map[string]bool{}
	for i, b := range cfg.Bundles {
		path := fmt.Sprintf("bundles[%d]", i)
		if bundleIDs[b.ID] {
			add(path, "duplicate bundle id %q", b.ID)
		}
		bundleIDs[b.ID] = true
		for _, id := range b.Includes {
			if !orderableIDs[id] {
				add(path, "bundle %q includes unknown orderable %q", b.ID, id)
			}
		}
	}

	if cfg.Thresholds.PedsDailyMlPerKgWarn.Float() < 0 {
		add("thresholds.pedsDailyMlPerKgWarn", "threshold must not be negative")
	}
	if cfg.Thresholds.AdultHighIntensityDailyMl.Float() < 0 {
		add("thresholds.adultHighIntensityDailyMl", "threshold must not be negative")
	}

	return out
}
