// Package view renders a catalog, state and report into the display model
// every front end shows: metric cards, the day table, totals, warnings and
// the grouped panel picker.
package view

import (
	"context"
	"fmt"

	"github.com/phleb-loss-tracker/internal/calc"
	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/session"
)

// Display strings.
const (
	Dash           = "—"
	NoneSelected   = "None selected"
	EBVNotSet      = "EBV not set"
	NoWarningsText = "No warnings triggered by current thresholds."
	defaultInstLbl = "Config"
)

// Metric is a labelled value with an optional sub-line.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Sub   string `json:"sub"`
}

// PresetOption is one entry of the EBV preset picker.
type PresetOption struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Pill is a selected orderable shown on a day row.
type Pill struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
	Muted bool   `json:"muted,omitempty"`
}

// DayView is one row of the day table.
type DayView struct {
	Index       int     `json:"index"`
	HD          int     `json:"hd"`
	DateISO     string  `json:"dateISO"`
	DateLabel   string  `json:"dateLabel"`
	Pills       []Pill  `json:"pills"`
	LineWasteMl float64 `json:"lineWasteMl"`
	DailyMl     string  `json:"dailyMl"`
	MlPerKgDay  string  `json:"mlPerKgDay"`
	PctEBV      string  `json:"pctEBV"`
}

// PatientView echoes the editable patient fields.
type PatientView struct {
	WeightKg           *float64 `json:"weightKg"`
	EBVPresetID        string   `json:"ebvPresetId"`
	EBVOverrideMlPerKg *float64 `json:"ebvOverrideMlPerKg"`
	ContextFlags       []string `json:"contextFlags"`
}

// ViewModel is the complete display model of a session.
type ViewModel struct {
	InstitutionLine string           `json:"institutionLine"`
	Presets         []PresetOption   `json:"presets"`
	Patient         PatientView      `json:"patient"`
	PatientMetrics  []Metric         `json:"patientMetrics"`
	Days            []DayView        `json:"days"`
	Totals          []Metric         `json:"totals"`
	Warnings        []domain.Warning `json:"warnings"`
	Diagnostics     []string         `json:"diagnostics"`
}

// ForSession renders the current session.
func ForSession(ctx context.Context, s *session.Session) ViewModel {
	cfg, state, report := s.Snapshot(ctx)
	return Build(cfg, state, report)
}

// Build renders a report computed from cfg and state.
func Build(cfg *domain.Config, state *domain.State, report *domain.Report) ViewModel {
	vm := ViewModel{
		InstitutionLine: InstitutionLine(cfg),
		Presets:         presetOptions(cfg, state.Patient.EBVPresetID),
		Patient:         patientView(state.Patient),
		Days:            make([]DayView, 0, len(state.Days)),
		Warnings:        Warnings(report.Warnings),
		Diagnostics:     make([]string, 0),
	}

	cumulative := cumulativeMetric("Cumulative phlebotomy + waste", report)
	vm.PatientMetrics = []Metric{ebvMetric(report), cumulative}

	labels := orderableLabels(cfg)
	for i, day := range state.Days {
		var row domain.DayRow
		if i < len(report.Rows) {
			row = report.Rows[i]
		}
		vm.Days = append(vm.Days, DayView{
			Index:       i,
			HD:          day.HD,
			DateISO:     day.DateISO,
			DateLabel:   session.FormatDDMMM(day.DateISO),
			Pills:       pills(day.Orderables, labels),
			LineWasteMl: day.LineWasteMl.Float(),
			DailyMl:     calc.FormatFixed(row.DailyMl, 1),
			MlPerKgDay:  calc.FormatFixed(row.MlPerKgDay, 2),
			PctEBV:      calc.FormatFixed(row.PctEBV, 2),
		})
	}

	cumulative.Label = "Cumulative loss"
	vm.Totals = []Metric{
		{Label: "Total days", Value: fmt.Sprint(len(state.Days))},
		cumulative,
	}

	for _, d := range catalog.Lint(cfg) {
		vm.Diagnostics = append(vm.Diagnostics, d.String())
	}
	return vm
}

// InstitutionLine renders the catalog name and schema version for the header.
func InstitutionLine(cfg *domain.Config) string {
	name := cfg.Institution.Name
	if name == "" {
		name = defaultInstLbl
	}
	return fmt.Sprintf("%s — schema v%d", name, cfg.SchemaVersion)
}

// Warnings returns the warning list, or the single all-clear record when
// there is nothing to report.
func Warnings(warnings []domain.Warning) []domain.Warning {
	if len(warnings) == 0 {
		return []domain.Warning{{Level: domain.LevelGood, Text: NoWarningsText}}
	}
	return append([]domain.Warning{}, warnings...)
}

func ebvMetric(report *domain.Report) Metric {
	value := Dash
	if report.EBVMl != 0 {
		value = calc.FormatPlain(calc.Round1(report.EBVMl)) + " mL"
	}
	weight := Dash
	if report.WeightKg != 0 {
		weight = calc.FormatPlain(report.WeightKg)
	}
	return Metric{
		Label: "EBV",
		Value: value,
		Sub:   fmt.Sprintf("%s mL/kg × %s kg", calc.FormatPlain(report.MlPerKg), weight),
	}
}

func cumulativeMetric(label string, report *domain.Report) Metric {
	sub := EBVNotSet
	if report.EBVMl != 0 {
		sub = calc.FormatPlain(calc.Round1(report.CumulativePctEBV)) + "% EBV"
	}
	return Metric{
		Label: label,
		Value: calc.FormatPlain(calc.Round1(report.CumulativeMl)) + " mL",
		Sub:   sub,
	}
}

func presetOptions(cfg *domain.Config, selected string) []PresetOption {
	out := make([]PresetOption, 0, len(cfg.EBVPresets))
	for _, p := range cfg.EBVPresets {
		out = append(out, PresetOption{
			ID:       p.ID,
			Label:    fmt.Sprintf("%s (%s mL/kg)", p.Label, calc.FormatPlain(p.MlPerKg.Float())),
			Selected: p.ID == selected,
		})
	}
	return out
}

func patientView(p domain.Patient) PatientView {
	pv := PatientView{
		EBVPresetID:  p.EBVPresetID,
		ContextFlags: append([]string{}, p.ContextFlags...),
	}
	if p.WeightKg != nil {
		w := p.WeightKg.Float()
		pv.WeightKg = &w
	}
	if p.EBVOverrideMlPerKg != nil {
		v := p.EBVOverrideMlPerKg.Float()
		pv.EBVOverrideMlPerKg = &v
	}
	return pv
}

func orderableLabels(cfg *domain.Config) map[string]string {
	labels := make(map[string]string, len(cfg.Orderables))
	for _, o := range cfg.Orderables {
		labels[o.ID] = o.Label
	}
	return labels
}

func pills(selected []string, labels map[string]string) []Pill {
	if len(selected) == 0 {
		return []Pill{{Label: NoneSelected, Muted: true}}
	}
	out := make([]Pill, 0, len(selected))
	for _, id := range selected {
		label := labels[id]
		if label == "" {
			label = id
		}
		out = append(out, Pill{ID: id, Label: label})
	}
	return out
}
