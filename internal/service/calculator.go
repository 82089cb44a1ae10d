package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/phleb-loss-tracker/internal/domain"
)

// Calculator runs aggregation and warning evaluation from scratch on every
// call. Nothing is cached between calls.
type Calculator struct {
	logger *logrus.Logger
}

var _ domain.Calculator = (*Calculator)(nil)

// NewCalculator creates a new calculator
func NewCalculator(logger *logrus.Logger) *Calculator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Calculator{logger: logger}
}

// Compute produces the full report for a catalog and state.
func (c *Calculator) Compute(ctx context.Context, cfg *domain.Config, state *domain.State) *domain.Report {
	if state == nil {
		state = &domain.State{}
	}

	summary := Aggregate(cfg, state.Patient, state.Days)
	warnings := EvaluateWarnings(WarningInput{
		Config:           cfg,
		Patient:          state.Patient,
		Days:             state.Days,
		Rows:             summary.Rows,
		WeightKg:         summary.WeightKg,
		EBVMl:            summary.EBVMl,
		CumulativePctEBV: summary.CumulativePctEBV,
	})

	report := &domain.Report{
		Summary:   summary,
		Pediatric: IsPediatric(cfg, state.Patient),
		Warnings:  warnings,
	}

	c.logger.WithFields(logrus.Fields{
		"days":               len(state.Days),
		"ebv_ml":             summary.EBVMl,
		"cumulative_ml":      summary.CumulativeMl,
		"cumulative_pct_ebv": summary.CumulativePctEBV,
		"warnings":           len(warnings),
	}).Debug("Computed blood loss report")

	return report
}
