package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/phleb-loss-tracker/internal/calc"
	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/session"
	"github.com/phleb-loss-tracker/internal/storage"
	"github.com/phleb-loss-tracker/internal/view"
)

// CalculateParams defines parameters for calculate_blood_loss
type CalculateParams struct {
	State  any `json:"state" jsonschema:"patient state document with patient and days"`
	Config any `json:"config,omitempty" jsonschema:"optional catalog document; the built-in catalog is used when omitted"`
}

// CalculateResult is returned by calculate_blood_loss
type CalculateResult struct {
	Report *domain.Report `json:"report"`
	View   view.ViewModel `json:"view"`
}

// EmptyParams is used by tools without arguments.
type EmptyParams struct{}

// UpdatePatientParams defines parameters for update_patient
type UpdatePatientParams struct {
	WeightKg           *float64 `json:"weight_kg,omitempty" jsonschema:"patient weight in kg; 0 marks it unknown"`
	EBVPresetID        *string  `json:"ebv_preset_id,omitempty" jsonschema:"id of an EBV preset"`
	EBVOverrideMlPerKg *float64 `json:"ebv_override_ml_per_kg,omitempty" jsonschema:"EBV override in mL/kg; 0 clears it"`
	ContextFlags       []string `json:"context_flags,omitempty" jsonschema:"free-form context flags"`
}

// DayParams identifies a day by zero-based index.
type DayParams struct {
	DayIndex int `json:"day_index" jsonschema:"zero-based index of the day"`
}

// SetDayOrderablesParams defines parameters for set_day_orderables
type SetDayOrderablesParams struct {
	DayIndex   int      `json:"day_index" jsonschema:"zero-based index of the day"`
	Orderables []string `json:"orderables" jsonschema:"orderable ids selected for the day"`
}

// SetLineWasteParams defines parameters for set_line_waste
type SetLineWasteParams struct {
	DayIndex    int     `json:"day_index" jsonschema:"zero-based index of the day"`
	LineWasteMl float64 `json:"line_waste_ml" jsonschema:"line waste in mL"`
}

// ApplyBundleParams defines parameters for apply_bundle
type ApplyBundleParams struct {
	DayIndex int    `json:"day_index" jsonschema:"zero-based index of the day"`
	BundleID string `json:"bundle_id" jsonschema:"id of the bundle"`
}

// ListOrderablesParams defines parameters for list_orderables
type ListOrderablesParams struct {
	DayIndex *int `json:"day_index,omitempty" jsonschema:"optional zero-based day index to mark selections"`
}

// CatalogListing is returned by list_orderables without a day.
type CatalogListing struct {
	Groups  []catalog.Group `json:"groups"`
	Bundles []domain.Bundle `json:"bundles"`
}

// SetTubeVolumeParams defines parameters for set_tube_volume
type SetTubeVolumeParams struct {
	TubeID string  `json:"tube_id" jsonschema:"id of the tube"`
	Ml     float64 `json:"ml" jsonschema:"draw volume in mL"`
}

// ImportStateParams defines parameters for import_state
type ImportStateParams struct {
	State any `json:"state" jsonschema:"patient state document with patient and days"`
}

// ImportConfigParams defines parameters for import_config
type ImportConfigParams struct {
	Config any `json:"config" jsonschema:"catalog document with tubes and orderables"`
}

// AddDayResult is returned by add_day
type AddDayResult struct {
	Day  domain.Day     `json:"day"`
	View view.ViewModel `json:"view"`
}

func (s *Server) handleCalculateBloodLoss(ctx context.Context, req *mcp.CallToolRequest, params CalculateParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "calculate_blood_loss").Info("Tool invoked")

	stateData, err := documentBytes(params.State)
	if err != nil {
		return s.createErrorResult("Invalid state", err), nil, nil
	}
	configData, err := documentBytes(params.Config)
	if err != nil {
		return s.createErrorResult("Invalid config", err), nil, nil
	}

	cfg, state, report, err := s.evaluator.Evaluate(ctx, configData, stateData)
	if err != nil {
		return s.toolError(err), nil, nil
	}

	result := CalculateResult{Report: report, View: view.Build(cfg, state, report)}
	return s.jsonResult(summarize(report), result), nil, nil
}

func (s *Server) handleGetSessionReport(ctx context.Context, req *mcp.CallToolRequest, _ EmptyParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "get_session_report").Info("Tool invoked")
	return s.viewResult(ctx, "Current session"), nil, nil
}

func (s *Server) handleUpdatePatient(ctx context.Context, req *mcp.CallToolRequest, params UpdatePatientParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "update_patient").Info("Tool invoked")

	err := s.session.UpdatePatient(ctx, session.PatientUpdate{
		WeightKg:           params.WeightKg,
		EBVPresetID:        params.EBVPresetID,
		EBVOverrideMlPerKg: params.EBVOverrideMlPerKg,
		ContextFlags:       params.ContextFlags,
	})
	if err != nil {
		return s.toolError(err), nil, nil
	}
	return s.viewResult(ctx, "Patient updated"), nil, nil
}

func (s *Server) handleAddDay(ctx context.Context, req *mcp.CallToolRequest, _ EmptyParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "add_day").Info("Tool invoked")

	day, err := s.session.AddDay(ctx)
	if err != nil {
		return s.toolError(err), nil, nil
	}
	result := AddDayResult{Day: day, View: view.ForSession(ctx, s.session)}
	return s.jsonResult(fmt.Sprintf("Added HD %d (%s)", day.HD, day.DateISO), result), nil, nil
}

func (s *Server) handleRemoveDay(ctx context.Context, req *mcp.CallToolRequest, params DayParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "remove_day").Info("Tool invoked")

	if err := s.session.RemoveDay(ctx, params.DayIndex); err != nil {
		return s.toolError(err), nil, nil
	}
	return s.viewResult(ctx, fmt.Sprintf("Removed day %d", params.DayIndex)), nil, nil
}

func (s *Server) handleSetDayOrderables(ctx context.Context, req *mcp.CallToolRequest, params SetDayOrderablesParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "set_day_orderables").Info("Tool invoked")

	if err := s.session.SetOrderables(ctx, params.DayIndex, params.Orderables); err != nil {
		return s.toolError(err), nil, nil
	}
	return s.viewResult(ctx, fmt.Sprintf("Orderables set for day %d", params.DayIndex)), nil, nil
}

func (s *Server) handleSetLineWaste(ctx context.Context, req *mcp.CallToolRequest, params SetLineWasteParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "set_line_waste").Info("Tool invoked")

	if err := s.session.SetDayWaste(ctx, params.DayIndex, params.LineWasteMl); err != nil {
		return s.toolError(err), nil, nil
	}
	return s.viewResult(ctx, fmt.Sprintf("Line waste set for day %d", params.DayIndex)), nil, nil
}

func (s *Server) handleApplyBundle(ctx context.Context, req *mcp.CallToolRequest, params ApplyBundleParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "apply_bundle").Info("Tool invoked")

	if err := s.session.ApplyBundle(ctx, params.DayIndex, params.BundleID); err != nil {
		return s.toolError(err), nil, nil
	}
	return s.viewResult(ctx, fmt.Sprintf("Bundle %s applied to day %d", params.BundleID, params.DayIndex)), nil, nil
}

func (s *Server) handleListOrderables(ctx context.Context, req *mcp.CallToolRequest, params ListOrderablesParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_orderables").Info("Tool invoked")

	if params.DayIndex != nil {
		panel, err := view.PanelForSession(ctx, s.session, *params.DayIndex)
		if err != nil {
			return s.toolError(err), nil, nil
		}
		return s.jsonResult(panel.Title, panel), nil, nil
	}

	cfg := s.session.Config()
	listing := CatalogListing{
		Groups:  catalog.GroupOrderables(cfg.Orderables, cfg.CategoryOrder()),
		Bundles: cfg.Bundles,
	}
	return s.jsonResult(fmt.Sprintf("%d orderables in %d categories", len(cfg.Orderables), len(listing.Groups)), listing), nil, nil
}

func (s *Server) handleSetTubeVolume(ctx context.Context, req *mcp.CallToolRequest, params SetTubeVolumeParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "set_tube_volume").Info("Tool invoked")

	if err := s.session.SetTubeMl(ctx, params.TubeID, params.Ml); err != nil {
		return s.toolError(err), nil, nil
	}
	return s.viewResult(ctx, fmt.Sprintf("Tube %s updated", params.TubeID)), nil, nil
}

func (s *Server) handleExportState(ctx context.Context, req *mcp.CallToolRequest, _ EmptyParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "export_state").Info("Tool invoked")

	data, err := s.session.ExportState()
	if err != nil {
		return s.toolError(err), nil, nil
	}
	return textResult(string(data)), nil, nil
}

func (s *Server) handleImportState(ctx context.Context, req *mcp.CallToolRequest, params ImportStateParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "import_state").Info("Tool invoked")

	data, err := documentBytes(params.State)
	if err != nil {
		return s.createErrorResult("Invalid state", err), nil, nil
	}
	if err := s.session.ImportState(ctx, data); err != nil {
		return s.toolError(err), nil, nil
	}
	return s.viewResult(ctx, "State imported"), nil, nil
}

func (s *Server) handleExportConfig(ctx context.Context, req *mcp.CallToolRequest, _ EmptyParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "export_config").Info("Tool invoked")

	data, err := s.session.ExportConfig()
	if err != nil {
		return s.toolError(err), nil, nil
	}
	return textResult(string(data)), nil, nil
}

func (s *Server) handleImportConfig(ctx context.Context, req *mcp.CallToolRequest, params ImportConfigParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "import_config").Info("Tool invoked")

	data, err := documentBytes(params.Config)
	if err != nil {
		return s.createErrorResult("Invalid config", err), nil, nil
	}
	if err := s.session.ImportConfig(ctx, data); err != nil {
		return s.toolError(err), nil, nil
	}
	return s.viewResult(ctx, "Config imported"), nil, nil
}

// documentBytes re-encodes a decoded JSON argument. A string argument is
// taken as JSON text. nil yields nil.
func documentBytes(doc any) ([]byte, error) {
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

func summarize(report *domain.Report) string {
	return fmt.Sprintf("Cumulative loss %s mL over %d days (%s%% EBV)",
		calc.FormatPlain(report.CumulativeMl), len(report.Rows), calc.FormatFixed(report.CumulativePctEBV, 1))
}

func (s *Server) viewResult(ctx context.Context, headline string) *mcp.CallToolResult {
	cfg, state, report := s.session.Snapshot(ctx)
	return s.jsonResult(headline+". "+summarize(report), view.Build(cfg, state, report))
}

// jsonResult returns a headline followed by the indented JSON payload.
func (s *Server) jsonResult(headline string, payload any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return s.createErrorResult("Failed to encode result", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: headline},
			&mcp.TextContent{Text: string(data)},
		},
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// toolError turns a session error into an error result the model can read.
func (s *Server) toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, session.ErrDayNotFound):
		return s.createErrorResult("Day not found", err)
	case errors.Is(err, session.ErrBundleNotFound):
		return s.createErrorResult("Bundle not found", err)
	case errors.Is(err, session.ErrTubeNotFound):
		return s.createErrorResult("Tube not found", err)
	case errors.Is(err, storage.ErrInvalidState):
		return s.createErrorResult("Invalid state", err)
	case errors.Is(err, catalog.ErrInvalidConfig):
		return s.createErrorResult("Invalid config", err)
	}
	s.logger.WithError(err).Error("Tool failed")
	return s.createErrorResult("Failed to save changes", err)
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
