package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/session"
	"github.com/phleb-loss-tracker/internal/view"
)

type dateRequest struct {
	DateISO string `json:"dateISO"`
}

type wasteRequest struct {
	LineWasteMl *float64 `json:"lineWasteMl"`
}

type orderablesRequest struct {
	Orderables []string `json:"orderables"`
}

type toggleRequest struct {
	Checked *bool `json:"checked"`
}

type weightRequest struct {
	WeightKg *float64 `json:"weightKg"`
}

type presetRequest struct {
	EBVPresetID string `json:"ebvPresetId"`
}

type overrideRequest struct {
	EBVOverrideMlPerKg *float64 `json:"ebvOverrideMlPerKg"`
}

type flagsRequest struct {
	ContextFlags []string `json:"contextFlags"`
}

type tubeRequest struct {
	Ml *float64 `json:"ml"`
}

// CalculateRequest is the body of POST /calculate. Config is optional.
type CalculateRequest struct {
	Config json.RawMessage `json:"config,omitempty"`
	State  json.RawMessage `json:"state"`
}

// CalculateResponse carries the report and its rendering.
type CalculateResponse struct {
	Report *domain.Report `json:"report"`
	View   view.ViewModel `json:"view"`
}

// AddDayResponse carries the new day and the updated view.
type AddDayResponse struct {
	Day  domain.Day     `json:"day"`
	View view.ViewModel `json:"view"`
}

func (s *Server) respondView(c *gin.Context, status int) {
	c.JSON(status, view.ForSession(c.Request.Context(), s.session))
}

// mutate runs fn and answers with the updated view.
func (s *Server) mutate(c *gin.Context, fn func() error) {
	if err := fn(); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondView(c, http.StatusOK)
}

func dayIndex(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", session.ErrDayNotFound, c.Param("index"))
	}
	return index, nil
}

func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return domain.NewValidationError("body", err.Error(), nil)
	}
	return nil
}

func (s *Server) handleGetView(c *gin.Context) {
	s.respondView(c, http.StatusOK)
}

func (s *Server) handleGetReport(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Report(c.Request.Context()))
}

func (s *Server) handleUpdatePatient(c *gin.Context) {
	var req session.PatientUpdate
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	s.mutate(c, func() error {
		return s.session.UpdatePatient(c.Request.Context(), req)
	})
}

// handleSetWeight sets or, with a null weight, clears the patient weight.
func (s *Server) handleSetWeight(c *gin.Context) {
	s.mutate(c, func() error {
		var req weightRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		kg := 0.0
		if req.WeightKg != nil {
			kg = *req.WeightKg
		}
		return s.session.SetWeight(c.Request.Context(), kg)
	})
}

func (s *Server) handleSetPreset(c *gin.Context) {
	s.mutate(c, func() error {
		var req presetRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		return s.session.SetPreset(c.Request.Context(), req.EBVPresetID)
	})
}

func (s *Server) handleSetOverride(c *gin.Context) {
	s.mutate(c, func() error {
		var req overrideRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		mlPerKg := 0.0
		if req.EBVOverrideMlPerKg != nil {
			mlPerKg = *req.EBVOverrideMlPerKg
		}
		return s.session.SetOverride(c.Request.Context(), mlPerKg)
	})
}

func (s *Server) handleSetContextFlags(c *gin.Context) {
	s.mutate(c, func() error {
		var req flagsRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		return s.session.SetContextFlags(c.Request.Context(), req.ContextFlags)
	})
}

func (s *Server) handleAddDay(c *gin.Context) {
	day, err := s.session.AddDay(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, AddDayResponse{
		Day:  day,
		View: view.ForSession(c.Request.Context(), s.session),
	})
}

func (s *Server) handleRemoveDay(c *gin.Context) {
	s.mutate(c, func() error {
		index, err := dayIndex(c)
		if err != nil {
			return err
		}
		return s.session.RemoveDay(c.Request.Context(), index)
	})
}

func (s *Server) handleSetDayDate(c *gin.Context) {
	s.mutate(c, func() error {
		index, err := dayIndex(c)
		if err != nil {
			return err
		}
		var req dateRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		return s.session.SetDayDate(c.Request.Context(), index, req.DateISO)
	})
}

func (s *Server) handleSetDayWaste(c *gin.Context) {
	s.mutate(c, func() error {
		index, err := dayIndex(c)
		if err != nil {
			return err
		}
		var req wasteRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if req.LineWasteMl == nil {
			return domain.NewValidationError("lineWasteMl", "is required", nil)
		}
		return s.session.SetDayWaste(c.Request.Context(), index, *req.LineWasteMl)
	})
}

func (s *Server) handleSetOrderables(c *gin.Context) {
	s.mutate(c, func() error {
		index, err := dayIndex(c)
		if err != nil {
			return err
		}
		var req orderablesRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		return s.session.SetOrderables(c.Request.Context(), index, req.Orderables)
	})
}

func (s *Server) handleToggleOrderable(c *gin.Context) {
	s.mutate(c, func() error {
		index, err := dayIndex(c)
		if err != nil {
			return err
		}
		var req toggleRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if req.Checked == nil {
			return domain.NewValidationError("checked", "is required", nil)
		}
		return s.session.ToggleOrderable(c.Request.Context(), index, c.Param("id"), *req.Checked)
	})
}

func (s *Server) handleClearOrderables(c *gin.Context) {
	s.mutate(c, func() error {
		index, err := dayIndex(c)
		if err != nil {
			return err
		}
		return s.session.ClearOrderables(c.Request.Context(), index)
	})
}

func (s *Server) handleApplyBundle(c *gin.Context) {
	s.mutate(c, func() error {
		index, err := dayIndex(c)
		if err != nil {
			return err
		}
		return s.session.ApplyBundle(c.Request.Context(), index, c.Param("id"))
	})
}

func (s *Server) handleGetPanel(c *gin.Context) {
	index, err := dayIndex(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	panel, err := view.PanelForSession(c.Request.Context(), s.session, index)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, panel)
}

func (s *Server) handleExportState(c *gin.Context) {
	data, err := s.session.ExportState()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) handleImportState(c *gin.Context) {
	s.mutate(c, func() error {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return domain.NewValidationError("body", err.Error(), nil)
		}
		return s.session.ImportState(c.Request.Context(), data)
	})
}

func (s *Server) handleResetState(c *gin.Context) {
	s.mutate(c, func() error {
		return s.session.ResetState(c.Request.Context())
	})
}

func (s *Server) handleExportConfig(c *gin.Context) {
	data, err := s.session.ExportConfig()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) handleImportConfig(c *gin.Context) {
	s.mutate(c, func() error {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return domain.NewValidationError("body", err.Error(), nil)
		}
		return s.session.ImportConfig(c.Request.Context(), data)
	})
}

func (s *Server) handleResetConfig(c *gin.Context) {
	s.mutate(c, func() error {
		return s.session.ResetConfig(c.Request.Context())
	})
}

func (s *Server) handleSetTubeMl(c *gin.Context) {
	s.mutate(c, func() error {
		var req tubeRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if req.Ml == nil {
			return domain.NewValidationError("ml", "is required", nil)
		}
		return s.session.SetTubeMl(c.Request.Context(), c.Param("id"), *req.Ml)
	})
}

// handleCalculate computes a report for the posted documents without
// touching the live session.
func (s *Server) handleCalculate(c *gin.Context) {
	var req CalculateRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	cfg, state, report, err := s.evaluator.Evaluate(c.Request.Context(), req.Config, req.State)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CalculateResponse{
		Report: report,
		View:   view.Build(cfg, state, report),
	})
}
