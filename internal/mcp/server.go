// Package mcp exposes the calculator session as Model Context Protocol tools
// and resources over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/session"
)

// Server represents the MCP server bound to the live session.
type Server struct {
	configManager domain.ConfigManager
	session       *session.Session
	evaluator     *session.Evaluator
	mcpServer     *mcp.Server
	logger        *logrus.Logger
	instanceID    string
	toolNames     []string
	resourceURIs  []string
}

// NewServer creates a new MCP server instance and registers its tools.
func NewServer(configManager domain.ConfigManager, sess *session.Session, evaluator *session.Evaluator, logger *logrus.Logger) (*Server, error) {
	cfg := configManager.GetConfig()

	serverInfo := &mcp.Implementation{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
	}
	if serverInfo.Name == "" {
		serverInfo.Name = "phleb-loss-tracker"
	}

	server := &Server{
		configManager: configManager,
		session:       sess,
		evaluator:     evaluator,
		mcpServer:     mcp.NewServer(serverInfo, nil),
		logger:        logger,
		instanceID:    uuid.New().String(),
	}

	if err := server.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	server.registerResources()

	return server, nil
}

// Start runs the server on stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"instance_id": s.instanceID,
		"tool_count":  len(s.toolNames),
	}).Info("Starting MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// ToolNames lists the registered tools in registration order.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.toolNames...)
}

func addTool[In any](s *Server, name, description string, handler mcp.ToolHandlerFor[In, any]) {
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: name, Description: description}, handler)
	s.toolNames = append(s.toolNames, name)
	s.logger.WithField("tool_name", name).Debug("Registered MCP tool")
}

// registerTools registers every calculator tool.
func (s *Server) registerTools() error {
	addTool(s, "calculate_blood_loss",
		"Compute a blood-loss report for a supplied patient state and optional catalog without touching the live session.",
		s.handleCalculateBloodLoss)
	addTool(s, "get_session_report",
		"Return the live session: patient, days, per-day figures, cumulative loss and warnings.",
		s.handleGetSessionReport)
	addTool(s, "update_patient",
		"Update weight (kg), EBV preset, EBV override (mL/kg) or context flags. Omitted fields are unchanged; a weight or override of 0 clears it.",
		s.handleUpdatePatient)
	addTool(s, "add_day",
		"Append a hospital day dated the day after the last one.",
		s.handleAddDay)
	addTool(s, "remove_day",
		"Remove the day at a zero-based index and renumber the rest.",
		s.handleRemoveDay)
	addTool(s, "set_day_orderables",
		"Replace the orderables selected for a day.",
		s.handleSetDayOrderables)
	addTool(s, "set_line_waste",
		"Set the line waste in mL for a day. Negative values are stored as 0.",
		s.handleSetLineWaste)
	addTool(s, "apply_bundle",
		"Add every orderable of a bundle to a day's selection.",
		s.handleApplyBundle)
	addTool(s, "list_orderables",
		"List orderables grouped by category, with bundles. With day_index, mark the ones selected for that day.",
		s.handleListOrderables)
	addTool(s, "set_tube_volume",
		"Set the draw volume in mL of a tube in the catalog.",
		s.handleSetTubeVolume)
	addTool(s, "export_state",
		"Export the patient state as JSON.",
		s.handleExportState)
	addTool(s, "import_state",
		"Replace the patient state with a JSON document containing patient and days.",
		s.handleImportState)
	addTool(s, "export_config",
		"Export the effective catalog as JSON.",
		s.handleExportConfig)
	addTool(s, "import_config",
		"Replace the catalog with a JSON document containing tubes and orderables.",
		s.handleImportConfig)

	s.logger.WithField("tool_count", len(s.toolNames)).Info("Successfully registered all tools")
	return nil
}
