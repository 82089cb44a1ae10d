package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/phleb-loss-tracker/internal/view"
)

// Resource URIs served by the session.
const (
	StateResourceURI  = "phleb://session/state"
	ConfigResourceURI = "phleb://session/config"
	ViewResourceURI   = "phleb://session/view"
)

const jsonMIME = "application/json"

// registerResources exposes the live session documents as read-only resources.
func (s *Server) registerResources() {
	resources := []*mcp.Resource{
		{URI: StateResourceURI, Name: "state", Description: "Patient state: weight, EBV selection and hospital days.", MIMEType: jsonMIME},
		{URI: ConfigResourceURI, Name: "config", Description: "Effective catalog: presets, tubes, orderables, bundles and thresholds.", MIMEType: jsonMIME},
		{URI: ViewResourceURI, Name: "view", Description: "Rendered session view with per-day figures and warnings.", MIMEType: jsonMIME},
	}
	for _, r := range resources {
		s.mcpServer.AddResource(r, s.handleReadResource)
		s.resourceURIs = append(s.resourceURIs, r.URI)
	}
	s.logger.WithField("resource_count", len(resources)).Debug("Registered MCP resources")
}

func (s *Server) handleReadResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	text, err := s.readResource(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: jsonMIME, Text: text}},
	}, nil
}

// readResource renders the document behind uri.
func (s *Server) readResource(ctx context.Context, uri string) (string, error) {
	s.logger.WithFields(logrus.Fields{"resource": uri}).Debug("Resource read")

	var (
		data []byte
		err  error
	)
	switch uri {
	case StateResourceURI:
		data, err = s.session.ExportState()
	case ConfigResourceURI:
		data, err = s.session.ExportConfig()
	case ViewResourceURI:
		data, err = json.MarshalIndent(view.ForSession(ctx, s.session), "", "  ")
	default:
		return "", mcp.ResourceNotFoundError(uri)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", uri, err)
	}
	return string(data), nil
}

// ResourceURIs lists the registered resources.
func (s *Server) ResourceURIs() []string {
	return append([]string(nil), s.resourceURIs...)
}
