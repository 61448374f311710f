package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

const (
	// StatusResourceURI serves index_status output as JSON.
	StatusResourceURI = "osai://index/status"
	// SummaryResourceURI serves a markdown summary of the index.
	SummaryResourceURI = "osai://index/summary"
	// ConfigResourceURI serves the active settings as YAML.
	ConfigResourceURI = "osai://config"
)

// ResourceContent contains the content of a resource.
type ResourceContent struct {
	URI      string
	Content  string
	MIMEType string
}

func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "index_status",
			URI:         StatusResourceURI,
			Description: "Index readiness, entry counts and rebuild progress",
			MIMEType:    "application/json",
		},
		s.makeResourceHandler(StatusResourceURI),
	)
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "index_summary",
			URI:         SummaryResourceURI,
			Description: "Human-readable index summary",
			MIMEType:    "text/markdown",
		},
		s.makeResourceHandler(SummaryResourceURI),
	)
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "config",
			URI:         ConfigResourceURI,
			Description: "Active indexer settings",
			MIMEType:    "text/x-yaml",
		},
		s.makeResourceHandler(ConfigResourceURI),
	)
}

func (s *Server) makeResourceHandler(uri string) mcp.ResourceHandler {
	return func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		rc, err := s.ReadResource(ctx, uri)
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      rc.URI,
				MIMEType: rc.MIMEType,
				Text:     rc.Content,
			}},
		}, nil
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(_ context.Context, uri string) (*ResourceContent, error) {
	switch uri {
	case StatusResourceURI:
		data, err := json.MarshalIndent(s.indexStatus(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode index status: %w", err)
		}
		return &ResourceContent{URI: uri, Content: string(data), MIMEType: "application/json"}, nil
	case SummaryResourceURI:
		return &ResourceContent{URI: uri, Content: FormatIndexStatus(s.backend.Stats()), MIMEType: "text/markdown"}, nil
	case ConfigResourceURI:
		data, err := yaml.Marshal(s.backend.Settings())
		if err != nil {
			return nil, fmt.Errorf("failed to encode settings: %w", err)
		}
		return &ResourceContent{URI: uri, Content: string(data), MIMEType: "text/x-yaml"}, nil
	default:
		return nil, NewResourceNotFoundError(uri)
	}
}
