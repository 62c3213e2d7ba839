package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/catsync/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for catsync resources.
	uriScheme = "catsync://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "items",
		Name:        "items",
		Description: "All known items with their local state",
		MIMEType:    "application/json",
	}, s.handleItemsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "items/{name}",
		Name:        "item-payload",
		Description: "Local payload of a downloaded item",
		MIMEType:    "text/plain",
	}, s.handleItemPayloadResource)
}

// handleItemsResource returns the item list as JSON.
func (s *Server) handleItemsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	items := s.ports.Engine.Items()
	outputs := make([]ItemOutput, len(items))
	for i, item := range items {
		outputs[i] = s.itemOutput(item)
	}

	data, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling items: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleItemPayloadResource returns the local payload of one item.
func (s *Server) handleItemPayloadResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractItemName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := s.ports.Engine.ReadPayload(name)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNotLocal) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     string(data),
		}},
	}, nil
}

// extractItemName extracts the item name from a URI like catsync://items/{name}.
func extractItemName(uri string) string {
	const prefix = uriScheme + "items/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	name := strings.TrimPrefix(uri, prefix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}
