package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/services"
)

// ListItemsInput is the input schema for the list_items tool.
type ListItemsInput struct {
	Filter      string `json:"filter,omitempty" jsonschema:"words that must appear in the item name"`
	LocalOnly   bool   `json:"local_only,omitempty" jsonschema:"only return locally present items"`
	UpdatesOnly bool   `json:"updates_only,omitempty" jsonschema:"only return items with an update available"`
}

// ListItemsOutput is the output schema for the list_items tool.
type ListItemsOutput struct {
	Items []ItemOutput `json:"items"`
	Count int          `json:"count"`
}

// ItemOutput represents a single item.
type ItemOutput struct {
	Name            string `json:"name"`
	SourceURL       string `json:"source_url,omitempty"`
	LocallyPresent  bool   `json:"locally_present"`
	UpdateAvailable bool   `json:"update_available"`
	Downloading     bool   `json:"downloading"`
	LastDownload    string `json:"last_download,omitempty"`
	LastUpdateCheck string `json:"last_update_check,omitempty"`
}

// DownloadItemInput is the input schema for the download_item tool.
type DownloadItemInput struct {
	Name string `json:"name" jsonschema:"the item name"`
	Wait bool   `json:"wait,omitempty" jsonschema:"wait for the download to finish"`
}

// DownloadItemOutput is the output schema for the download_item tool.
type DownloadItemOutput struct {
	Queued  bool       `json:"queued"`
	Message string     `json:"message"`
	Item    ItemOutput `json:"item"`
}

// RefreshCatalogInput is the input schema for the refresh_catalog tool.
type RefreshCatalogInput struct {
	Wait bool `json:"wait,omitempty" jsonschema:"wait for the refresh to finish"`
}

// CheckUpdatesInput is the input schema for the check_updates tool.
type CheckUpdatesInput struct {
	Wait bool `json:"wait,omitempty" jsonschema:"wait for the checks to finish"`
}

// CheckUpdatesOutput is the output schema for the check_updates tool.
type CheckUpdatesOutput struct {
	Queued  int      `json:"queued"`
	Updates []string `json:"updates"`
}

// StatusInput is the input schema for the status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the status and refresh_catalog tools.
type StatusOutput struct {
	Healthy           bool `json:"connection_healthy"`
	CatalogRefreshing bool `json:"catalog_refreshing"`
	Busy              bool `json:"busy"`
	Items             int  `json:"items"`
	Local             int  `json:"local"`
	Updates           int  `json:"updates_available"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_items",
		Description: "List catalog items with their local state",
	}, s.handleListItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "download_item",
		Description: "Download or re-download an item payload",
	}, s.handleDownloadItem)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "refresh_catalog",
		Description: "Fetch the catalog listing now",
	}, s.handleRefreshCatalog)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_updates",
		Description: "Check every local item for a newer remote version",
	}, s.handleCheckUpdates)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report connection health and item counts",
	}, s.handleStatus)
}

func (s *Server) handleListItems(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListItemsInput,
) (*mcp.CallToolResult, ListItemsOutput, error) {
	output := ListItemsOutput{Items: []ItemOutput{}}
	for _, item := range services.FilterItems(s.ports.Engine.Items(), input.Filter) {
		if input.LocalOnly && !item.LocallyPresent {
			continue
		}
		if input.UpdatesOnly && !item.UpdateAvailable {
			continue
		}
		output.Items = append(output.Items, s.itemOutput(item))
	}
	output.Count = len(output.Items)
	return nil, output, nil
}

func (s *Server) handleDownloadItem(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DownloadItemInput,
) (*mcp.CallToolResult, DownloadItemOutput, error) {
	engine := s.ports.Engine
	if err := engine.TriggerDownload(input.Name); err != nil {
		return nil, DownloadItemOutput{}, fmt.Errorf("download %s: %w", input.Name, err)
	}

	output := DownloadItemOutput{Queued: true, Message: "download queued"}
	if input.Wait {
		err := waitFor(ctx, func() bool { return !engine.IsBusyDownloading(input.Name) })
		if err != nil {
			return nil, DownloadItemOutput{}, err
		}
		switch engine.LastResult(input.Name) {
		case domain.StateSuccess:
			output.Message = "download finished"
		case domain.StateNotModified:
			output.Message = "already up to date"
		default:
			output.Message = "download failed"
		}
	}

	if item, ok := engine.Item(input.Name); ok {
		output.Item = s.itemOutput(item)
	}
	return nil, output, nil
}

func (s *Server) handleRefreshCatalog(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RefreshCatalogInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	engine := s.ports.Engine
	engine.TriggerCatalogRefresh()
	if input.Wait {
		if err := waitFor(ctx, func() bool { return !engine.IsCatalogRefreshing() }); err != nil {
			return nil, StatusOutput{}, err
		}
	}
	return nil, s.status(), nil
}

func (s *Server) handleCheckUpdates(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CheckUpdatesInput,
) (*mcp.CallToolResult, CheckUpdatesOutput, error) {
	engine := s.ports.Engine
	output := CheckUpdatesOutput{
		Queued:  engine.TriggerCheckAllForUpdates(),
		Updates: []string{},
	}
	if input.Wait {
		if err := waitFor(ctx, func() bool { return !engine.Busy() }); err != nil {
			return nil, CheckUpdatesOutput{}, err
		}
	}
	for _, item := range engine.Items() {
		if item.UpdateAvailable {
			output.Updates = append(output.Updates, item.Name)
		}
	}
	return nil, output, nil
}

func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return nil, s.status(), nil
}

func (s *Server) status() StatusOutput {
	engine := s.ports.Engine
	out := StatusOutput{
		Healthy:           engine.ConnectionHealthy(),
		CatalogRefreshing: engine.IsCatalogRefreshing(),
		Busy:              engine.Busy(),
	}
	for _, item := range engine.Items() {
		out.Items++
		if item.LocallyPresent {
			out.Local++
		}
		if item.UpdateAvailable {
			out.Updates++
		}
	}
	return out
}

func (s *Server) itemOutput(item domain.Item) ItemOutput {
	return ItemOutput{
		Name:            item.Name,
		SourceURL:       item.SourceURL,
		LocallyPresent:  item.LocallyPresent,
		UpdateAvailable: item.UpdateAvailable,
		Downloading:     s.ports.Engine.IsBusyDownloading(item.Name),
		LastDownload:    formatTime(item.LastDownload),
		LastUpdateCheck: formatTime(item.LastUpdateCheck),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
