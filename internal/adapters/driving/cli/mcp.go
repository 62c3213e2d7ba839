package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catsync/internal/adapters/driving/mcp"
	"github.com/custodia-labs/catsync/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol server exposing the item cache to AI
assistants. The sync engine keeps running in the background while it serves.

Tools: list_items, download_item, refresh_catalog, check_updates, status.
Resources: catsync://items and catsync://items/{name}.

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead.

Examples:
  # Stdio mode
  catsync mcp serve

  # HTTP mode
  catsync mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	s, err := requireNetwork(cmd)
	if err != nil {
		return err
	}
	logger.SetTimestamps(true)

	server, err := mcp.NewServer(&mcp.Ports{
		Engine:  s.Engine,
		Actions: s.Actions,
	})
	if err != nil {
		return err
	}

	stopWatcher := startLocalWatcher(cmd.Context(), s)
	defer stopWatcher()
	stopScheduler := startScheduler(cmd.Context(), s)
	defer stopScheduler()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		// stdout is free in HTTP mode; in stdio mode it carries JSON-RPC.
		cmd.Printf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
