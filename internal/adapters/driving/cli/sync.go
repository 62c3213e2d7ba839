package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catsync/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the catalog now",
	Long: `Fetches the catalog listing (conditionally, if a previous copy exists),
reconciles the local item set and waits for any queued update checks.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	s, err := requireNetwork(cmd)
	if err != nil {
		return err
	}

	cmd.Println("Refreshing catalog...")
	s.Engine.TriggerCatalogRefresh()
	if err := s.Engine.RunUntilIdle(cmd.Context(), tickInterval(s)); err != nil {
		return fmt.Errorf("sync interrupted: %w", err)
	}

	printSummary(cmd, s.Engine.Items())
	if !s.Engine.ConnectionHealthy() {
		return errors.New("catalog refresh failed (run with --verbose for details)")
	}
	return nil
}

// printSummary prints item counts.
func printSummary(cmd *cobra.Command, items []domain.Item) {
	cmd.Println(summaryLine(items))
}

func summaryLine(items []domain.Item) string {
	local, updates := 0, 0
	for _, item := range items {
		if item.LocallyPresent {
			local++
		}
		if item.UpdateAvailable {
			updates++
		}
	}
	return fmt.Sprintf("%d items (%d local, %d with updates available)", len(items), local, updates)
}
