package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/catsync/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and manage items interactively",
	Long: `Launch the interactive item browser.

The browser drives the sync engine itself, so the catalog keeps refreshing
and downloads complete while it is open.

Controls:
  ↑/k, ↓/j  Move
  /         Filter by name
  enter     Item details and payload preview
  d         Download
  a         Run the item's action
  x         Remove local copy
  r         Refresh catalog
  u         Check local items for updates
  l         Toggle local items only
  ?         Help
  q         Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("tui needs an interactive terminal (try catsync list)")
	}

	s, err := requireNetwork(cmd)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tui panic: %v\n%s", r, debug.Stack())
		}
	}()

	// The browser is the only ticker here, so the scheduler stays off.
	stopWatcher := startLocalWatcher(cmd.Context(), s)
	defer stopWatcher()

	app, err := tui.NewApp(&tui.Ports{
		Engine:       s.Engine,
		Actions:      s.Actions,
		TickInterval: tickInterval(s),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
