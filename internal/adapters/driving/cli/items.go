package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/catsync/internal/core/domain"
	coreservices "github.com/custodia-labs/catsync/internal/core/services"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known items",
	Long: `Lists every item known from the catalog or the local directory.

--filter takes one or more words. A single word matches anywhere in the
item name; several words must all appear in the spaced-out name
("foo bar" matches FooBar).`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var downloadCmd = &cobra.Command{
	Use:   "download <name>...",
	Short: "Download item payloads",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDownload,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check local items for updates",
	Long: `Checks local items whose last check is older than the update interval.
With --all, every local item is checked regardless of age.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove the local copy of an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var runCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run an action on a local item",
	Long: `Runs an action on a locally present item. Without --action, the action
registered under the item's name is used, falling back to actions.default.`,
	Args: cobra.ExactArgs(1),
	RunE: runAction,
}

func init() {
	listCmd.Flags().String("filter", "", "only items matching these words")
	listCmd.Flags().Bool("local", false, "only locally present items")
	listCmd.Flags().Bool("updates", false, "only items with an update available")
	checkCmd.Flags().Bool("all", false, "check every local item now")
	runCmd.Flags().StringP("action", "a", "", "action name")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(runCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}

	query, _ := cmd.Flags().GetString("filter")
	onlyLocal, _ := cmd.Flags().GetBool("local")
	onlyUpdates, _ := cmd.Flags().GetBool("updates")

	var items []domain.Item
	for _, item := range coreservices.FilterItems(s.Engine.Items(), query) {
		if onlyLocal && !item.LocallyPresent {
			continue
		}
		if onlyUpdates && !item.UpdateAvailable {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		cmd.Println("No items.")
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Name,
			yesNo(item.LocallyPresent),
			yesNo(item.UpdateAvailable),
			formatWhen(item.LastDownload),
			formatWhen(item.LastUpdateCheck),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "LOCAL", "UPDATE", "DOWNLOADED", "CHECKED").
		Rows(rows...)
	cmd.Println(t.Render())
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	s, err := requireNetwork(cmd)
	if err != nil {
		return err
	}

	before := make(map[string]domain.Item, len(args))
	busy := make(map[string]bool)
	var queued []string
	var errs []error
	for _, name := range args {
		item, _ := s.Engine.Item(name)
		before[name] = item

		err := s.Engine.TriggerDownload(name)
		switch {
		case err == nil:
			queued = append(queued, name)
		case errors.Is(err, domain.ErrAlreadyPending):
			busy[name] = true
			queued = append(queued, name)
		case errors.Is(err, domain.ErrNotFound):
			errs = append(errs, fmt.Errorf("%s: unknown item (run catsync sync first)", name))
		default:
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(queued) > 0 {
		if err := s.Engine.RunUntilIdle(cmd.Context(), tickInterval(s)); err != nil {
			return fmt.Errorf("download interrupted: %w", err)
		}
	}

	// Each item is judged by its own last result, not connection health.
	for _, name := range queued {
		after, ok := s.Engine.Item(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: item disappeared", name))
			continue
		}
		if after.LastDownload.After(before[name].LastDownload) {
			cmd.Printf("Downloaded %s -> %s\n", name, s.Engine.PayloadPath(name))
			continue
		}
		switch {
		case busy[name]:
			errs = append(errs, fmt.Errorf("%s: another operation was in progress, try again", name))
		case s.Engine.LastResult(name) == domain.StateNotModified && after.LocallyPresent:
			cmd.Printf("%s is up to date\n", name)
		default:
			errs = append(errs, fmt.Errorf("%s: download failed (run with --verbose for details)", name))
		}
	}
	return errors.Join(errs...)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	s, err := requireNetwork(cmd)
	if err != nil {
		return err
	}

	if all, _ := cmd.Flags().GetBool("all"); all {
		n := s.Engine.TriggerCheckAllForUpdates()
		cmd.Printf("Checking %d items...\n", n)
	}
	if err := s.Engine.RunUntilIdle(cmd.Context(), tickInterval(s)); err != nil {
		return fmt.Errorf("check interrupted: %w", err)
	}

	found := 0
	for _, item := range s.Engine.Items() {
		if item.UpdateAvailable {
			cmd.Printf("Update available: %s\n", item.Name)
			found++
		}
	}
	if found == 0 {
		cmd.Println("All local items are up to date.")
	}
	if !s.Engine.ConnectionHealthy() {
		return errors.New("some checks failed (run with --verbose for details)")
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}

	name := args[0]
	if err := s.Engine.RemoveLocal(name); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	cmd.Printf("Removed local copy of %s\n", name)
	return nil
}

func runAction(cmd *cobra.Command, args []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}

	actionName, _ := cmd.Flags().GetString("action")
	out, err := s.Actions.Run(cmd.Context(), args[0], actionName)
	if err != nil {
		if errors.Is(err, domain.ErrActionNotFound) {
			return fmt.Errorf("%w (available: %v)", err, s.Actions.Names())
		}
		return err
	}
	if out != "" {
		cmd.Print(out)
		if out[len(out)-1] != '\n' {
			cmd.Println()
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
