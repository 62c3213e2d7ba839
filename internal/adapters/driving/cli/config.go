package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `View and change settings stored in config.toml.

Keys:
  catalog.url                catalog listing URL (required)
  catalog.extension          payload file extension (default .cs)
  catalog.interval_minutes   catalog refresh interval (default 5)
  updates.interval_minutes   update check interval (default 60)
  engine.tick_ms             engine tick period (default 250)
  http.user_agent            User-Agent header (default catsync)
  http.token                 optional bearer token
  http.rate_per_second       request rate limit (default 1.2)
  storage.items_dir          payload directory
  storage.data_dir           database directory
  actions.default            default action for run (default print)`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}

	for _, key := range s.Settings.Keys() {
		val, err := s.Settings.Value(key)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		if isSecretKey(key) && val != "" {
			val = maskSecret(val)
		}
		if val == "" {
			val = "(not set)"
		}
		cmd.Printf("%-26s %s\n", key, val)
	}

	if err := s.Settings.Validate(); err != nil {
		cmd.Println()
		cmd.Printf("Status: %v\n", err)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	val, err := s.Settings.Value(args[0])
	if err != nil {
		return err
	}
	cmd.Println(val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if err := s.Settings.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("set %s: %w", args[0], err)
	}
	cmd.Printf("%s updated. Restart running catsync processes to apply.\n", args[0])
	return nil
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, ".token")
}

// maskSecret masks a secret for display, showing only first and last 4 chars.
func maskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
