// Package cli provides the cobra command tree for catsync.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driving"
	"github.com/custodia-labs/catsync/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services holds everything the commands drive.
type Services struct {
	Engine    driving.SyncEngine
	Settings  driving.SettingsService
	Actions   driving.ActionService
	Scheduler driving.Scheduler

	// WatchLocal blocks until ctx is done, reporting payload changes
	// made outside catsync to the engine. Optional.
	WatchLocal func(ctx context.Context) error

	// Close releases stores and waits for in-flight fetches. Optional.
	Close func() error
}

// Bootstrap builds Services for a config directory ("" means the default).
type Bootstrap func(ctx context.Context, configDir string) (*Services, error)

var (
	bootstrap Bootstrap
	services  *Services

	verboseFlag   bool
	configDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "catsync",
	Short: "Keep a local cache of catalog items in sync",
	Long: `catsync mirrors a remote catalog of named items into a local directory.

It polls the catalog listing with conditional requests, downloads item
payloads on demand and checks local copies for updates in the background.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.SetOut(os.Stdout)
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log engine activity to stderr")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "configuration directory (default ~/.catsync)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets how Services are built on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs ready-made Services, bypassing Bootstrap.
func SetServices(s *Services) {
	services = s
}

// Execute runs the root command and releases Services afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if services != nil && services.Close != nil {
		if closeErr := services.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown: %w", closeErr))
		}
	}
	return err
}

// requireServices returns the Services, building them on first use.
func requireServices(cmd *cobra.Command) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}
	s, err := bootstrap(cmd.Context(), configDirFlag)
	if err != nil {
		return nil, err
	}
	services = s
	return s, nil
}

// requireNetwork returns the Services after checking the catalog is configured.
func requireNetwork(cmd *cobra.Command) (*Services, error) {
	s, err := requireServices(cmd)
	if err != nil {
		return nil, err
	}
	if err := s.Settings.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// tickInterval is how often foreground commands tick the engine.
func tickInterval(s *Services) time.Duration {
	settings, err := s.Settings.Get()
	if err != nil || settings.TickInterval <= 0 {
		return domain.DefaultTickInterval
	}
	return settings.TickInterval
}
