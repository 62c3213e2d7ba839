package cli

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catsync/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the cache in sync until interrupted",
	Long: `Runs the engine loop in the foreground: the catalog is refreshed on its
interval, stale local items are checked for updates and payload files
edited outside catsync are picked up. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := requireNetwork(cmd)
	if err != nil {
		return err
	}
	if s.Scheduler == nil {
		return errors.New("scheduler not configured")
	}
	logger.SetTimestamps(true)

	stopWatcher := startLocalWatcher(cmd.Context(), s)
	defer stopWatcher()

	var (
		mu   sync.Mutex
		last string
	)
	unsubscribe := s.Engine.Subscribe(func() {
		line := summaryLine(s.Engine.Items())
		mu.Lock()
		defer mu.Unlock()
		if line != last {
			last = line
			cmd.Printf("%s %s\n", time.Now().Format("15:04:05"), line)
		}
	})
	defer unsubscribe()

	cmd.Println("Watching catalog. Press Ctrl+C to stop.")
	s.Engine.TriggerCatalogRefresh()

	if err := s.Scheduler.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// startLocalWatcher runs Services.WatchLocal in the background.
// The returned func cancels it and waits for it to return.
func startLocalWatcher(ctx context.Context, s *Services) (stop func()) {
	if s.WatchLocal == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.WatchLocal(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("local watcher stopped: %v", err)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// startScheduler runs Services.Scheduler in the background.
// The returned func stops it and waits for the loop to exit.
func startScheduler(ctx context.Context, s *Services) (stop func()) {
	if s.Scheduler == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped: %v", err)
		}
	}()

	return func() {
		if err := s.Scheduler.Stop(); err != nil {
			logger.Warn("scheduler stop: %v", err)
		}
		cancel()
		<-done
	}
}
