package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/custodia-labs/catsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/catsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/catsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/catsync/internal/connectors/filesystem"
	"github.com/custodia-labs/catsync/internal/connectors/github"
	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/services"
	"github.com/custodia-labs/catsync/internal/logger"
)

// bootstrap wires the engine and its adapters for configDir.
func bootstrap(ctx context.Context, configDir string) (*cli.Services, error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore, configDir)
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	payloads, err := filesystem.NewPayloadStore(afero.NewOsFs(), settings.ItemsDir, settings.Extension)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open items directory: %w", err)
	}

	client := github.NewClient(ctx, github.ClientOptions{
		Token:         settings.Token,
		RatePerSecond: settings.RatePerSecond,
	})

	engine := services.NewEngine(
		*settings,
		client,
		github.NewCatalogParser(),
		payloads,
		store.ItemStore(),
		store.CatalogStateStore(),
	)
	if err := engine.Load(ctx); err != nil {
		_ = engine.Close()
		_ = store.Close()
		return nil, err
	}
	logger.Debug("Using config %s, database %s, items %s", configDir, store.Path(), payloads.Dir())

	watcher := filesystem.NewWatcher(payloads.Dir(), payloads.Extension())

	return &cli.Services{
		Engine:   engine,
		Settings: settingsSvc,
		Actions:  services.NewDefaultActionRegistry(engine, settings.DefaultAction),
		Scheduler: services.NewScheduler(domain.SchedulerConfig{
			Enabled:  true,
			Interval: settings.TickInterval,
		}, engine),
		WatchLocal: func(ctx context.Context) error {
			return watcher.Watch(ctx, engine.NotifyLocalChange)
		},
		Close: func() error {
			// Flush with a fresh context: the command's may already be cancelled.
			flushErr := engine.Flush(context.Background())
			return errors.Join(flushErr, watcher.Close(), engine.Close(), store.Close())
		},
	}, nil
}
