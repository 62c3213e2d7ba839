package driving

import "github.com/custodia-labs/catsync/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings with defaults applied.
	Get() (*domain.SyncSettings, error)

	// Set validates and stores a single setting.
	Set(key, value string) error

	// Value returns the effective value of key as a string.
	Value(key string) (string, error)

	// Keys returns every known setting key, sorted.
	Keys() []string

	// Validate checks the current settings are usable for network commands.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.SyncSettings
}
