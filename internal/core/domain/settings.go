package domain

import (
	"fmt"
	"strings"
	"time"
)

// Default values for SyncSettings.
const (
	DefaultExtension        = ".cs"
	DefaultCatalogInterval  = 5 * time.Minute
	DefaultUpdateInterval   = 60 * time.Minute
	DefaultTickInterval     = 250 * time.Millisecond
	DefaultUserAgent        = "catsync"
	DefaultRatePerSecond    = 1.2
	DefaultActionName       = "print"
	minimumTickInterval     = 10 * time.Millisecond
	minimumPollingIntervals = time.Second
)

// SyncSettings holds the engine configuration.
type SyncSettings struct {
	// CatalogURL is the directory listing endpoint. Required.
	CatalogURL string

	// Extension selects which catalog entries are items (e.g. ".cs").
	Extension string

	// CatalogInterval is the minimum time between catalog poll attempts.
	CatalogInterval time.Duration

	// UpdateInterval is the age after which a local item is re-checked.
	UpdateInterval time.Duration

	// TickInterval is how often hosts drive the engine.
	TickInterval time.Duration

	// UserAgent identifies the client on every request.
	UserAgent string

	// Token is an optional static bearer token.
	Token string

	// RatePerSecond caps outgoing requests. Zero disables throttling.
	RatePerSecond float64

	// ItemsDir is where payloads are stored.
	ItemsDir string

	// DataDir holds the item database.
	DataDir string

	// DefaultAction runs for items without a dedicated action.
	DefaultAction string
}

// DefaultSyncSettings returns settings with sensible defaults.
// CatalogURL and the directories are left empty.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		Extension:       DefaultExtension,
		CatalogInterval: DefaultCatalogInterval,
		UpdateInterval:  DefaultUpdateInterval,
		TickInterval:    DefaultTickInterval,
		UserAgent:       DefaultUserAgent,
		RatePerSecond:   DefaultRatePerSecond,
		DefaultAction:   DefaultActionName,
	}
}

// NormalisedExtension returns the extension with a leading dot.
func (s *SyncSettings) NormalisedExtension() string {
	ext := strings.TrimSpace(s.Extension)
	if ext == "" {
		return DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Validate checks the settings are usable by the engine.
func (s *SyncSettings) Validate() error {
	if strings.TrimSpace(s.CatalogURL) == "" {
		return ErrNotConfigured
	}
	if s.CatalogInterval < minimumPollingIntervals {
		return fmt.Errorf("%w: catalog interval must be at least %s", ErrInvalidInput, minimumPollingIntervals)
	}
	if s.UpdateInterval < minimumPollingIntervals {
		return fmt.Errorf("%w: update interval must be at least %s", ErrInvalidInput, minimumPollingIntervals)
	}
	if s.TickInterval < minimumTickInterval {
		return fmt.Errorf("%w: tick interval must be at least %s", ErrInvalidInput, minimumTickInterval)
	}
	if s.RatePerSecond < 0 {
		return fmt.Errorf("%w: rate must not be negative", ErrInvalidInput)
	}
	return nil
}
