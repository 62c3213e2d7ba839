package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driven"
	"github.com/custodia-labs/catsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyCatalogURL      = "catalog.url"
	KeyExtension       = "catalog.extension"
	KeyCatalogInterval = "catalog.interval_minutes"
	KeyUpdateInterval  = "updates.interval_minutes"
	KeyTickMillis      = "engine.tick_ms"
	KeyUserAgent       = "http.user_agent"
	KeyToken           = "http.token"
	KeyRatePerSecond   = "http.rate_per_second"
	KeyItemsDir        = "storage.items_dir"
	KeyDataDir         = "storage.data_dir"
	KeyDefaultAction   = "actions.default"
)

type settingKind int

const (
	kindString settingKind = iota
	kindPositiveInt
	kindFloat
)

var settingKinds = map[string]settingKind{
	KeyCatalogURL:      kindString,
	KeyExtension:       kindString,
	KeyCatalogInterval: kindPositiveInt,
	KeyUpdateInterval:  kindPositiveInt,
	KeyTickMillis:      kindPositiveInt,
	KeyUserAgent:       kindString,
	KeyToken:           kindString,
	KeyRatePerSecond:   kindFloat,
	KeyItemsDir:        kindString,
	KeyDataDir:         kindString,
	KeyDefaultAction:   kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	baseDir     string
}

// NewSettingsService creates a new settings service.
// baseDir is where default item and data directories live.
func NewSettingsService(configStore driven.ConfigStore, baseDir string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		baseDir:     baseDir,
	}
}

// Get retrieves current settings with defaults applied.
func (s *SettingsService) Get() (*domain.SyncSettings, error) {
	defaults := s.GetDefaults()

	settings := &domain.SyncSettings{
		CatalogURL:      strings.TrimSpace(s.configStore.GetString(KeyCatalogURL)),
		Extension:       s.getString(KeyExtension, defaults.Extension),
		CatalogInterval: s.getMinutes(KeyCatalogInterval, defaults.CatalogInterval),
		UpdateInterval:  s.getMinutes(KeyUpdateInterval, defaults.UpdateInterval),
		TickInterval:    s.getMillis(KeyTickMillis, defaults.TickInterval),
		UserAgent:       s.getString(KeyUserAgent, defaults.UserAgent),
		Token:           s.configStore.GetString(KeyToken),
		RatePerSecond:   s.getFloat(KeyRatePerSecond, defaults.RatePerSecond),
		ItemsDir:        s.getString(KeyItemsDir, defaults.ItemsDir),
		DataDir:         s.getString(KeyDataDir, defaults.DataDir),
		DefaultAction:   s.getString(KeyDefaultAction, defaults.DefaultAction),
	}
	settings.Extension = settings.NormalisedExtension()

	return settings, nil
}

// Set validates and stores a single setting.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	value = strings.TrimSpace(value)
	switch kind {
	case kindPositiveInt:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, n)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, f)
	default:
		return s.configStore.Set(key, value)
	}
}

// Value returns the effective value of key as a string.
func (s *SettingsService) Value(key string) (string, error) {
	if _, ok := settingKinds[key]; !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	switch key {
	case KeyCatalogURL:
		return settings.CatalogURL, nil
	case KeyExtension:
		return settings.Extension, nil
	case KeyCatalogInterval:
		return strconv.Itoa(int(settings.CatalogInterval / time.Minute)), nil
	case KeyUpdateInterval:
		return strconv.Itoa(int(settings.UpdateInterval / time.Minute)), nil
	case KeyTickMillis:
		return strconv.Itoa(int(settings.TickInterval / time.Millisecond)), nil
	case KeyUserAgent:
		return settings.UserAgent, nil
	case KeyToken:
		return settings.Token, nil
	case KeyRatePerSecond:
		return strconv.FormatFloat(settings.RatePerSecond, 'g', -1, 64), nil
	case KeyItemsDir:
		return settings.ItemsDir, nil
	case KeyDataDir:
		return settings.DataDir, nil
	default:
		return settings.DefaultAction, nil
	}
}

// Keys returns every known setting key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the current settings are usable for network commands.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w (set it with: catsync config set %s <url>)", err, KeyCatalogURL)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.SyncSettings {
	defaults := domain.DefaultSyncSettings()
	if s.baseDir != "" {
		defaults.ItemsDir = filepath.Join(s.baseDir, "items")
		defaults.DataDir = filepath.Join(s.baseDir, "data")
	}
	return defaults
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := strings.TrimSpace(s.configStore.GetString(key))
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getMinutes(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Minute
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Millisecond
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}
