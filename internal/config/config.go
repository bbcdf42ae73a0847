package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"modeldeck/internal/eventbus"
)

// Config represents the application configuration
type Config struct {
	Version     int             `toml:"version"`
	CatalogPath string          `toml:"catalog_path"`
	SeedPath    string          `toml:"seed_path,omitempty"`
	LogPath     string          `toml:"log_path"`
	LogLevel    string          `toml:"log_level"`
	Backend     BackendSettings `toml:"backend"`
	UISettings  UISettings      `toml:"ui"`
}

// BackendSettings tunes the catalog backend
type BackendSettings struct {
	Workers       int      `toml:"workers"`
	Timeout       Duration `toml:"timeout"`
	RatePerSecond float64  `toml:"rate_per_second"` // 0 disables limiting
	Burst         int      `toml:"burst"`
	ResultLimit   int      `toml:"result_limit"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	FeaturedOnStart bool `toml:"featured_on_start"`
	ShowTags        bool `toml:"show_tags"`
}

// Duration is a time.Duration written as "5s" in TOML
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service reading the per-user config file
func NewConfigService() ConfigService {
	return &configService{filePath: filepath.Join(appDir(os.UserConfigDir), "config.toml")}
}

// NewConfigServiceAt creates a config service bound to an explicit file
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// WithBus makes the service publish ConfigLoaded/ConfigSaved events
func WithBus(cs ConfigService, bus eventbus.EventBus) ConfigService {
	if impl, ok := cs.(*configService); ok {
		impl.bus = bus
	}
	return cs
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from file, falling back to defaults when the
// file does not exist yet
func (cs *configService) Load() (*Config, error) {
	cfg, err := cs.LoadFromPath(cs.filePath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{
			CatalogPath: cfg.CatalogPath,
			SeedPath:    cfg.SeedPath,
		})
	}
	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path. Keys missing from
// the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks settings that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.Backend.Workers <= 0 {
		return fmt.Errorf("backend.workers must be positive, got %d", c.Backend.Workers)
	}
	if c.Backend.Burst <= 0 {
		return fmt.Errorf("backend.burst must be positive, got %d", c.Backend.Burst)
	}
	if c.Backend.Timeout.Duration < 0 {
		return fmt.Errorf("backend.timeout must not be negative, got %s", c.Backend.Timeout)
	}
	if c.Backend.RatePerSecond < 0 {
		return fmt.Errorf("backend.rate_per_second must not be negative, got %v", c.Backend.RatePerSecond)
	}
	if c.Backend.ResultLimit <= 0 {
		return fmt.Errorf("backend.result_limit must be positive, got %d", c.Backend.ResultLimit)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dataDir := appDir(os.UserCacheDir)
	return &Config{
		Version:     1,
		CatalogPath: filepath.Join(dataDir, "catalog.db"),
		LogPath:     filepath.Join(dataDir, "modeldeck.log"),
		LogLevel:    "info",
		Backend: BackendSettings{
			Workers:       2,
			Timeout:       Duration{10 * time.Second},
			RatePerSecond: 20,
			Burst:         5,
			ResultLimit:   50,
		},
		UISettings: UISettings{
			FeaturedOnStart: true,
			ShowTags:        true,
		},
	}
}

// appDir resolves <base>/modeldeck, falling back to ~/.config or the cwd
func appDir(base func() (string, error)) string {
	dir, err := base()
	if err != nil {
		dir, err = os.UserHomeDir()
		if err != nil {
			dir = "."
		}
		dir = filepath.Join(dir, ".config")
	}
	return filepath.Join(dir, "modeldeck")
}
