package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abelbrown/localscout/internal/analytics"
	"github.com/abelbrown/localscout/internal/filter"
	"github.com/abelbrown/localscout/internal/geo"
)

// Config is the persistent application configuration
type Config struct {
	// DataDir holds the database, logs and analytics events
	DataDir string `yaml:"data_dir"`

	// Database path. Empty means DataDir/scout.db
	Database string `yaml:"database,omitempty"`

	// Origin is the reference point for distance filters
	Origin geo.Point `yaml:"origin"`

	Filters   FilterConfig    `yaml:"filters"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Map       MapConfig       `yaml:"map"`
}

// FilterConfig holds filter defaults and persistence settings
type FilterConfig struct {
	DefaultSort filter.SortOption `yaml:"default_sort"`
	Session     string            `yaml:"session"`         // Snapshot namespace
	Key         string            `yaml:"persistence_key"` // Snapshot key within the session
	RetainDays  int               `yaml:"retain_days"`     // Snapshots idle longer are pruned
}

// AnalyticsConfig holds event batching and rate limits
type AnalyticsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
}

// MapConfig holds map view preferences
type MapConfig struct {
	ZoomKm float64 `yaml:"zoom_km"` // Initial half-width of the visible area
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	ac := analytics.DefaultConfig()
	return &Config{
		DataDir: filepath.Join(home, ".localscout"),
		Origin:  geo.Point{Lat: 6.2442, Lng: -75.5812}, // Medellín centro
		Filters: FilterConfig{
			DefaultSort: filter.SortRelevance,
			Session:     "default",
			Key:         "filters",
			RetainDays:  30,
		},
		Analytics: AnalyticsConfig{
			Enabled:       true,
			BatchSize:     ac.BatchSize,
			FlushInterval: ac.FlushInterval,
			RatePerSecond: ac.RatePerSecond,
			Burst:         ac.Burst,
		},
		Map: MapConfig{
			ZoomKm: 2,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".localscout", "config.yaml")
}

// DatabasePath returns the configured database, defaulting to DataDir/scout.db
func (c *Config) DatabasePath() string {
	if c.Database != "" {
		return c.Database
	}
	return filepath.Join(c.DataDir, "scout.db")
}

// EventsPath returns the analytics JSONL file
func (c *Config) EventsPath() string {
	return filepath.Join(c.DataDir, "events.jsonl")
}

// AnalyticsService converts the analytics section for analytics.NewService
func (c *Config) AnalyticsService() analytics.Config {
	ac := analytics.DefaultConfig()
	ac.BatchSize = c.Analytics.BatchSize
	ac.FlushInterval = c.Analytics.FlushInterval
	ac.RatePerSecond = c.Analytics.RatePerSecond
	ac.Burst = c.Analytics.Burst
	return ac
}

// DefaultFilters returns the filter spec used at startup and on reset
func (c *Config) DefaultFilters() filter.Spec {
	spec := filter.Default()
	if c.Filters.DefaultSort != "" {
		spec.Sort = c.Filters.DefaultSort
	}
	return spec
}

// Load reads config from path. A missing file yields defaults. A corrupt
// file yields defaults and the parse error so the caller can log it.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.AutoPopulateFromEnv()
		}
		if envErr := cfg.AutoPopulateFromEnv(); envErr != nil {
			return cfg, envErr
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	// Unmarshal over the defaults so absent keys keep their default.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = DefaultConfig()
		if envErr := cfg.AutoPopulateFromEnv(); envErr != nil {
			return cfg, envErr
		}
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.AutoPopulateFromEnv()
}

// Save writes config to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// AutoPopulateFromEnv applies SCOUT_DB and SCOUT_ORIGIN ("lat,lng")
func (c *Config) AutoPopulateFromEnv() error {
	if db := os.Getenv("SCOUT_DB"); db != "" {
		c.Database = db
	}
	if origin := os.Getenv("SCOUT_ORIGIN"); origin != "" {
		p, err := geo.ParsePoint(origin)
		if err != nil {
			return fmt.Errorf("SCOUT_ORIGIN: %w", err)
		}
		c.Origin = p
	}
	return nil
}
