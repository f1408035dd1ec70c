// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Provider types understood by the search factory.
const (
	ProviderYouTube = "youtube"
	ProviderSpotify = "spotify"
	ProviderDemo    = "demo"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Player  PlayerConfig  `yaml:"player"`
	Library LibraryConfig `yaml:"library"`
	Search  SearchConfig  `yaml:"search"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr       string      `yaml:"addr" default:":8080"`
	CORSOrigin string      `yaml:"cors_origin" default:"*"`
	Hooks      HooksConfig `yaml:"hooks"`
}

// HooksConfig holds shell commands run around the server lifecycle.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"` // Run after the listener is up
	OnStopped []string `yaml:"on_stopped"` // Run after shutdown completes
}

// PlayerConfig represents playback configuration.
type PlayerConfig struct {
	DefaultVolume      float64 `yaml:"default_volume" default:"0.7" validate:"gte=0,lte=1"`
	RecentThresholdSec int     `yaml:"recent_threshold_sec" default:"30" validate:"gte=0,lte=3600"`
	TickIntervalMs     int     `yaml:"tick_interval_ms" default:"250" validate:"gte=10,lte=5000"`
	LoadTimeoutSec     int     `yaml:"load_timeout_sec" default:"10" validate:"gte=1,lte=120"`
	RejectAutoplay     bool    `yaml:"reject_autoplay"`
}

// LibraryConfig represents library bounds.
type LibraryConfig struct {
	RecentMax        int `yaml:"recent_max" default:"50" validate:"gte=1,lte=1000"`
	SearchHistoryMax int `yaml:"search_history_max" default:"20" validate:"gte=1,lte=1000"`
}

// SearchConfig represents search configuration.
type SearchConfig struct {
	DefaultMaxResults int              `yaml:"default_max_results" default:"20" validate:"gte=1,lte=50"`
	Providers         []ProviderConfig `yaml:"providers" validate:"dive"`
}

// ProviderConfig represents a single search provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=youtube spotify demo"`
	DisplayName string         `yaml:"display_name"`
	Settings    map[string]any `yaml:"settings"`
}

// StorageConfig represents library storage configuration.
type StorageConfig struct {
	Driver string `yaml:"driver" default:"file" validate:"oneof=memory file"`
	Dir    string `yaml:"dir" default:"data" validate:"required_if=Driver file"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		data = b
	}
	return Parse(data)
}

// Parse parses configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Without providers, search is served from the demo catalog only
	if len(cfg.Search.Providers) == 0 {
		cfg.Search.Providers = []ProviderConfig{{Type: ProviderDemo}}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.setProviderSetting(ProviderYouTube, "api_key", v)
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.setProviderSetting(ProviderSpotify, "client_id", v)
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.setProviderSetting(ProviderSpotify, "client_secret", v)
	}
	if v := os.Getenv("TUNEDECK_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
}

// setProviderSetting sets a setting on the first provider of the given type.
func (c *Config) setProviderSetting(providerType, key string, value any) {
	for i := range c.Search.Providers {
		if c.Search.Providers[i].Type != providerType {
			continue
		}
		if c.Search.Providers[i].Settings == nil {
			c.Search.Providers[i].Settings = make(map[string]any)
		}
		c.Search.Providers[i].Settings[key] = value
		return
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// RecentThreshold returns the listening time after which a track counts as played.
func (p PlayerConfig) RecentThreshold() time.Duration {
	return time.Duration(p.RecentThresholdSec) * time.Second
}

// TickInterval returns the transport position update interval.
func (p PlayerConfig) TickInterval() time.Duration {
	return time.Duration(p.TickIntervalMs) * time.Millisecond
}

// LoadTimeout returns the deadline for resolving a track source.
func (p PlayerConfig) LoadTimeout() time.Duration {
	return time.Duration(p.LoadTimeoutSec) * time.Second
}
