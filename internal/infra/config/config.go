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

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Playback PlaybackConfig          `yaml:"playback"`
	Artwork  ArtworkConfig           `yaml:"artwork"`
	Queue    QueueConfig             `yaml:"queue"`
	Filters  map[string]FilterConfig `yaml:"filters"`
	Spotify  SpotifyConfig           `yaml:"spotify"`
	LastFM   LastFMConfig            `yaml:"lastfm"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Token string      `yaml:"token"` // Empty disables the control token check
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig lists shell commands run around the server lifecycle.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// PlaybackConfig represents playback engine configuration.
type PlaybackConfig struct {
	TickRate            int    `yaml:"tick_rate" default:"30" validate:"gte=1,lte=240"`
	BackSkipThresholdMs int    `yaml:"back_skip_threshold_ms" default:"3000" validate:"gte=0,lte=60000"`
	RepeatMode          string `yaml:"repeat_mode" default:"off" validate:"oneof=off one all"`
	Autoplay            bool   `yaml:"autoplay"`
}

// ArtworkConfig represents artwork resolution configuration.
type ArtworkConfig struct {
	AssetDir       string `yaml:"asset_dir" default:"assets"`
	CacheSize      int    `yaml:"cache_size" default:"32" validate:"gte=1"`
	FetchTimeoutMs int    `yaml:"fetch_timeout_ms" default:"5000" validate:"gte=100"`
}

// QueueConfig represents queue source configuration.
type QueueConfig struct {
	Providers []ProviderConfig `yaml:"providers" validate:"required,min=1,dive"`
}

// ProviderConfig represents a single queue provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=static spotify_playlist"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings" validate:"required"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// SpotifyConfig represents Spotify API configuration.
// Credentials are only required when a spotify_playlist provider is configured.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// LastFMConfig represents Last.fm API configuration.
// An empty API key disables the missing-artwork lookup.
type LastFMConfig struct {
	APIKey    string `yaml:"api_key"`
	CacheSize int    `yaml:"cache_size" default:"256" validate:"gte=1"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
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

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
	if v := os.Getenv("NOWPLAYING_TOKEN"); v != "" {
		c.Server.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.UsesSpotify() {
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" || c.Spotify.RefreshToken == "" {
			return errors.New("spotify credentials are required by spotify_playlist providers")
		}
	}

	return nil
}

// UsesSpotify reports whether any provider needs the Spotify API.
func (c *Config) UsesSpotify() bool {
	for _, p := range c.Queue.Providers {
		if p.Type == "spotify_playlist" {
			return true
		}
	}
	return false
}

// TickInterval returns the clock interval derived from the tick rate.
func (p PlaybackConfig) TickInterval() time.Duration {
	if p.TickRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(p.TickRate)
}

// BackSkipThreshold returns the back-skip threshold as a duration.
func (p PlaybackConfig) BackSkipThreshold() time.Duration {
	return time.Duration(p.BackSkipThresholdMs) * time.Millisecond
}

// FetchTimeout returns the remote artwork fetch timeout.
func (a ArtworkConfig) FetchTimeout() time.Duration {
	return time.Duration(a.FetchTimeoutMs) * time.Millisecond
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
