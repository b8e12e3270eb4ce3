package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	APT       APTConfig
	Timing    TimingConfig
	Loader    LoaderConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// APTConfig holds applet manager configuration.
type APTConfig struct {
	// Region indexes the per-region applet title table (0 JPN .. 6 TWN).
	Region               int           `envconfig:"APT_REGION" default:"1"`
	New3DS               bool          `envconfig:"APT_NEW_3DS" default:"false"`
	Enable804MHz         bool          `envconfig:"APT_ENABLE_804MHZ" default:"false"`
	NativeLibraryApplets bool          `envconfig:"APT_NATIVE_LIBRARY_APPLETS" default:"false"`
	SkipHomeButton       bool          `envconfig:"APT_SKIP_HOME_BUTTON" default:"false"`
	ButtonInterval       time.Duration `envconfig:"APT_BUTTON_INTERVAL" default:"16666us"`
	HLEUpdateInterval    time.Duration `envconfig:"APT_HLE_UPDATE_INTERVAL" default:"16666us"`
}

// TimingConfig holds virtual time driver configuration.
type TimingConfig struct {
	// Frame is the virtual time advanced on each driver tick.
	Frame    time.Duration `envconfig:"TIMING_FRAME" default:"16666us"`
	Realtime bool          `envconfig:"TIMING_REALTIME" default:"true"`
}

// Loader modes.
const (
	LoaderCatalog = "catalog"
	LoaderRemote  = "remote"
)

// LoaderConfig holds title loader configuration.
type LoaderConfig struct {
	Mode      string        `envconfig:"LOADER_MODE" default:"catalog"`
	Catalog   string        `envconfig:"LOADER_CATALOG" default:""`
	RemoteURL string        `envconfig:"LOADER_REMOTE_URL" default:""`
	Timeout   time.Duration `envconfig:"LOADER_TIMEOUT" default:"5s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	const frame = 16666 * time.Microsecond
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		APT: APTConfig{
			Region:            1,
			ButtonInterval:    frame,
			HLEUpdateInterval: frame,
		},
		Timing: TimingConfig{
			Frame:    frame,
			Realtime: true,
		},
		Loader: LoaderConfig{
			Mode:    LoaderCatalog,
			Timeout: 5 * time.Second,
		},
	}
}

// Validate rejects settings the session cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.APT.Region < 0 || c.APT.Region > 6 {
		errs = append(errs, fmt.Errorf("APT_REGION %d out of range 0-6", c.APT.Region))
	}
	if c.APT.ButtonInterval <= 0 {
		errs = append(errs, errors.New("APT_BUTTON_INTERVAL must be positive"))
	}
	if c.APT.HLEUpdateInterval <= 0 {
		errs = append(errs, errors.New("APT_HLE_UPDATE_INTERVAL must be positive"))
	}
	if c.Timing.Frame <= 0 {
		errs = append(errs, errors.New("TIMING_FRAME must be positive"))
	}
	switch c.Loader.Mode {
	case LoaderCatalog:
	case LoaderRemote:
		if c.Loader.RemoteURL == "" {
			errs = append(errs, errors.New("LOADER_REMOTE_URL is required in remote mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LOADER_MODE %q", c.Loader.Mode))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
