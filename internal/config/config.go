package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SPINLOG"

const appDirName = "spinlog"

// Storage drivers for the persisted session.
const (
	DriverBunt     = "bunt"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all client configuration
type Config struct {
	Env string `default:"development" yaml:"env"`

	// REST backend
	API APIConfig `yaml:"api"`

	// Persisted session storage
	Storage StorageConfig `yaml:"storage"`

	// Catalog credentials
	Spotify SpotifyConfig `yaml:"spotify"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Local development backend
	FakeAPI FakeAPIConfig `split_words:"true" yaml:"fake_api"`
}

// APIConfig holds REST backend settings
type APIConfig struct {
	BaseURL string        `split_words:"true" default:"http://localhost:8080" yaml:"base_url"`
	Timeout time.Duration `default:"15s" yaml:"timeout"`
}

// StorageConfig selects where the session token, user and profile are kept.
type StorageConfig struct {
	Driver string `default:"bunt" yaml:"driver"` // bunt, sqlite, postgres
	Path   string `yaml:"path"`                  // file for bunt and sqlite
	DSN    string `yaml:"dsn"`                   // postgres only
	Table  string `default:"session_entries" yaml:"table"`
	Secret string `yaml:"secret"` // enables at-rest encryption when set
}

// SpotifyConfig holds client-credentials for catalog lookups
type SpotifyConfig struct {
	ClientID     string `split_words:"true" yaml:"client_id"`
	ClientSecret string `split_words:"true" yaml:"client_secret"`
}

// Enabled reports whether both credentials are present.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `default:"info" yaml:"level"`  // debug, info, warn, error
	Format string `default:"text" yaml:"format"` // json, text
}

// FakeAPIConfig configures the in-memory development backend.
type FakeAPIConfig struct {
	Addr        string `default:":8080" yaml:"addr"`
	JWTSecret   string `split_words:"true" default:"spinlog-development-secret" yaml:"jwt_secret"`
	RequireAuth bool   `split_words:"true" default:"true" yaml:"require_auth"`
	// AllowedOrigin enables CORS for a browser client; "*" allows any origin.
	AllowedOrigin string `split_words:"true" yaml:"allowed_origin"`
}

// Load reads configuration from .env files, the environment (SPINLOG_API_BASE_URL,
// SPINLOG_STORAGE_DRIVER, SPINLOG_LOGGING_LEVEL, ...) and, when path is non-empty,
// a YAML file whose values take precedence over the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config/local.env")

	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.resolveDefaults(); err != nil {
		return nil, fmt.Errorf("resolve defaults: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) resolveDefaults() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Path == "" && c.Storage.Driver != DriverPostgres {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("user config dir: %w", err)
		}
		c.Storage.Path = filepath.Join(dir, appDirName, "session.db")
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	return nil
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, "API_BASE_URL must be an absolute URL")
	}
	if c.API.Timeout <= 0 {
		errors = append(errors, "API_TIMEOUT must be positive")
	}

	switch c.Storage.Driver {
	case DriverBunt, DriverSQLite:
		if c.Storage.Path == "" {
			errors = append(errors, "STORAGE_PATH is required for the bunt and sqlite drivers")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			errors = append(errors, "STORAGE_DSN is required for the postgres driver")
		}
	default:
		errors = append(errors, "STORAGE_DRIVER must be one of: bunt, sqlite, postgres")
	}
	if c.Storage.Table == "" {
		errors = append(errors, "STORAGE_TABLE must not be empty")
	}

	if (c.Spotify.ClientID == "") != (c.Spotify.ClientSecret == "") {
		errors = append(errors, "SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOGGING_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOGGING_FORMAT must be one of: json, text")
	}

	if len(c.FakeAPI.JWTSecret) < 16 {
		errors = append(errors, "FAKE_API_JWT_SECRET must be at least 16 characters")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "" || env == "development"
}
