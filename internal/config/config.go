// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"LEADSCOUT_HOST" yaml:"host"`
	Port int    `envconfig:"LEADSCOUT_PORT" yaml:"port"`

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration `envconfig:"LEADSCOUT_READ_TIMEOUT" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout time.Duration `envconfig:"LEADSCOUT_WRITE_TIMEOUT" yaml:"write_timeout"`

	// ShutdownTimeout is the graceful shutdown timeout.
	ShutdownTimeout time.Duration `envconfig:"LEADSCOUT_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Places API configuration
	Places PlacesConfig `yaml:"places"`

	// Quota configuration
	Quota QuotaConfig `yaml:"quota"`

	// Rate limit configuration
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// CORSOrigins is the Access-Control-Allow-Origin value.
	CORSOrigins string `envconfig:"LEADSCOUT_CORS_ORIGINS" yaml:"cors_origins"`
}

// DatabaseConfig holds relational store settings.
type DatabaseConfig struct {
	// Driver selects the storage backend: sqlite or postgres.
	Driver string `envconfig:"LEADSCOUT_DB_DRIVER" yaml:"driver"`

	// Path is the sqlite data directory.
	Path string `envconfig:"LEADSCOUT_DB_PATH" yaml:"path"`

	// URL is the postgres connection string.
	URL string `envconfig:"LEADSCOUT_DATABASE_URL" yaml:"url"`
}

// PlacesConfig holds external places API settings.
type PlacesConfig struct {
	APIKey string `envconfig:"GOOGLE_MAPS_API_KEY" yaml:"api_key"`

	// QPS bounds outbound calls to the places API.
	QPS int `envconfig:"LEADSCOUT_PLACES_QPS" yaml:"qps"`
}

// QuotaConfig holds monthly external-call budget settings.
type QuotaConfig struct {
	MonthlyLimit int `envconfig:"LEADSCOUT_MONTHLY_API_LIMIT" yaml:"monthly_limit"`
}

// RateLimitConfig holds inbound rate limiting settings.
type RateLimitConfig struct {
	RequestsPerMinute int `envconfig:"LEADSCOUT_RATE_LIMIT_RPM" yaml:"requests_per_minute"`
	BurstLimit        int `envconfig:"LEADSCOUT_RATE_LIMIT_BURST" yaml:"burst_limit"`

	// Store selects the window backend: memory or redis.
	Store    string `envconfig:"LEADSCOUT_RATE_LIMIT_STORE" yaml:"store"`
	RedisURL string `envconfig:"LEADSCOUT_REDIS_URL" yaml:"redis_url"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"LEADSCOUT_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"LEADSCOUT_KAFKA_BROKERS" yaml:"kafka_brokers"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"LEADSCOUT_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"LEADSCOUT_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080
	cfg.ReadTimeout = 30 * time.Second
	cfg.WriteTimeout = 60 * time.Second
	cfg.ShutdownTimeout = 30 * time.Second
	cfg.CORSOrigins = "*"

	cfg.Database = DatabaseConfig{
		Driver: "sqlite",
		Path:   "./data",
	}

	cfg.Places = PlacesConfig{
		QPS: 10,
	}

	cfg.Quota = QuotaConfig{
		MonthlyLimit: 1000,
	}

	cfg.RateLimit = RateLimitConfig{
		RequestsPerMinute: 30,
		BurstLimit:        10,
		Store:             "memory",
		RedisURL:          "redis://localhost:6379",
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true}
	if !validDrivers[c.Database.Driver] {
		errs = append(errs, fmt.Sprintf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver))
	}

	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		errs = append(errs, "database url is required for the postgres driver")
	}

	if c.Quota.MonthlyLimit < 0 {
		errs = append(errs, "monthly_limit must not be negative")
	}

	if c.RateLimit.RequestsPerMinute < 1 {
		errs = append(errs, "requests_per_minute must be positive")
	}

	if c.RateLimit.BurstLimit < 1 {
		errs = append(errs, "burst_limit must be positive")
	}

	validStores := map[string]bool{"memory": true, "redis": true}
	if !validStores[c.RateLimit.Store] {
		errs = append(errs, fmt.Sprintf("invalid rate limit store: %s (must be memory or redis)", c.RateLimit.Store))
	}

	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Problems returns non-fatal configuration warnings. These are surfaced by
// the health endpoint rather than preventing startup.
func (c *Config) Problems() []string {
	var problems []string

	if c.Places.APIKey == "" {
		problems = append(problems, "GOOGLE_MAPS_API_KEY is not set; searches will fail")
	}

	if c.Quota.MonthlyLimit == 0 {
		problems = append(problems, "monthly API limit is 0; all searches will be rejected")
	}

	return problems
}

// APIKeyConfigured reports whether a places API key is present.
func (c *Config) APIKeyConfigured() bool {
	return c.Places.APIKey != ""
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
