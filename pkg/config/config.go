package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. HTTPPROVIDER_SERVER_PORT.
const EnvPrefix = "HTTPPROVIDER"

// Drivers accepted in provider.driver.
var Drivers = []string{"gin", "chi"}

// Config represents the application configuration. Leaf fields derive their
// environment names with split_words instead of envconfig tags: a tagged
// field would also read the bare variable, e.g. $PATH or $DEBUG.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Provider  ProviderConfig  `yaml:"provider" envconfig:"PROVIDER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	CORS      CORSConfig      `yaml:"cors" envconfig:"CORS"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	JWT       JWTConfig       `yaml:"jwt" envconfig:"JWT"`
	Metrics   MetricsConfig   `yaml:"metrics" envconfig:"METRICS"`
	Sentry    SentryConfig    `yaml:"sentry" envconfig:"SENTRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string `yaml:"host" split_words:"true"`
	Port            int    `yaml:"port" split_words:"true"`
	ReadTimeout     int    `yaml:"read_timeout" split_words:"true"`     // seconds
	WriteTimeout    int    `yaml:"write_timeout" split_words:"true"`    // seconds
	IdleTimeout     int    `yaml:"idle_timeout" split_words:"true"`     // seconds
	ShutdownTimeout int    `yaml:"shutdown_timeout" split_words:"true"` // seconds
	// AdminToken guards the metrics endpoint. Empty leaves it open.
	AdminToken string `yaml:"admin_token" split_words:"true"`
}

// ProviderConfig selects and tunes the HTTP provider driver
type ProviderConfig struct {
	Driver      string `yaml:"driver" split_words:"true"`        // gin, chi
	BodyLimit   int64  `yaml:"body_limit" split_words:"true"`    // bytes, 0 for the default
	XML         bool   `yaml:"xml" split_words:"true"`           // parse XML bodies
	UploadDir   string `yaml:"upload_dir" split_words:"true"`    // empty for <tmp>/uploads
	MaxFileSize int64  `yaml:"max_file_size" split_words:"true"` // bytes, 0 for unlimited
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true"`  // debug, info, warn, error
	Format string `yaml:"format" split_words:"true"` // json, text
}

// CORSConfig contains CORS configuration
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled" split_words:"true"`
	AllowedOrigins   []string `yaml:"allowed_origins" split_words:"true"`
	AllowedMethods   []string `yaml:"allowed_methods" split_words:"true"`
	AllowedHeaders   []string `yaml:"allowed_headers" split_words:"true"`
	ExposedHeaders   []string `yaml:"exposed_headers" split_words:"true"`
	AllowCredentials bool     `yaml:"allow_credentials" split_words:"true"`
	MaxAge           int      `yaml:"max_age" split_words:"true"` // seconds
}

// RateLimitConfig contains per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" split_words:"true"`
	RequestsPerMinute int  `yaml:"requests_per_minute" split_words:"true"`
	BurstSize         int  `yaml:"burst_size" split_words:"true"`
	CleanupInterval   int  `yaml:"cleanup_interval" split_words:"true"` // seconds
}

// JWTConfig contains JWT configuration. Protected endpoints are only
// registered when a secret is set.
type JWTConfig struct {
	Secret string `yaml:"secret" split_words:"true"`
	Issuer string `yaml:"issuer" split_words:"true"`
}

// MetricsConfig contains Prometheus exposition configuration
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" split_words:"true"`
	Path      string `yaml:"path" split_words:"true"`
	Namespace string `yaml:"namespace" split_words:"true"`
}

// SentryConfig contains error reporting configuration. Reporting is off
// without a DSN.
type SentryConfig struct {
	DSN         string  `yaml:"dsn" split_words:"true"`
	Environment string  `yaml:"environment" split_words:"true"`
	Release     string  `yaml:"release" split_words:"true"`
	SampleRate  float64 `yaml:"sample_rate" split_words:"true"`
	Debug       bool    `yaml:"debug" split_words:"true"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Missing file: defaults and env vars only
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Environment variables have the highest priority
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Provider: ProviderConfig{
			Driver: "gin",
			XML:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:         43200,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 600,
			BurstSize:         50,
			CleanupInterval:   60,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Sentry: SentryConfig{
			Environment: "development",
			SampleRate:  1.0,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if !validDriver(c.Provider.Driver) {
		return fmt.Errorf("invalid provider driver: %s (must be one of %s)", c.Provider.Driver, strings.Join(Drivers, ", "))
	}

	if c.Provider.BodyLimit < 0 {
		return fmt.Errorf("invalid body limit: %d", c.Provider.BodyLimit)
	}

	if c.Provider.MaxFileSize < 0 {
		return fmt.Errorf("invalid max file size: %d", c.Provider.MaxFileSize)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute < 1 || c.RateLimit.BurstSize < 1) {
		return fmt.Errorf("rate limit requires positive requests_per_minute and burst_size")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %q", c.Metrics.Path)
	}

	if c.Sentry.SampleRate < 0 || c.Sentry.SampleRate > 1 {
		return fmt.Errorf("sentry sample rate must be between 0 and 1: %v", c.Sentry.SampleRate)
	}

	return nil
}

func validDriver(name string) bool {
	for _, d := range Drivers {
		if d == name {
			return true
		}
	}
	return false
}

// Address returns the server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeouts returns the read, write and idle timeouts as durations.
func (c *ServerConfig) Timeouts() (read, write, idle time.Duration) {
	return seconds(c.ReadTimeout), seconds(c.WriteTimeout), seconds(c.IdleTimeout)
}

// Shutdown returns the graceful shutdown deadline.
func (c *ServerConfig) Shutdown() time.Duration {
	return seconds(c.ShutdownTimeout)
}

// CleanupEvery returns the rate limiter cleanup interval.
func (c *RateLimitConfig) CleanupEvery() time.Duration {
	return seconds(c.CleanupInterval)
}

// MaxAgeDuration returns the preflight cache duration.
func (c *CORSConfig) MaxAgeDuration() time.Duration {
	return seconds(c.MaxAge)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
