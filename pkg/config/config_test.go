package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return defaultConfig()
}

func TestConfig_Validate(t *testing.T) {
	err := validConfig().Validate()
	if err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port negative", -1},
		{"port too high", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port

			err := cfg.Validate()
			if err == nil {
				t.Error("Expected validation error for invalid port")
			}
		})
	}
}

func TestConfig_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Provider.Driver = "echo" }},
		{"negative body limit", func(c *Config) { c.Provider.BodyLimit = -1 }},
		{"negative max file size", func(c *Config) { c.Provider.MaxFileSize = -1 }},
		{"rate limit without rate", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.RequestsPerMinute = 0
		}},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"sample rate out of range", func(c *Config) { c.Sentry.SampleRate = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gin", cfg.Provider.Driver)
	assert.True(t, cfg.Provider.XML)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
  read_timeout: 5
provider:
  driver: chi
  body_limit: 2048
logging:
  level: debug
rate_limit:
  enabled: true
  requests_per_minute: 60
  burst_size: 5
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("HTTPPROVIDER_SERVER_PORT", "7070")
	t.Setenv("HTTPPROVIDER_JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "chi", cfg.Provider.Driver)
	assert.Equal(t, int64(2048), cfg.Provider.BodyLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.True(t, cfg.RateLimit.Enabled)

	read, write, idle := cfg.Server.Timeouts()
	assert.Equal(t, 5*time.Second, read)
	assert.Equal(t, 15*time.Second, write)
	assert.Equal(t, 60*time.Second, idle)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("HTTPPROVIDER_PROVIDER_DRIVER", "echo")

	_, err := Load("")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", cfg.Address())
}

func TestLoad_IgnoresUnprefixedEnv(t *testing.T) {
	t.Setenv("PATH", "/usr/bin:/bin")
	t.Setenv("HOST", "example.org")
	t.Setenv("HTTPPROVIDER_METRICS_PATH", "/stats")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/stats", cfg.Metrics.Path)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}
