package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "MCP_TOKEN", "API_KEY", "CORS_ORIGINS", "ALLOWED_ORIGINS",
		"RATE_LIMIT", "RATE_LIMIT_BURST", "LOG_LEVEL", "LOG_FORMAT",
		"TLS_CERT_FILE", "TLS_KEY_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Empty(t, cfg.Auth.Token)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 100, cfg.RateLimit.PerMinute)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.TLS.Enabled())
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_MCP_SECRET", "s3cret")
	path := writeFile(t, "config.yaml", `
server:
  port: "8080"
  name: toolbox-test
auth:
  token: ${TEST_MCP_SECRET}
cors:
  allowed_origins:
    - https://a.example
    - https://b.example
rate_limit:
  per_minute: 10
  burst: 2
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "toolbox-test", cfg.Server.Name)
	assert.Equal(t, "1.0.0", cfg.Server.Version)
	assert.Equal(t, "s3cret", cfg.Auth.Token)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, RateLimitConfig{PerMinute: 10, Burst: 2}, cfg.RateLimit)
	assert.Equal(t, LoggingConfig{Level: "debug", Format: "json"}, cfg.Logging)
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
[server]
port = "4000"

[auth]
token = "tok"

[rate_limit]
per_minute = 0

[logging]
format = "color"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "tok", cfg.Auth.Token)
	assert.Equal(t, 0, cfg.RateLimit.PerMinute)
	assert.Equal(t, "color", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "server:\n  port: \"8080\"\nauth:\n  token: file\n")
	t.Setenv("PORT", "9090")
	t.Setenv("MCP_TOKEN", "env")
	t.Setenv("CORS_ORIGINS", "https://x.example, https://y.example,")
	t.Setenv("RATE_LIMIT", "50")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "env", cfg.Auth.Token)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 50, cfg.RateLimit.PerMinute)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestAPIKeyAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "legacy")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Auth.Token)

	t.Setenv("MCP_TOKEN", "preferred")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "preferred", cfg.Auth.Token)
}

func TestInvalidIntEnvKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT", "lots")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.RateLimit.PerMinute)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = Load(writeFile(t, "config.json", "{}"))
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = Load(writeFile(t, "bad.yaml", "server: [unclosed"))
	assert.ErrorContains(t, err, "parsing config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = "http" }, "server.port"},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, "server.port"},
		{"negative rate", func(c *Config) { c.RateLimit.PerMinute = -1 }, "per_minute"},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }, "burst"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"half tls", func(c *Config) { c.TLS.CertFile = "cert.pem" }, "tls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	cfg := Default()
	cfg.RateLimit = RateLimitConfig{PerMinute: 0, Burst: 0}
	assert.NoError(t, cfg.Validate(), "burst is ignored when limiting is off")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_EXPAND_A", "alpha")
	assert.Equal(t, "x-alpha-", expandEnvVars("x-${TEST_EXPAND_A}-${TEST_EXPAND_UNSET}"))
	assert.Equal(t, "$PLAIN", expandEnvVars("$PLAIN"))
}
