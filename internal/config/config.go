// Package config loads server configuration from an optional YAML or TOML
// file, a .env file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	CORS      CORSConfig      `yaml:"cors" toml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	TLS       TLSConfig       `yaml:"tls" toml:"tls"`
}

// ServerConfig holds the listen port and the identity reported to clients.
type ServerConfig struct {
	Port    string `yaml:"port" toml:"port"`
	Name    string `yaml:"name" toml:"name"`
	Version string `yaml:"version" toml:"version"`
}

// AuthConfig holds the bearer token. An empty token leaves endpoints open.
type AuthConfig struct {
	Token string `yaml:"token" toml:"token"`
}

// CORSConfig lists the origins allowed to call the HTTP surface.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// RateLimitConfig bounds requests per client IP. PerMinute 0 disables limiting.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute" toml:"per_minute"`
	Burst     int `yaml:"burst" toml:"burst"`
}

// LoggingConfig selects the log level and output format (text, json or color).
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// TLSConfig holds certificate paths. Both or neither must be set.
type TLSConfig struct {
	CertFile string `yaml:"cert_file" toml:"cert_file"`
	KeyFile  string `yaml:"key_file" toml:"key_file"`
}

// Enabled reports whether TLS is configured.
func (t TLSConfig) Enabled() bool { return t.CertFile != "" && t.KeyFile != "" }

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: "3000", Name: "mcp-toolbox", Version: "1.0.0"},
		CORS:      CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: RateLimitConfig{PerMinute: 100, Burst: 20},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load builds a Config from defaults, the file at path (if non-empty), a
// .env file in the working directory (if present) and the environment.
// ${VAR} references in the file are expanded after .env is loaded.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	expanded := expandEnvVars(string(data))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the variable's value, or "" when unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Auth.Token = getEnv("MCP_TOKEN", getEnv("API_KEY", cfg.Auth.Token))
	if origins := splitCSV(getEnv("CORS_ORIGINS", os.Getenv("ALLOWED_ORIGINS"))); origins != nil {
		cfg.CORS.AllowedOrigins = origins
	}
	cfg.RateLimit.PerMinute = getEnvInt("RATE_LIMIT", cfg.RateLimit.PerMinute)
	cfg.RateLimit.Burst = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.TLS.CertFile = getEnv("TLS_CERT_FILE", cfg.TLS.CertFile)
	cfg.TLS.KeyFile = getEnv("TLS_KEY_FILE", cfg.TLS.KeyFile)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server.port must be a number between 1 and 65535, got %q", c.Server.Port)
	}
	if c.RateLimit.PerMinute < 0 {
		return fmt.Errorf("rate_limit.per_minute must not be negative")
	}
	if c.RateLimit.PerMinute > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1 when rate limiting is enabled")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json", "color":
	default:
		return fmt.Errorf("logging.format must be one of text, json, color; got %q", c.Logging.Format)
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return fmt.Errorf("tls.cert_file and tls.key_file must be set together")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
