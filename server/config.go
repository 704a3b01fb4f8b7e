package server

import (
	"compress/flate"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config holds the service configuration.
type Config struct {
	Listen           string            `yaml:"listen"`
	DBPath           string            `yaml:"db_path"`
	MaxUploadMB      int               `yaml:"max_upload_mb"`
	MaxBatchMB       int               `yaml:"max_batch_mb"`
	Workers          int               `yaml:"workers"`
	CompressionLevel int               `yaml:"compression_level"`
	LogLevel         string            `yaml:"log_level"`
	MCP              bool              `yaml:"mcp"`
	BasicAuth        map[string]string `yaml:"basic_auth"` // user -> bcrypt hash
	KeepArchives     bool              `yaml:"keep_archives"`
	RateLimit        RateLimitConfig   `yaml:"rate_limit"`
}

// RateLimitConfig limits conversion requests per client IP.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"` // 0 disables
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:       ":8090",
		DBPath:       "data/odfpack.db",
		MaxUploadMB:  20,
		MaxBatchMB:   100,
		Workers:      4,
		LogLevel:     "info",
		MCP:          true,
		KeepArchives: true,
	}
}

// LoadConfig reads a YAML file over DefaultConfig, applies environment
// overrides and validates the result. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Listen = env("ODFPACK_LISTEN", c.Listen)
	c.DBPath = env("ODFPACK_DB", c.DBPath)
	c.LogLevel = env("LOG_LEVEL", c.LogLevel)
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0")
	}
	if c.MaxBatchMB < c.MaxUploadMB {
		return fmt.Errorf("max_batch_mb (%d) must be >= max_upload_mb (%d)", c.MaxBatchMB, c.MaxUploadMB)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if c.CompressionLevel < flate.HuffmanOnly || c.CompressionLevel > flate.BestCompression {
		return fmt.Errorf("compression_level must be between %d and %d", flate.HuffmanOnly, flate.BestCompression)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.RateLimit.PerMinute < 0 {
		return fmt.Errorf("rate_limit.per_minute must be >= 0")
	}
	for user, hash := range c.BasicAuth {
		if user == "" {
			return fmt.Errorf("basic_auth: empty user name")
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return fmt.Errorf("basic_auth[%s]: not a bcrypt hash: %w", user, err)
		}
	}
	return nil
}

// MaxUploadBytes returns the per-file size limit in bytes.
func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) * 1024 * 1024 }

// MaxBatchBytes returns the request size limit for batch uploads in bytes.
func (c *Config) MaxBatchBytes() int64 { return int64(c.MaxBatchMB) * 1024 * 1024 }

// SlogLevel returns LogLevel as a slog.Level. Validate rejects unknown names.
func (c *Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level %q: use debug, info, warn or error", s)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
