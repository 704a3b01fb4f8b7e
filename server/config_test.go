package server

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.MaxUploadBytes() != 20*1024*1024 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes())
	}
	if cfg.MaxBatchBytes() != 100*1024*1024 {
		t.Errorf("MaxBatchBytes = %d", cfg.MaxBatchBytes())
	}
}

func TestLoadConfig(t *testing.T) {
	yaml := `
listen: ":9191"
db_path: "/tmp/odfpack-test.db"
max_upload_mb: 5
max_batch_mb: 50
workers: 2
compression_level: 9
log_level: debug
mcp: false
keep_archives: false
rate_limit:
  per_minute: 30
`
	path := filepath.Join(t.TempDir(), "odfpack.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9191" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.MaxUploadMB != 5 || cfg.Workers != 2 || cfg.CompressionLevel != 9 {
		t.Errorf("numbers not loaded: %+v", cfg)
	}
	if cfg.MCP || cfg.KeepArchives {
		t.Error("booleans should be overridden to false")
	}
	if cfg.RateLimit.PerMinute != 30 {
		t.Errorf("PerMinute = %d", cfg.RateLimit.PerMinute)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v", cfg.SlogLevel())
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8090" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ODFPACK_LISTEN", ":7070")
	t.Setenv("ODFPACK_DB", "/tmp/env.db")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":7070" || cfg.DBPath != "/tmp/env.db" {
		t.Errorf("env not applied: %q %q", cfg.Listen, cfg.DBPath)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("SlogLevel = %v", cfg.SlogLevel())
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"empty listen":       func(c *Config) { c.Listen = "" },
		"empty db":           func(c *Config) { c.DBPath = "" },
		"zero upload":        func(c *Config) { c.MaxUploadMB = 0 },
		"batch below file":   func(c *Config) { c.MaxBatchMB = c.MaxUploadMB - 1 },
		"no workers":         func(c *Config) { c.Workers = 0 },
		"compression 10":     func(c *Config) { c.CompressionLevel = 10 },
		"compression -3":     func(c *Config) { c.CompressionLevel = -3 },
		"log level":          func(c *Config) { c.LogLevel = "verbose" },
		"negative limit":     func(c *Config) { c.RateLimit.PerMinute = -1 },
		"plaintext password": func(c *Config) { c.BasicAuth = map[string]string{"alice": "hunter2"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidate_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.BasicAuth = map[string]string{"alice": string(hash)}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("bcrypt hash should be accepted: %v", err)
	}
}
