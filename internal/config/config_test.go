package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  tcp_port: 9001
  http_port: 9002
  disable_tls: true
  shutdown_timeout: "3s"

store:
  data_dir: "/var/lib/cms"

activity:
  driver: "sqlite"
  sqlite_path: "/var/lib/cms/activity.db"
  fetch_limit: 50
  page_size: 10

carousel:
  lock_duration: "700ms"
  hero_interval: "6s"

log:
  level: "debug"
  format: "text"
`

func TestLoad_ValidYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, t.TempDir(), validYAML))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.TCPPort != 9001 || cfg.Server.HTTPPort != 9002 {
		t.Errorf("ports = %d/%d, want 9001/9002", cfg.Server.TCPPort, cfg.Server.HTTPPort)
	}
	if !cfg.Server.DisableTLS {
		t.Error("server.disable_tls should be true")
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("server.shutdown_timeout = %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Store.DataDir != "/var/lib/cms" {
		t.Errorf("store.data_dir = %q", cfg.Store.DataDir)
	}
	if cfg.Activity.Driver != DriverSQLite || cfg.Activity.FetchLimit != 50 || cfg.Activity.PageSize != 10 {
		t.Errorf("activity = %+v", cfg.Activity)
	}
	if cfg.Carousel.LockDuration != 700*time.Millisecond {
		t.Errorf("carousel.lock_duration = %v, want 700ms", cfg.Carousel.LockDuration)
	}
	if cfg.Carousel.HeroInterval != 6*time.Second {
		t.Errorf("carousel.hero_interval = %v, want 6s", cfg.Carousel.HeroInterval)
	}
	// Unset keys fall back to env-default.
	if cfg.Carousel.PortfolioInterval != 4500*time.Millisecond {
		t.Errorf("carousel.portfolio_interval = %v, want 4.5s", cfg.Carousel.PortfolioInterval)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, t.TempDir(), validYAML))
	t.Setenv("CELERIX_HTTP_PORT", "8080")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("server.http_port = %d, want 8080 (ENV override)", cfg.Server.HTTPPort)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want warn (ENV override)", cfg.Log.Level)
	}
}

func TestLoad_NoFile_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.TCPPort != 7001 || cfg.Server.HTTPPort != 7002 {
		t.Errorf("ports = %d/%d, want 7001/7002", cfg.Server.TCPPort, cfg.Server.HTTPPort)
	}
	if cfg.Activity.Driver != DriverDocument || cfg.Activity.FetchLimit != 100 || cfg.Activity.PageSize != 20 {
		t.Errorf("activity defaults = %+v", cfg.Activity)
	}
	if cfg.Carousel.LockDuration != 600*time.Millisecond || cfg.Carousel.TestimonialsInterval != 4*time.Second {
		t.Errorf("carousel defaults = %+v", cfg.Carousel)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{TCPPort: 7001, HTTPPort: 7002},
			Activity: ActivityConfig{Driver: DriverDocument, FetchLimit: 100, PageSize: 20},
			Carousel: CarouselConfig{
				LockDuration:         600 * time.Millisecond,
				HeroInterval:         5 * time.Second,
				TestimonialsInterval: 4 * time.Second,
				PortfolioInterval:    4500 * time.Millisecond,
			},
			Log: LogConfig{Level: "info", Format: "json"},
		}
	}

	if cfg := valid(); cfg.Validate() != nil {
		t.Fatalf("baseline config should be valid: %v", cfg.Validate())
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"same ports", func(c *Config) { c.Server.HTTPPort = 7001 }, "must differ"},
		{"bad port", func(c *Config) { c.Server.TCPPort = 0 }, "tcp_port"},
		{"unknown driver", func(c *Config) { c.Activity.Driver = "postgres" }, "driver"},
		{"sqlite without path", func(c *Config) { c.Activity.Driver = DriverSQLite }, "sqlite_path"},
		{"fetch limit above cap", func(c *Config) { c.Activity.FetchLimit = 101 }, "fetch_limit"},
		{"zero page size", func(c *Config) { c.Activity.PageSize = 0 }, "page_size"},
		{"negative lock", func(c *Config) { c.Carousel.LockDuration = -time.Second }, "lock_duration"},
		{"zero interval", func(c *Config) { c.Carousel.PortfolioInterval = 0 }, "portfolio_interval"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
