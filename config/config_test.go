package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Season != 25 {
		t.Errorf("Season = %d, want 25", cfg.Season)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
	}
	if cfg.Defaults.MinMinutes != 45 {
		t.Errorf("Defaults.MinMinutes = %d, want 45", cfg.Defaults.MinMinutes)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "lionel.yaml")
	yml := `
season: 24
database:
  path: /data/lionel.db
cache:
  ttl: 30s
defaults:
  home_team: Chelsea
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIONEL_SEASON", "26")
	t.Setenv("LIONEL_DEFAULTS_MIN_MINUTES", "60")
	t.Setenv("LIONEL_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Season != 26 {
		t.Errorf("Season = %d, want env override 26", cfg.Season)
	}
	if cfg.Database.Path != "/data/lionel.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Cache.TTL = %v, want 30s", cfg.Cache.TTL)
	}
	if cfg.Defaults.HomeTeam != "Chelsea" {
		t.Errorf("Defaults.HomeTeam = %q, want Chelsea", cfg.Defaults.HomeTeam)
	}
	if cfg.Defaults.MinMinutes != 60 {
		t.Errorf("Defaults.MinMinutes = %d, want 60", cfg.Defaults.MinMinutes)
	}
	if got := strings.Join(cfg.Server.CORSOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("CORSOrigins = %q", got)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults ok", func(*Config) {}, ""},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"empty path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }, "redis_addr"},
		{"bad backend", func(c *Config) { c.Cache.Backend = "disk" }, "cache.backend"},
		{"min minutes too high", func(c *Config) { c.Defaults.MinMinutes = 91 }, "min_minutes"},
		{"zero season", func(c *Config) { c.Season = 0 }, "season"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := map[string]string{
		"LIONEL_SEASON":              "season",
		"LIONEL_DATABASE_PATH":       "database.path",
		"LIONEL_CACHE_REDIS_ADDR":    "cache.redis_addr",
		"LIONEL_SERVER_READ_TIMEOUT": "server.read_timeout",
	}
	for in, want := range tests {
		if got := envTransform(in); got != want {
			t.Errorf("envTransform(%q) = %q, want %q", in, got, want)
		}
	}
}
