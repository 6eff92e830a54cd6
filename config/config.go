// Package config loads dashboard settings with koanf.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. an optional YAML file (-config flag, then CONFIG_PATH, then ./config.yaml)
//  3. LIONEL_* environment variables, e.g. LIONEL_DATABASE_PATH -> database.path
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is stripped from environment variable names before mapping.
	EnvPrefix = "LIONEL_"

	// ConfigPathEnvVar can point at a YAML file when no -config flag is given.
	ConfigPathEnvVar = "CONFIG_PATH"
)

// DefaultConfigPaths are tried in order when neither flag nor env var names a file.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Logging  LoggingConfig  `koanf:"logging"`
	Defaults DefaultsConfig `koanf:"defaults"`

	// Season is the season code used by every fixture and selection query.
	Season int `koanf:"season"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `koanf:"driver"`
	// Path is the SQLite file, or the connection string for postgres.
	Path         string `koanf:"path"`
	CreateSchema bool   `koanf:"create_schema"`
}

type CacheConfig struct {
	// Backend is "memory", "redis" or "none".
	Backend   string        `koanf:"backend"`
	TTL       time.Duration `koanf:"ttl"`
	RedisAddr string        `koanf:"redis_addr"`
	RedisDB   int           `koanf:"redis_db"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DefaultsConfig holds the filter values a fresh visitor starts with.
type DefaultsConfig struct {
	HomeTeam     string `koanf:"home_team"`
	AwayTeam     string `koanf:"away_team"`
	MinMinutes   int    `koanf:"min_minutes"`
	ShowcaseHome string `koanf:"showcase_home"`
	ShowcaseAway string `koanf:"showcase_away"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./lionel.db",
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Defaults: DefaultsConfig{
			HomeTeam:     "Arsenal",
			AwayTeam:     "Tottenham",
			MinMinutes:   45,
			ShowcaseHome: "Manchester City",
			ShowcaseAway: "Arsenal",
		},
		Season: 25,
	}
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	return defaultConfig()
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path = findConfigFile(path); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := splitCommaList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every setting that cannot work.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q: want sqlite or postgres", c.Database.Driver))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q: want memory, redis or none", c.Cache.Backend))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.Defaults.MinMinutes < 0 || c.Defaults.MinMinutes > 90 {
		errs = append(errs, fmt.Errorf("defaults.min_minutes %d out of range 0-90", c.Defaults.MinMinutes))
	}
	if c.Season <= 0 {
		errs = append(errs, fmt.Errorf("season %d must be positive", c.Season))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	return errors.Join(errs...)
}

// findConfigFile prefers the explicit path, then CONFIG_PATH, then the defaults.
// An explicit path is returned even if missing so the load error names it.
func findConfigFile(path string) string {
	if path != "" {
		return path
	}
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform maps LIONEL_CACHE_REDIS_ADDR to cache.redis_addr. Only the first
// underscore separates the section, so multi-word keys survive.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func splitCommaList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("setting %s: %w", path, err)
	}
	return nil
}
