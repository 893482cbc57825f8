package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Search   SearchConfig   `koanf:"search"`
	Flush    FlushConfig    `koanf:"flush"`
	Catalog  CatalogConfig  `koanf:"catalog"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL string `koanf:"url"`
}

type SearchConfig struct {
	Addresses []string `koanf:"addresses"`
}

type FlushConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Interval string `koanf:"interval"` // parsed and validated on startup
}

type CatalogConfig struct {
	Path string `koanf:"path"` // optional; empty means built-in catalog
}

// FlushInterval parses the configured flush cadence.
func (c FlushConfig) FlushInterval() (time.Duration, error) {
	return time.ParseDuration(c.Interval)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}

	if strings.TrimSpace(c.Redis.URL) == "" {
		return fmt.Errorf("redis.url is required")
	}

	interval, err := c.Flush.FlushInterval()
	if err != nil {
		return fmt.Errorf("invalid flush.interval %q: %w", c.Flush.Interval, err)
	}
	if interval <= 0 {
		return fmt.Errorf("flush.interval must be > 0")
	}

	if len(c.Search.Addresses) == 0 {
		return fmt.Errorf("search.addresses is required")
	}

	return nil
}

// Load parses config from file + env and validates it.
// Env vars use the STOREPULSE_ prefix with __ as the section separator,
// e.g. STOREPULSE_DATABASE__DSN overrides database.dsn.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.mode":             "release",
		"database.dsn":            "",
		"database.max_open_conns": 25,
		"database.max_idle_conns": 25,
		"database.auto_migrate":   true,
		"redis.url":               "redis://localhost:6379/0",
		"search.addresses":        []string{"http://localhost:9200"},
		"flush.enabled":           true,
		"flush.interval":          "10s",
		"catalog.path":            "",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("STOREPULSE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "STOREPULSE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
