// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"SAMAJ_DB_PATH" envDefault:"./data/samaj.db"`
	ServerHost string `env:"SAMAJ_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"SAMAJ_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"SAMAJ_ENV" envDefault:"development"`
	LogLevel   string `env:"SAMAJ_LOG_LEVEL" envDefault:"info"`
	UploadsDir string `env:"SAMAJ_UPLOADS_DIR" envDefault:"./uploads"`

	// Cache configuration
	RedisURL     string `env:"SAMAJ_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"SAMAJ_CACHE_PREFIX" envDefault:"samaj:"`  // Redis key prefix
	CacheTTL     int    `env:"SAMAJ_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"SAMAJ_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"SAMAJ_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Seeding configuration
	DoSeed bool `env:"SAMAJ_DO_SEED" envDefault:"true"` // Seed master data and the default admin on startup
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SAMAJ_SERVER_PORT out of range: %d", cfg.ServerPort)
	}
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("SAMAJ_CACHE_TTL must not be negative: %d", cfg.CacheTTL)
	}

	return cfg, nil
}
