// Package config loads daemon configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the serve command's settings. Flags may override individual
// fields after parsing.
type Config struct {
	ListenAddr      string        `env:"TASKBOARD_LISTEN" envDefault:"127.0.0.1:8970"`
	DBPath          string        `env:"TASKBOARD_DB"`
	JWTSecret       string        `env:"TASKBOARD_JWT_SECRET"`
	RefreshSecret   string        `env:"TASKBOARD_REFRESH_SECRET"`
	AccessTokenTTL  time.Duration `env:"TASKBOARD_ACCESS_TTL" envDefault:"24h"`
	RefreshTokenTTL time.Duration `env:"TASKBOARD_REFRESH_TTL" envDefault:"168h"`
}

// Load parses configuration from environment variables and fills defaults
// that need the home directory.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(homeDir, ".taskboard", "taskboard.db")
	}
	return cfg, nil
}

// Validate checks the fields the daemon cannot run without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("TASKBOARD_JWT_SECRET is required")
	}
	return nil
}
