// Package config loads ListeningRoom settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds settings for both the server and the CLI client
type Config struct {
	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH"`
	DatabaseURL string `env:"DATABASE_URL"`

	Addr     string        `env:"ADDR" envDefault:":8080"`
	LogLevel string        `env:"LOG_LEVEL" envDefault:"info"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"24h"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisUsername string `env:"REDIS_USERNAME"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"listeningroom-dev-secret"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"listeningroom"`

	ServerURL    string        `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	Token        string        `env:"TOKEN"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	PollTimeout  time.Duration `env:"POLL_TIMEOUT" envDefault:"900ms"`
	ReduceMotion bool          `env:"REDUCE_MOTION"`
}

const envPrefix = "LISTENINGROOM_"

// Load reads an optional .env file and parses LISTENINGROOM_* variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	if cfg.DBPath == "" {
		path, err := defaultDatabasePath()
		if err != nil {
			return nil, fmt.Errorf("failed to get database path: %w", err)
		}
		cfg.DBPath = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks combinations env parsing cannot express
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("%sDATABASE_URL is required for the postgres driver", envPrefix)
		}
	default:
		return fmt.Errorf("unknown database driver %q (use sqlite or postgres)", c.DBDriver)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("poll timeout must be positive")
	}
	return nil
}

// defaultDatabasePath returns ~/.listeningroom/listeningroom.db
func defaultDatabasePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".listeningroom", "listeningroom.db"), nil
}
