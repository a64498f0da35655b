// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type StoreOptions struct {
	Driver      string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"./data/crew.db"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"crew"`
}

type MetricsOptions struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

type Configuration struct {
	Store   StoreOptions
	Metrics MetricsOptions

	Port               int      `env:"PORT" envDefault:"8080"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string   `env:"LOG_FORMAT" envDefault:"console"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	WriteConcurrency   int      `env:"WRITE_CONCURRENCY" envDefault:"8"`
	MaxPeriodDays      int      `env:"MAX_PERIOD_DAYS" envDefault:"366"`
	LoadScenario       string   `env:"LOAD_SCENARIO"`
}

// LoadEnv loads the env files that exist, in order. Variables already set in
// the process environment win. Returns how many files were loaded.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads .env files, then parses and validates the environment.
func Load() (*Configuration, error) {
	c, err := Read()
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read is Load without validation, for callers that apply overrides first.
func Read() (*Configuration, error) {
	if _, err := LoadEnv([]string{".env", ".env.local"}); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	return c, nil
}

// Parse reads the process environment only.
func Parse() (*Configuration, error) {
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration for errors
func (c *Configuration) Validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, sqlite, postgres, redis; got %q", c.Store.Driver)
	}
	if c.Store.Driver == StorePostgres && !strings.HasPrefix(c.Store.DatabaseURL, "postgres") {
		return fmt.Errorf("DATABASE_URL must be a postgres:// url when STORE_DRIVER is postgres")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.WriteConcurrency < 1 {
		return fmt.Errorf("WRITE_CONCURRENCY must be at least 1, got %d", c.WriteConcurrency)
	}
	if c.MaxPeriodDays < 1 {
		return fmt.Errorf("MAX_PERIOD_DAYS must be at least 1, got %d", c.MaxPeriodDays)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("METRICS_PATH must start with /, got %q", c.Metrics.Path)
	}
	return nil
}

// Addr returns the listen address.
func (c *Configuration) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
