// Package app holds process-wide configuration.
package app

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the server and the seeding CLI.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	AppAddr         string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`

	// RunMigrations applies db/migrations on startup.
	RunMigrations bool `envconfig:"RUN_MIGRATIONS" default:"true"`

	// SequenceLockTimeout bounds how long a creation waits for the counter row.
	SequenceLockTimeout time.Duration `envconfig:"SEQUENCE_LOCK_TIMEOUT" default:"5s"`

	// ProjectRoot is the directory that contains Challans/.
	ProjectRoot string `envconfig:"PROJECT_ROOT" default:"."`

	// IdempotencyTTL is how long a stored response stays replayable.
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	// PrintAgentURL is optional; label printing is disabled when empty.
	PrintAgentURL     string        `envconfig:"PRINT_AGENT_URL"`
	PrintAgentTimeout time.Duration `envconfig:"PRINT_AGENT_TIMEOUT" default:"10s"`
}

// LoadConfig reads an optional .env file and then the environment.
// Variables already set in the environment win over .env.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be provided")
	}
	if c.DBMaxConns < 1 {
		return errors.New("DB_MAX_CONNS must be at least 1")
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return errors.New("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}
	if c.ProjectRoot == "" {
		return errors.New("PROJECT_ROOT must not be empty")
	}
	if c.SequenceLockTimeout <= 0 {
		return errors.New("SEQUENCE_LOCK_TIMEOUT must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be positive")
	}
	return nil
}

// IsDevelopment returns true for local runs; it switches the logger to console output.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

// PrintingEnabled reports whether a print agent is configured.
func (c *Config) PrintingEnabled() bool {
	return c != nil && c.PrintAgentURL != ""
}
