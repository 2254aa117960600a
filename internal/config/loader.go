package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the envconfig prefix. Empty: variables are named directly
// (DATABASE_URL, PRINTFUL_WEBHOOK_SECRET, ...).
const envPrefix = ""

// Load reads, populates, and validates the configuration.
//
// Sequence:
//  1. Force the process timezone to UTC so timestamps in audit records and
//     the database never drift with host settings.
//  2. Load a .env file if present (non-fatal if missing; local dev only).
//  3. Populate the Config struct from the environment via envconfig.
//  4. Validate the struct with go-playground/validator.
func Load() (*Config, error) {
	return load(defaultEnvFile)
}

// defaultEnvFile is the .env path loaded in local development.
const defaultEnvFile = ".env"

func load(envFile string) (*Config, error) {
	time.Local = time.UTC
	_ = os.Setenv("TZ", "UTC")

	// Missing .env is the normal case in deployed environments.
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
