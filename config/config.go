package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	PGURL    string
	Port     string
	SeedPath string
}

// Load reads configuration from a .env file (if present) and the environment;
// real environment variables take precedence over .env values
func Load() (*Config, error) {
	_ = godotenv.Load()

	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("PG_URL environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	seedPath := os.Getenv("SEED_STRATEGY")
	if seedPath == "" {
		seedPath = "configs/default_strategy.yaml"
	}

	return &Config{
		PGURL:    pgURL,
		Port:     port,
		SeedPath: seedPath,
	}, nil
}
