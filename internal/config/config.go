package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort    string        `env:"SERVER_PORT" envDefault:"8080"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"super-secret-key-change-me"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"4h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
