package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server is the server process configuration, read from the environment
type Server struct {
	Port        int           `env:"PORT" envDefault:"8000"`
	StorageType string        `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string        `env:"REDIS_URL"`
	PairingTTL  time.Duration `env:"PAIRING_TTL" envDefault:"24h"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses and validates the server configuration
func Load() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot
func (s Server) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", s.Port)
	}
	switch s.StorageType {
	case "memory":
	case "redis":
		if s.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory or redis", s.StorageType)
	}
	if s.PairingTTL <= 0 {
		return fmt.Errorf("PAIRING_TTL must be positive, got %s", s.PairingTTL)
	}
	if _, err := parseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level named by LogLevel
func (s Server) Level() slog.Level {
	level, _ := parseLevel(s.LogLevel)
	return level
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", name, err)
	}
	return level, nil
}
