package config

import (
	"os"
	"strconv"

	"neuromatch/domain/match"
	"neuromatch/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Matching MatchingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	APIPort string
	UIPort  string
	GinMode string
}

// MatchingConfig holds the matching engine defaults
type MatchingConfig struct {
	Alpha         float64
	MaxIterations int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			APIPort: envOr("API_PORT", "8080"),
			UIPort:  envOr("UI_PORT", "8081"),
			GinMode: envOr("GIN_MODE", "release"),
		},
		Matching: MatchingConfig{
			Alpha:         match.DefaultAlpha,
			MaxIterations: match.DefaultMaxIterations,
		},
	}

	if v := os.Getenv("MATCH_ALPHA"); v != "" {
		alpha, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("MATCH_ALPHA must be a float")
		}
		cfg.Matching.Alpha = alpha
	}
	if v := os.Getenv("MATCH_MAX_ITERATIONS"); v != "" {
		iters, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.ConfigInvalid("MATCH_MAX_ITERATIONS must be an integer")
		}
		cfg.Matching.MaxIterations = iters
	}

	return cfg, nil
}

// EngineConfig builds the engine configuration from the loaded settings.
func (c *Config) EngineConfig() match.Config {
	engine := match.DefaultConfig()
	engine.Alpha = c.Matching.Alpha
	engine.MaxIterations = c.Matching.MaxIterations
	return engine
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
