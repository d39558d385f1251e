package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBDriver      string
	DBPath        string
	ServerPort    string
	LogLevel      string
	DeltaStrategy string
	EloKFactor    float64
	DeltaCap      int
	SupabaseURL   string
	SupabaseKey   string
	CacheTTL      time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}
	return FromEnv(logger)
}

// FromEnv builds the configuration from the process environment only.
func FromEnv(logger zerolog.Logger) (*Config, error) {
	cfg := &Config{
		DBDriver:      getEnv("DB_DRIVER", "sqlite3"),
		DBPath:        getEnv("DB_PATH", "takurating.db"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DeltaStrategy: getEnv("DELTA_STRATEGY", "usatt"),
		SupabaseURL:   getEnv("SUPABASE_URL", ""),
		SupabaseKey:   getEnv("SUPABASE_KEY", ""),
	}

	var err error
	if cfg.EloKFactor, err = strconv.ParseFloat(getEnv("ELO_K_FACTOR", "32"), 64); err != nil {
		return nil, fmt.Errorf("invalid ELO_K_FACTOR: %w", err)
	}
	if cfg.DeltaCap, err = strconv.Atoi(getEnv("DELTA_CAP", "50")); err != nil {
		return nil, fmt.Errorf("invalid DELTA_CAP: %w", err)
	}
	if cfg.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "5m")); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	switch cfg.DBDriver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.DeltaStrategy == "remote" && cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required for the remote delta strategy")
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	logger.Info().
		Str("db_driver", cfg.DBDriver).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("delta_strategy", cfg.DeltaStrategy).
		Bool("supabase", cfg.SupabaseURL != "").
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) SupabaseEnabled() bool {
	return c.SupabaseURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
