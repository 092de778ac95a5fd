// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// MarketConfig holds all configuration for the market service
type MarketConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	RepoType string
	Game     GameSettings
}

// GameSettings are the tunable game parameters
type GameSettings struct {
	TickInterval time.Duration
	MaxRounds    int
	StartPrice   float64
	StartCash    float64
}

// LoadMarketConfig loads configuration for the market service
func LoadMarketConfig() *MarketConfig {
	return &MarketConfig{
		Server: ServerConfig{
			Port:     getEnv("SERVER_PORT", "8080"),
			Name:     "market-service",
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "market_user"),
			Password: getEnv("DB_PASSWORD", "market_pass"),
			Name:     getEnv("DB_NAME", "market_db"),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnv("REDIS_PORT", "6379"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "dev-secret-change-me"),
			TTL:    time.Duration(getEnvInt("SESSION_TTL_MIN", 240)) * time.Minute,
		},
		RepoType: getEnv("REPO_TYPE", "memory"),
		Game: GameSettings{
			TickInterval: time.Duration(getEnvInt("TICK_INTERVAL_SEC", 10)) * time.Second,
			MaxRounds:    getEnvInt("MAX_ROUNDS", 10),
			StartPrice:   getEnvFloat("START_PRICE", 100.00),
			StartCash:    getEnvFloat("START_CASH", 1000.00),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
