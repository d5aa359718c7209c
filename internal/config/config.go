package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the roster core and its tooling.
type Config struct {
	Mongo MongoConfig
	Redis RedisConfig
}

// MongoConfig holds settings for the campaign document store.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// RedisConfig holds settings for the optional per-campaign mutation
// lock. An empty URL disables lock serialization.
type RedisConfig struct {
	URL         string
	LockTTL     time.Duration
	LockRetries int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGODB_URI"),
			Database: getEnvOrDefault("MONGODB_DATABASE", "meeplenest"),
			Timeout:  getEnvAsDurationOrDefault("MONGODB_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:         os.Getenv("REDIS_URL"),
			LockTTL:     getEnvAsDurationOrDefault("ROSTER_LOCK_TTL", 5*time.Second),
			LockRetries: getEnvAsIntOrDefault("ROSTER_LOCK_RETRIES", 5),
		},
	}

	if cfg.Mongo.URI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
