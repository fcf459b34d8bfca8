package config

import (
	"os"
	"strconv"
)

type LandscapeServiceConfig struct {
	APIKey             string
	APIBaseURL         string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SnapshotTTLMinutes int
}

func New() *LandscapeServiceConfig {
	return &LandscapeServiceConfig{
		APIKey:             getEnvOrDefault("AGRI_API_KEY", ""),
		APIBaseURL:         getEnvOrDefault("AGRI_API_BASE_URL", "https://agriculturalunderstanding.googleapis.com"),
		RedisAddr:          getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword:      getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:            getEnvIntOrDefault("REDIS_DB", 0),
		SnapshotTTLMinutes: getEnvIntOrDefault("SNAPSHOT_TTL_MINUTES", 60),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
