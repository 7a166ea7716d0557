package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Port     string
	MongoURI string

	// OpenAI configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Shared secrets
	AdminSecret string // admin session login password
	CronSecret  string // exact-match X-Cron-Secret header for the trigger endpoint

	// Generation pipeline configuration
	BatchSize    int // daily target count of published articles
	PoolSize     int // maximum ideas sampled per run
	DailyRunHour int // UTC hour of the scheduled run

	AllowedOrigins string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3001"),
		MongoURI: getEnv("MONGODB_URI", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),

		AdminSecret: getEnv("ADMIN_SECRET", ""),
		CronSecret:  getEnv("CRON_SECRET", ""),

		BatchSize:    getIntEnv("GENERATION_BATCH_SIZE", 5),
		PoolSize:     getIntEnv("GENERATION_POOL_SIZE", 50),
		DailyRunHour: getIntEnv("GENERATION_RUN_HOUR_UTC", 6),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
