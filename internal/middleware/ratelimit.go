package middleware

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds the per-window request caps
type RateLimitConfig struct {
	GlobalAPIMax  int // all /api/* traffic per IP
	PublicReadMax int // public read endpoints per IP
}

// LoadRateLimitConfig reads rate limits from the environment with defaults
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		GlobalAPIMax:  getIntEnv("RATE_LIMIT_GLOBAL_MAX", 300),
		PublicReadMax: getIntEnv("RATE_LIMIT_PUBLIC_MAX", 120),
	}
}

// GlobalAPIRateLimiter is the first line of defense for all API routes
func GlobalAPIRateLimiter(cfg RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.GlobalAPIMax,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		},
	})
}

// PublicReadRateLimiter caps the public read endpoints
func PublicReadRateLimiter(cfg RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.PublicReadMax,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		},
	})
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
