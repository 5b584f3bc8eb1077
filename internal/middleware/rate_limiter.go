package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mubashirhassanpk/react-static-magic/internal/ratelimit"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	Max        int                     // Maximum number of requests
	Expiration time.Duration           // Time window for the rate limit
	KeyFunc    func(*fiber.Ctx) string // Function to generate the key for rate limiting
	Message    string                  // Custom error message
	Store      ratelimit.Store         // Counter backend shared across endpoints
}

// NewRateLimiter creates a new rate limiter middleware with custom configuration.
// The store backend determines the scope of the limit: a memory store limits per
// instance, a postgres store limits across all instances sharing the database.
func NewRateLimiter(config RateLimiterConfig) fiber.Handler {
	// Default key function uses IP address
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *fiber.Ctx) string {
			return c.IP()
		}
	}

	// Default error message
	if config.Message == "" {
		config.Message = fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %s allowed.",
			config.Max, config.Expiration.String())
	}

	return func(c *fiber.Ctx) error {
		result, err := ratelimit.Check(c.Context(), config.Store, config.KeyFunc(c), int64(config.Max), config.Expiration)
		if err != nil {
			// Fail open: a broken counter backend should not take uploads down with it
			log.Error().Err(err).Str("path", c.Path()).Msg("Rate limit check failed")
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(config.Expiration.Seconds())
			c.Set("Retry-After", strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"message":     config.Message,
				"retry_after": retryAfter,
			})
		}

		return c.Next()
	}
}

// UploadLimiter limits project archive uploads per IP
func UploadLimiter(store ratelimit.Store, perMinute int) fiber.Handler {
	return NewRateLimiter(RateLimiterConfig{
		Max:        perMinute,
		Expiration: 1 * time.Minute,
		Store:      store,
		KeyFunc: func(c *fiber.Ctx) string {
			return "upload:" + c.IP()
		},
		Message: fmt.Sprintf("Too many uploads. Maximum %d per minute allowed.", perMinute),
	})
}

// ProcessLimiter limits build processing requests per IP
func ProcessLimiter(store ratelimit.Store, perMinute int) fiber.Handler {
	return NewRateLimiter(RateLimiterConfig{
		Max:        perMinute,
		Expiration: 1 * time.Minute,
		Store:      store,
		KeyFunc: func(c *fiber.Ctx) string {
			return "process:" + c.IP()
		},
		Message: fmt.Sprintf("Too many build requests. Maximum %d per minute allowed.", perMinute),
	})
}

// GlobalAPILimiter is a general rate limiter for all API endpoints
func GlobalAPILimiter(store ratelimit.Store) fiber.Handler {
	return NewRateLimiter(RateLimiterConfig{
		Max:        100,
		Expiration: 1 * time.Minute,
		Store:      store,
		KeyFunc: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		Message: "API rate limit exceeded. Maximum 100 requests per minute allowed.",
	})
}
