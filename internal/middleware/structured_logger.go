package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sensitiveQueryParams are query parameters that should be redacted from logs
var sensitiveQueryParams = []string{"token", "access_token", "api_key", "apikey", "key", "secret", "password"}

// StructuredLoggerConfig holds configuration for structured logging
type StructuredLoggerConfig struct {
	// SkipPaths are paths that should not be logged (e.g., health checks)
	SkipPaths []string
	// SkipSuccessfulRequests skips logging successful requests (2xx status codes)
	SkipSuccessfulRequests bool
	// Logger is the zerolog logger to use (defaults to global log)
	Logger *zerolog.Logger
	// SlowRequestThreshold logs slow requests with WARN level (0 = disabled)
	SlowRequestThreshold time.Duration
}

// DefaultStructuredLoggerConfig returns default configuration
func DefaultStructuredLoggerConfig() StructuredLoggerConfig {
	return StructuredLoggerConfig{
		SkipPaths: []string{
			"/health",
			"/ready",
			"/metrics",
		},
		SkipSuccessfulRequests: false,
		Logger:                 nil, // Use global log
		SlowRequestThreshold:   5 * time.Second,
	}
}

// redactQueryString redacts sensitive query parameters from a query string
func redactQueryString(queryString string) string {
	if queryString == "" {
		return ""
	}

	values, err := url.ParseQuery(queryString)
	if err != nil {
		// If we can't parse it, redact the whole thing to be safe
		return "[redacted]"
	}

	for _, param := range sensitiveQueryParams {
		if values.Has(param) {
			values.Set(param, "[redacted]")
		}
		// Also check case-insensitive
		for key := range values {
			if strings.EqualFold(key, param) && key != param {
				values.Set(key, "[redacted]")
			}
		}
	}

	return values.Encode()
}

// StructuredLogger returns a middleware that logs requests with structured logging
func StructuredLogger(config ...StructuredLoggerConfig) fiber.Handler {
	// Use default config if none provided
	cfg := DefaultStructuredLoggerConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	// Use provided logger or default to global
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return func(c *fiber.Ctx) error {
		// Check if path should be skipped
		path := c.Path()
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				return c.Next()
			}
		}

		// Start timer
		start := time.Now()

		// Get request ID (should be set by requestid middleware)
		requestID := c.Locals("requestid")
		if requestID == nil {
			requestID = c.Get("X-Request-ID", "")
		}

		// Process request
		err := c.Next()

		// Calculate duration
		duration := time.Since(start)
		durationMs := duration.Milliseconds()

		// Get response status
		status := c.Response().StatusCode()

		// Skip successful requests if configured
		if cfg.SkipSuccessfulRequests && status >= 200 && status < 300 {
			return err
		}

		// Determine log level based on status code and duration
		var logEvent *zerolog.Event
		if err != nil {
			logEvent = logger.Error().Err(err)
		} else if status >= 500 {
			logEvent = logger.Error()
		} else if status >= 400 {
			logEvent = logger.Warn()
		} else if cfg.SlowRequestThreshold > 0 && duration > cfg.SlowRequestThreshold {
			logEvent = logger.Warn().Bool("slow_request", true)
		} else {
			logEvent = logger.Info()
		}

		// Build structured log entry
		logEvent = logEvent.
			Str("request_id", toString(requestID)).
			Str("method", c.Method()).
			Str("path", path).
			Str("ip", c.IP()).
			Int("status", status).
			Int64("duration_ms", durationMs).
			Str("user_agent", c.Get("User-Agent")).
			Str("protocol", c.Protocol())

		// Add query string if present (with sensitive params redacted)
		if queryString := string(c.Request().URI().QueryString()); queryString != "" {
			logEvent = logEvent.Str("query", redactQueryString(queryString))
		}

		// Add response size
		logEvent = logEvent.Int("response_bytes", len(c.Response().Body()))

		// Add referer if present
		if referer := c.Get("Referer"); referer != "" {
			logEvent = logEvent.Str("referer", referer)
		}

		// Add error details if present
		if err != nil {
			logEvent = logEvent.Str("error", err.Error())
		}

		// Send log
		logEvent.Msg("HTTP request")

		return err
	}
}

// toString safely converts interface{} to string
func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
