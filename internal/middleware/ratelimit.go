// Package middleware provides gin middleware for the service: rate
// limiting, burst smoothing, request IDs, and request logging.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/moodapi/internal/observability"
	"github.com/vyrodovalexey/moodapi/internal/ratelimit"
)

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// Limiter is the sliding-window limiter to consult.
	Limiter *ratelimit.Limiter

	// Logger for rate limit events.
	Logger observability.Logger

	// SkipPaths is a list of paths to skip rate limiting, typically
	// health and metrics endpoints.
	SkipPaths []string
}

// RateLimit returns a middleware that checks quotas before any handler
// work happens. Informational headers are propagated on both the
// allowed and denied path; denial short-circuits with 429.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	skipPaths := make(map[string]bool)
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if cfg.Limiter == nil || skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		decision := cfg.Limiter.AllowRequest(c.Request)

		for name, value := range decision.Headers {
			c.Header(name, value)
		}

		if !decision.Allowed {
			retryAfter, _ := strconv.Atoi(decision.Headers[ratelimit.HeaderRetryAfter])
			logger.Debug("rate limit exceeded",
				observability.String("path", c.Request.URL.Path),
				observability.String("window", decision.Reason))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too Many Requests",
				"message":     "Rate limit exceeded for the " + decision.Reason + " window",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
