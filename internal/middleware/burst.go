package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// BurstGuard returns a middleware that smooths short request spikes
// with a token bucket sitting in front of the sliding-window limiter.
// The bucket refills at perSecond tokens per second and holds at most
// burst tokens. A pass-through handler is returned when burst is not
// positive.
func BurstGuard(perSecond float64, burst int) gin.HandlerFunc {
	if burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too Many Requests",
				"message": "Request burst limit exceeded",
			})
			return
		}
		c.Next()
	}
}
