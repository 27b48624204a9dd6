package health

import (
	"context"
	"fmt"
	"time"

	"github.com/vyrodovalexey/moodapi/internal/cache"
	"github.com/vyrodovalexey/moodapi/internal/ratelimit"
)

// checkTimeout bounds each individual readiness check.
const checkTimeout = 5 * time.Second

// CacheCheck builds a readiness check that runs the cache's composite
// round-trip probe. A fallback-only cache reports degraded, not
// unhealthy, since callers still get best-effort service.
func CacheCheck(svc cache.Service) CheckFunc {
	return func(ctx context.Context) Check {
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()

		switch cache.CheckHealth(ctx, svc) {
		case cache.HealthHealthy:
			return Check{Status: StatusHealthy}
		case cache.HealthDegraded:
			return Check{
				Status:  StatusDegraded,
				Message: "serving from fallback store",
			}
		default:
			return Check{
				Status:  StatusUnhealthy,
				Message: "cache round-trip failed",
			}
		}
	}
}

// RateLimiterCheck builds a readiness check reporting limiter state.
// The limiter is purely in-process and cannot fail; the check exposes
// its tracking footprint for operators.
func RateLimiterCheck(limiter *ratelimit.Limiter) CheckFunc {
	return func(_ context.Context) Check {
		if limiter == nil || !limiter.Enabled() {
			return Check{Status: StatusHealthy, Message: "disabled"}
		}
		s := limiter.Stats()
		return Check{
			Status:  StatusHealthy,
			Message: fmt.Sprintf("%d clients, %d entries", s.TotalClients, s.MemoryEntries),
		}
	}
}
