package cache

import (
	"context"
	"time"
)

// HealthState describes the outcome of the composite cache health probe.
type HealthState string

// Health states.
const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// healthSentinelKey is the caller key used for the round-trip probe.
const healthSentinelKey = "health:check:sentinel"

// CheckHealth performs a full round-trip (set, get, delete of a
// sentinel key) in addition to Ping, validating the data path and not
// just connectivity. Healthy requires remote connectivity; a working
// fallback-only cache is degraded; a failed round-trip is unhealthy.
func CheckHealth(ctx context.Context, svc Service) HealthState {
	probe := map[string]any{"probedAt": time.Now().UTC().Format(time.RFC3339Nano)}

	if err := svc.Set(ctx, healthSentinelKey, probe, time.Minute); err != nil {
		return HealthUnhealthy
	}
	if _, err := svc.Get(ctx, healthSentinelKey); err != nil {
		return HealthUnhealthy
	}
	svc.Delete(ctx, healthSentinelKey)

	if svc.Ping(ctx) && !svc.FallbackMode() {
		return HealthHealthy
	}
	return HealthDegraded
}
