package config

import "fmt"

// Default rate limiter configuration constants.
const (
	// DefaultRequestsPerMinute is the default per-minute quota.
	DefaultRequestsPerMinute = 100

	// DefaultRequestsPerHour is the default per-hour quota.
	DefaultRequestsPerHour = 1000

	// DefaultBurstSize is the default burst capacity for the
	// token-bucket burst guard in front of the sliding window.
	DefaultBurstSize = 10
)

// RateLimitConfig contains configuration for the sliding window rate limiter.
type RateLimitConfig struct {
	// Enabled turns rate limiting on or off globally. When disabled,
	// every request is allowed and no headers are produced.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// RequestsPerMinute is the default per-minute quota per
	// (client, endpoint) pair.
	RequestsPerMinute int `yaml:"requestsPerMinute,omitempty" json:"requestsPerMinute,omitempty"`

	// RequestsPerHour is the default per-hour quota per
	// (client, endpoint) pair.
	RequestsPerHour int `yaml:"requestsPerHour,omitempty" json:"requestsPerHour,omitempty"`

	// BurstSize is the token-bucket burst capacity for the burst guard.
	BurstSize int `yaml:"burstSize,omitempty" json:"burstSize,omitempty"`
}

// DefaultRateLimitConfig returns the default rate limiter configuration.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: DefaultRequestsPerMinute,
		RequestsPerHour:   DefaultRequestsPerHour,
		BurstSize:         DefaultBurstSize,
	}
}

func (c *RateLimitConfig) applyDefaults() {
	def := DefaultRateLimitConfig()

	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = def.RequestsPerMinute
	}
	if c.RequestsPerHour == 0 {
		c.RequestsPerHour = def.RequestsPerHour
	}
	if c.BurstSize == 0 {
		c.BurstSize = def.BurstSize
	}
}

// Validate checks the rate limiter configuration for errors.
func (c *RateLimitConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.RequestsPerMinute < 1 {
		return fmt.Errorf("%w: requestsPerMinute must be at least 1", ErrInvalidConfig)
	}
	if c.RequestsPerHour < 1 {
		return fmt.Errorf("%w: requestsPerHour must be at least 1", ErrInvalidConfig)
	}
	if c.RequestsPerHour < c.RequestsPerMinute {
		return fmt.Errorf("%w: requestsPerHour must not be below requestsPerMinute", ErrInvalidConfig)
	}
	if c.BurstSize < 1 {
		return fmt.Errorf("%w: burstSize must be at least 1", ErrInvalidConfig)
	}
	return nil
}
