package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/vyrodovalexey/moodapi/internal/config"
	"github.com/vyrodovalexey/moodapi/internal/observability"
)

// Window durations and compaction cadence.
const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour

	defaultCleanupInterval = 5 * time.Minute
)

// Informational rate-limit headers.
const (
	HeaderLimitMinute     = "X-RateLimit-Limit-Minute"
	HeaderLimitHour       = "X-RateLimit-Limit-Hour"
	HeaderRemainingMinute = "X-RateLimit-Remaining-Minute"
	HeaderRemainingHour   = "X-RateLimit-Remaining-Hour"
	HeaderResetMinute     = "X-RateLimit-Reset-Minute"
	HeaderResetHour       = "X-RateLimit-Reset-Hour"
	HeaderExceeded        = "X-RateLimit-Exceeded"
	HeaderRetryAfter      = "Retry-After"
)

// Denial reasons.
const (
	ReasonMinute = "minute"
	ReasonHour   = "hour"
)

// event is one admitted request batch inside the hourly window.
type event struct {
	ts    time.Time
	count int
}

// Decision is the outcome of a quota check. Headers are intended to be
// copied verbatim onto the outgoing response on both the allowed and
// denied path so clients can self-throttle.
type Decision struct {
	Allowed bool

	// Reason is ReasonMinute or ReasonHour when denied, empty otherwise.
	Reason string

	Headers map[string]string
}

// Stats is a point-in-time observation of limiter state.
type Stats struct {
	TotalClients         int `json:"totalClients"`
	TotalEndpoints       int `json:"totalEndpoints"`
	TotalRequestsTracked int `json:"totalRequestsTracked"`
	MemoryEntries        int `json:"memoryEntries"`
}

// Limiter admits or rejects requests based on two sliding-window
// quotas. The zero value is not usable; use New.
type Limiter struct {
	logger          observability.Logger
	nowFn           func() time.Time
	cleanupInterval time.Duration

	mu        sync.Mutex
	enabled   bool
	perMinute int
	perHour   int
	clients   map[string]map[string][]event

	startOnce sync.Once
	closeOnce sync.Once
	stopCh    chan struct{}
}

// Option is a functional option for configuring the limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Used by tests to simulate
// window expiry without sleeping.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.nowFn = now
	}
}

// WithCleanupInterval overrides the compaction cadence.
func WithCleanupInterval(d time.Duration) Option {
	return func(l *Limiter) {
		l.cleanupInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// New creates a limiter from configuration.
func New(cfg *config.RateLimitConfig, opts ...Option) *Limiter {
	if cfg == nil {
		cfg = config.DefaultRateLimitConfig()
	}

	l := &Limiter{
		logger:          observability.NopLogger(),
		nowFn:           time.Now,
		cleanupInterval: defaultCleanupInterval,
		enabled:         cfg.Enabled,
		perMinute:       cfg.RequestsPerMinute,
		perHour:         cfg.RequestsPerHour,
		clients:         make(map[string]map[string][]event),
		stopCh:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Allow checks both quotas for the (clientID, endpoint) pair and
// records the request when admitted. The minute quota is checked
// strictly before the hour quota, so when both are exceeded the
// reported reason is "minute".
func (l *Limiter) Allow(clientID, endpoint string, perMinute, perHour int) Decision {
	if !l.Enabled() {
		return Decision{Allowed: true, Headers: map[string]string{}}
	}

	l.ensureCleanup()

	now := l.nowFn()

	l.mu.Lock()
	defer l.mu.Unlock()

	endpoints, ok := l.clients[clientID]
	if !ok {
		endpoints = make(map[string][]event)
		l.clients[clientID] = endpoints
	}

	// The hourly window slides on every check; the minute quota is
	// derived from the same list, no separate list is kept.
	hourCutoff := now.Add(-hourWindow)
	events := endpoints[endpoint][:0]
	for _, e := range endpoints[endpoint] {
		if e.ts.After(hourCutoff) {
			events = append(events, e)
		}
	}

	minuteCutoff := now.Add(-minuteWindow)
	var minuteCount, hourCount int
	for _, e := range events {
		hourCount += e.count
		if e.ts.After(minuteCutoff) {
			minuteCount += e.count
		}
	}

	d := Decision{
		Headers: buildHeaders(now, perMinute, perHour, minuteCount, hourCount),
	}

	switch {
	case minuteCount >= perMinute:
		d.Reason = ReasonMinute
		d.Headers[HeaderExceeded] = ReasonMinute
		d.Headers[HeaderRetryAfter] = "60"
		GetRateLimitMetrics().decisionsTotal.WithLabelValues("denied", ReasonMinute).Inc()
	case hourCount >= perHour:
		d.Reason = ReasonHour
		d.Headers[HeaderExceeded] = ReasonHour
		d.Headers[HeaderRetryAfter] = "3600"
		GetRateLimitMetrics().decisionsTotal.WithLabelValues("denied", ReasonHour).Inc()
	default:
		d.Allowed = true
		events = append(events, event{ts: now, count: 1})
		GetRateLimitMetrics().decisionsTotal.WithLabelValues("allowed", "").Inc()
	}

	endpoints[endpoint] = events
	return d
}

// AllowRequest derives client identity and endpoint key from the
// request and checks the configured default quotas.
func (l *Limiter) AllowRequest(r *http.Request) Decision {
	l.mu.Lock()
	perMinute, perHour := l.perMinute, l.perHour
	l.mu.Unlock()

	return l.Allow(ClientID(r), EndpointKey(r), perMinute, perHour)
}

// buildHeaders computes the informational headers. The "-1" in the
// remaining counts reserves room for the request being evaluated.
func buildHeaders(now time.Time, perMinute, perHour, minuteCount, hourCount int) map[string]string {
	return map[string]string{
		HeaderLimitMinute:     strconv.Itoa(perMinute),
		HeaderLimitHour:       strconv.Itoa(perHour),
		HeaderRemainingMinute: strconv.Itoa(remaining(perMinute, minuteCount)),
		HeaderRemainingHour:   strconv.Itoa(remaining(perHour, hourCount)),
		HeaderResetMinute:     strconv.FormatInt(now.Add(minuteWindow).Unix(), 10),
		HeaderResetHour:       strconv.FormatInt(now.Add(hourWindow).Unix(), 10),
	}
}

// remaining floors at zero.
func remaining(limit, count int) int {
	r := limit - count - 1
	if r < 0 {
		return 0
	}
	return r
}

// Enabled reports whether the limiter is active.
func (l *Limiter) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// SetEnabled toggles the limiter at runtime.
func (l *Limiter) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// UpdateLimits replaces the default quotas at runtime. Used by
// configuration hot reload. Non-positive values are ignored.
func (l *Limiter) UpdateLimits(perMinute, perHour int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if perMinute > 0 {
		l.perMinute = perMinute
	}
	if perHour > 0 {
		l.perHour = perHour
	}
}

// Stats returns a point-in-time observation without side effects.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Stats{TotalClients: len(l.clients)}
	for _, endpoints := range l.clients {
		s.TotalEndpoints += len(endpoints)
		for _, events := range endpoints {
			s.MemoryEntries += len(events)
			for _, e := range events {
				s.TotalRequestsTracked += e.count
			}
		}
	}

	GetRateLimitMetrics().trackedClients.Set(float64(s.TotalClients))
	GetRateLimitMetrics().trackedEntries.Set(float64(s.MemoryEntries))
	return s
}

// ClearAll wipes all limiter state. Used for test isolation and
// administrative reset.
func (l *Limiter) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clients = make(map[string]map[string][]event)
}

// ensureCleanup lazily starts the background compaction loop on first
// use rather than at construction time.
func (l *Limiter) ensureCleanup() {
	l.startOnce.Do(func() {
		go l.cleanupLoop()
	})
}

// cleanupLoop periodically compacts the event maps until Close.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			removed := l.sweep()
			if removed > 0 {
				l.logger.Debug("rate limiter compaction",
					observability.Int("entriesRemoved", removed))
			}
		}
	}
}

// sweep drops events older than one hour, removing endpoint entries
// that become empty and client entries left without endpoints. Returns
// how many events were dropped. The critical section only iterates and
// mutates the map, no I/O.
func (l *Limiter) sweep() int {
	now := l.nowFn()
	cutoff := now.Add(-hourWindow)

	l.mu.Lock()
	defer l.mu.Unlock()

	var removed int
	for clientID, endpoints := range l.clients {
		for endpoint, events := range endpoints {
			kept := events[:0]
			for _, e := range events {
				if e.ts.After(cutoff) {
					kept = append(kept, e)
				}
			}
			removed += len(events) - len(kept)
			if len(kept) == 0 {
				delete(endpoints, endpoint)
			} else {
				endpoints[endpoint] = kept
			}
		}
		if len(endpoints) == 0 {
			delete(l.clients, clientID)
		}
	}
	return removed
}

// Close stops the background compaction loop. Safe to call more than
// once and before the loop ever started.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.stopCh)
	})
}
