package cache

import "sync/atomic"

// Metrics holds monotonically increasing operation counters. Counters
// are mutated only by the owning cache instance and are never reset
// except through the explicit Reset test hook.
type Metrics struct {
	hits        atomic.Int64
	misses      atomic.Int64
	sets        atomic.Int64
	deletes     atomic.Int64
	errors      atomic.Int64
	fallbackOps atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Deletes     int64 `json:"deletes"`
	Errors      int64 `json:"errors"`
	FallbackOps int64 `json:"fallbackOperations"`

	// HitRate is hits / (hits + misses) as a fraction in [0, 1],
	// zero when no reads have occurred.
	HitRate float64 `json:"hitRate"`
}

// Snapshot returns a consistent-enough copy of the counters. Counters
// are read individually; a snapshot taken under concurrent traffic may
// be off by in-flight operations, which is acceptable for reporting.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Hits:        m.hits.Load(),
		Misses:      m.misses.Load(),
		Sets:        m.sets.Load(),
		Deletes:     m.deletes.Load(),
		Errors:      m.errors.Load(),
		FallbackOps: m.fallbackOps.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Reset zeroes all counters. Test hook only.
func (m *Metrics) Reset() {
	m.hits.Store(0)
	m.misses.Store(0)
	m.sets.Store(0)
	m.deletes.Store(0)
	m.errors.Store(0)
	m.fallbackOps.Store(0)
}
