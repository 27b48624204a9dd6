// Package ratelimit implements a sliding-window rate limiter with
// independent per-minute and per-hour quotas scoped to a
// (client, endpoint) pair.
//
// State is a nested in-process map guarded by a single mutex;
// correctness over raw throughput is the design priority. A background
// compaction loop bounds memory by dropping events older than one hour
// and removing clients that stopped sending traffic. There is no
// cross-instance coordination: each process enforces its own quotas.
package ratelimit
