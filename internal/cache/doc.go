// Package cache provides a resilient key/value cache backed by Redis
// with a bounded in-memory fallback store.
//
// Two implementations sit behind the Service interface. RemoteBackedCache
// talks to Redis and mirrors writes into a local fallback store so that a
// remote outage degrades reads to last-known values instead of failing
// callers. FallbackOnlyCache serves exclusively from local memory and is
// used when the remote store is unreachable at construction time or when
// fallback mode is forced.
//
// Transient remote failures are never surfaced to callers of Get, Set, or
// Delete. Serialization failures on Set and deserialization failures on
// Get are hard errors.
package cache
