package cache

import "sync"

const (
	// fallbackMaxEntries bounds the fallback store size.
	fallbackMaxEntries = 1000

	// fallbackEvictBatch is how many of the oldest entries are dropped
	// in one batch once the bound is exceeded.
	fallbackEvictBatch = 100
)

// fallbackStore is a bounded mapping from storage key to serialized
// value. Eviction is insertion-order batch eviction, not LRU: once the
// bound is exceeded the oldest batch of entries is dropped at once.
// All access happens under a single mutex scoped to the whole store.
type fallbackStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	order   []string
}

func newFallbackStore() *fallbackStore {
	return &fallbackStore{
		entries: make(map[string][]byte),
	}
}

// get returns the stored value for key, if present.
func (s *fallbackStore) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.entries[key]
	return data, ok
}

// set stores a value, evicting the oldest batch when the bound is
// exceeded. Overwriting an existing key keeps its original insertion
// position.
func (s *fallbackStore) set(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		s.order = append(s.order, key)
	}
	s.entries[key] = data

	if len(s.entries) > fallbackMaxEntries {
		s.evictOldest()
	}
}

// evictOldest drops the oldest fallbackEvictBatch entries. Caller must
// hold the lock.
func (s *fallbackStore) evictOldest() {
	n := fallbackEvictBatch
	if n > len(s.order) {
		n = len(s.order)
	}
	for _, key := range s.order[:n] {
		delete(s.entries, key)
	}
	s.order = append([]string(nil), s.order[n:]...)
}

// delete removes a key, reporting whether it was present.
func (s *fallbackStore) delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// clear removes all entries, returning how many were dropped.
func (s *fallbackStore) clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = make(map[string][]byte)
	s.order = nil
	return n
}

// size returns the current entry count.
func (s *fallbackStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
