package cache

import (
	"sync"

	"github.com/vyrodovalexey/moodapi/internal/config"
	"github.com/vyrodovalexey/moodapi/internal/observability"
)

var (
	providerMu       sync.RWMutex
	providerInstance Service
)

// GetService returns the process-wide cache instance, constructing it
// on first use with double-checked locking. Construction never
// hard-fails: when the remote store is unreachable the instance is
// fallback-only.
func GetService(cfg *config.CacheConfig, logger observability.Logger) Service {
	providerMu.RLock()
	svc := providerInstance
	providerMu.RUnlock()
	if svc != nil {
		return svc
	}

	providerMu.Lock()
	defer providerMu.Unlock()

	// Another goroutine may have constructed the instance while we
	// were waiting for the write lock.
	if providerInstance != nil {
		return providerInstance
	}

	svc, err := New(cfg, logger)
	if err != nil {
		// New only errors when even a fallback-only cache cannot be
		// built, which indicates a logic bug.
		panic(err)
	}
	providerInstance = svc
	return providerInstance
}

// ResetService tears down and clears the singleton. Test hook only.
func ResetService() {
	providerMu.Lock()
	defer providerMu.Unlock()

	if providerInstance != nil {
		_ = providerInstance.Close()
		providerInstance = nil
	}
}
