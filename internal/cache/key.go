package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashSegment separates the namespace prefix from the hashed caller key.
const hashSegment = "hash:"

// storageKey derives the storage key for an application-level key.
// Caller keys are hashed so heterogeneous callers cannot collide and
// storage keys have bounded length regardless of input size.
func storageKey(prefix, key string) string {
	return prefix + hashSegment + HashKey(key)
}

// HashKey hashes a key to a fixed-length hex digest.
func HashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// serialize encodes a value for storage.
func serialize(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return data, nil
}

// deserialize decodes stored bytes back into a value.
func deserialize(data []byte) (any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	return value, nil
}
