package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKey(t *testing.T) {
	key := storageKey("app:", "user:42")

	assert.True(t, strings.HasPrefix(key, "app:hash:"))
	// sha256 hex digest after the namespace and hash segment
	assert.Len(t, key, len("app:hash:")+64)

	// Deterministic and collision-resistant across caller keys.
	assert.Equal(t, key, storageKey("app:", "user:42"))
	assert.NotEqual(t, key, storageKey("app:", "user:43"))
}

func TestStorageKey_BoundedLength(t *testing.T) {
	long := storageKey("app:", strings.Repeat("x", 100_000))
	assert.Len(t, long, len("app:hash:")+64)
}

func TestSerializeRoundTrip(t *testing.T) {
	data, err := serialize(map[string]any{"n": 1})
	require.NoError(t, err)

	value, err := deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": float64(1)}, value)
}

func TestSerialize_Unencodable(t *testing.T) {
	_, err := serialize(make(chan int))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestDeserialize_CorruptBytes(t *testing.T) {
	_, err := deserialize([]byte("{not json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeserialization)
}
