package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackStore_SetGet(t *testing.T) {
	s := newFallbackStore()

	s.set("a", []byte("1"))
	data, ok := s.get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), data)

	_, ok = s.get("missing")
	assert.False(t, ok)
}

func TestFallbackStore_OverwriteKeepsPosition(t *testing.T) {
	s := newFallbackStore()

	s.set("a", []byte("1"))
	s.set("b", []byte("2"))
	s.set("a", []byte("3"))

	assert.Equal(t, 2, s.size())
	assert.Equal(t, []string{"a", "b"}, s.order)

	data, _ := s.get("a")
	assert.Equal(t, []byte("3"), data)
}

func TestFallbackStore_EvictionBound(t *testing.T) {
	s := newFallbackStore()

	for i := 0; i <= fallbackMaxEntries; i++ {
		s.set(fmt.Sprintf("key-%04d", i), []byte("v"))
	}

	// One insert past the cap drops the oldest batch at once, not
	// one entry at a time.
	assert.Equal(t, fallbackMaxEntries+1-fallbackEvictBatch, s.size())

	_, ok := s.get("key-0000")
	assert.False(t, ok)
	_, ok = s.get(fmt.Sprintf("key-%04d", fallbackEvictBatch-1))
	assert.False(t, ok)
	_, ok = s.get(fmt.Sprintf("key-%04d", fallbackEvictBatch))
	assert.True(t, ok)
	_, ok = s.get(fmt.Sprintf("key-%04d", fallbackMaxEntries))
	assert.True(t, ok)
}

func TestFallbackStore_NeverExceedsCap(t *testing.T) {
	s := newFallbackStore()

	for i := 0; i < 3*fallbackMaxEntries; i++ {
		s.set(fmt.Sprintf("key-%05d", i), []byte("v"))
		assert.LessOrEqual(t, s.size(), fallbackMaxEntries)
	}
}

func TestFallbackStore_Delete(t *testing.T) {
	s := newFallbackStore()

	s.set("a", []byte("1"))
	assert.True(t, s.delete("a"))
	assert.False(t, s.delete("a"))
	assert.Equal(t, 0, s.size())
	assert.Empty(t, s.order)
}

func TestFallbackStore_Clear(t *testing.T) {
	s := newFallbackStore()

	s.set("a", []byte("1"))
	s.set("b", []byte("2"))
	assert.Equal(t, 2, s.clear())
	assert.Equal(t, 0, s.size())
}
