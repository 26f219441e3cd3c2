package app

import (
	"testing"
	"time"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
	"github.com/stretchr/testify/assert"
)

func TestDirectoryCache_GetPutExpire(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewDirectoryCache(time.Minute)
	cache.now = func() time.Time { return now }

	_, ok := cache.Get("node-1", testCreds)
	assert.False(t, ok)

	cache.Put("node-1", testCreds, salesDirectory())
	dir, ok := cache.Get("node-1", testCreds)
	assert.True(t, ok)
	assert.Equal(t, salesDirectory(), dir)

	_, ok = cache.Get("node-2", testCreds)
	assert.False(t, ok, "entries are scoped to their node")

	_, ok = cache.Get("node-1", domain.Credentials{APIKey: "other"})
	assert.False(t, ok, "entries are scoped to their credentials")

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("node-1", testCreds)
	assert.False(t, ok, "expired entries are not served")
}

func TestDirectoryCache_Invalidate(t *testing.T) {
	cache := NewDirectoryCache(0)
	cache.Put("node-1", testCreds, salesDirectory())

	cache.Invalidate("node-1")
	_, ok := cache.Get("node-1", testCreds)
	assert.False(t, ok)
}

func TestDirectoryCache_ZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	cache := NewDirectoryCache(0)
	cache.now = func() time.Time { return now }
	cache.Put("node-1", testCreds, salesDirectory())

	now = now.Add(24 * time.Hour)
	_, ok := cache.Get("node-1", testCreds)
	assert.True(t, ok)
}

func TestDirectoryCache_PutSweepsExpiredEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewDirectoryCache(time.Minute)
	cache.now = func() time.Time { return now }

	cache.Put("node-1", testCreds, salesDirectory())
	cache.Put("node-2", testCreds, salesDirectory())
	assert.Equal(t, 2, cache.Len())

	now = now.Add(2 * time.Minute)
	cache.Put("node-3", testCreds, salesDirectory())
	assert.Equal(t, 1, cache.Len(), "expired nodes are dropped when a new node writes")

	_, ok := cache.Get("node-3", testCreds)
	assert.True(t, ok)
}

func TestDirectoryCache_EvictsOldestAtCapacity(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewDirectoryCache(0)
	cache.maxEntries = 2
	cache.now = func() time.Time { return now }

	cache.Put("node-1", testCreds, salesDirectory())
	now = now.Add(time.Second)
	cache.Put("node-2", testCreds, salesDirectory())
	now = now.Add(time.Second)
	cache.Put("node-2", testCreds, salesDirectory())
	assert.Equal(t, 2, cache.Len(), "rewriting a cached node does not evict")

	now = now.Add(time.Second)
	cache.Put("node-3", testCreds, salesDirectory())
	assert.Equal(t, 2, cache.Len())

	_, ok := cache.Get("node-1", testCreds)
	assert.False(t, ok, "the oldest node makes room")
	_, ok = cache.Get("node-3", testCreds)
	assert.True(t, ok)
}
