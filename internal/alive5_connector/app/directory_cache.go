package app

import (
	"sync"
	"time"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
)

type cacheEntry struct {
	creds     domain.Credentials
	directory domain.Directory
	storedAt  time.Time
}

// defaultMaxCacheEntries bounds the number of nodes cached at once.
const defaultMaxCacheEntries = 1024

// DirectoryCache keeps the last directory fetched for each workflow node.
// Entries are only served to callers presenting the same credentials and expire after ttl.
// A zero ttl disables expiry. Expired entries are swept on write, and once maxEntries nodes
// are cached the oldest entry makes room for a new node.
type DirectoryCache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[string]cacheEntry
}

func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		ttl:        ttl,
		maxEntries: defaultMaxCacheEntries,
		now:        time.Now,
		entries:    make(map[string]cacheEntry),
	}
}

func (c *DirectoryCache) Get(nodeID string, creds domain.Credentials) (domain.Directory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[nodeID]
	if !ok || e.creds != creds {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		return nil, false
	}
	return e.directory, true
}

func (c *DirectoryCache) Put(nodeID string, creds domain.Credentials, dir domain.Directory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)
	if _, exists := c.entries[nodeID]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[nodeID] = cacheEntry{creds: creds, directory: dir, storedAt: now}
}

func (c *DirectoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *DirectoryCache) sweepLocked(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for id, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, id)
		}
	}
}

func (c *DirectoryCache) evictOldestLocked() {
	var (
		oldestID string
		oldestAt time.Time
		found    bool
	)
	for id, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) {
			oldestID, oldestAt, found = id, e.storedAt, true
		}
	}
	if found {
		delete(c.entries, oldestID)
	}
}

func (c *DirectoryCache) Invalidate(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, nodeID)
}
