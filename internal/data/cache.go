package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"spot-analytics/internal/model"
)

// CacheEntry represents a cached API response
type CacheEntry struct {
	Response  *model.IndicatorResponse
	ExpiresAt time.Time
}

// ResponseCache provides in-memory caching of ESIOS chunk responses.
//
// Historical chunks do not change once published, so repeated local runs over the
// same range can skip the network. A nil *ResponseCache is valid and caches nothing.
type ResponseCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewResponseCache returns a cache whose entries live for ttl (1h when ttl <= 0).
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResponseCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves a cached response if available and not expired
func (c *ResponseCache) Get(key string) (*model.IndicatorResponse, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	entry, exists := c.store[key]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if c.now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.store, key)
		c.mu.Unlock()
		return nil, false
	}

	return entry.Response, true
}

// Set stores a response in the cache
func (c *ResponseCache) Set(key string, response *model.IndicatorResponse) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Response:  response,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Len returns the number of live and expired entries still held.
func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Purge removes expired entries.
func (c *ResponseCache) Purge() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

// GenerateCacheKey creates a cache key from query parameters
func GenerateCacheKey(params QueryIndicatorParams) string {
	keyStr := fmt.Sprintf("%d:%s:%s",
		params.IndicatorID,
		params.StartDate.Format(model.DateLayout),
		params.EndDate.Format(model.DateLayout),
	)

	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
