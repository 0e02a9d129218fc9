package k8s

import (
	"sync"
	"time"
)

// Workload is a resolved Kubernetes identity for a client IP.
type Workload struct {
	Service   string
	Namespace string
	Pod       string
}

type cacheEntry struct {
	workload  *Workload
	expiresAt time.Time
}

// Cache provides thread-safe caching of IP to workload mappings.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	maxSize int
}

// NewCache creates a new cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		maxSize: 10000,
	}
}

// Get retrieves a cached workload, or nil on miss or expiry.
func (c *Cache) Get(ip string) *Workload {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[ip]
	if !exists {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.workload
}

// Set stores a workload for an IP.
func (c *Cache) Set(ip string, workload *Workload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evict()
	}

	c.entries[ip] = &cacheEntry{
		workload:  workload,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// evict drops expired entries, then trims 10% if still at capacity.
// Caller holds the write lock.
func (c *Cache) evict() {
	now := time.Now()
	for ip, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, ip)
		}
	}

	if len(c.entries) >= c.maxSize {
		target := c.maxSize / 10
		count := 0
		for ip := range c.entries {
			delete(c.entries, ip)
			count++
			if count >= target {
				break
			}
		}
	}
}

// Size returns the current number of entries in the cache.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
