// Package cache holds short-lived snapshots of store reads.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Flush removes every key and starts a new generation
	Flush()

	// Generation identifies the current flush epoch
	Generation() uint64

	// SetIfGeneration stores data only if no Flush happened since gen was read
	SetIfGeneration(key string, data T, gen uint64) bool

	// Size returns the current number of items in the cache
	Size() int
}

// TTLCache is a Cache whose entries expire after a fixed time to live.
// Expired entries are purged by go-cache's janitor every cleanup interval.
type TTLCache[T any] struct {
	store *gocache.Cache

	mu  sync.RWMutex
	gen uint64
}

var _ Cache[int] = (*TTLCache[int])(nil)

// NewTTLCache creates a cache with the given entry lifetime. A zero ttl
// keeps entries until they are deleted or flushed.
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	expiration := ttl
	cleanup := 2 * ttl
	if ttl <= 0 {
		expiration = gocache.NoExpiration
		cleanup = 0
	}
	return &TTLCache[T]{store: gocache.New(expiration, cleanup)}
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	data, ok := v.(T)
	if !ok {
		return zero, false
	}
	return data, true
}

func (c *TTLCache[T]) Set(key string, data T) {
	c.store.SetDefault(key, data)
}

func (c *TTLCache[T]) Delete(key string) {
	c.store.Delete(key)
}

func (c *TTLCache[T]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.store.Flush()
}

func (c *TTLCache[T]) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// SetIfGeneration drops data read before the latest Flush, so a slow reader
// cannot put back a snapshot a writer just invalidated.
func (c *TTLCache[T]) SetIfGeneration(key string, data T, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.store.SetDefault(key, data)
	return true
}

// Size counts stored entries, including expired ones the janitor has not
// purged yet.
func (c *TTLCache[T]) Size() int {
	return c.store.ItemCount()
}

// Nop is a Cache that never stores anything.
type Nop[T any] struct{}

func (Nop[T]) Get(string) (T, bool) {
	var zero T
	return zero, false
}

func (Nop[T]) Set(string, T) {}

func (Nop[T]) Delete(string) {}

func (Nop[T]) Flush() {}

func (Nop[T]) Generation() uint64 { return 0 }

func (Nop[T]) SetIfGeneration(string, T, uint64) bool { return false }

func (Nop[T]) Size() int { return 0 }
