// Package cache is a small in-process TTL cache for read responses.
//
// A Cache is owned by whoever creates it. Writers invalidate it explicitly;
// entries also expire after the TTL.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is used when New is given a non-positive TTL.
const DefaultTTL = 30 * time.Minute

type entry[V any] struct {
	value   V
	expires time.Time
}

// Cache maps string keys to values that expire after a fixed TTL. It is safe
// for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	gen     uint64
	entries map[string]entry[V]
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New returns an empty cache whose entries live for ttl.
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{ttl: ttl, now: o.now, entries: make(map[string]entry[V])}
}

// TTL returns the entry lifetime.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the live value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for one TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expires: c.now().Add(c.ttl)}
}

// Generation returns a counter that Invalidate advances. Readers capture it
// before computing a value and pass it to SetIfGeneration.
func (c *Cache[V]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gen
}

// SetIfGeneration stores value only if no Invalidate happened since gen was
// read. It reports whether the value was stored.
func (c *Cache[V]) SetIfGeneration(key string, value V, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	c.entries[key] = entry[V]{value: value, expires: c.now().Add(c.ttl)}
	return true
}

// Invalidate drops every entry and advances the generation. Its signature
// matches task.Options.OnMutate.
func (c *Cache[V]) Invalidate(...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	clear(c.entries)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
