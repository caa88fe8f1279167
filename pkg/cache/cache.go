// Package cache provides a small thread-safe LRU cache with optional
// per-entry expiry. It is used by the storage layer to avoid re-reading
// documents that several pipeline stages touch.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/c360/cleansweep/errors"
)

// Config controls cache sizing and expiry.
type Config struct {
	// MaxSize is the maximum number of entries held before the least
	// recently used entry is evicted. Must be positive.
	MaxSize int `json:"max_size" yaml:"max_size"`

	// TTL is how long an entry stays valid. Zero disables expiry.
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.MaxSize <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate", "max_size must be positive")
	}
	if c.TTL < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate", "ttl must not be negative")
	}
	return nil
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// Cache is a thread-safe LRU cache keyed by string. Entries expire
// after the configured TTL and the least recently used entry is
// evicted once MaxSize is exceeded.
type Cache[V any] struct {
	mu    sync.Mutex
	cfg   Config
	items map[string]*list.Element
	order *list.List

	hits      uint64
	misses    uint64
	evictions uint64

	now func() time.Time // replaced in tests
}

// New creates a cache from the given configuration.
func New[V any](cfg Config) (*Cache[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Cache[V]{
		cfg:   cfg,
		items: make(map[string]*list.Element),
		order: list.New(),
		now:   time.Now,
	}, nil
}

// Get returns the value for key and marks it as recently used.
// Expired entries are removed and reported as misses.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	element, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}

	e := element.Value.(*entry[V])
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.removeLocked(element)
		c.misses++
		return zero, false
	}

	c.order.MoveToFront(element)
	c.hits++
	return e.value, true
}

// Set stores value under key, refreshing its expiry and recency.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if c.cfg.TTL > 0 {
		expires = c.now().Add(c.cfg.TTL)
	}

	if element, ok := c.items[key]; ok {
		e := element.Value.(*entry[V])
		e.value = value
		e.expires = expires
		c.order.MoveToFront(element)
		return
	}

	element := c.order.PushFront(&entry[V]{key: key, value: value, expires: expires})
	c.items[key] = element

	if c.order.Len() > c.cfg.MaxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.removeLocked(oldest)
			c.evictions++
		}
	}
}

// Delete removes key from the cache if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.items[key]; ok {
		c.removeLocked(element)
	}
}

// Len returns the number of entries currently held, including entries
// that have expired but not yet been touched.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of hit, miss and eviction counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.order.Len(),
	}
}

func (c *Cache[V]) removeLocked(element *list.Element) {
	e := element.Value.(*entry[V])
	delete(c.items, e.key)
	c.order.Remove(element)
}
