package storage

import (
	"context"

	"github.com/c360/cleansweep/pkg/cache"
)

// CachedStore wraps a Store with a read-through cache over Get.
// Put and Delete write through to the backend and keep the cache
// coherent for this process; other writers are only seen once the
// cached entry expires.
type CachedStore struct {
	backend Store
	cache   *cache.Cache[[]byte]
}

// WithCache wraps backend with an in-memory cache configured by cfg.
func WithCache(backend Store, cfg cache.Config) (*CachedStore, error) {
	c, err := cache.New[[]byte](cfg)
	if err != nil {
		return nil, err
	}
	return &CachedStore{backend: backend, cache: c}, nil
}

// Put writes through to the backend and updates the cached value.
func (s *CachedStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.backend.Put(ctx, key, data); err != nil {
		return err
	}
	s.cache.Set(key, data)
	return nil
}

// Get returns the cached value when present, reading from the backend
// on a miss.
func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := s.cache.Get(key); ok {
		return data, nil
	}

	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, data)
	return data, nil
}

// List delegates to the backend. Listings are not cached.
func (s *CachedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.backend.List(ctx, prefix)
}

// Delete removes the key from the backend and the cache.
func (s *CachedStore) Delete(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil {
		return err
	}
	s.cache.Delete(key)
	return nil
}

// Stats exposes cache counters for logging.
func (s *CachedStore) Stats() cache.Stats {
	return s.cache.Stats()
}
