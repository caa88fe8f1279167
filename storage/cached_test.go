package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/pkg/cache"
	"github.com/c360/cleansweep/storage"
	"github.com/c360/cleansweep/storage/fsstore"
)

func newCached(t *testing.T) (*storage.CachedStore, storage.Store) {
	t.Helper()
	backend, err := fsstore.New(t.TempDir())
	require.NoError(t, err)
	cached, err := storage.WithCache(backend, cache.Config{MaxSize: 8})
	require.NoError(t, err)
	return cached, backend
}

func TestCachedGetReadsThrough(t *testing.T) {
	ctx := context.Background()
	cached, backend := newCached(t)

	require.NoError(t, backend.Put(ctx, "docs/a.json", []byte(`{"id":1}`)))

	data, err := cached.Get(ctx, "docs/a.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), data)

	// Second read is served from the cache even after the backend
	// copy disappears.
	require.NoError(t, backend.Delete(ctx, "docs/a.json"))
	data, err = cached.Get(ctx, "docs/a.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), data)

	stats := cached.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestCachedPutWritesThrough(t *testing.T) {
	ctx := context.Background()
	cached, backend := newCached(t)

	require.NoError(t, cached.Put(ctx, "docs/a.json", []byte("v1")))

	data, err := backend.Get(ctx, "docs/a.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	// The write primed the cache, so Get records a hit.
	_, err = cached.Get(ctx, "docs/a.json")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cached.Stats().Hits)
}

func TestCachedDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	cached, _ := newCached(t)

	require.NoError(t, cached.Put(ctx, "docs/a.json", []byte("v1")))
	require.NoError(t, cached.Delete(ctx, "docs/a.json"))

	_, err := cached.Get(ctx, "docs/a.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)
}

func TestCachedMissingKey(t *testing.T) {
	ctx := context.Background()
	cached, _ := newCached(t)

	_, err := cached.Get(ctx, "absent")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)
}

func TestWithCacheInvalidConfig(t *testing.T) {
	backend, err := fsstore.New(t.TempDir())
	require.NoError(t, err)

	_, err = storage.WithCache(backend, cache.Config{MaxSize: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}
