package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	value, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(value))
}

func TestMemoryCacheMiss(t *testing.T) {
	c := newTestCache(t)

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheGetOrSetComputesOnce(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}

	value, err := c.GetOrSet(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "computed", string(value))

	value, err = c.GetOrSet(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "computed", string(value))
	assert.Equal(t, 1, calls)
}

func TestMemoryCacheGetOrSetPropagatesError(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	boom := errors.New("boom")
	_, err := c.GetOrSet(ctx, "k", time.Minute, func() ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	// Nothing is cached after a failed fetch.
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
