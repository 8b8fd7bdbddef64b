package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_PutGet(t *testing.T) {
	c := openTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "flights", "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "flights", "k1", []byte(`{"a":1}`)))

	payload, ok, err := c.Get(ctx, "flights", "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(payload))
}

func TestCache_KindsAreIsolated(t *testing.T) {
	c := openTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "flights", "k1", []byte("f")))

	_, ok, err := c.Get(ctx, "hotels", "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_ReplaceUpdatesPayload(t *testing.T) {
	c := openTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "flights", "k1", []byte("old")))
	require.NoError(t, c.Put(ctx, "flights", "k1", []byte("new")))

	payload, ok, err := c.Get(ctx, "flights", "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", string(payload))
}

func TestCache_Expiry(t *testing.T) {
	c := openTestCache(t, time.Minute)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	require.NoError(t, c.Put(ctx, "flights", "k1", []byte("v")))

	c.now = func() time.Time { return base.Add(30 * time.Second) }
	_, ok, err := c.Get(ctx, "flights", "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok, err = c.Get(ctx, "flights", "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Prune(t *testing.T) {
	c := openTestCache(t, time.Minute)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	require.NoError(t, c.Put(ctx, "flights", "old", []byte("v")))

	c.now = func() time.Time { return base.Add(5 * time.Minute) }
	require.NoError(t, c.Put(ctx, "flights", "fresh", []byte("v")))

	n, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err := c.Get(ctx, "flights", "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCache_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	c, err := Open(path, time.Hour, logger)
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, "flights", "k1", []byte("v")))
	require.NoError(t, c.Close())

	// Re-running migrations against an existing database is a no-op.
	c2, err := Open(path, time.Hour, logger)
	require.NoError(t, err)
	defer c2.Close()

	payload, ok, err := c2.Get(ctx, "flights", "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(payload))
}

func TestCache_AccessCountBumps(t *testing.T) {
	c := openTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "flights", "k1", []byte("v")))
	for i := 0; i < 3; i++ {
		_, ok, err := c.Get(ctx, "flights", "k1")
		require.NoError(t, err)
		require.True(t, ok)
	}

	var count int
	err := c.db.QueryRow(
		`SELECT access_count FROM search_cache WHERE kind = ? AND key = ?`,
		"flights", "k1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
