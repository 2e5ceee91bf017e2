package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct {
	Books   int64 `json:"books"`
	Authors int64 `json:"authors"`
}

func TestNewStatsCache_EmptyURLDisablesCache(t *testing.T) {
	c, err := NewStatsCache("", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNewStatsCache_InvalidURL(t *testing.T) {
	_, err := NewStatsCache("not a url", time.Minute)
	assert.Error(t, err)
}

func TestNilCache_IsNoop(t *testing.T) {
	var c *StatsCache
	ctx := context.Background()

	var dst counts
	hit, err := c.Get(ctx, "index", &dst)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.NoError(t, c.Set(ctx, "index", counts{Books: 1}))
	assert.NoError(t, c.Invalidate(ctx))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestRemember_NilCacheAlwaysLoads(t *testing.T) {
	var c *StatsCache
	calls := 0
	load := func() (counts, error) {
		calls++
		return counts{Books: 3, Authors: 2}, nil
	}

	for i := 0; i < 2; i++ {
		got, err := Remember(context.Background(), c, "index", load)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Books)
	}
	assert.Equal(t, 2, calls)
}

func TestRemember_LoadError(t *testing.T) {
	_, err := Remember(context.Background(), nil, "index", func() (counts, error) {
		return counts{}, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

// TestStatsCache_Redis runs against a live server when REDIS_TEST_URL is set.
func TestStatsCache_Redis(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	c, err := NewStatsCache(url, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Invalidate(ctx))

	calls := 0
	load := func() (counts, error) {
		calls++
		return counts{Books: 9}, nil
	}

	_, err = Remember(ctx, c, "index", load)
	require.NoError(t, err)
	got, err := Remember(ctx, c, "index", load)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Books)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(ctx))
	_, err = Remember(ctx, c, "index", load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
