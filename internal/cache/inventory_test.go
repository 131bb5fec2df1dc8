package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withTestRedis swaps the package client for a miniredis-backed one for
// the duration of the test.
func withTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	prev := client
	client = rdb
	t.Cleanup(func() {
		client = prev
		_ = rdb.Close()
		mr.Close()
	})
	return mr
}

func TestWorkshopCardsKeyIncludesLimit(t *testing.T) {
	assert.Equal(t, "workshop:cards:20", WorkshopCardsKey(20))
	assert.NotEqual(t, WorkshopCardsKey(5), WorkshopCardsKey(50))
}

func TestInvalidateWorkshopDropsEveryListingPage(t *testing.T) {
	withTestRedis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, WorkshopCardKey(7), "card", time.Minute))
	require.NoError(t, SetJSON(ctx, WorkshopCardsKey(20), []string{"a"}, time.Minute))
	require.NoError(t, SetJSON(ctx, WorkshopCardsKey(50), []string{"a", "b"}, time.Minute))
	require.NoError(t, SetJSON(ctx, LevelInfoKey(1), "level", time.Minute))

	InvalidateWorkshop(ctx, 7)

	for _, key := range []string{WorkshopCardKey(7), WorkshopCardsKey(20), WorkshopCardsKey(50)} {
		found, err := GetJSON(ctx, key, new(interface{}))
		require.NoError(t, err)
		assert.False(t, found, "key %s should be gone", key)
	}

	// Unrelated keys survive the pattern sweep.
	var level string
	found, err := GetJSON(ctx, LevelInfoKey(1), &level)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestAsidePopulatesAndServesFromCache(t *testing.T) {
	withTestRedis(t)
	ctx := context.Background()

	calls := 0
	var got []int
	fetch := func() error {
		calls++
		got = []int{1, 2, 3}
		return nil
	}

	require.NoError(t, Aside(ctx, WorkshopCardsKey(3), &got, time.Minute, fetch))
	require.Equal(t, 1, calls)

	got = nil
	require.NoError(t, Aside(ctx, WorkshopCardsKey(3), &got, time.Minute, fetch))
	assert.Equal(t, 1, calls, "second read is served from cache")
	assert.Equal(t, []int{1, 2, 3}, got)
}
