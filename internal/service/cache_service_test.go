package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCache()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var dest map[string]int
	hit, err := svc.Get(ctx, "performance:t-1:2024-04", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "performance:t-1:2024-04", map[string]int{"score": 80}, 0))
	hit, err = svc.Get(ctx, "performance:t-1:2024-04", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 80, dest["score"])

	require.NoError(t, svc.InvalidateTeacher(ctx, "t-1"))
	hit, err = svc.Get(ctx, "performance:t-1:2024-04", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	snapshot := metrics.Snapshot()
	assert.EqualValues(t, 1, snapshot.CacheHits)
	assert.EqualValues(t, 2, snapshot.CacheMisses)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.entries)
	assert.False(t, svc.Enabled())

	var nilSvc *CacheService
	hit, err := nilSvc.Get(context.Background(), "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCachedLoadsOnceThenHits(t *testing.T) {
	svc := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	value, hit, err := cached(ctx, svc, PerformanceCacheKey("t-1", "2024-04"), 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, value)

	value, hit, err = cached(ctx, svc, PerformanceCacheKey("t-1", "2024-04"), 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, value)
	assert.Equal(t, 1, calls)
}

func TestCachedSkipsStoreOnLoadError(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	boom := errors.New("boom")

	_, hit, err := cached(context.Background(), svc, "k", 0, func(context.Context) (string, error) {
		return "", boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, hit)
	assert.Empty(t, repo.entries)
}
