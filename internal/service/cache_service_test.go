package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-booking-api/internal/models"
)

type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (failingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingCache) DeleteByPattern(ctx context.Context, pattern string) error {
	return errors.New("connection refused")
}

func TestCacheServiceCountsHitsAndMisses(t *testing.T) {
	metrics := NewMetricsService()
	repo := &memoryCache{values: map[string]interface{}{}}
	cache := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()

	var day models.CalendarDay
	hit, err := cache.Get(ctx, "calendar:main:2025-06-02", &day)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "calendar:main:2025-06-02", &models.CalendarDay{Date: "2025-06-02", Hall: "main"}, 0))
	hit, err = cache.Get(ctx, "calendar:main:2025-06-02", &day)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "main", day.Hall)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses))
	assert.Equal(t, 0.5, testutil.ToFloat64(metrics.cacheHitRatio))
}

func TestCacheServiceDisabledAlwaysMisses(t *testing.T) {
	cache := NewCacheService(&memoryCache{values: map[string]interface{}{}}, nil, time.Minute, nil, false)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", &models.CalendarDay{}, 0))
	hit, err := cache.Get(ctx, "k", &models.CalendarDay{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, cache.Enabled())
}

func TestCalendarFallsBackWhenCacheFails(t *testing.T) {
	repo := newFakeBookingRepo()
	repo.seed(models.Booking{ID: "a", Hall: "main", Start: at(2025, 6, 2, 17, 0), End: at(2025, 6, 2, 18, 0)})
	svc := newCalendarForTest(repo, &fakeBlockedRepo{}, NewCacheService(failingCache{}, nil, time.Minute, nil, true))

	day, hit, err := svc.Day(context.Background(), "main", at(2025, 6, 2, 0, 0))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.SlotBooked, day.Slots[0].Status)
}
