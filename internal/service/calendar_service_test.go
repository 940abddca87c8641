package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-booking-api/internal/models"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
)

type memoryCache struct {
	values map[string]interface{}
	sets   int
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if day, ok := dest.(*models.CalendarDay); ok {
		*day = v.(models.CalendarDay)
	}
	return nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	if day, ok := value.(*models.CalendarDay); ok {
		m.values[key] = *day
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	for k := range m.values {
		if k == pattern || pattern == calendarCachePrefix+":*" {
			delete(m.values, k)
		}
	}
	return nil
}

func newCalendarForTest(repo *fakeBookingRepo, blocked *fakeBlockedRepo, cache *CacheService) *CalendarService {
	window := NewBookingWindow(time.UTC, 17, 24)
	return NewCalendarService(CalendarServiceParams{Bookings: repo, Blocked: blocked, Window: window, Cache: cache, CacheTTL: time.Minute, DefaultHall: "main"})
}

func TestBuildSlotsMarksBookingsAndBlocks(t *testing.T) {
	date := at(2025, 6, 2, 0, 0)
	bookings := []models.Booking{
		{ID: "a", Hall: "main", Start: at(2025, 6, 2, 17, 30), End: at(2025, 6, 2, 18, 30)},
		{ID: "b", Hall: "main", Start: at(2025, 6, 2, 20, 0), End: at(2025, 6, 2, 21, 0)},
	}
	rules := []models.BlockedTime{{ID: "r", Type: models.BlockTypeHour, StartDate: date, EndDate: date, Hour: intPtr(20), Active: true}}

	slots := BuildSlots(date, 17, 24, bookings, rules)
	require.Len(t, slots, 7)

	assert.Equal(t, 17, slots[0].Hour)
	assert.Equal(t, models.SlotBooked, slots[0].Status)
	assert.Equal(t, []string{"a"}, slots[0].BookingIDs)
	assert.Equal(t, []string{"a"}, slots[1].BookingIDs)
	assert.Equal(t, models.SlotEmpty, slots[2].Status)
	assert.Empty(t, slots[2].BookingIDs)

	assert.Equal(t, models.SlotBlocked, slots[3].Status)
	assert.True(t, slots[3].Booked)
	assert.True(t, slots[3].Blocked)
	assert.Equal(t, "bookings are not available at 20:00", slots[3].Reason)
	assert.Equal(t, at(2025, 6, 3, 0, 0), slots[6].End)
}

func TestCalendarBlockedDayMarksEverySlot(t *testing.T) {
	day := at(2025, 6, 1, 0, 0)
	blocked := &fakeBlockedRepo{rules: []models.BlockedTime{{ID: "r", Type: models.BlockTypeDay, StartDate: day, EndDate: day, Reason: "Closed", Active: true}}}
	svc := newCalendarForTest(newFakeBookingRepo(), blocked, nil)

	result, hit, err := svc.Day(context.Background(), "", day)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "main", result.Hall)
	assert.Equal(t, "2025-06-01", result.Date)
	for _, slot := range result.Slots {
		assert.Equal(t, models.SlotBlocked, slot.Status)
		assert.Equal(t, "Closed", slot.Reason)
	}
}

func TestCalendarProjectionIsDeterministic(t *testing.T) {
	repo := newFakeBookingRepo()
	repo.seed(
		models.Booking{ID: "a", Hall: "main", Start: at(2025, 6, 2, 17, 0), End: at(2025, 6, 2, 18, 0)},
		models.Booking{ID: "b", Hall: "main", Start: at(2025, 6, 2, 22, 0), End: at(2025, 6, 3, 0, 0)},
		models.Booking{ID: "c", Hall: "annex", Start: at(2025, 6, 2, 19, 0), End: at(2025, 6, 2, 20, 0)},
	)
	blocked := &fakeBlockedRepo{rules: []models.BlockedTime{{ID: "w", Type: models.BlockTypeWeekly, StartDate: at(2025, 1, 1, 0, 0), EndDate: at(2025, 12, 31, 0, 0), DayOfWeek: intPtr(0), Active: true}}}
	svc := newCalendarForTest(repo, blocked, nil)

	first, _, err := svc.Day(context.Background(), "main", at(2025, 6, 2, 0, 0))
	require.NoError(t, err)
	second, _, err := svc.Day(context.Background(), "main", at(2025, 6, 2, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	for _, slot := range first.Slots {
		assert.NotContains(t, slot.BookingIDs, "c")
	}
}

func TestCalendarUsesCacheUntilInvalidated(t *testing.T) {
	repo := newFakeBookingRepo()
	cacheRepo := &memoryCache{values: map[string]interface{}{}}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := newCalendarForTest(repo, &fakeBlockedRepo{}, cache)
	date := at(2025, 6, 2, 0, 0)

	_, hit, err := svc.Day(context.Background(), "main", date)
	require.NoError(t, err)
	assert.False(t, hit)

	repo.seed(models.Booking{ID: "a", Hall: "main", Start: at(2025, 6, 2, 17, 0), End: at(2025, 6, 2, 18, 0)})
	cached, hit, err := svc.Day(context.Background(), "main", date)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, models.SlotEmpty, cached.Slots[0].Status)

	svc.InvalidateDay(context.Background(), "main", date)
	fresh, hit, err := svc.Day(context.Background(), "main", date)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.SlotBooked, fresh.Slots[0].Status)
}

type interleavingLister struct {
	inner  *fakeBookingRepo
	during func()
}

func (l *interleavingLister) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, error) {
	rows, err := l.inner.List(ctx, filter)
	if l.during != nil {
		during := l.during
		l.during = nil
		during()
	}
	return rows, err
}

func TestCalendarDoesNotCacheProjectionRacingAMutation(t *testing.T) {
	repo := newFakeBookingRepo()
	lister := &interleavingLister{inner: repo}
	cacheRepo := &memoryCache{values: map[string]interface{}{}}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewCalendarService(CalendarServiceParams{
		Bookings:    lister,
		Blocked:     &fakeBlockedRepo{},
		Window:      NewBookingWindow(time.UTC, 17, 24),
		Cache:       cache,
		CacheTTL:    time.Minute,
		DefaultHall: "main",
	})
	date := at(2025, 6, 2, 0, 0)
	lister.during = func() {
		repo.seed(models.Booking{ID: "a", Hall: "main", Start: at(2025, 6, 2, 17, 0), End: at(2025, 6, 2, 18, 0)})
		svc.InvalidateDay(context.Background(), "main", date)
	}

	stale, hit, err := svc.Day(context.Background(), "main", date)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.SlotEmpty, stale.Slots[0].Status)
	assert.Empty(t, cacheRepo.values)

	fresh, hit, err := svc.Day(context.Background(), "main", date)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.SlotBooked, fresh.Slots[0].Status)
}
