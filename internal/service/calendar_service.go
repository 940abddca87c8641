package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hall-booking-api/internal/models"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
)

const calendarCachePrefix = "calendar"

type bookingLister interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, error)
}

type blockedTimeLister interface {
	List(ctx context.Context, filter models.BlockedTimeFilter) ([]models.BlockedTime, error)
}

// CalendarService projects bookings and blocking rules onto hourly slots.
type CalendarService struct {
	bookings    bookingLister
	blocked     blockedTimeLister
	window      *BookingWindow
	cache       *CacheService
	cacheTTL    time.Duration
	defaultHall string
	logger      *zap.Logger

	// generation advances on every invalidation so that a projection built
	// from reads that raced a mutation is never left in the cache.
	generation atomic.Uint64
}

// CalendarServiceParams groups the dependencies of CalendarService.
type CalendarServiceParams struct {
	Bookings    bookingLister
	Blocked     blockedTimeLister
	Window      *BookingWindow
	Cache       *CacheService
	CacheTTL    time.Duration
	DefaultHall string
	Logger      *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(params CalendarServiceParams) *CalendarService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		bookings:    params.Bookings,
		blocked:     params.Blocked,
		window:      params.Window,
		cache:       params.Cache,
		cacheTTL:    params.CacheTTL,
		defaultHall: params.DefaultHall,
		logger:      logger,
	}
}

// Day returns the slot view of a hall for the given date. The boolean reports a cache hit.
func (s *CalendarService) Day(ctx context.Context, hall string, date time.Time) (*models.CalendarDay, bool, error) {
	if hall == "" {
		hall = s.defaultHall
	}
	key := calendarCacheKey(hall, date)
	if s.cache != nil {
		var cached models.CalendarDay
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	generation := s.generation.Load()
	bounds := s.window.DayBounds(date)
	bookings, err := s.bookings.List(ctx, models.BookingFilter{Hall: hall, From: bounds.Start, To: bounds.End})
	if err != nil {
		s.logger.Error("failed to load bookings for calendar", zap.String("hall", hall), zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}
	rules, err := s.blocked.List(ctx, models.BlockedTimeFilter{From: bounds.Start, To: bounds.Start})
	if err != nil {
		s.logger.Error("failed to load blocked times for calendar", zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocked times")
	}

	plain := make([]models.Booking, len(bookings))
	for i := range bookings {
		plain[i] = bookings[i].Booking
	}
	day := &models.CalendarDay{
		Date:  date.Format("2006-01-02"),
		Hall:  hall,
		Slots: BuildSlots(date, s.window.OpeningHour(), s.window.ClosingHour(), plain, rules),
	}

	s.store(ctx, key, day, generation)
	return day, false, nil
}

// store caches a projection built at the given generation. The entry is
// skipped, or removed again, when an invalidation ran in the meantime.
func (s *CalendarService) store(ctx context.Context, key string, day *models.CalendarDay, generation uint64) {
	if s.cache == nil || s.generation.Load() != generation {
		return
	}
	_ = s.cache.Set(ctx, key, day, s.cacheTTL)
	if s.generation.Load() != generation {
		_ = s.cache.Invalidate(ctx, key)
	}
}

// InvalidateDay drops the cached projection of one hall and date.
func (s *CalendarService) InvalidateDay(ctx context.Context, hall string, date time.Time) {
	if s == nil || s.cache == nil {
		return
	}
	s.generation.Add(1)
	_ = s.cache.Invalidate(ctx, calendarCacheKey(hall, date))
}

// InvalidateAll drops every cached projection.
func (s *CalendarService) InvalidateAll(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	s.generation.Add(1)
	_ = s.cache.Invalidate(ctx, calendarCachePrefix+":*")
}

// BuildSlots computes one slot per hour from openingHour until closingHour.
// Blocked takes precedence over Booked in Status; both flags are reported.
func BuildSlots(date time.Time, openingHour, closingHour int, bookings []models.Booking, rules []models.BlockedTime) []models.CalendarSlot {
	day := startOfDay(date)
	slots := make([]models.CalendarSlot, 0, closingHour-openingHour)
	for hour := openingHour; hour < closingHour; hour++ {
		slot := models.CalendarSlot{
			Hour:       hour,
			Start:      day.Add(time.Duration(hour) * time.Hour),
			End:        day.Add(time.Duration(hour+1) * time.Hour),
			Status:     models.SlotEmpty,
			BookingIDs: []string{},
		}
		interval := models.Interval{Start: slot.Start, End: slot.End}
		for i := range bookings {
			if bookings[i].Interval().Overlaps(interval) {
				slot.BookingIDs = append(slot.BookingIDs, bookings[i].ID)
			}
		}
		if len(slot.BookingIDs) > 0 {
			slot.Booked = true
			slot.Status = models.SlotBooked
		}
		if rule, ok := BlockedAt(slot.Start, rules); ok {
			slot.Blocked = true
			slot.Status = models.SlotBlocked
			slot.Reason = rule.Message()
		}
		slots = append(slots, slot)
	}
	return slots
}

func calendarCacheKey(hall string, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", calendarCachePrefix, hall, date.Format("2006-01-02"))
}
