package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/hall-booking-api/internal/models"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
)

type activeSubscriptionReader interface {
	FindActiveAt(ctx context.Context, userID string, at time.Time) (*models.UserSubscription, error)
}

type userBookingReader interface {
	ListByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]models.Booking, error)
}

var secondsPerHour = decimal.NewFromInt(3600)

// QuotaService enforces the weekly booking-hours allowance of member subscriptions.
type QuotaService struct {
	subscriptions activeSubscriptionReader
	bookings      userBookingReader
	logger        *zap.Logger
}

// NewQuotaService constructs a QuotaService.
func NewQuotaService(subscriptions activeSubscriptionReader, bookings userBookingReader, logger *zap.Logger) *QuotaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuotaService{subscriptions: subscriptions, bookings: bookings, logger: logger}
}

// Check verifies that the user may book the interval. excludeID leaves one of
// the user's own bookings out of the weekly sum.
func (s *QuotaService) Check(ctx context.Context, userID string, interval models.Interval, excludeID string) error {
	sub, err := s.subscriptions.FindActiveAt(ctx, userID, interval.Start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNoActiveSubscription, "")
		}
		s.logger.Error("failed to load subscription", zap.String("user_id", userID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscription")
	}
	if sub.HoursPerWeek <= 0 {
		return appErrors.Clone(appErrors.ErrZeroQuota, "")
	}

	usage, usedSeconds, err := s.weekUsage(ctx, userID, sub.HoursPerWeek, interval.Start, excludeID)
	if err != nil {
		return err
	}

	allowed := int64(sub.HoursPerWeek) * 3600
	requested := int64(interval.Duration() / time.Second)
	if usedSeconds+requested > allowed {
		used := hoursString(usage.HoursUsed)
		remaining := hoursString(usage.HoursRemaining)
		return appErrors.WithDetails(appErrors.ErrQuotaExceeded,
			fmt.Sprintf("weekly quota of %d hours exceeded: %s hours used, %s hours remaining", sub.HoursPerWeek, used, remaining),
			map[string]interface{}{
				"hours_per_week":  sub.HoursPerWeek,
				"hours_used":      usage.HoursUsed,
				"hours_remaining": usage.HoursRemaining,
			})
	}
	return nil
}

// Usage reports how much of the weekly allowance is consumed for the week containing at.
func (s *QuotaService) Usage(ctx context.Context, userID string, hoursPerWeek int, at time.Time) (*models.QuotaUsage, error) {
	usage, _, err := s.weekUsage(ctx, userID, hoursPerWeek, at, "")
	return usage, err
}

func (s *QuotaService) weekUsage(ctx context.Context, userID string, hoursPerWeek int, at time.Time, excludeID string) (*models.QuotaUsage, int64, error) {
	weekStart, weekEnd := WeekBounds(at)
	bookings, err := s.bookings.ListByUserInRange(ctx, userID, weekStart, weekEnd)
	if err != nil {
		s.logger.Error("failed to load weekly bookings", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	var usedSeconds int64
	for i := range bookings {
		if excludeID != "" && bookings[i].ID == excludeID {
			continue
		}
		usedSeconds += int64(bookings[i].Interval().Duration() / time.Second)
	}

	used := decimal.NewFromInt(usedSeconds).Div(secondsPerHour)
	remaining := decimal.NewFromInt(int64(hoursPerWeek)).Sub(used)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return &models.QuotaUsage{
		WeekStart:      weekStart,
		WeekEnd:        weekEnd,
		HoursPerWeek:   hoursPerWeek,
		HoursUsed:      used.Round(2).InexactFloat64(),
		HoursRemaining: remaining.Round(2).InexactFloat64(),
	}, usedSeconds, nil
}

func hoursString(h float64) string {
	return decimal.NewFromFloat(h).StringFixed(2)
}
