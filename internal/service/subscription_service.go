package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hall-booking-api/internal/models"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
)

type subscriptionRepository interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error)
	FindPlan(ctx context.Context, code string) (*models.SubscriptionPlan, error)
	FindActiveAt(ctx context.Context, userID string, at time.Time) (*models.UserSubscription, error)
	FindCurrent(ctx context.Context, userID string) (*models.UserSubscription, error)
	Create(ctx context.Context, sub *models.UserSubscription) error
	Update(ctx context.Context, sub *models.UserSubscription) error
	Deactivate(ctx context.Context, userID string) (int64, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type usageReporter interface {
	Usage(ctx context.Context, userID string, hoursPerWeek int, at time.Time) (*models.QuotaUsage, error)
}

// SubscriptionService manages plan assignment. Each user keeps a single
// mutable subscription record that is adjusted in place.
type SubscriptionService struct {
	repo      subscriptionRepository
	users     userLookup
	usage     usageReporter
	window    *BookingWindow
	validator *validator.Validate
	logger    *zap.Logger
}

// SubscriptionServiceParams groups the dependencies of SubscriptionService.
type SubscriptionServiceParams struct {
	Repo      subscriptionRepository
	Users     userLookup
	Usage     usageReporter
	Window    *BookingWindow
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewSubscriptionService constructs a SubscriptionService.
func NewSubscriptionService(params SubscriptionServiceParams) *SubscriptionService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{
		repo:      params.Repo,
		users:     params.Users,
		usage:     params.Usage,
		window:    params.Window,
		validator: validate,
		logger:    logger,
	}
}

// Plans lists the active plan catalog.
func (s *SubscriptionService) Plans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	plans, err := s.repo.ListPlans(ctx, true)
	if err != nil {
		s.logger.Error("failed to list plans", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subscription plans")
	}
	return plans, nil
}

// Overview returns the user's current record and, when it is in force, this week's usage.
func (s *SubscriptionService) Overview(ctx context.Context, userID string) (*models.SubscriptionOverview, error) {
	current, err := s.repo.FindCurrent(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.SubscriptionOverview{}, nil
		}
		s.logger.Error("failed to load subscription", zap.String("user_id", userID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscription")
	}

	overview := &models.SubscriptionOverview{Subscription: current}
	now := s.window.Now()
	if current.CoversMoment(now) && s.usage != nil {
		usage, err := s.usage.Usage(ctx, userID, current.HoursPerWeek, now)
		if err != nil {
			return nil, err
		}
		overview.Usage = usage
	}
	return overview, nil
}

// Assign creates the user's subscription or adjusts the current record in place.
// Without an explicit end date a new record runs for the plan duration;
// extend_months and extend_days are then added to the effective end.
func (s *SubscriptionService) Assign(ctx context.Context, principal models.Principal, userID string, req models.AssignSubscriptionRequest) (*models.UserSubscription, error) {
	if !principal.IsAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can manage subscriptions")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subscription payload")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	plan, err := s.repo.FindPlan(ctx, req.PlanCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subscription plan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscription plan")
	}

	hours := plan.DefaultHoursPerWeek
	if req.HoursPerWeek != nil {
		hours = *req.HoursPerWeek
	}
	start, end := req.StartDate, req.EndDate

	current, err := s.repo.FindCurrent(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("failed to load current subscription", zap.String("user_id", userID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscription")
	}

	if current != nil {
		effectiveStart := current.StartDate
		if start != nil {
			effectiveStart = *start
		}
		effectiveEnd := current.EndDate
		if end != nil {
			effectiveEnd = *end
		}
		current.PlanCode = plan.Code
		current.StartDate = effectiveStart
		current.EndDate = extend(effectiveEnd, req.ExtendMonths, req.ExtendDays)
		current.HoursPerWeek = hours
		if !current.StartDate.Before(current.EndDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subscription must end after it starts")
		}
		if err := s.repo.Update(ctx, current); err != nil {
			s.logger.Error("failed to update subscription", zap.String("user_id", userID), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subscription")
		}
		return current, nil
	}

	effectiveStart := s.window.Now()
	if start != nil {
		effectiveStart = *start
	}
	effectiveEnd := AddMonths(effectiveStart, plan.DurationMonths)
	if end != nil {
		effectiveEnd = *end
	}
	sub := &models.UserSubscription{
		UserID:       userID,
		PlanCode:     plan.Code,
		StartDate:    effectiveStart,
		EndDate:      extend(effectiveEnd, req.ExtendMonths, req.ExtendDays),
		HoursPerWeek: hours,
		Active:       true,
	}
	if !sub.StartDate.Before(sub.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subscription must end after it starts")
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		s.logger.Error("failed to create subscription", zap.String("user_id", userID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subscription")
	}
	return sub, nil
}

// Cancel deactivates the user's current subscription.
func (s *SubscriptionService) Cancel(ctx context.Context, principal models.Principal, userID string) error {
	if !principal.IsAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can manage subscriptions")
	}
	n, err := s.repo.Deactivate(ctx, userID)
	if err != nil {
		s.logger.Error("failed to deactivate subscription", zap.String("user_id", userID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel subscription")
	}
	if n == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "user has no active subscription")
	}
	return nil
}

// AddMonths adds calendar months to t, clamping the day to the last day of the target month.
func AddMonths(t time.Time, months int) time.Time {
	if months == 0 {
		return t
	}
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func extend(end time.Time, months, days *int) time.Time {
	if months != nil {
		end = AddMonths(end, *months)
	}
	if days != nil {
		end = end.AddDate(0, 0, *days)
	}
	return end
}
