package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hall-booking-api/internal/models"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
)

type blockedTimeRepository interface {
	List(ctx context.Context, filter models.BlockedTimeFilter) ([]models.BlockedTime, error)
	FindByID(ctx context.Context, id string) (*models.BlockedTime, error)
	Create(ctx context.Context, rule *models.BlockedTime) error
	Update(ctx context.Context, rule *models.BlockedTime) error
	Delete(ctx context.Context, id string) error
}

// BlockedTimeService manages administrative blocking rules.
type BlockedTimeService struct {
	repo      blockedTimeRepository
	calendar  *CalendarService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBlockedTimeService constructs a BlockedTimeService.
func NewBlockedTimeService(repo blockedTimeRepository, calendar *CalendarService, validate *validator.Validate, logger *zap.Logger) *BlockedTimeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockedTimeService{repo: repo, calendar: calendar, validator: validate, logger: logger}
}

// List returns active rules intersecting the date range.
func (s *BlockedTimeService) List(ctx context.Context, filter models.BlockedTimeFilter) ([]models.BlockedTime, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	rules, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list blocked times", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocked times")
	}
	return rules, nil
}

// Create stores a new rule.
func (s *BlockedTimeService) Create(ctx context.Context, principal models.Principal, req models.BlockedTimeRequest) (*models.BlockedTime, error) {
	if !principal.IsAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can manage blocked times")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blocked time payload")
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	createdBy := principal.UserID
	rule := &models.BlockedTime{
		Type:      req.Type,
		StartDate: start,
		EndDate:   end,
		Hour:      req.Hour,
		DayOfWeek: req.DayOfWeek,
		Reason:    strings.TrimSpace(req.Reason),
		Active:    true,
		CreatedBy: &createdBy,
	}
	if err := normaliseRule(rule); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		s.logger.Error("failed to create blocked time", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create blocked time")
	}
	s.calendar.InvalidateAll(ctx)
	return rule, nil
}

// Update applies the provided fields to an existing rule.
func (s *BlockedTimeService) Update(ctx context.Context, principal models.Principal, id string, req models.UpdateBlockedTimeRequest) (*models.BlockedTime, error) {
	if !principal.IsAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can manage blocked times")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blocked time payload")
	}
	rule, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		rule.Type = *req.Type
	}
	startRaw := rule.StartDate.Format("2006-01-02")
	endRaw := rule.EndDate.Format("2006-01-02")
	if req.StartDate != nil {
		startRaw = *req.StartDate
	}
	if req.EndDate != nil {
		endRaw = *req.EndDate
	}
	start, end, err := parseDateRange(startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	rule.StartDate, rule.EndDate = start, end
	if req.Hour != nil {
		rule.Hour = req.Hour
	}
	if req.DayOfWeek != nil {
		rule.DayOfWeek = req.DayOfWeek
	}
	if req.Reason != nil {
		rule.Reason = strings.TrimSpace(*req.Reason)
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	editor := principal.UserID
	rule.CreatedBy = &editor
	if err := normaliseRule(rule); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blocked time not found")
		}
		s.logger.Error("failed to update blocked time", zap.String("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update blocked time")
	}
	s.calendar.InvalidateAll(ctx)
	return rule, nil
}

// Delete removes a rule.
func (s *BlockedTimeService) Delete(ctx context.Context, principal models.Principal, id string) error {
	if !principal.IsAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can manage blocked times")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "blocked time not found")
		}
		s.logger.Error("failed to delete blocked time", zap.String("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete blocked time")
	}
	s.calendar.InvalidateAll(ctx)
	return nil
}

func (s *BlockedTimeService) load(ctx context.Context, id string) (*models.BlockedTime, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blocked time not found")
		}
		s.logger.Error("failed to load blocked time", zap.String("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocked time")
	}
	return rule, nil
}

// normaliseRule enforces the type-specific fields and clears the ones that do not apply.
func normaliseRule(rule *models.BlockedTime) error {
	if !rule.Type.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "block_type must be day, weekly or hour")
	}
	switch rule.Type {
	case models.BlockTypeDay:
		rule.Hour, rule.DayOfWeek = nil, nil
	case models.BlockTypeWeekly:
		if rule.DayOfWeek == nil || *rule.DayOfWeek < 0 || *rule.DayOfWeek > 6 {
			return appErrors.Clone(appErrors.ErrValidation, "day_of_week (0=Monday to 6=Sunday) is required for weekly blocks")
		}
		rule.Hour = nil
	case models.BlockTypeHour:
		if rule.Hour == nil || *rule.Hour < 0 || *rule.Hour > 23 {
			return appErrors.Clone(appErrors.ErrValidation, "hour (0-23) is required for hour blocks")
		}
		rule.DayOfWeek = nil
	}
	return nil
}

func parseDateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", startRaw, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := time.ParseInLocation("2006-01-02", endRaw, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_date must not be after end_date")
	}
	return start, end, nil
}
