package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hall-booking-api/internal/models"
	"github.com/noah-isme/hall-booking-api/internal/repository"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
)

type bookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindOverlaps(ctx context.Context, hall string, start, end time.Time, excludeID string) ([]models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, error)
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id string) error
}

type quotaChecker interface {
	Check(ctx context.Context, userID string, interval models.Interval, excludeID string) error
}

// BookingService is the admission controller for hall bookings.
type BookingService struct {
	repo        bookingRepository
	blocked     blockedTimeLister
	quota       quotaChecker
	window      *BookingWindow
	calendar    *CalendarService
	events      *EventService
	metrics     *MetricsService
	defaultHall string
	logger      *zap.Logger
}

// BookingServiceParams groups the dependencies of BookingService.
type BookingServiceParams struct {
	Repo        bookingRepository
	Blocked     blockedTimeLister
	Quota       quotaChecker
	Window      *BookingWindow
	Calendar    *CalendarService
	Events      *EventService
	Metrics     *MetricsService
	DefaultHall string
	Logger      *zap.Logger
}

// NewBookingService constructs a BookingService.
func NewBookingService(params BookingServiceParams) *BookingService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hall := params.DefaultHall
	if hall == "" {
		hall = "main"
	}
	return &BookingService{
		repo:        params.Repo,
		blocked:     params.Blocked,
		quota:       params.Quota,
		window:      params.Window,
		calendar:    params.Calendar,
		events:      params.Events,
		metrics:     params.Metrics,
		defaultHall: hall,
		logger:      logger,
	}
}

// Create runs the admission pipeline: normalise, validate, blocked check,
// overlap check, quota check for members, then persist.
func (s *BookingService) Create(ctx context.Context, principal models.Principal, req models.CreateBookingRequest) (booking *models.Booking, err error) {
	defer func() { s.recordAdmission(err) }()

	if principal.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	hall := s.hallOrDefault(req.Hall)
	interval := models.Interval{Start: s.window.Normalize(req.Start), End: s.window.Normalize(req.End)}

	if err := s.window.Validate(interval); err != nil {
		return nil, err
	}
	if err := s.ensureNotBlocked(ctx, interval); err != nil {
		return nil, err
	}
	if err := s.ensureNoOverlap(ctx, hall, interval, ""); err != nil {
		return nil, err
	}
	if !principal.IsAdmin {
		if err := s.quota.Check(ctx, principal.UserID, interval, ""); err != nil {
			return nil, err
		}
	}

	booking = &models.Booking{
		Hall:      hall,
		Start:     interval.Start,
		End:       interval.End,
		CreatedBy: principal.UserID,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrBookingConflict) {
			return nil, appErrors.Clone(appErrors.ErrBookingOverlap, "")
		}
		s.logger.Error("failed to create booking", zap.String("hall", hall), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.calendar.InvalidateDay(ctx, hall, booking.Start)
	s.emit(models.BookingEventCreated, booking, principal.UserID)
	return booking, nil
}

// Update moves a booking. Only administrators may update, and the booking's
// own current interval never counts as an overlap.
func (s *BookingService) Update(ctx context.Context, principal models.Principal, id string, req models.UpdateBookingRequest) (*models.Booking, error) {
	if !principal.IsAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can update bookings")
	}
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *booking

	hall := booking.Hall
	if strings.TrimSpace(req.Hall) != "" {
		hall = strings.TrimSpace(req.Hall)
	}
	interval := models.Interval{Start: s.window.Normalize(req.Start), End: s.window.Normalize(req.End)}
	if err := s.window.Validate(interval); err != nil {
		return nil, err
	}
	if err := s.ensureNotBlocked(ctx, interval); err != nil {
		return nil, err
	}
	if err := s.ensureNoOverlap(ctx, hall, interval, booking.ID); err != nil {
		return nil, err
	}

	booking.Hall = hall
	booking.Start = interval.Start
	booking.End = interval.End
	if err := s.repo.Update(ctx, booking); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingConflict):
			return nil, appErrors.Clone(appErrors.ErrBookingOverlap, "")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		s.logger.Error("failed to update booking", zap.String("booking_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}

	s.calendar.InvalidateDay(ctx, previous.Hall, previous.Start)
	s.calendar.InvalidateDay(ctx, booking.Hall, booking.Start)
	s.emit(models.BookingEventUpdated, booking, principal.UserID)
	return booking, nil
}

// Delete cancels a booking. Administrators may delete any booking; members
// may cancel their own bookings that have not started yet.
func (s *BookingService) Delete(ctx context.Context, principal models.Principal, id string) error {
	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !principal.IsAdmin {
		if booking.CreatedBy != principal.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "only administrators can delete other members' bookings")
		}
		if !booking.Start.After(s.window.Now()) {
			return appErrors.Clone(appErrors.ErrForbidden, "bookings that have started can only be removed by an administrator")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		s.logger.Error("failed to delete booking", zap.String("booking_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete booking")
	}

	s.calendar.InvalidateDay(ctx, booking.Hall, booking.Start)
	s.emit(models.BookingEventCancelled, booking, principal.UserID)
	return nil
}

// Get returns a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	return s.load(ctx, id)
}

// List returns bookings overlapping the filter range. Owner e-mail addresses
// are only disclosed to administrators.
func (s *BookingService) List(ctx context.Context, principal models.Principal, filter models.BookingFilter) ([]models.BookingDetail, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}
	bookings, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list bookings", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	if !principal.IsAdmin {
		for i := range bookings {
			if bookings[i].CreatedBy != principal.UserID {
				bookings[i].OwnerEmail = ""
			}
		}
	}
	return bookings, nil
}

// ListUpcoming returns the caller's bookings that have not ended yet.
func (s *BookingService) ListUpcoming(ctx context.Context, principal models.Principal) ([]models.BookingDetail, error) {
	return s.List(ctx, principal, models.BookingFilter{CreatedBy: principal.UserID, From: s.window.Now()})
}

// Window exposes the time normaliser used by the controller.
func (s *BookingService) Window() *BookingWindow {
	return s.window
}

func (s *BookingService) load(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		s.logger.Error("failed to load booking", zap.String("booking_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

func (s *BookingService) ensureNotBlocked(ctx context.Context, interval models.Interval) error {
	rules, err := s.blocked.List(ctx, models.BlockedTimeFilter{From: interval.Start, To: interval.End})
	if err != nil {
		s.logger.Error("failed to load blocked times", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocked times")
	}
	if rule, blocked := ResolveBlocked(interval, rules); blocked {
		return appErrors.WithDetails(appErrors.ErrBlockedTime, rule.Message(), map[string]interface{}{"blocked_time_id": rule.ID})
	}
	return nil
}

func (s *BookingService) ensureNoOverlap(ctx context.Context, hall string, interval models.Interval, ignoreID string) error {
	overlaps, err := s.repo.FindOverlaps(ctx, hall, interval.Start, interval.End, ignoreID)
	if err != nil {
		s.logger.Error("failed to check booking overlaps", zap.String("hall", hall), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check overlaps")
	}
	for i := range overlaps {
		if overlaps[i].ID == ignoreID {
			continue
		}
		if overlaps[i].Interval().Overlaps(interval) {
			return appErrors.Clone(appErrors.ErrBookingOverlap, "")
		}
	}
	return nil
}

func (s *BookingService) hallOrDefault(hall string) string {
	hall = strings.TrimSpace(hall)
	if hall == "" {
		return s.defaultHall
	}
	return hall
}

func (s *BookingService) emit(eventType string, booking *models.Booking, actorID string) {
	s.events.Emit(models.BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		Hall:       booking.Hall,
		Start:      booking.Start,
		End:        booking.End,
		UserID:     booking.CreatedBy,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *BookingService) recordAdmission(err error) {
	if err == nil {
		s.metrics.RecordAdmission(OutcomeAccepted)
		return
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Status < 500 {
		s.metrics.RecordAdmission(strings.ToLower(appErr.Code))
		return
	}
	s.metrics.RecordAdmission(OutcomeError)
}
