package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hall-booking-api/internal/models"
)

// ErrBookingConflict is returned when the database rejects a booking that
// overlaps another one on the same hall.
var ErrBookingConflict = errors.New("booking overlaps an existing booking")

const (
	pqExclusionViolation = "23P01"
	bookingColumns       = "id, hall, start_time, end_time, created_by, created_at, updated_at"
)

// BookingRepository provides persistence for hall bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return &booking, nil
}

// FindOverlaps returns bookings on the hall whose interval overlaps [start, end).
// A non-empty excludeID removes that booking from the result.
func (r *BookingRepository) FindOverlaps(ctx context.Context, hall string, start, end time.Time, excludeID string) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE hall = $1 AND start_time < $3 AND end_time > $2", bookingColumns)
	args := []interface{}{hall, start, end}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	query += " ORDER BY start_time ASC"

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}
	return bookings, nil
}

// List returns bookings overlapping the filter range together with their owner.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, error) {
	base := "FROM bookings b JOIN users u ON u.id = b.created_by WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Hall != "" {
		conditions = append(conditions, fmt.Sprintf("b.hall = $%d", len(args)+1))
		args = append(args, filter.Hall)
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("b.start_time < $%d", len(args)+1))
		args = append(args, filter.To)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("b.end_time > $%d", len(args)+1))
		args = append(args, filter.From)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("b.created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT b.id, b.hall, b.start_time, b.end_time, b.created_by, b.created_at, b.updated_at, u.email AS owner_email, u.full_name AS owner_name %s ORDER BY b.start_time ASC", base)
	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// ListByUserInRange returns the user's bookings overlapping [start, end) on any hall.
func (r *BookingRepository) ListByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE created_by = $1 AND start_time < $3 AND end_time > $2 ORDER BY start_time ASC", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	return bookings, nil
}

// Create inserts a booking. An exclusion violation is reported as ErrBookingConflict.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	const query = `INSERT INTO bookings (id, hall, start_time, end_time, created_by, created_at, updated_at) VALUES (:id, :hall, :start_time, :end_time, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		if isExclusionViolation(err) {
			return ErrBookingConflict
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// Update moves a booking to a new hall or interval.
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bookings SET hall = :hall, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, booking)
	if err != nil {
		if isExclusionViolation(err) {
			return ErrBookingConflict
		}
		return fmt.Errorf("update booking: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a booking.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqExclusionViolation
}
