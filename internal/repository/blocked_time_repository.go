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

	"github.com/noah-isme/hall-booking-api/internal/models"
)

const blockedTimeColumns = "id, block_type, start_date, end_date, hour, day_of_week, reason, is_active, created_by, created_at, updated_at"

// BlockedTimeRepository provides persistence for blocking rules.
type BlockedTimeRepository struct {
	db *sqlx.DB
}

// NewBlockedTimeRepository creates a new blocked time repository.
func NewBlockedTimeRepository(db *sqlx.DB) *BlockedTimeRepository {
	return &BlockedTimeRepository{db: db}
}

// List returns rules whose date range intersects [From, To] (dates inclusive).
func (r *BlockedTimeRepository) List(ctx context.Context, filter models.BlockedTimeFilter) ([]models.BlockedTime, error) {
	base := "FROM blocked_times WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, dateOnly(filter.To))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("end_date >= $%d", len(args)+1))
		args = append(args, dateOnly(filter.From))
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_date ASC, created_at ASC", blockedTimeColumns, base)
	var rules []models.BlockedTime
	if err := r.db.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, fmt.Errorf("list blocked times: %w", err)
	}
	return rules, nil
}

// FindByID loads a blocking rule.
func (r *BlockedTimeRepository) FindByID(ctx context.Context, id string) (*models.BlockedTime, error) {
	query := fmt.Sprintf("SELECT %s FROM blocked_times WHERE id = $1", blockedTimeColumns)
	var rule models.BlockedTime
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find blocked time: %w", err)
	}
	return &rule, nil
}

// Create stores a blocking rule.
func (r *BlockedTimeRepository) Create(ctx context.Context, rule *models.BlockedTime) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	const query = `INSERT INTO blocked_times (id, block_type, start_date, end_date, hour, day_of_week, reason, is_active, created_by, created_at, updated_at) VALUES (:id, :block_type, :start_date, :end_date, :hour, :day_of_week, :reason, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create blocked time: %w", err)
	}
	return nil
}

// Update persists every mutable column of a rule.
func (r *BlockedTimeRepository) Update(ctx context.Context, rule *models.BlockedTime) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE blocked_times SET block_type = :block_type, start_date = :start_date, end_date = :end_date, hour = :hour, day_of_week = :day_of_week, reason = :reason, is_active = :is_active, created_by = :created_by, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		return fmt.Errorf("update blocked time: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a rule.
func (r *BlockedTimeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocked_times WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blocked time: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
