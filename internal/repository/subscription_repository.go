package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hall-booking-api/internal/models"
)

const subscriptionColumns = "id, user_id, plan_code, start_date, end_date, hours_per_week, is_active, created_at, updated_at"

// SubscriptionRepository provides persistence for plans and user subscriptions.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository creates a new subscription repository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// ListPlans returns the plan catalog.
func (r *SubscriptionRepository) ListPlans(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error) {
	query := `SELECT code, name, duration_months, default_hours_per_week, is_active FROM subscription_plans`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY duration_months ASC`

	var plans []models.SubscriptionPlan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list subscription plans: %w", err)
	}
	return plans, nil
}

// FindPlan loads a plan by code.
func (r *SubscriptionRepository) FindPlan(ctx context.Context, code string) (*models.SubscriptionPlan, error) {
	const query = `SELECT code, name, duration_months, default_hours_per_week, is_active FROM subscription_plans WHERE code = $1`
	var plan models.SubscriptionPlan
	if err := r.db.GetContext(ctx, &plan, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find subscription plan: %w", err)
	}
	return &plan, nil
}

// FindActiveAt returns the active subscription in force at the given moment,
// preferring the one ending last.
func (r *SubscriptionRepository) FindActiveAt(ctx context.Context, userID string, at time.Time) (*models.UserSubscription, error) {
	query := fmt.Sprintf("SELECT %s FROM user_subscriptions WHERE user_id = $1 AND is_active = TRUE AND start_date <= $2 AND end_date >= $2 ORDER BY end_date DESC LIMIT 1", subscriptionColumns)
	var sub models.UserSubscription
	if err := r.db.GetContext(ctx, &sub, query, userID, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find active subscription: %w", err)
	}
	return &sub, nil
}

// FindCurrent returns the user's most recently touched active record, even when expired.
func (r *SubscriptionRepository) FindCurrent(ctx context.Context, userID string) (*models.UserSubscription, error) {
	query := fmt.Sprintf("SELECT %s FROM user_subscriptions WHERE user_id = $1 AND is_active = TRUE ORDER BY updated_at DESC LIMIT 1", subscriptionColumns)
	var sub models.UserSubscription
	if err := r.db.GetContext(ctx, &sub, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find current subscription: %w", err)
	}
	return &sub, nil
}

// Create stores a new subscription record.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.UserSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	const query = `INSERT INTO user_subscriptions (id, user_id, plan_code, start_date, end_date, hours_per_week, is_active, created_at, updated_at) VALUES (:id, :user_id, :plan_code, :start_date, :end_date, :hours_per_week, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// Update rewrites the record in place.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *models.UserSubscription) error {
	sub.UpdatedAt = time.Now().UTC()
	const query = `UPDATE user_subscriptions SET plan_code = :plan_code, start_date = :start_date, end_date = :end_date, hours_per_week = :hours_per_week, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

// Deactivate marks every active record of the user inactive and returns how many changed.
func (r *SubscriptionRepository) Deactivate(ctx context.Context, userID string) (int64, error) {
	const query = `UPDATE user_subscriptions SET is_active = FALSE, updated_at = $2 WHERE user_id = $1 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate subscription: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate subscription rows: %w", err)
	}
	return rows, nil
}
