package models

import "time"

// SubscriptionPlan is an entry of the plan catalog.
type SubscriptionPlan struct {
	Code                string `db:"code" json:"code"`
	Name                string `db:"name" json:"name"`
	DurationMonths      int    `db:"duration_months" json:"duration_months"`
	DefaultHoursPerWeek int    `db:"default_hours_per_week" json:"default_hours_per_week"`
	Active              bool   `db:"is_active" json:"is_active"`
}

// UserSubscription is the single mutable subscription record of a user.
type UserSubscription struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	PlanCode     string    `db:"plan_code" json:"plan_code"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	HoursPerWeek int       `db:"hours_per_week" json:"hours_per_week"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CoversMoment reports whether the subscription is in force at t (both ends inclusive).
func (s *UserSubscription) CoversMoment(t time.Time) bool {
	return s != nil && s.Active && !t.Before(s.StartDate) && !t.After(s.EndDate)
}

// AssignSubscriptionRequest is the admin payload for creating or adjusting a subscription.
// StartDate and EndDate are facility wall-clock values.
type AssignSubscriptionRequest struct {
	PlanCode     string     `json:"plan_code" validate:"required,max=32"`
	HoursPerWeek *int       `json:"hours_per_week" validate:"omitempty,min=0,max=168"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	ExtendDays   *int       `json:"extend_days" validate:"omitempty,min=1,max=3660"`
	ExtendMonths *int       `json:"extend_months" validate:"omitempty,min=1,max=120"`
}

// QuotaUsage summarises a user's booking hours within one ISO week.
type QuotaUsage struct {
	WeekStart      time.Time `json:"week_start"`
	WeekEnd        time.Time `json:"week_end"`
	HoursPerWeek   int       `json:"hours_per_week"`
	HoursUsed      float64   `json:"hours_used"`
	HoursRemaining float64   `json:"hours_remaining"`
}

// SubscriptionOverview is returned to members asking about their subscription.
type SubscriptionOverview struct {
	Subscription *UserSubscription `json:"subscription"`
	Usage        *QuotaUsage       `json:"usage,omitempty"`
}
