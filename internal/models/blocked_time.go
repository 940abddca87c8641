package models

import (
	"fmt"
	"time"
)

// BlockType enumerates the blocking rule kinds.
type BlockType string

const (
	BlockTypeDay    BlockType = "day"
	BlockTypeWeekly BlockType = "weekly"
	BlockTypeHour   BlockType = "hour"
)

// Valid reports whether t is a known block type.
func (t BlockType) Valid() bool {
	switch t {
	case BlockTypeDay, BlockTypeWeekly, BlockTypeHour:
		return true
	}
	return false
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Weekday returns the day of week of t with Monday as 0 and Sunday as 6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// BlockedTime is an administrative rule preventing bookings.
type BlockedTime struct {
	ID        string    `db:"id" json:"id"`
	Type      BlockType `db:"block_type" json:"block_type"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Hour      *int      `db:"hour" json:"hour,omitempty"`
	DayOfWeek *int      `db:"day_of_week" json:"day_of_week,omitempty"`
	Reason    string    `db:"reason" json:"reason"`
	Active    bool      `db:"is_active" json:"is_active"`
	CreatedBy *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CoversDate reports whether the calendar date of t lies within the rule's date range.
func (b *BlockedTime) CoversDate(t time.Time) bool {
	d := dateKey(t)
	return d >= dateKey(b.StartDate) && d <= dateKey(b.EndDate)
}

// Blocks reports whether the rule forbids the moment t.
func (b *BlockedTime) Blocks(t time.Time) bool {
	if b == nil || !b.Active || !b.CoversDate(t) {
		return false
	}
	switch b.Type {
	case BlockTypeDay:
		return true
	case BlockTypeWeekly:
		return b.DayOfWeek != nil && Weekday(t) == *b.DayOfWeek
	case BlockTypeHour:
		return b.Hour != nil && t.Hour() == *b.Hour
	}
	return false
}

// Message returns the rule reason, or a default description of the rule.
func (b *BlockedTime) Message() string {
	if b.Reason != "" {
		return b.Reason
	}
	switch b.Type {
	case BlockTypeWeekly:
		if b.DayOfWeek != nil && *b.DayOfWeek >= 0 && *b.DayOfWeek < len(weekdayNames) {
			return fmt.Sprintf("bookings are not available on %ss", weekdayNames[*b.DayOfWeek])
		}
	case BlockTypeHour:
		if b.Hour != nil {
			return fmt.Sprintf("bookings are not available at %02d:00", *b.Hour)
		}
	}
	return "this day is blocked for bookings"
}

func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// BlockedTimeRequest creates a blocking rule.
type BlockedTimeRequest struct {
	Type      BlockType `json:"block_type" validate:"required,oneof=day weekly hour"`
	StartDate string    `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string    `json:"end_date" validate:"required,datetime=2006-01-02"`
	Hour      *int      `json:"hour" validate:"omitempty,min=0,max=23"`
	DayOfWeek *int      `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	Reason    string    `json:"reason" validate:"max=255"`
}

// UpdateBlockedTimeRequest lists the fields an administrator may change on a rule.
type UpdateBlockedTimeRequest struct {
	Type      *BlockType `json:"block_type" validate:"omitempty,oneof=day weekly hour"`
	StartDate *string    `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string    `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Hour      *int       `json:"hour" validate:"omitempty,min=0,max=23"`
	DayOfWeek *int       `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	Reason    *string    `json:"reason" validate:"omitempty,max=255"`
	Active    *bool      `json:"is_active"`
}

// BlockedTimeFilter narrows blocked time listings to rules whose date range
// intersects [From, To]. Zero bounds are ignored.
type BlockedTimeFilter struct {
	From            time.Time
	To              time.Time
	IncludeInactive bool
}
