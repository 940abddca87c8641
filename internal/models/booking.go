package models

import "time"

// Interval is a half-open [Start, End) range of naive facility-local time.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the interval has a strictly positive length.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps reports whether the two intervals share any instant. Touching
// intervals such as [17:00,18:00) and [18:00,19:00) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Contains reports whether t lies within [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Booking represents a reservation of a hall.
type Booking struct {
	ID        string    `db:"id" json:"id"`
	Hall      string    `db:"hall" json:"hall"`
	Start     time.Time `db:"start_time" json:"start_time"`
	End       time.Time `db:"end_time" json:"end_time"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Interval returns the booked time range.
func (b *Booking) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// BookingDetail enriches a booking with its owner for listings and exports.
type BookingDetail struct {
	Booking
	OwnerEmail string `db:"owner_email" json:"owner_email"`
	OwnerName  string `db:"owner_name" json:"owner_name"`
}

// BookingFilter narrows booking listings. Zero values are ignored.
type BookingFilter struct {
	Hall      string
	From      time.Time
	To        time.Time
	CreatedBy string
}

// CreateBookingRequest is the admission input for a new booking.
type CreateBookingRequest struct {
	Hall  string
	Start time.Time
	End   time.Time
}

// UpdateBookingRequest moves an existing booking. An empty Hall keeps the current one.
type UpdateBookingRequest struct {
	Hall  string
	Start time.Time
	End   time.Time
}

// Booking event types published to the broker.
const (
	BookingEventCreated   = "booking.created"
	BookingEventUpdated   = "booking.updated"
	BookingEventCancelled = "booking.cancelled"
)

// BookingEvent is the payload published when a booking changes.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	Hall       string    `json:"hall"`
	Start      time.Time `json:"start_time"`
	End        time.Time `json:"end_time"`
	UserID     string    `json:"user_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
