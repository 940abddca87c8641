package models

import "time"

// SlotStatus describes the display state of a calendar slot.
type SlotStatus string

const (
	SlotEmpty   SlotStatus = "empty"
	SlotBooked  SlotStatus = "booked"
	SlotBlocked SlotStatus = "blocked"
)

// CalendarSlot is one hourly cell of the day view. It is derived on every read.
type CalendarSlot struct {
	Hour       int        `json:"hour"`
	Start      time.Time  `json:"start_time"`
	End        time.Time  `json:"end_time"`
	Status     SlotStatus `json:"status"`
	Booked     bool       `json:"booked"`
	Blocked    bool       `json:"blocked"`
	BookingIDs []string   `json:"booking_ids"`
	Reason     string     `json:"reason,omitempty"`
}

// CalendarDay is the slot projection for one hall and date.
type CalendarDay struct {
	Date  string         `json:"date"`
	Hall  string         `json:"hall"`
	Slots []CalendarSlot `json:"slots"`
}
