package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/hall-booking-api/internal/models"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
)

// Naive facility-local times are carried as time.Time values in time.UTC whose
// wall clock reads the local time. Every value entering the booking core is
// projected into that representation before it is compared with anything.

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// BookingWindow normalises request times and enforces the daily opening window.
type BookingWindow struct {
	loc         *time.Location
	openingHour int
	closingHour int
	now         func() time.Time
}

// NewBookingWindow builds a window for the facility timezone. Closing hour 24 means midnight.
func NewBookingWindow(loc *time.Location, openingHour, closingHour int) *BookingWindow {
	if loc == nil {
		loc = time.Local
	}
	return &BookingWindow{loc: loc, openingHour: openingHour, closingHour: closingHour, now: time.Now}
}

// Location returns the facility timezone.
func (w *BookingWindow) Location() *time.Location {
	return w.loc
}

// OpeningHour returns the first bookable hour.
func (w *BookingWindow) OpeningHour() int {
	return w.openingHour
}

// ClosingHour returns the hour at which the facility closes.
func (w *BookingWindow) ClosingHour() int {
	return w.closingHour
}

// Normalize projects t through the facility offset and drops the offset tag.
func (w *BookingWindow) Normalize(t time.Time) time.Time {
	local := t.In(w.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC)
}

// Now returns the current naive facility-local time.
func (w *BookingWindow) Now() time.Time {
	return w.Normalize(w.now())
}

// ParseTime reads an RFC 3339 timestamp or an offset-less facility wall-clock
// timestamp and returns the instant it denotes. Pass the result through
// Normalize before comparing it with stored values.
func (w *BookingWindow) ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, w.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", raw)
}

// ParseDate parses a YYYY-MM-DD calendar date as naive midnight.
func (w *BookingWindow) ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), time.UTC)
}

// DayBounds returns the opening window [open, close) for the date of t.
func (w *BookingWindow) DayBounds(t time.Time) models.Interval {
	day := startOfDay(t)
	return models.Interval{
		Start: day.Add(time.Duration(w.openingHour) * time.Hour),
		End:   day.Add(time.Duration(w.closingHour) * time.Hour),
	}
}

// Validate checks ordering, the opening window and that the interval is not in the past.
// The interval must already be normalised.
func (w *BookingWindow) Validate(interval models.Interval) error {
	if !interval.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	bounds := w.DayBounds(interval.Start)
	if interval.Start.Before(bounds.Start) || interval.End.After(bounds.End) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("bookings must be between %02d:00 and %02d:00", w.openingHour, w.closingHour))
	}
	if interval.Start.Before(w.Now()) {
		return appErrors.Clone(appErrors.ErrValidation, "bookings cannot start in the past")
	}
	return nil
}

// WeekBounds returns the ISO week [Monday 00:00, next Monday 00:00) containing t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	start := startOfDay(t).AddDate(0, 0, -models.Weekday(t))
	return start, start.AddDate(0, 0, 7)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
