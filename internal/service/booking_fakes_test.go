package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/hall-booking-api/internal/models"
	"github.com/noah-isme/hall-booking-api/internal/repository"
)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

// fakeBookingRepo mimics the database, including the exclusion constraint.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	owners   map[string]string
	err      error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[string]models.Booking{}, owners: map[string]string{}}
}

func (f *fakeBookingRepo) seed(bookings ...models.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range bookings {
		f.bookings[b.ID] = b
	}
}

func (f *fakeBookingRepo) sorted() []models.Booking {
	out := make([]models.Booking, 0, len(f.bookings))
	for _, b := range f.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (f *fakeBookingRepo) FindOverlaps(ctx context.Context, hall string, start, end time.Time, excludeID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	candidate := models.Interval{Start: start, End: end}
	var out []models.Booking
	for _, b := range f.sorted() {
		if b.Hall == hall && b.ID != excludeID && b.Interval().Overlaps(candidate) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.BookingDetail
	for _, b := range f.sorted() {
		if filter.Hall != "" && b.Hall != filter.Hall {
			continue
		}
		if filter.CreatedBy != "" && b.CreatedBy != filter.CreatedBy {
			continue
		}
		if !filter.To.IsZero() && !b.Start.Before(filter.To) {
			continue
		}
		if !filter.From.IsZero() && !b.End.After(filter.From) {
			continue
		}
		out = append(out, models.BookingDetail{Booking: b, OwnerEmail: b.CreatedBy + "@example.com", OwnerName: f.owners[b.CreatedBy]})
	}
	return out, nil
}

func (f *fakeBookingRepo) ListByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	window := models.Interval{Start: start, End: end}
	var out []models.Booking
	for _, b := range f.sorted() {
		if b.CreatedBy == userID && b.Interval().Overlaps(window) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) conflictLocked(b models.Booking) bool {
	for _, other := range f.bookings {
		if other.ID != b.ID && other.Hall == b.Hall && other.Interval().Overlaps(b.Interval()) {
			return true
		}
	}
	return false
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if f.conflictLocked(*booking) {
		return repository.ErrBookingConflict
	}
	booking.CreatedAt = time.Now().UTC()
	booking.UpdatedAt = booking.CreatedAt
	f.bookings[booking.ID] = *booking
	return nil
}

func (f *fakeBookingRepo) Update(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.bookings[booking.ID]; !ok {
		return sql.ErrNoRows
	}
	if f.conflictLocked(*booking) {
		return repository.ErrBookingConflict
	}
	booking.UpdatedAt = time.Now().UTC()
	f.bookings[booking.ID] = *booking
	return nil
}

func (f *fakeBookingRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.bookings[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.bookings, id)
	return nil
}

type fakeBlockedRepo struct {
	rules []models.BlockedTime
	err   error
}

func (f *fakeBlockedRepo) List(ctx context.Context, filter models.BlockedTimeFilter) ([]models.BlockedTime, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.BlockedTime
	for _, r := range f.rules {
		if !filter.IncludeInactive && !r.Active {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeSubscriptionRepo struct {
	plans  map[string]models.SubscriptionPlan
	subs   map[string]*models.UserSubscription
	err    error
	writes int
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{
		plans: map[string]models.SubscriptionPlan{
			"monthly":   {Code: "monthly", Name: "Monthly", DurationMonths: 1, DefaultHoursPerWeek: 2, Active: true},
			"quarterly": {Code: "quarterly", Name: "Quarterly", DurationMonths: 3, DefaultHoursPerWeek: 2, Active: true},
		},
		subs: map[string]*models.UserSubscription{},
	}
}

func (f *fakeSubscriptionRepo) ListPlans(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error) {
	var out []models.SubscriptionPlan
	for _, p := range f.plans {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DurationMonths < out[j].DurationMonths })
	return out, nil
}

func (f *fakeSubscriptionRepo) FindPlan(ctx context.Context, code string) (*models.SubscriptionPlan, error) {
	p, ok := f.plans[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (f *fakeSubscriptionRepo) FindActiveAt(ctx context.Context, userID string, t time.Time) (*models.UserSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subs[userID]
	if !ok || !sub.CoversMoment(t) {
		return nil, sql.ErrNoRows
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeSubscriptionRepo) FindCurrent(ctx context.Context, userID string) (*models.UserSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subs[userID]
	if !ok || !sub.Active {
		return nil, sql.ErrNoRows
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeSubscriptionRepo) Create(ctx context.Context, sub *models.UserSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	f.writes++
	cp := *sub
	f.subs[sub.UserID] = &cp
	return nil
}

func (f *fakeSubscriptionRepo) Update(ctx context.Context, sub *models.UserSubscription) error {
	f.writes++
	cp := *sub
	f.subs[sub.UserID] = &cp
	return nil
}

func (f *fakeSubscriptionRepo) Deactivate(ctx context.Context, userID string) (int64, error) {
	sub, ok := f.subs[userID]
	if !ok || !sub.Active {
		return 0, nil
	}
	sub.Active = false
	return 1, nil
}

func (f *fakeSubscriptionRepo) give(userID string, hours int, start, end time.Time) {
	f.subs[userID] = &models.UserSubscription{ID: "sub-" + userID, UserID: userID, PlanCode: "monthly", StartDate: start, EndDate: end, HoursPerWeek: hours, Active: true}
}

func (f *fakeBlockedRepo) FindByID(ctx context.Context, id string) (*models.BlockedTime, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			cp := f.rules[i]
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeBlockedRepo) Create(ctx context.Context, rule *models.BlockedTime) error {
	if f.err != nil {
		return f.err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeBlockedRepo) Update(ctx context.Context, rule *models.BlockedTime) error {
	for i := range f.rules {
		if f.rules[i].ID == rule.ID {
			f.rules[i] = *rule
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeBlockedRepo) Delete(ctx context.Context, id string) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}
