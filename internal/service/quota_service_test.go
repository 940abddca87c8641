package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hall-booking-api/internal/models"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
)

func TestQuotaUsageRoundsToTwoDecimals(t *testing.T) {
	repo := newFakeBookingRepo()
	repo.seed(
		models.Booking{ID: "a", Hall: "main", Start: at(2025, 6, 2, 17, 0), End: at(2025, 6, 2, 17, 20), CreatedBy: "u1"},
		models.Booking{ID: "b", Hall: "main", Start: at(2025, 5, 30, 17, 0), End: at(2025, 5, 30, 19, 0), CreatedBy: "u1"},
	)
	svc := NewQuotaService(newFakeSubscriptionRepo(), repo, zap.NewNop())

	usage, err := svc.Usage(context.Background(), "u1", 2, at(2025, 6, 4, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.33, usage.HoursUsed)
	assert.Equal(t, 1.67, usage.HoursRemaining)
	assert.Equal(t, at(2025, 6, 2, 0, 0), usage.WeekStart)
}

func TestQuotaCheckExcludesBooking(t *testing.T) {
	repo := newFakeBookingRepo()
	repo.seed(models.Booking{ID: "a", Hall: "main", Start: at(2025, 6, 2, 17, 0), End: at(2025, 6, 2, 19, 0), CreatedBy: "u1"})
	subs := newFakeSubscriptionRepo()
	subs.give("u1", 2, at(2025, 5, 1, 0, 0), at(2025, 7, 1, 0, 0))
	svc := NewQuotaService(subs, repo, zap.NewNop())
	interval := models.Interval{Start: at(2025, 6, 3, 17, 0), End: at(2025, 6, 3, 19, 0)}

	assert.True(t, appErrors.IsCode(svc.Check(context.Background(), "u1", interval, ""), appErrors.ErrQuotaExceeded.Code))
	assert.NoError(t, svc.Check(context.Background(), "u1", interval, "a"))
}

func TestQuotaCheckSubscriptionFailure(t *testing.T) {
	subs := newFakeSubscriptionRepo()
	subs.err = errors.New("db down")
	svc := NewQuotaService(subs, newFakeBookingRepo(), zap.NewNop())

	err := svc.Check(context.Background(), "u1", models.Interval{Start: at(2025, 6, 3, 17, 0), End: at(2025, 6, 3, 18, 0)}, "")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInternal.Code))
}
