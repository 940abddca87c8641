package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-booking-api/internal/middleware"
	"github.com/noah-isme/hall-booking-api/internal/models"
)

type blockedTimeServiceMock struct {
	filter    models.BlockedTimeFilter
	updated   bool
	deletedID string
}

func (m *blockedTimeServiceMock) List(ctx context.Context, filter models.BlockedTimeFilter) ([]models.BlockedTime, error) {
	m.filter = filter
	return []models.BlockedTime{{ID: "r1", Type: models.BlockTypeDay}}, nil
}

func (m *blockedTimeServiceMock) Create(ctx context.Context, principal models.Principal, req models.BlockedTimeRequest) (*models.BlockedTime, error) {
	return &models.BlockedTime{ID: "r2", Type: req.Type}, nil
}

func (m *blockedTimeServiceMock) Update(ctx context.Context, principal models.Principal, id string, req models.UpdateBlockedTimeRequest) (*models.BlockedTime, error) {
	m.updated = true
	return &models.BlockedTime{ID: id}, nil
}

func (m *blockedTimeServiceMock) Delete(ctx context.Context, principal models.Principal, id string) error {
	m.deletedID = id
	return nil
}

func TestBlockedTimeHandlerListParsesDates(t *testing.T) {
	svc := &blockedTimeServiceMock{}
	h := NewBlockedTimeHandler(svc, osloWindow(t))

	c, w := newTestContext(http.MethodGet, "/blocked-times?from=2025-06-01&to=2025-06-30&include_inactive=true", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), svc.filter.From)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), svc.filter.To)
	assert.False(t, svc.filter.IncludeInactive, "members never see disabled rules")
}

func TestBlockedTimeHandlerListInactiveForAdmin(t *testing.T) {
	svc := &blockedTimeServiceMock{}
	h := NewBlockedTimeHandler(svc, osloWindow(t))

	c, w := newTestContext(http.MethodGet, "/blocked-times?include_inactive=true", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin})
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.filter.IncludeInactive)
}

func TestBlockedTimeHandlerListRejectsBadDate(t *testing.T) {
	h := NewBlockedTimeHandler(&blockedTimeServiceMock{}, osloWindow(t))
	c, w := newTestContext(http.MethodGet, "/blocked-times?from=June", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlockedTimeHandlerUpdateRejectsUnknownFields(t *testing.T) {
	svc := &blockedTimeServiceMock{}
	h := NewBlockedTimeHandler(svc, osloWindow(t))

	c, w := newTestContext(http.MethodPut, "/blocked-times/r1", []byte(`{"reason":"cleaning","created_at":"2020-01-01"}`))
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	h.Update(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, svc.updated)
}

func TestBlockedTimeHandlerDelete(t *testing.T) {
	svc := &blockedTimeServiceMock{}
	h := NewBlockedTimeHandler(svc, osloWindow(t))

	c, _ := newTestContext(http.MethodDelete, "/blocked-times/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	h.Delete(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "r1", svc.deletedID)
}
