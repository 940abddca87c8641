package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-booking-api/internal/middleware"
	"github.com/noah-isme/hall-booking-api/internal/models"
)

type calendarServiceMock struct {
	hall string
	date time.Time
	hit  bool
}

func (m *calendarServiceMock) Day(ctx context.Context, hall string, date time.Time) (*models.CalendarDay, bool, error) {
	m.hall = hall
	m.date = date
	return &models.CalendarDay{Date: date.Format("2006-01-02"), Hall: "main", Slots: []models.CalendarSlot{{Hour: 17, Status: models.SlotEmpty}}}, m.hit, nil
}

func TestCalendarHandlerDay(t *testing.T) {
	svc := &calendarServiceMock{hit: true}
	h := NewCalendarHandler(svc, osloWindow(t))

	c, w := newTestContext(http.MethodGet, "/calendar?date=2025-06-02", nil)
	middleware.WithResponseMeta()(c)
	h.Day(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), svc.date)

	var envelope struct {
		Data models.CalendarDay     `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "2025-06-02", envelope.Data.Date)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestCalendarHandlerRejectsBadDate(t *testing.T) {
	h := NewCalendarHandler(&calendarServiceMock{}, osloWindow(t))
	c, w := newTestContext(http.MethodGet, "/calendar?date=02.06.2025", nil)
	h.Day(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
