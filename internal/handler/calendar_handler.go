package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hall-booking-api/internal/middleware"
	"github.com/noah-isme/hall-booking-api/internal/models"
	"github.com/noah-isme/hall-booking-api/internal/service"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
	"github.com/noah-isme/hall-booking-api/pkg/response"
)

type calendarService interface {
	Day(ctx context.Context, hall string, date time.Time) (*models.CalendarDay, bool, error)
}

// CalendarHandler serves the hourly slot projection.
type CalendarHandler struct {
	service calendarService
	window  *service.BookingWindow
}

// NewCalendarHandler constructs a CalendarHandler.
func NewCalendarHandler(svc calendarService, window *service.BookingWindow) *CalendarHandler {
	return &CalendarHandler{service: svc, window: window}
}

// Day godoc
// @Summary Calendar day
// @Description Hourly slots of one day with booked/blocked status
// @Tags Calendar
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Param hall query string false "Hall"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) Day(c *gin.Context) {
	date := h.window.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := h.window.ParseDate(raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	day, hit, err := h.service.Day(c.Request.Context(), c.Query("hall"), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, day, nil, middleware.ExtractMeta(c))
}
