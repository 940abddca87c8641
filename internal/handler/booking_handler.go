package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hall-booking-api/internal/models"
	"github.com/noah-isme/hall-booking-api/internal/service"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
	"github.com/noah-isme/hall-booking-api/pkg/response"
)

type bookingService interface {
	Create(ctx context.Context, principal models.Principal, req models.CreateBookingRequest) (*models.Booking, error)
	Update(ctx context.Context, principal models.Principal, id string, req models.UpdateBookingRequest) (*models.Booking, error)
	Delete(ctx context.Context, principal models.Principal, id string) error
	Get(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, principal models.Principal, filter models.BookingFilter) ([]models.BookingDetail, error)
	ListUpcoming(ctx context.Context, principal models.Principal) ([]models.BookingDetail, error)
}

type bookingExporter interface {
	Bookings(ctx context.Context, filter models.BookingFilter, format string) (*service.ExportFile, error)
}

// bookingPayload carries wall-clock strings; the window decides how to read them.
type bookingPayload struct {
	Hall      string `json:"hall"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// BookingHandler exposes booking endpoints.
type BookingHandler struct {
	service  bookingService
	exporter bookingExporter
	window   *service.BookingWindow
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc bookingService, exporter bookingExporter, window *service.BookingWindow) *BookingHandler {
	return &BookingHandler{service: svc, exporter: exporter, window: window}
}

// Create godoc
// @Summary Create booking
// @Description Book the hall for an interval inside the opening window
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body bookingPayload true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var payload bookingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	start, end, err := h.parseInterval(payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	booking, err := h.service.Create(c.Request.Context(), principalFromContext(c), models.CreateBookingRequest{Hall: payload.Hall, Start: start, End: end})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, booking)
}

// List godoc
// @Summary List bookings
// @Description List bookings overlapping a time range
// @Tags Bookings
// @Produce json
// @Param from query string false "Range start"
// @Param to query string false "Range end"
// @Param hall query string false "Hall"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	filter, err := h.rangeFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	bookings, err := h.service.List(c.Request.Context(), principalFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, bookings, nil)
}

// Mine godoc
// @Summary My upcoming bookings
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/bookings [get]
func (h *BookingHandler) Mine(c *gin.Context) {
	bookings, err := h.service.ListUpcoming(c.Request.Context(), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// Get godoc
// @Summary Get booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Update godoc
// @Summary Move booking
// @Description Administrators move a booking; the booking does not conflict with itself
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body bookingPayload true "Booking payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /bookings/{id} [put]
func (h *BookingHandler) Update(c *gin.Context) {
	var payload bookingPayload
	if err := decodeStrict(c, &payload); err != nil {
		response.Error(c, err)
		return
	}
	start, end, err := h.parseInterval(payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	booking, err := h.service.Update(c.Request.Context(), principalFromContext(c), c.Param("id"), models.UpdateBookingRequest{Hall: payload.Hall, Start: start, End: end})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, booking, nil)
}

// Delete godoc
// @Summary Cancel booking
// @Description Administrators cancel any booking; members cancel their own future bookings
// @Tags Bookings
// @Param id path string true "Booking ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export bookings
// @Description Download bookings in a range as CSV or PDF
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param from query string true "Range start"
// @Param to query string true "Range end"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/bookings/export [get]
func (h *BookingHandler) Export(c *gin.Context) {
	filter, err := h.rangeFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.exporter.Bookings(c.Request.Context(), filter, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func (h *BookingHandler) parseInterval(payload bookingPayload) (time.Time, time.Time, error) {
	if payload.StartTime == "" || payload.EndTime == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_time and end_time are required")
	}
	start, err := h.window.ParseTime(payload.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid start_time")
	}
	end, err := h.window.ParseTime(payload.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid end_time")
	}
	return start, end, nil
}

// rangeFilter reads from/to as timestamps or plain dates. A plain "to" date is inclusive.
func (h *BookingHandler) rangeFilter(c *gin.Context) (models.BookingFilter, error) {
	filter := models.BookingFilter{Hall: c.Query("hall")}
	if raw := c.Query("from"); raw != "" {
		from, err := h.parseBound(raw, false)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid from")
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := h.parseBound(raw, true)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid to")
		}
		filter.To = to
	}
	return filter, nil
}

func (h *BookingHandler) parseBound(raw string, upper bool) (time.Time, error) {
	if day, err := h.window.ParseDate(raw); err == nil {
		if upper {
			return day.AddDate(0, 0, 1), nil
		}
		return day, nil
	}
	t, err := h.window.ParseTime(raw)
	if err != nil {
		return time.Time{}, err
	}
	return h.window.Normalize(t), nil
}
