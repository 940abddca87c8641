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

type subscriptionService interface {
	Plans(ctx context.Context) ([]models.SubscriptionPlan, error)
	Overview(ctx context.Context, userID string) (*models.SubscriptionOverview, error)
	Assign(ctx context.Context, principal models.Principal, userID string, req models.AssignSubscriptionRequest) (*models.UserSubscription, error)
	Cancel(ctx context.Context, principal models.Principal, userID string) error
}

// assignSubscriptionPayload accepts dates as YYYY-MM-DD or full timestamps.
// Both are handed to the service as facility wall-clock values.
type assignSubscriptionPayload struct {
	PlanCode     string  `json:"plan_code"`
	HoursPerWeek *int    `json:"hours_per_week"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	ExtendDays   *int    `json:"extend_days"`
	ExtendMonths *int    `json:"extend_months"`
}

// SubscriptionHandler exposes the plan catalog and subscription management.
type SubscriptionHandler struct {
	service subscriptionService
	window  *service.BookingWindow
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(svc subscriptionService, window *service.BookingWindow) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc, window: window}
}

// Plans godoc
// @Summary Subscription plans
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subscription-plans [get]
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	plans, err := h.service.Plans(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// Mine godoc
// @Summary My subscription
// @Description Current subscription and this week's quota usage
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/subscription [get]
func (h *SubscriptionHandler) Mine(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context(), principalFromContext(c).UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Assign godoc
// @Summary Assign subscription
// @Description Create the user's subscription or adjust the current one
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body assignSubscriptionPayload true "Subscription payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/subscription [put]
func (h *SubscriptionHandler) Assign(c *gin.Context) {
	var payload assignSubscriptionPayload
	if err := decodeStrict(c, &payload); err != nil {
		response.Error(c, err)
		return
	}

	req := models.AssignSubscriptionRequest{
		PlanCode:     payload.PlanCode,
		HoursPerWeek: payload.HoursPerWeek,
		ExtendDays:   payload.ExtendDays,
		ExtendMonths: payload.ExtendMonths,
	}
	var err error
	if req.StartDate, err = h.parseOptional(payload.StartDate, false); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid start_date"))
		return
	}
	if req.EndDate, err = h.parseOptional(payload.EndDate, true); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid end_date"))
		return
	}

	sub, err := h.service.Assign(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Cancel godoc
// @Summary Cancel subscription
// @Tags Admin
// @Param id path string true "User ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/subscription [delete]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// parseOptional accepts a date or a timestamp. A bare end date covers the
// whole day, so evening bookings on the last day stay within the subscription.
func (h *SubscriptionHandler) parseOptional(raw *string, endOfDay bool) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if day, err := h.window.ParseDate(*raw); err == nil {
		if endOfDay {
			day = day.Add(24*time.Hour - time.Second)
		}
		return &day, nil
	}
	t, err := h.window.ParseTime(*raw)
	if err != nil {
		return nil, err
	}
	naive := h.window.Normalize(t)
	return &naive, nil
}
