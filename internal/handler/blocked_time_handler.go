package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hall-booking-api/internal/models"
	"github.com/noah-isme/hall-booking-api/internal/service"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
	"github.com/noah-isme/hall-booking-api/pkg/response"
)

type blockedTimeService interface {
	List(ctx context.Context, filter models.BlockedTimeFilter) ([]models.BlockedTime, error)
	Create(ctx context.Context, principal models.Principal, req models.BlockedTimeRequest) (*models.BlockedTime, error)
	Update(ctx context.Context, principal models.Principal, id string, req models.UpdateBlockedTimeRequest) (*models.BlockedTime, error)
	Delete(ctx context.Context, principal models.Principal, id string) error
}

// BlockedTimeHandler manages blocking rules.
type BlockedTimeHandler struct {
	service blockedTimeService
	window  *service.BookingWindow
}

// NewBlockedTimeHandler constructs a BlockedTimeHandler.
func NewBlockedTimeHandler(svc blockedTimeService, window *service.BookingWindow) *BlockedTimeHandler {
	return &BlockedTimeHandler{service: svc, window: window}
}

// List godoc
// @Summary List blocked times
// @Tags Blocked Times
// @Produce json
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param include_inactive query bool false "Include disabled rules"
// @Success 200 {object} response.Envelope
// @Router /blocked-times [get]
func (h *BlockedTimeHandler) List(c *gin.Context) {
	var filter models.BlockedTimeFilter
	if raw := c.Query("from"); raw != "" {
		from, err := h.window.ParseDate(raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "from must be YYYY-MM-DD"))
			return
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := h.window.ParseDate(raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "to must be YYYY-MM-DD"))
			return
		}
		filter.To = to
	}
	if raw := c.Query("include_inactive"); raw != "" {
		if val, err := strconv.ParseBool(raw); err == nil {
			filter.IncludeInactive = val && principalFromContext(c).IsAdmin
		}
	}

	rules, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Create godoc
// @Summary Create blocked time
// @Tags Blocked Times
// @Accept json
// @Produce json
// @Param payload body models.BlockedTimeRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /blocked-times [post]
func (h *BlockedTimeHandler) Create(c *gin.Context) {
	var req models.BlockedTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid blocked time payload"))
		return
	}

	rule, err := h.service.Create(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Update godoc
// @Summary Update blocked time
// @Tags Blocked Times
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body models.UpdateBlockedTimeRequest true "Rule changes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /blocked-times/{id} [put]
func (h *BlockedTimeHandler) Update(c *gin.Context) {
	var req models.UpdateBlockedTimeRequest
	if err := decodeStrict(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	rule, err := h.service.Update(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Delete blocked time
// @Tags Blocked Times
// @Param id path string true "Rule ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /blocked-times/{id} [delete]
func (h *BlockedTimeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
