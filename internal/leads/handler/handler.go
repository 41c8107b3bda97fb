// Package handler provides HTTP handlers for the lead lifecycle.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homeserve_backend/internal/leads/service"
	"homeserve_backend/internal/leads/transport"
	"homeserve_backend/platform/apperr"
	"homeserve_backend/platform/httpkit"
	"homeserve_backend/platform/logger"
	"homeserve_backend/platform/validator"
)

// Handler serves the operator-facing lead endpoints.
type Handler struct {
	service   *service.Service
	validator *validator.Validator
	log       *logger.Logger
}

// New creates a leads handler.
func New(svc *service.Service, v *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{service: svc, validator: v, log: log}
}

// CreateFromBooking handles POST /leads/from-booking/:bookingId.
func (h *Handler) CreateFromBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid booking id"))
		return
	}

	resp, err := h.service.CreateFromBooking(c.Request.Context(), bookingID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, resp)
}

// CreateManual handles POST /leads.
func (h *Handler) CreateManual(c *gin.Context) {
	var req transport.CreateManualLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	resp, err := h.service.CreateManual(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, resp)
}

// SyncBookings handles POST /leads/sync-bookings.
func (h *Handler) SyncBookings(c *gin.Context) {
	resp, err := h.service.SyncBookings(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, resp)
}

// List handles GET /leads.
func (h *Handler) List(c *gin.Context) {
	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid query parameters"))
		return
	}

	resp, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, resp)
}

// Get handles GET /leads/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid lead id"))
		return
	}

	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, resp)
}

// SubmitBid handles POST /leads/:id/bids.
func (h *Handler) SubmitBid(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid lead id"))
		return
	}

	var req transport.SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	resp, err := h.service.SubmitBid(c.Request.Context(), leadID, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, resp)
}

// AcceptBid handles POST /leads/:id/bids/:bidId/accept.
func (h *Handler) AcceptBid(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid lead id"))
		return
	}
	bidID, err := uuid.Parse(c.Param("bidId"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid bid id"))
		return
	}

	resp, err := h.service.AcceptBid(c.Request.Context(), leadID, bidID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, resp)
}

// UpdateStatus handles PATCH /leads/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid lead id"))
		return
	}

	var req transport.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	resp, err := h.service.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, resp)
}

// Delete handles DELETE /leads/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid lead id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Analytics handles GET /leads/analytics.
func (h *Handler) Analytics(c *gin.Context) {
	resp, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, resp)
}
