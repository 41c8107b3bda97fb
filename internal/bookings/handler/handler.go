// Package handler provides HTTP handlers for bookings.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homeserve_backend/internal/bookings/service"
	"homeserve_backend/internal/bookings/transport"
	"homeserve_backend/platform/apperr"
	"homeserve_backend/platform/httpkit"
	"homeserve_backend/platform/logger"
	"homeserve_backend/platform/validator"
)

// Handler serves booking endpoints.
type Handler struct {
	service   *service.Service
	validator *validator.Validator
	log       *logger.Logger
}

// New creates a bookings handler.
func New(svc *service.Service, v *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{service: svc, validator: v, log: log}
}

// Create handles POST /bookings.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, resp)
}

// Get handles GET /bookings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid booking id"))
		return
	}

	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, resp)
}

// List handles GET /bookings.
func (h *Handler) List(c *gin.Context) {
	var query transport.ListBookingsQuery
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

// Confirm handles POST /bookings/:id/confirm.
func (h *Handler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid booking id"))
		return
	}

	var req transport.ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}

	resp, err := h.service.Confirm(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, resp)
}
