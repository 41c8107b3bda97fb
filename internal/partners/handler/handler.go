// Package handler provides HTTP handlers for partner management.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homeserve_backend/internal/partners/service"
	"homeserve_backend/internal/partners/transport"
	"homeserve_backend/platform/apperr"
	"homeserve_backend/platform/httpkit"
	"homeserve_backend/platform/logger"
	"homeserve_backend/platform/validator"
)

// Handler serves partner management endpoints.
type Handler struct {
	service   *service.Service
	validator *validator.Validator
	log       *logger.Logger
}

// New creates a partners handler.
func New(svc *service.Service, v *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{service: svc, validator: v, log: log}
}

// Create handles POST /partners.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreatePartnerRequest
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

	httpkit.JSON(c, 201, resp)
}

// Get handles GET /partners/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, resp)
}

// List handles GET /partners.
func (h *Handler) List(c *gin.Context) {
	var query transport.ListPartnersQuery
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

// Update handles PATCH /partners/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	var req transport.UpdatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, resp)
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("invalid " + name)
	}
	return id, nil
}
