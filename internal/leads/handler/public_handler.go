package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homeserve_backend/internal/leads/service"
	"homeserve_backend/internal/leads/transport"
	"homeserve_backend/platform/apperr"
	"homeserve_backend/platform/httpkit"
	"homeserve_backend/platform/validator"
)

// PublicHandler serves the unauthenticated customer enquiry endpoint.
type PublicHandler struct {
	service   *service.Service
	validator *validator.Validator
}

// NewPublic creates the public enquiry handler.
func NewPublic(svc *service.Service, v *validator.Validator) *PublicHandler {
	return &PublicHandler{service: svc, validator: v}
}

// SubmitEnquiry handles POST /enquiries.
func (h *PublicHandler) SubmitEnquiry(c *gin.Context) {
	var req transport.ServiceEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	resp, err := h.service.SubmitEnquiry(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, resp)
}
