// Package transport defines request and response DTOs for the partners module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreatePartnerRequest is the payload for registering a partner.
type CreatePartnerRequest struct {
	BusinessName    string   `json:"businessName" validate:"required,min=2,max=200"`
	Phone           string   `json:"phone" validate:"required"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Categories      []string `json:"categories" validate:"required,min=1,dive,required"`
	ServicePincodes []string `json:"servicePincodes" validate:"required,min=1,dive,len=6,numeric"`
}

// UpdatePartnerRequest is the payload for updating a partner. All fields
// are optional.
type UpdatePartnerRequest struct {
	BusinessName    *string  `json:"businessName" validate:"omitempty,min=2,max=200"`
	Email           *string  `json:"email" validate:"omitempty,email"`
	Active          *bool    `json:"active"`
	Approved        *bool    `json:"approved"`
	Categories      []string `json:"categories" validate:"omitempty,min=1,dive,required"`
	ServicePincodes []string `json:"servicePincodes" validate:"omitempty,min=1,dive,len=6,numeric"`
}

// ListPartnersQuery holds the query parameters for listing partners.
type ListPartnersQuery struct {
	Active   *bool  `form:"active"`
	Approved *bool  `form:"approved"`
	Category string `form:"category"`
	Pincode  string `form:"pincode"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// PartnerResponse is the public representation of a partner.
type PartnerResponse struct {
	ID              uuid.UUID `json:"id"`
	BusinessName    string    `json:"businessName"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	Active          bool      `json:"active"`
	Approved        bool      `json:"approved"`
	Categories      []string  `json:"categories"`
	ServicePincodes []string  `json:"servicePincodes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
