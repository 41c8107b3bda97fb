// Package transport defines request and response DTOs for the bookings module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateBookingRequest is the payload for creating a booking.
type CreateBookingRequest struct {
	UserID      *uuid.UUID `json:"userId"`
	Category    string     `json:"category" validate:"required"`
	Service     string     `json:"service" validate:"required"`
	SubService  string     `json:"subService"`
	Address     string     `json:"address" validate:"required"`
	Landmark    string     `json:"landmark"`
	Pincode     string     `json:"pincode" validate:"required,len=6,numeric"`
	City        string     `json:"city"`
	AmountCents int64      `json:"amountCents" validate:"gte=0"`
}

// ListBookingsQuery holds the query parameters for listing bookings.
type ListBookingsQuery struct {
	UserID    *uuid.UUID `form:"userId"`
	PartnerID *uuid.UUID `form:"partnerId"`
	Status    string     `form:"status"`
	Limit     int        `form:"limit"`
	Offset    int        `form:"offset"`
}

// ConfirmBookingRequest is the payload for confirming a booking after payment.
type ConfirmBookingRequest struct {
	Paid bool `json:"paid"`
}

// BookingResponse is the public representation of a booking.
type BookingResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      *uuid.UUID `json:"userId,omitempty"`
	PartnerID   *uuid.UUID `json:"partnerId,omitempty"`
	Category    string     `json:"category"`
	Service     string     `json:"service"`
	SubService  string     `json:"subService,omitempty"`
	Address     string     `json:"address"`
	Landmark    string     `json:"landmark,omitempty"`
	Pincode     string     `json:"pincode"`
	City        string     `json:"city,omitempty"`
	AmountCents int64      `json:"amountCents"`
	Status      string     `json:"status"`
	Paid        bool       `json:"paid"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
