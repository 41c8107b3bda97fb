// Package transport defines request and response DTOs for the leads module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateManualLeadRequest is the payload for an admin-entered lead that
// is pre-bound to a partner and bypasses bidding.
type CreateManualLeadRequest struct {
	PartnerID   uuid.UUID `json:"partnerId" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Service     string    `json:"service"`
	SubService  string    `json:"subService"`
	City        string    `json:"city" validate:"required"`
	Address     string    `json:"address"`
	Landmark    string    `json:"landmark"`
	Pincode     string    `json:"pincode" validate:"omitempty,len=6,numeric"`
	ValueCents  int64     `json:"valueCents" validate:"required,gte=0"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	Description string    `json:"description"`
}

// ServiceEnquiryRequest is the public enquiry form payload.
type ServiceEnquiryRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=120"`
	Phone           string `json:"phone" validate:"required"`
	Email           string `json:"email" validate:"omitempty,email"`
	Category        string `json:"category" validate:"required"`
	Service         string `json:"service"`
	SubService      string `json:"subService"`
	City            string `json:"city" validate:"required"`
	Address         string `json:"address"`
	Landmark        string `json:"landmark"`
	Pincode         string `json:"pincode" validate:"omitempty,len=6,numeric"`
	EstimatedBudget int64  `json:"estimatedBudgetCents"`
	Description     string `json:"description"`
}

// EnquiryResponse acknowledges a submitted enquiry. LeadRef is generated
// before persistence so the caller always gets a usable reference.
type EnquiryResponse struct {
	LeadID    uuid.UUID `json:"leadId"`
	LeadRef   string    `json:"leadRef"`
	BookingID uuid.UUID `json:"bookingId"`
}

// SubmitBidRequest is a partner's offer against a lead.
type SubmitBidRequest struct {
	PartnerID   uuid.UUID `json:"partnerId" validate:"required"`
	AmountCents int64     `json:"amountCents" validate:"required,gt=0"`
	ETADays     *int      `json:"etaDays" validate:"omitempty,gte=0"`
	Score       *float64  `json:"score" validate:"omitempty,gte=0"`
}

// UpdateLeadStatusRequest is an administrative status transition.
type UpdateLeadStatusRequest struct {
	Status            string     `json:"status" validate:"required"`
	AssignedPartnerID *uuid.UUID `json:"assignedPartnerId"`
}

// ListLeadsQuery holds the query parameters for listing leads.
type ListLeadsQuery struct {
	Status             string     `form:"status"`
	City               string     `form:"city"`
	AllocationStrategy string     `form:"allocationStrategy"`
	PartnerID          *uuid.UUID `form:"partnerId"`
	From               *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To                 *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit              int        `form:"limit"`
	Offset             int        `form:"offset"`
}

// SyncResult reports the outcome of a bulk booking-to-lead sync.
type SyncResult struct {
	Created int         `json:"created"`
	Skipped int         `json:"skipped"`
	Errors  []SyncError `json:"errors"`
}

// SyncError is one failed item in a bulk sync.
type SyncError struct {
	BookingID uuid.UUID `json:"bookingId"`
	Message   string    `json:"message"`
}

// BidResponse is the public representation of a bid.
type BidResponse struct {
	ID          uuid.UUID `json:"id"`
	LeadID      uuid.UUID `json:"leadId"`
	PartnerID   uuid.UUID `json:"partnerId"`
	AmountCents int64     `json:"amountCents"`
	ETADays     *int      `json:"etaDays,omitempty"`
	Score       *float64  `json:"score,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LeadResponse is the public representation of a lead with its bids.
type LeadResponse struct {
	ID                 uuid.UUID     `json:"id"`
	LeadRef            string        `json:"leadRef"`
	BookingID          *uuid.UUID    `json:"bookingId,omitempty"`
	UserID             *uuid.UUID    `json:"userId,omitempty"`
	Category           string        `json:"category"`
	Service            string        `json:"service,omitempty"`
	SubService         string        `json:"subService,omitempty"`
	City               string        `json:"city"`
	Address            string        `json:"address,omitempty"`
	Landmark           string        `json:"landmark,omitempty"`
	Pincode            string        `json:"pincode,omitempty"`
	ValueCents         int64         `json:"valueCents"`
	AllocationStrategy string        `json:"allocationStrategy"`
	Priority           string        `json:"priority"`
	Status             string        `json:"status"`
	AssignedPartnerID  *uuid.UUID    `json:"assignedPartnerId,omitempty"`
	AcceptedBidID      *uuid.UUID    `json:"acceptedBidId,omitempty"`
	AllocationTime     *time.Time    `json:"allocationTime,omitempty"`
	ConvertedAt        *time.Time    `json:"convertedAt,omitempty"`
	ExpiryTime         time.Time     `json:"expiryTime"`
	Source             string        `json:"source"`
	ContactName        string        `json:"contactName,omitempty"`
	ContactPhone       string        `json:"contactPhone,omitempty"`
	ContactEmail       string        `json:"contactEmail,omitempty"`
	Description        string        `json:"description,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
	Bids               []BidResponse `json:"bids"`
}

// AnalyticsResponse is the lead funnel rollup.
type AnalyticsResponse struct {
	TotalLeads           int64            `json:"totalLeads"`
	ActiveLeads          int64            `json:"activeLeads"`
	ConvertedLeads       int64            `json:"convertedLeads"`
	ExpiredLeads         int64            `json:"expiredLeads"`
	CancelledLeads       int64            `json:"cancelledLeads"`
	ConversionRate       float64          `json:"conversionRate"`
	AvgAllocationSeconds float64          `json:"avgAllocationSeconds"`
	LeadsWithBids        int64            `json:"leadsWithBids"`
	BidParticipationRate float64          `json:"bidParticipationRate"`
	TotalBids            int64            `json:"totalBids"`
	CityCount            int64            `json:"cityCount"`
	StatusCounts         map[string]int64 `json:"statusCounts"`
}
