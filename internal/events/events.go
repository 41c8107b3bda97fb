// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"homeserve_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created, whatever the source.
type LeadCreated struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	LeadRef   string     `json:"leadRef"`
	BookingID *uuid.UUID `json:"bookingId,omitempty"`
	Category  string     `json:"category"`
	City      string     `json:"city"`
	Source    string     `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStatusChanged is published on every lead state transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	LeadRef   string    `json:"leadRef"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// BidSubmitted is published when a partner places a bid on an open lead.
type BidSubmitted struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	BidID       uuid.UUID `json:"bidId"`
	PartnerID   uuid.UUID `json:"partnerId"`
	AmountCents int64     `json:"amountCents"`
}

func (e BidSubmitted) EventName() string { return "leads.bid.submitted" }

// BidAccepted is published when a bid wins and the lead is assigned.
// The bookings module binds the winning partner back to the originating
// booking when it receives this event.
type BidAccepted struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	BidID     uuid.UUID  `json:"bidId"`
	PartnerID uuid.UUID  `json:"partnerId"`
	BookingID *uuid.UUID `json:"bookingId,omitempty"`
}

func (e BidAccepted) EventName() string { return "leads.bid.accepted" }

// LeadExpired is published by the expiry sweep for each lead it closes.
type LeadExpired struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	LeadRef string    `json:"leadRef"`
}

func (e LeadExpired) EventName() string { return "leads.lead.expired" }

// =============================================================================
// Bookings Domain Events
// =============================================================================

// BookingAutoAssigned is published when rule-based allocation binds a
// partner to a confirmed booking.
type BookingAutoAssigned struct {
	BaseEvent
	BookingID uuid.UUID `json:"bookingId"`
	PartnerID uuid.UUID `json:"partnerId"`
	Pincode   string    `json:"pincode"`
}

func (e BookingAutoAssigned) EventName() string { return "bookings.booking.auto_assigned" }

// =============================================================================
// Partners Domain Events
// =============================================================================

// PartnerChanged is published when a partner record is created or updated.
// The eligibility cache invalidates affected pincodes on this event.
type PartnerChanged struct {
	BaseEvent
	PartnerID uuid.UUID `json:"partnerId"`
	Pincodes  []string  `json:"pincodes"`
}

func (e PartnerChanged) EventName() string { return "partners.partner.changed" }
