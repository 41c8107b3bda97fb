// Package domain holds the lead state machine and provenance types.
package domain

// Status is the lifecycle state of a lead.
type Status string

// Lead lifecycle states.
const (
	StatusPending     Status = "pending"
	StatusAwaitingBid Status = "awaiting_bid"
	StatusBidding     Status = "bidding"
	StatusAssigned    Status = "assigned"
	StatusConverted   Status = "converted"
	StatusEscalated   Status = "escalated"
	StatusCancelled   Status = "cancelled"
	StatusExpired     Status = "expired"
)

// Valid reports whether s is a known lead status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAwaitingBid, StatusBidding, StatusAssigned,
		StatusConverted, StatusEscalated, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusConverted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// transitions is the forward edge set of the lead state machine.
// Cancellation, escalation, and expiry are side exits from every
// non-terminal state and are handled in CanTransition directly.
var transitions = map[Status][]Status{
	StatusPending:     {StatusAwaitingBid, StatusBidding, StatusAssigned},
	StatusAwaitingBid: {StatusBidding, StatusAssigned},
	StatusBidding:     {StatusAssigned},
	StatusAssigned:    {StatusConverted},
	StatusEscalated:   {StatusAwaitingBid, StatusBidding, StatusAssigned, StatusConverted},
}

// CanTransition reports whether a lead may move from one status to another.
// Terminal states permit nothing; every non-terminal state may exit to
// cancelled, escalated, or expired.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled || to == StatusEscalated || to == StatusExpired {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BidStatus is the lifecycle state of a single bid.
type BidStatus string

// Bid states.
const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

// Priority is the operator-facing urgency of a lead.
type Priority string

// Lead priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// AllocationStrategy is the policy by which a lead gets resolved.
type AllocationStrategy string

// Allocation strategies.
const (
	AllocationRuleBased AllocationStrategy = "rule_based"
	AllocationBidding   AllocationStrategy = "bidding"
)
