package service

import (
	"context"
	"errors"

	"homeserve_backend/internal/events"
	"homeserve_backend/internal/leads/repository"
	"homeserve_backend/internal/leads/transport"
	partnerrepo "homeserve_backend/internal/partners/repository"
	"homeserve_backend/platform/apperr"

	"github.com/google/uuid"
)

// SubmitBid records a partner's offer against an open lead. The first
// bid moves the lead from awaiting_bid to bidding; the transition and
// the append commit together.
func (s *Service) SubmitBid(ctx context.Context, leadID uuid.UUID, req transport.SubmitBidRequest) (*transport.BidResponse, error) {
	partner, err := s.partners.GetByID(ctx, req.PartnerID)
	if err != nil {
		if errors.Is(err, partnerrepo.ErrNotFound) {
			return nil, apperr.NotFound("partner not found")
		}
		return nil, apperr.Dependency("failed to load partner")
	}
	if !partner.Active || !partner.Approved {
		return nil, apperr.Forbidden("partner is not eligible to bid")
	}

	bid, err := s.repo.SubmitBid(ctx, leadID, partner.ID, req.AmountCents, req.ETADays, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("lead not found")
		case errors.Is(err, repository.ErrNotOpenForBids):
			return nil, apperr.Conflict("lead is not open for bidding")
		default:
			return nil, apperr.Wrap(apperr.KindInternal, "failed to submit bid", err)
		}
	}

	s.log.LeadEvent("bid submitted", leadID.String(), string(bid.Status))
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.BidSubmitted{
			BaseEvent:   events.NewBaseEvent(),
			LeadID:      leadID,
			BidID:       bid.ID,
			PartnerID:   partner.ID,
			AmountCents: bid.AmountCents,
		})
	}

	resp := toBidResponse(bid)
	return &resp, nil
}

// AcceptBid resolves a lead to a single winning bid. Exactly one accept
// can succeed per lead; a concurrent second call gets Conflict so an
// operator UI can tell "someone already resolved this" apart from a
// missing lead or bid.
func (s *Service) AcceptBid(ctx context.Context, leadID, bidID uuid.UUID) (*transport.LeadResponse, error) {
	lead, err := s.repo.AcceptBid(ctx, leadID, bidID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("lead not found")
		case errors.Is(err, repository.ErrBidNotFound):
			return nil, apperr.NotFound("bid not found")
		case errors.Is(err, repository.ErrAlreadyResolved):
			return nil, apperr.Conflict("lead already resolved")
		default:
			return nil, apperr.Wrap(apperr.KindInternal, "failed to accept bid", err)
		}
	}

	s.log.LeadEvent("bid accepted", lead.LeadRef, string(lead.Status))
	if s.eventBus != nil && lead.AssignedPartnerID != nil && lead.AcceptedBidID != nil {
		s.eventBus.Publish(ctx, events.BidAccepted{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			BidID:     *lead.AcceptedBidID,
			PartnerID: *lead.AssignedPartnerID,
			BookingID: lead.BookingID,
		})
	}

	resp := toLeadResponse(lead)
	return &resp, nil
}
