package service

import (
	"context"
	"testing"

	bookingrepo "homeserve_backend/internal/bookings/repository"
	"homeserve_backend/internal/events"
	"homeserve_backend/internal/leads/domain"
	"homeserve_backend/internal/leads/repository"
	"homeserve_backend/internal/leads/transport"
	"homeserve_backend/platform/apperr"

	"github.com/google/uuid"
)

func openLead(t *testing.T, f *fixture) *transport.LeadResponse {
	t.Helper()
	booking := f.bookings.add(&bookingrepo.Booking{Category: "plumbing", Address: "Road, Pune", AmountCents: 100000})
	lead, err := f.service.CreateFromBooking(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("failed to create lead: %v", err)
	}
	return lead
}

func TestSubmitBidMovesLeadToBidding(t *testing.T) {
	f := newFixture()
	partner := f.partners.add(partnerFixture("Acme"))
	lead := openLead(t, f)

	bid, err := f.service.SubmitBid(context.Background(), lead.ID, transport.SubmitBidRequest{
		PartnerID:   partner.ID,
		AmountCents: 90000,
	})
	if err != nil {
		t.Fatalf("SubmitBid failed: %v", err)
	}

	if bid.Status != string(domain.BidPending) {
		t.Errorf("expected pending bid, got %s", bid.Status)
	}

	stored, _ := f.repo.GetByID(context.Background(), lead.ID)
	if stored.Status != domain.StatusBidding {
		t.Errorf("expected lead to move to bidding on first bid, got %s", stored.Status)
	}

	if submitted := f.bus.byName("leads.bid.submitted"); len(submitted) != 1 {
		t.Errorf("expected one bid submitted event, got %d", len(submitted))
	}
}

func TestSubmitBidRejectsUnapprovedPartner(t *testing.T) {
	f := newFixture()
	partner := partnerFixture("Shady")
	partner.Approved = false
	f.partners.add(partner)
	lead := openLead(t, f)

	_, err := f.service.SubmitBid(context.Background(), lead.ID, transport.SubmitBidRequest{
		PartnerID:   partner.ID,
		AmountCents: 90000,
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected Forbidden for unapproved partner, got %v", err)
	}
}

func TestSubmitBidOnResolvedLead(t *testing.T) {
	f := newFixture()
	partner := f.partners.add(partnerFixture("Acme"))
	lead := openLead(t, f)

	bid, err := f.service.SubmitBid(context.Background(), lead.ID, transport.SubmitBidRequest{
		PartnerID:   partner.ID,
		AmountCents: 90000,
	})
	if err != nil {
		t.Fatalf("SubmitBid failed: %v", err)
	}
	if _, err := f.service.AcceptBid(context.Background(), lead.ID, bid.ID); err != nil {
		t.Fatalf("AcceptBid failed: %v", err)
	}

	_, err = f.service.SubmitBid(context.Background(), lead.ID, transport.SubmitBidRequest{
		PartnerID:   partner.ID,
		AmountCents: 85000,
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict bidding on resolved lead, got %v", err)
	}
}

func TestAcceptBidSingleWinner(t *testing.T) {
	f := newFixture()
	partnerA := f.partners.add(partnerFixture("A"))
	partnerB := partnerFixture("B")
	partnerB.Phone = "+919800000001"
	f.partners.add(partnerB)
	lead := openLead(t, f)

	bidA, err := f.service.SubmitBid(context.Background(), lead.ID, transport.SubmitBidRequest{PartnerID: partnerA.ID, AmountCents: 100000})
	if err != nil {
		t.Fatalf("bid A failed: %v", err)
	}
	bidB, err := f.service.SubmitBid(context.Background(), lead.ID, transport.SubmitBidRequest{PartnerID: partnerB.ID, AmountCents: 90000})
	if err != nil {
		t.Fatalf("bid B failed: %v", err)
	}

	resolved, err := f.service.AcceptBid(context.Background(), lead.ID, bidA.ID)
	if err != nil {
		t.Fatalf("AcceptBid failed: %v", err)
	}

	if resolved.Status != string(domain.StatusAssigned) {
		t.Errorf("expected assigned status, got %s", resolved.Status)
	}
	if resolved.AssignedPartnerID == nil || *resolved.AssignedPartnerID != partnerA.ID {
		t.Error("expected assigned partner to match winning bid")
	}
	if resolved.AcceptedBidID == nil || *resolved.AcceptedBidID != bidA.ID {
		t.Error("expected accepted bid reference set")
	}
	if resolved.AllocationTime == nil {
		t.Error("expected allocation time stamped")
	}

	accepted, rejected := 0, 0
	for _, b := range resolved.Bids {
		switch b.Status {
		case string(domain.BidAccepted):
			accepted++
			if b.ID != bidA.ID {
				t.Error("wrong bid accepted")
			}
		case string(domain.BidRejected):
			rejected++
			if b.ID != bidB.ID {
				t.Error("wrong bid rejected")
			}
		}
	}
	if accepted != 1 || rejected != 1 {
		t.Errorf("expected exactly one accepted and one rejected bid, got %d/%d", accepted, rejected)
	}
}

func TestAcceptBidSecondAcceptConflicts(t *testing.T) {
	f := newFixture()
	partner := f.partners.add(partnerFixture("A"))
	lead := openLead(t, f)

	bid1, _ := f.service.SubmitBid(context.Background(), lead.ID, transport.SubmitBidRequest{PartnerID: partner.ID, AmountCents: 100000})
	bid2, _ := f.service.SubmitBid(context.Background(), lead.ID, transport.SubmitBidRequest{PartnerID: partner.ID, AmountCents: 95000})

	if _, err := f.service.AcceptBid(context.Background(), lead.ID, bid1.ID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	_, err := f.service.AcceptBid(context.Background(), lead.ID, bid2.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict on second accept, got %v", err)
	}
}

func TestAcceptBidNotFoundVariants(t *testing.T) {
	f := newFixture()
	partner := f.partners.add(partnerFixture("A"))
	lead := openLead(t, f)
	bid, _ := f.service.SubmitBid(context.Background(), lead.ID, transport.SubmitBidRequest{PartnerID: partner.ID, AmountCents: 100000})

	if _, err := f.service.AcceptBid(context.Background(), uuid.New(), bid.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound for missing lead, got %v", err)
	}
	if _, err := f.service.AcceptBid(context.Background(), lead.ID, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound for missing bid, got %v", err)
	}
}

func TestAcceptBidPublishesEventWithBooking(t *testing.T) {
	f := newFixture()
	partner := f.partners.add(partnerFixture("A"))
	lead := openLead(t, f)
	bid, _ := f.service.SubmitBid(context.Background(), lead.ID, transport.SubmitBidRequest{PartnerID: partner.ID, AmountCents: 100000})

	if _, err := f.service.AcceptBid(context.Background(), lead.ID, bid.ID); err != nil {
		t.Fatalf("AcceptBid failed: %v", err)
	}

	published := f.bus.byName("leads.bid.accepted")
	if len(published) != 1 {
		t.Fatalf("expected one bid accepted event, got %d", len(published))
	}
	accepted := published[0].(events.BidAccepted)
	if accepted.PartnerID != partner.ID {
		t.Error("event carries wrong partner")
	}
	if accepted.BookingID == nil || *accepted.BookingID != *leadBookingID(t, f, lead.ID) {
		t.Error("event should reference the originating booking")
	}
}

func leadBookingID(t *testing.T, f *fixture, leadID uuid.UUID) *uuid.UUID {
	t.Helper()
	lead, err := f.repo.GetByID(context.Background(), leadID)
	if err != nil {
		t.Fatalf("lead lookup failed: %v", err)
	}
	return lead.BookingID
}

func TestAcceptBidMapsRepositoryConflict(t *testing.T) {
	f := newFixture()
	f.repo.acceptErr = repository.ErrAlreadyResolved

	_, err := f.service.AcceptBid(context.Background(), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}
