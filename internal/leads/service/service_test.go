package service

import (
	"context"
	"testing"
	"time"

	bookingrepo "homeserve_backend/internal/bookings/repository"
	"homeserve_backend/internal/events"
	"homeserve_backend/internal/leads/domain"
	"homeserve_backend/internal/leads/transport"
	"homeserve_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	f := newFixture()
	lead := openLead(t, f)

	_, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{
		Status: string(domain.StatusConverted),
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict for awaiting_bid -> converted, got %v", err)
	}
}

func TestUpdateStatusRejectsTerminalLead(t *testing.T) {
	f := newFixture()
	lead := openLead(t, f)

	if _, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{
		Status: string(domain.StatusCancelled),
	}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{
		Status: string(domain.StatusEscalated),
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict for terminal lead, got %v", err)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	lead := openLead(t, f)

	_, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{Status: "bogus"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected Validation for unknown status, got %v", err)
	}
}

func TestUpdateStatusAssignedRequiresPartner(t *testing.T) {
	f := newFixture()
	lead := openLead(t, f)

	_, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{
		Status: string(domain.StatusAssigned),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected Validation without partner, got %v", err)
	}
}

func TestUpdateStatusAssignStampsAllocation(t *testing.T) {
	f := newFixture()
	lead := openLead(t, f)
	partnerID := uuid.New()

	updated, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{
		Status:            string(domain.StatusAssigned),
		AssignedPartnerID: &partnerID,
	})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	if updated.AssignedPartnerID == nil || *updated.AssignedPartnerID != partnerID {
		t.Error("expected partner bound on assignment")
	}
	if updated.AllocationTime == nil {
		t.Error("expected allocation time stamped on assignment")
	}
}

func TestUpdateStatusConvertedStampsTimestamp(t *testing.T) {
	f := newFixture()
	lead := openLead(t, f)
	partnerID := uuid.New()

	if _, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{
		Status:            string(domain.StatusAssigned),
		AssignedPartnerID: &partnerID,
	}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	allocatedAt := f.repo.leads[lead.ID].AllocationTime

	converted, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{
		Status: string(domain.StatusConverted),
	})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if converted.ConvertedAt == nil {
		t.Error("expected convertedAt stamped")
	}
	if converted.AllocationTime == nil || !converted.AllocationTime.Equal(*allocatedAt) {
		t.Error("expected original allocation time preserved on conversion")
	}
}

func TestUpdateStatusEscalatedLeadCanRecover(t *testing.T) {
	f := newFixture()
	lead := openLead(t, f)

	if _, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{
		Status: string(domain.StatusEscalated),
	}); err != nil {
		t.Fatalf("escalate failed: %v", err)
	}

	recovered, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{
		Status: string(domain.StatusBidding),
	})
	if err != nil {
		t.Fatalf("expected escalated lead to recover into bidding: %v", err)
	}
	if recovered.Status != string(domain.StatusBidding) {
		t.Errorf("expected bidding after recovery, got %s", recovered.Status)
	}
}

func TestUpdateStatusPublishesEvent(t *testing.T) {
	f := newFixture()
	lead := openLead(t, f)

	if _, err := f.service.UpdateStatus(context.Background(), lead.ID, transport.UpdateLeadStatusRequest{
		Status: string(domain.StatusBidding),
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	published := f.bus.byName("leads.lead.status_changed")
	if len(published) != 1 {
		t.Fatalf("expected one status changed event, got %d", len(published))
	}
	changed := published[0].(events.LeadStatusChanged)
	if changed.OldStatus != string(domain.StatusAwaitingBid) || changed.NewStatus != string(domain.StatusBidding) {
		t.Errorf("event carries wrong transition: %s -> %s", changed.OldStatus, changed.NewStatus)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service.UpdateStatus(context.Background(), uuid.New(), transport.UpdateLeadStatusRequest{
		Status: string(domain.StatusCancelled),
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	f := newFixture()

	_, err := f.service.List(context.Background(), transport.ListLeadsQuery{Status: "bogus"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestDeleteMissingLead(t *testing.T) {
	f := newFixture()

	err := f.service.Delete(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestExpireDueClosesStaleLeadsAndPublishes(t *testing.T) {
	f := newFixture()
	stale := openLead(t, f)
	fresh := openLead(t, f)

	past := time.Now().Add(-time.Hour)
	f.repo.leads[stale.ID].ExpiryTime = past

	count, err := f.service.ExpireDue(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ExpireDue failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one expired lead, got %d", count)
	}

	if f.repo.leads[stale.ID].Status != domain.StatusExpired {
		t.Error("stale lead should be expired")
	}
	if f.repo.leads[fresh.ID].Status == domain.StatusExpired {
		t.Error("fresh lead must not expire")
	}

	published := f.bus.byName("leads.lead.expired")
	if len(published) != 1 {
		t.Fatalf("expected one expired event, got %d", len(published))
	}
	expired := published[0].(events.LeadExpired)
	if expired.LeadID != stale.ID {
		t.Error("event references wrong lead")
	}
}

func TestAnalyticsMapsStatusCounts(t *testing.T) {
	f := newFixture()
	for i := 0; i < 3; i++ {
		f.bookings.add(&bookingrepo.Booking{Category: "plumbing", Address: "X, Pune", AmountCents: 1000})
	}
	if _, err := f.service.SyncBookings(context.Background()); err != nil {
		t.Fatalf("seed sync failed: %v", err)
	}

	analytics, err := f.service.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}

	if analytics.TotalLeads != 3 {
		t.Errorf("expected 3 total leads, got %d", analytics.TotalLeads)
	}
	if analytics.ActiveLeads != 3 {
		t.Errorf("expected 3 active leads, got %d", analytics.ActiveLeads)
	}
	if analytics.StatusCounts[string(domain.StatusAwaitingBid)] != 3 {
		t.Errorf("expected 3 awaiting_bid, got %d", analytics.StatusCounts[string(domain.StatusAwaitingBid)])
	}
	if analytics.ConversionRate != 0 {
		t.Errorf("expected zero conversion rate, got %f", analytics.ConversionRate)
	}
}
