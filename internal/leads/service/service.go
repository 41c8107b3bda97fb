// Package service contains the lead lifecycle engine: demand intake,
// bidding, allocation, and analytics.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	bookingrepo "homeserve_backend/internal/bookings/repository"
	"homeserve_backend/internal/events"
	"homeserve_backend/internal/leads/domain"
	"homeserve_backend/internal/leads/repository"
	"homeserve_backend/internal/leads/transport"
	partnerrepo "homeserve_backend/internal/partners/repository"
	userrepo "homeserve_backend/internal/users/repository"
	"homeserve_backend/platform/apperr"
	"homeserve_backend/platform/config"
	"homeserve_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadRepository abstracts lead persistence.
type LeadRepository interface {
	Create(ctx context.Context, lead *repository.Lead) (*repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Lead, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*repository.Lead, error)
	HasLeadForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedCurrent domain.Status, update repository.StatusUpdate) (*repository.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SubmitBid(ctx context.Context, leadID, partnerID uuid.UUID, amountCents int64, etaDays *int, score *float64) (*repository.Bid, error)
	AcceptBid(ctx context.Context, leadID, bidID uuid.UUID) (*repository.Lead, error)
	ExpireLeads(ctx context.Context, now time.Time) ([]repository.Lead, error)
	GetAnalytics(ctx context.Context) (*repository.Analytics, error)
}

// BookingStore is the booking collaborator surface demand intake needs.
type BookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*bookingrepo.Booking, error)
	Create(ctx context.Context, b *bookingrepo.Booking) (*bookingrepo.Booking, error)
	ListUnassignedOpen(ctx context.Context) ([]bookingrepo.Booking, error)
}

// UserStore is the user collaborator surface for guest enquiries.
type UserStore interface {
	FindOrCreateByPhone(ctx context.Context, phone, name, email string) (*userrepo.User, error)
}

// PartnerStore is the partner collaborator surface for existence checks.
type PartnerStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*partnerrepo.Partner, error)
}

// Service implements the lead lifecycle operations.
type Service struct {
	repo     LeadRepository
	bookings BookingStore
	users    UserStore
	partners PartnerStore
	policy   config.LeadPolicyConfig
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a leads service.
func New(repo LeadRepository, bookings BookingStore, users UserStore, partners PartnerStore, policy config.LeadPolicyConfig, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		bookings: bookings,
		users:    users,
		partners: partners,
		policy:   policy,
		eventBus: eventBus,
		log:      log,
	}
}

// Get returns a lead with its bids.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to get lead", err)
	}

	resp := toLeadResponse(lead)
	return &resp, nil
}

// List returns leads matching the query.
func (s *Service) List(ctx context.Context, query transport.ListLeadsQuery) ([]transport.LeadResponse, error) {
	if query.Status != "" && !domain.Status(query.Status).Valid() {
		return nil, apperr.Validation("unknown status filter")
	}

	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	leads, err := s.repo.List(ctx, repository.ListParams{
		Status:             domain.Status(query.Status),
		City:               query.City,
		AllocationStrategy: domain.AllocationStrategy(query.AllocationStrategy),
		AssignedPartnerID:  query.PartnerID,
		CreatedFrom:        query.From,
		CreatedTo:          query.To,
		Limit:              limit,
		Offset:             query.Offset,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}

	responses := make([]transport.LeadResponse, 0, len(leads))
	for i := range leads {
		responses = append(responses, toLeadResponse(&leads[i]))
	}
	return responses, nil
}

// UpdateStatus applies an administrative transition, validated against
// the state machine. Entering assigned or converted stamps the
// allocation time; converted additionally stamps convertedAt.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateLeadStatusRequest) (*transport.LeadResponse, error) {
	target := domain.Status(req.Status)
	if !target.Valid() {
		return nil, apperr.Validation("unknown status")
	}

	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to get lead", err)
	}

	if lead.Status.Terminal() {
		return nil, apperr.Conflict("lead is in a terminal state")
	}
	if !domain.CanTransition(lead.Status, target) {
		return nil, apperr.Conflict("illegal status transition")
	}

	update := repository.StatusUpdate{Status: target}
	now := time.Now()
	if target == domain.StatusAssigned || target == domain.StatusConverted {
		if lead.AllocationTime == nil {
			update.AllocationTime = &now
		}
		if req.AssignedPartnerID != nil {
			update.AssignedPartnerID = req.AssignedPartnerID
		}
	}
	if target == domain.StatusAssigned && req.AssignedPartnerID == nil && lead.AssignedPartnerID == nil {
		return nil, apperr.Validation("assigned status requires a partner")
	}
	if target == domain.StatusConverted {
		update.ConvertedAt = &now
	}

	updated, err := s.repo.UpdateStatus(ctx, id, lead.Status, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("lead not found")
		case errors.Is(err, repository.ErrAlreadyResolved):
			return nil, apperr.Conflict("lead changed concurrently, retry")
		default:
			return nil, apperr.Wrap(apperr.KindInternal, "failed to update lead status", err)
		}
	}

	s.publishStatusChanged(ctx, updated, lead.Status)

	resp := toLeadResponse(updated)
	return &resp, nil
}

// Delete removes a lead. Admin cleanup only.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to delete lead", err)
	}
	return nil
}

// Analytics returns the lead funnel rollup.
func (s *Service) Analytics(ctx context.Context) (*transport.AnalyticsResponse, error) {
	a, err := s.repo.GetAnalytics(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to compute analytics", err)
	}

	statusCounts := make(map[string]int64, len(a.StatusCounts))
	for status, count := range a.StatusCounts {
		statusCounts[string(status)] = count
	}

	return &transport.AnalyticsResponse{
		TotalLeads:           a.TotalLeads,
		ActiveLeads:          a.ActiveLeads,
		ConvertedLeads:       a.ConvertedLeads,
		ExpiredLeads:         a.ExpiredLeads,
		CancelledLeads:       a.CancelledLeads,
		ConversionRate:       a.ConversionRate,
		AvgAllocationSeconds: a.AvgAllocationSeconds,
		LeadsWithBids:        a.LeadsWithBids,
		BidParticipationRate: a.BidParticipationRate,
		TotalBids:            a.TotalBids,
		CityCount:            a.CityCount,
		StatusCounts:         statusCounts,
	}, nil
}

// ExpireDue sweeps TTL-elapsed leads into the expired state and publishes
// an event per closed lead. Invoked by the scheduler.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.ExpireLeads(ctx, now)
	if err != nil {
		return 0, err
	}

	for i := range expired {
		lead := &expired[i]
		s.log.LeadEvent("lead expired", lead.LeadRef, string(lead.Status))
		if s.eventBus != nil {
			s.eventBus.Publish(ctx, events.LeadExpired{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    lead.ID,
				LeadRef:   lead.LeadRef,
			})
		}
	}

	return len(expired), nil
}

func (s *Service) publishStatusChanged(ctx context.Context, lead *repository.Lead, old domain.Status) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		LeadRef:   lead.LeadRef,
		OldStatus: string(old),
		NewStatus: string(lead.Status),
	})
}

func (s *Service) publishCreated(ctx context.Context, lead *repository.Lead) {
	s.log.LeadEvent("lead created", lead.LeadRef, string(lead.Status))
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		LeadRef:   lead.LeadRef,
		BookingID: lead.BookingID,
		Category:  lead.Category,
		City:      lead.City,
		Source:    string(lead.Source),
	})
}

// cityFromAddress falls back to the last comma-separated segment of the
// address when no explicit city was given.
func cityFromAddress(city, address string) string {
	if city != "" {
		return city
	}
	parts := strings.Split(address, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

// clampValue enforces value non-negativity. Negative input is clamped
// rather than rejected, a deliberate leniency on the enquiry path.
func clampValue(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func toBidResponse(b *repository.Bid) transport.BidResponse {
	return transport.BidResponse{
		ID:          b.ID,
		LeadID:      b.LeadID,
		PartnerID:   b.PartnerID,
		AmountCents: b.AmountCents,
		ETADays:     b.ETADays,
		Score:       b.Score,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
	}
}

func toLeadResponse(l *repository.Lead) transport.LeadResponse {
	bids := make([]transport.BidResponse, 0, len(l.Bids))
	for i := range l.Bids {
		bids = append(bids, toBidResponse(&l.Bids[i]))
	}

	return transport.LeadResponse{
		ID:                 l.ID,
		LeadRef:            l.LeadRef,
		BookingID:          l.BookingID,
		UserID:             l.UserID,
		Category:           l.Category,
		Service:            l.Service,
		SubService:         l.SubService,
		City:               l.City,
		Address:            l.Address,
		Landmark:           l.Landmark,
		Pincode:            l.Pincode,
		ValueCents:         l.ValueCents,
		AllocationStrategy: string(l.AllocationStrategy),
		Priority:           string(l.Priority),
		Status:             string(l.Status),
		AssignedPartnerID:  l.AssignedPartnerID,
		AcceptedBidID:      l.AcceptedBidID,
		AllocationTime:     l.AllocationTime,
		ConvertedAt:        l.ConvertedAt,
		ExpiryTime:         l.ExpiryTime,
		Source:             string(l.Source),
		ContactName:        l.ContactName,
		ContactPhone:       l.ContactPhone,
		ContactEmail:       l.ContactEmail,
		Description:        l.Description,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
		Bids:               bids,
	}
}
