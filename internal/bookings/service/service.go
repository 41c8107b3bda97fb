// Package service contains the business logic for bookings, including the
// rule-based auto-assignment path that runs on payment confirmation.
package service

import (
	"context"
	"errors"

	"homeserve_backend/internal/bookings/repository"
	"homeserve_backend/internal/bookings/transport"
	"homeserve_backend/internal/events"
	partnerrepo "homeserve_backend/internal/partners/repository"
	"homeserve_backend/platform/apperr"
	"homeserve_backend/platform/logger"

	"github.com/google/uuid"
)

// BookingRepository abstracts booking persistence.
type BookingRepository interface {
	Create(ctx context.Context, b *repository.Booking) (*repository.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Booking, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*repository.Booking, error)
	AssignPartner(ctx context.Context, id, partnerID uuid.UUID, status string) (*repository.Booking, error)
	SetPaid(ctx context.Context, id uuid.UUID, paid bool) (*repository.Booking, error)
}

// PartnerFinder resolves eligible partners for rule-based assignment.
type PartnerFinder interface {
	FindEligible(ctx context.Context, pincode, category string) ([]partnerrepo.Partner, error)
}

// SelectionStrategy picks one partner out of the eligible set.
type SelectionStrategy interface {
	Select(partners []partnerrepo.Partner) *partnerrepo.Partner
}

// FirstEligible picks the first partner in eligibility order. This is the
// base policy; it does no load balancing or rating weighting.
type FirstEligible struct{}

// Select returns the first partner, or nil for an empty set.
func (FirstEligible) Select(partners []partnerrepo.Partner) *partnerrepo.Partner {
	if len(partners) == 0 {
		return nil
	}
	return &partners[0]
}

// Service implements booking operations.
type Service struct {
	repo     BookingRepository
	partners PartnerFinder
	strategy SelectionStrategy
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a bookings service.
func New(repo BookingRepository, partners PartnerFinder, strategy SelectionStrategy, eventBus events.Bus, log *logger.Logger) *Service {
	if strategy == nil {
		strategy = FirstEligible{}
	}
	return &Service{repo: repo, partners: partners, strategy: strategy, eventBus: eventBus, log: log}
}

// Create records a new booking in pending status.
func (s *Service) Create(ctx context.Context, req transport.CreateBookingRequest) (*transport.BookingResponse, error) {
	created, err := s.repo.Create(ctx, &repository.Booking{
		UserID:      req.UserID,
		Category:    req.Category,
		Service:     req.Service,
		SubService:  req.SubService,
		Address:     req.Address,
		Landmark:    req.Landmark,
		Pincode:     req.Pincode,
		City:        req.City,
		AmountCents: req.AmountCents,
		Status:      repository.StatusPending,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create booking", err)
	}

	resp := toBookingResponse(created)
	return &resp, nil
}

// Get returns a booking by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.BookingResponse, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to get booking", err)
	}

	resp := toBookingResponse(b)
	return &resp, nil
}

// List returns bookings matching the query.
func (s *Service) List(ctx context.Context, query transport.ListBookingsQuery) ([]transport.BookingResponse, error) {
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	bookings, err := s.repo.List(ctx, repository.ListParams{
		UserID:    query.UserID,
		PartnerID: query.PartnerID,
		Status:    query.Status,
		Limit:     limit,
		Offset:    query.Offset,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list bookings", err)
	}

	responses := make([]transport.BookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, toBookingResponse(&bookings[i]))
	}
	return responses, nil
}

// Confirm marks a booking paid and runs rule-based auto-assignment: the
// first active, approved partner serving the booking's pincode is bound
// to the booking and the status advances to confirmed. When no partner
// is eligible the booking stays pending and the caller is told so; the
// demand can still be resolved later through the bidding path.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, req transport.ConfirmBookingRequest) (*transport.BookingResponse, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to get booking", err)
	}

	if b.Status == repository.StatusCancelled || b.Status == repository.StatusCompleted {
		return nil, apperr.Conflict("booking is closed")
	}

	if req.Paid && !b.Paid {
		if b, err = s.repo.SetPaid(ctx, id, true); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to mark booking paid", err)
		}
	}

	if !b.Paid {
		return nil, apperr.Validation("booking must be paid before confirmation")
	}

	if b.PartnerID != nil {
		// Already assigned; just make sure the status reflects it.
		if b.Status != repository.StatusConfirmed {
			if b, err = s.repo.UpdateStatus(ctx, id, repository.StatusConfirmed); err != nil {
				return nil, apperr.Wrap(apperr.KindInternal, "failed to confirm booking", err)
			}
		}
		resp := toBookingResponse(b)
		return &resp, nil
	}

	eligible, err := s.partners.FindEligible(ctx, b.Pincode, b.Category)
	if err != nil {
		return nil, apperr.Dependency("failed to resolve eligible partners")
	}

	chosen := s.strategy.Select(eligible)
	if chosen == nil {
		s.log.Warn("no eligible partner for booking", "bookingId", id, "pincode", b.Pincode)
		return nil, apperr.NotFound("no eligible partner for this pincode")
	}

	assigned, err := s.repo.AssignPartner(ctx, id, chosen.ID, repository.StatusConfirmed)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyAssigned) {
			return nil, apperr.Conflict("booking already assigned")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to assign partner", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.BookingAutoAssigned{
			BaseEvent: events.NewBaseEvent(),
			BookingID: assigned.ID,
			PartnerID: chosen.ID,
			Pincode:   assigned.Pincode,
		})
	}

	resp := toBookingResponse(assigned)
	return &resp, nil
}

// BindAcceptedPartner assigns the winning bidder to the originating
// booking. Called from the bid-accepted event subscriber; losing the
// race to an earlier assignment is not an error here.
func (s *Service) BindAcceptedPartner(ctx context.Context, bookingID, partnerID uuid.UUID) error {
	_, err := s.repo.AssignPartner(ctx, bookingID, partnerID, repository.StatusConfirmed)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyAssigned) {
			s.log.Warn("booking already assigned, skipping bind", "bookingId", bookingID)
			return nil
		}
		return err
	}
	return nil
}

func toBookingResponse(b *repository.Booking) transport.BookingResponse {
	return transport.BookingResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		PartnerID:   b.PartnerID,
		Category:    b.Category,
		Service:     b.Service,
		SubService:  b.SubService,
		Address:     b.Address,
		Landmark:    b.Landmark,
		Pincode:     b.Pincode,
		City:        b.City,
		AmountCents: b.AmountCents,
		Status:      b.Status,
		Paid:        b.Paid,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
