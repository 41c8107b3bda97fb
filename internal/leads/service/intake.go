package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingrepo "homeserve_backend/internal/bookings/repository"
	"homeserve_backend/internal/leads/domain"
	"homeserve_backend/internal/leads/repository"
	"homeserve_backend/internal/leads/transport"
	partnerrepo "homeserve_backend/internal/partners/repository"
	"homeserve_backend/platform/apperr"
	"homeserve_backend/platform/phone"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const syncConcurrency = 8

// CreateFromBooking derives a lead from an existing booking. The unique
// constraint on the booking reference makes this idempotent: a retry or
// a concurrent duplicate gets Conflict plus the existing lead.
func (s *Service) CreateFromBooking(ctx context.Context, bookingID uuid.UUID) (*transport.LeadResponse, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingrepo.ErrNotFound) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, apperr.Dependency("failed to load booking")
	}

	created, err := s.repo.Create(ctx, s.leadFromBooking(booking))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) {
			return nil, s.duplicateBookingConflict(ctx, bookingID)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	s.publishCreated(ctx, created)

	resp := toLeadResponse(created)
	return &resp, nil
}

// CreateManual records an admin-entered lead pre-bound to a partner,
// bypassing bidding.
func (s *Service) CreateManual(ctx context.Context, req transport.CreateManualLeadRequest) (*transport.LeadResponse, error) {
	partner, err := s.partners.GetByID(ctx, req.PartnerID)
	if err != nil {
		if errors.Is(err, partnerrepo.ErrNotFound) {
			return nil, apperr.NotFound("partner not found")
		}
		return nil, apperr.Dependency("failed to load partner")
	}

	priority := domain.Priority(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Validation("unknown priority")
	}

	now := time.Now()
	lead := &repository.Lead{
		LeadRef:            domain.NewLeadRef(),
		Category:           req.Category,
		Service:            req.Service,
		SubService:         req.SubService,
		City:               req.City,
		Address:            req.Address,
		Landmark:           req.Landmark,
		Pincode:            req.Pincode,
		ValueCents:         clampValue(req.ValueCents),
		AllocationStrategy: domain.AllocationRuleBased,
		Priority:           priority,
		Status:             domain.StatusAwaitingBid,
		AssignedPartnerID:  &partner.ID,
		AllocationTime:     &now,
		ExpiryTime:         now.Add(s.policy.GetBookingLeadTTL()),
		Source:             domain.FromManual{PartnerID: partner.ID}.Source(),
		Description:        req.Description,
	}

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	s.publishCreated(ctx, created)

	resp := toLeadResponse(created)
	return &resp, nil
}

// SubmitEnquiry is the public intake path. It upserts a guest user keyed
// by phone, creates a companion pending booking so booking-oriented
// tooling still sees the demand, and records a marketplace lead with a
// 30 day TTL. The lead reference is generated before any write so the
// response stays usable even under partial failure.
func (s *Service) SubmitEnquiry(ctx context.Context, req transport.ServiceEnquiryRequest) (*transport.EnquiryResponse, error) {
	normalizedPhone, err := phone.NormalizeE164(req.Phone)
	if err != nil {
		return nil, apperr.Validation("invalid phone number")
	}

	leadID := uuid.New()
	leadRef := domain.NewLeadRef()

	user, err := s.users.FindOrCreateByPhone(ctx, normalizedPhone, req.Name, req.Email)
	if err != nil {
		return nil, apperr.Dependency("failed to resolve customer account")
	}

	city := cityFromAddress(req.City, req.Address)
	value := clampValue(req.EstimatedBudget)

	booking, err := s.bookings.Create(ctx, &bookingrepo.Booking{
		UserID:      &user.ID,
		Category:    req.Category,
		Service:     req.Service,
		SubService:  req.SubService,
		Address:     req.Address,
		Landmark:    req.Landmark,
		Pincode:     req.Pincode,
		City:        city,
		AmountCents: value,
		Status:      bookingrepo.StatusPending,
	})
	if err != nil {
		return nil, apperr.Dependency("failed to record booking")
	}

	provenance := domain.FromEnquiry{Name: req.Name, Phone: normalizedPhone, Email: req.Email}
	lead := &repository.Lead{
		ID:                 leadID,
		LeadRef:            leadRef,
		BookingID:          &booking.ID,
		UserID:             &user.ID,
		Category:           req.Category,
		Service:            req.Service,
		SubService:         req.SubService,
		City:               city,
		Address:            req.Address,
		Landmark:           req.Landmark,
		Pincode:            req.Pincode,
		ValueCents:         value,
		AllocationStrategy: domain.AllocationBidding,
		Priority:           domain.PriorityMedium,
		Status:             domain.StatusAwaitingBid,
		ExpiryTime:         time.Now().Add(s.policy.GetEnquiryLeadTTL()),
		Source:             provenance.Source(),
		ContactName:        provenance.Name,
		ContactPhone:       provenance.Phone,
		ContactEmail:       provenance.Email,
		Description:        req.Description,
	}

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	s.publishCreated(ctx, created)

	return &transport.EnquiryResponse{
		LeadID:    created.ID,
		LeadRef:   created.LeadRef,
		BookingID: booking.ID,
	}, nil
}

// SyncBookings creates a lead for every open, unassigned booking that
// does not have one yet. Items are processed with bounded concurrency;
// per-item failures are collected, never aborting the batch.
func (s *Service) SyncBookings(ctx context.Context) (*transport.SyncResult, error) {
	bookings, err := s.bookings.ListUnassignedOpen(ctx)
	if err != nil {
		return nil, apperr.Dependency("failed to list bookings")
	}

	var (
		mu     sync.Mutex
		result transport.SyncResult
	)
	result.Errors = []transport.SyncError{}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(syncConcurrency)

	for i := range bookings {
		booking := bookings[i]
		group.Go(func() error {
			exists, err := s.repo.HasLeadForBooking(groupCtx, booking.ID)
			if err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, transport.SyncError{BookingID: booking.ID, Message: err.Error()})
				mu.Unlock()
				return nil
			}
			if exists {
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return nil
			}

			created, err := s.repo.Create(groupCtx, s.leadFromBooking(&booking))
			if err != nil {
				if errors.Is(err, repository.ErrDuplicateBooking) {
					// Raced with another creator; counts as skipped.
					mu.Lock()
					result.Skipped++
					mu.Unlock()
					return nil
				}
				mu.Lock()
				result.Errors = append(result.Errors, transport.SyncError{BookingID: booking.ID, Message: err.Error()})
				mu.Unlock()
				return nil
			}

			s.publishCreated(groupCtx, created)
			mu.Lock()
			result.Created++
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait is just the join point.
	_ = group.Wait()

	return &result, nil
}

func (s *Service) leadFromBooking(booking *bookingrepo.Booking) *repository.Lead {
	return &repository.Lead{
		LeadRef:            domain.NewLeadRef(),
		BookingID:          &booking.ID,
		UserID:             booking.UserID,
		Category:           booking.Category,
		Service:            booking.Service,
		SubService:         booking.SubService,
		City:               cityFromAddress(booking.City, booking.Address),
		Address:            booking.Address,
		Landmark:           booking.Landmark,
		Pincode:            booking.Pincode,
		ValueCents:         clampValue(booking.AmountCents),
		AllocationStrategy: domain.AllocationRuleBased,
		Priority:           domain.PriorityMedium,
		Status:             domain.StatusAwaitingBid,
		ExpiryTime:         time.Now().Add(s.policy.GetBookingLeadTTL()),
		Source:             domain.FromBooking{}.Source(),
	}
}

// duplicateBookingConflict builds the Conflict error for a duplicate
// booking lead, attaching the existing lead so retrying callers get the
// original record back.
func (s *Service) duplicateBookingConflict(ctx context.Context, bookingID uuid.UUID) error {
	conflict := apperr.Conflict("lead already exists for this booking")
	existing, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return conflict
	}
	return conflict.WithDetails(toLeadResponse(existing))
}
