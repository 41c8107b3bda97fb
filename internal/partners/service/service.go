// Package service contains the business logic for partner management and
// eligibility resolution.
package service

import (
	"context"
	"errors"

	"homeserve_backend/internal/events"
	"homeserve_backend/internal/partners/repository"
	"homeserve_backend/internal/partners/transport"
	"homeserve_backend/platform/apperr"
	"homeserve_backend/platform/logger"
	"homeserve_backend/platform/phone"

	"github.com/google/uuid"
)

// PartnerRepository abstracts partner persistence.
type PartnerRepository interface {
	Create(ctx context.Context, p *repository.Partner) (*repository.Partner, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Partner, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Partner, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateParams) (*repository.Partner, error)
	FindEligible(ctx context.Context, pincode, category string) ([]repository.Partner, error)
}

// EligibilityCache abstracts the TTL cache in front of eligibility queries.
type EligibilityCache interface {
	Get(ctx context.Context, pincode, category string) ([]uuid.UUID, bool)
	Set(ctx context.Context, pincode, category string, ids []uuid.UUID) error
	InvalidatePincodes(ctx context.Context, pincodes []string) error
}

// Service implements partner management operations.
type Service struct {
	repo     PartnerRepository
	cache    EligibilityCache
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a partners service. The cache may be nil, in which case
// eligibility lookups always hit the database.
func New(repo PartnerRepository, cache EligibilityCache, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, eventBus: eventBus, log: log}
}

// Create registers a new partner. Phone numbers are normalized to E.164
// so eligibility and dedup checks always compare like with like.
func (s *Service) Create(ctx context.Context, req transport.CreatePartnerRequest) (*transport.PartnerResponse, error) {
	normalizedPhone, err := phone.NormalizeE164(req.Phone)
	if err != nil {
		return nil, apperr.Validation("invalid phone number")
	}

	created, err := s.repo.Create(ctx, &repository.Partner{
		BusinessName:    req.BusinessName,
		Phone:           normalizedPhone,
		Email:           req.Email,
		Active:          true,
		Approved:        false,
		Categories:      req.Categories,
		ServicePincodes: req.ServicePincodes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return nil, apperr.Conflict("partner with this phone already exists")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create partner", err)
	}

	s.publishChanged(ctx, created)

	resp := toPartnerResponse(created)
	return &resp, nil
}

// Get returns a partner by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.PartnerResponse, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("partner not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to get partner", err)
	}

	resp := toPartnerResponse(p)
	return &resp, nil
}

// List returns partners matching the query.
func (s *Service) List(ctx context.Context, query transport.ListPartnersQuery) ([]transport.PartnerResponse, error) {
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	partners, err := s.repo.List(ctx, repository.ListParams{
		Active:   query.Active,
		Approved: query.Approved,
		Category: query.Category,
		Pincode:  query.Pincode,
		Limit:    limit,
		Offset:   query.Offset,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list partners", err)
	}

	responses := make([]transport.PartnerResponse, 0, len(partners))
	for i := range partners {
		responses = append(responses, toPartnerResponse(&partners[i]))
	}
	return responses, nil
}

// Update applies a partial update to a partner and invalidates any
// eligibility cache entries the change could affect.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdatePartnerRequest) (*transport.PartnerResponse, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("partner not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to get partner", err)
	}

	updated, err := s.repo.Update(ctx, id, repository.UpdateParams{
		BusinessName:    req.BusinessName,
		Email:           req.Email,
		Active:          req.Active,
		Approved:        req.Approved,
		Categories:      req.Categories,
		ServicePincodes: req.ServicePincodes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("partner not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to update partner", err)
	}

	// Both the old and the new pincode sets can hold stale cache entries.
	s.invalidate(ctx, existing.ServicePincodes, updated.ServicePincodes)
	s.publishChanged(ctx, updated)

	resp := toPartnerResponse(updated)
	return &resp, nil
}

// FindEligible returns partners able to serve a pincode and category,
// consulting the cache first.
func (s *Service) FindEligible(ctx context.Context, pincode, category string) ([]repository.Partner, error) {
	if s.cache != nil {
		if ids, ok := s.cache.Get(ctx, pincode, category); ok {
			return s.resolveCached(ctx, ids, pincode, category)
		}
	}

	partners, err := s.repo.FindEligible(ctx, pincode, category)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to find eligible partners", err)
	}

	if s.cache != nil {
		ids := make([]uuid.UUID, 0, len(partners))
		for i := range partners {
			ids = append(ids, partners[i].ID)
		}
		if err := s.cache.Set(ctx, pincode, category, ids); err != nil {
			s.log.Warn("failed to cache eligibility result", "pincode", pincode, "error", err)
		}
	}

	return partners, nil
}

// resolveCached rehydrates partner rows from cached IDs, dropping any
// partner that has since been deactivated. A fully stale entry falls
// back to the database.
func (s *Service) resolveCached(ctx context.Context, ids []uuid.UUID, pincode, category string) ([]repository.Partner, error) {
	partners := make([]repository.Partner, 0, len(ids))
	for _, id := range ids {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, apperr.Wrap(apperr.KindInternal, "failed to resolve cached partner", err)
		}
		if p.Active && p.Approved {
			partners = append(partners, *p)
		}
	}

	if len(partners) == 0 && len(ids) > 0 {
		fresh, err := s.repo.FindEligible(ctx, pincode, category)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to find eligible partners", err)
		}
		return fresh, nil
	}

	return partners, nil
}

func (s *Service) invalidate(ctx context.Context, pincodeSets ...[]string) {
	if s.cache == nil {
		return
	}

	seen := make(map[string]struct{})
	var pincodes []string
	for _, set := range pincodeSets {
		for _, pincode := range set {
			if _, ok := seen[pincode]; ok {
				continue
			}
			seen[pincode] = struct{}{}
			pincodes = append(pincodes, pincode)
		}
	}

	if err := s.cache.InvalidatePincodes(ctx, pincodes); err != nil {
		s.log.Warn("failed to invalidate eligibility cache", "error", err)
	}
}

func (s *Service) publishChanged(ctx context.Context, p *repository.Partner) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.PartnerChanged{
		BaseEvent: events.NewBaseEvent(),
		PartnerID: p.ID,
		Pincodes:  p.ServicePincodes,
	})
}

func toPartnerResponse(p *repository.Partner) transport.PartnerResponse {
	return transport.PartnerResponse{
		ID:              p.ID,
		BusinessName:    p.BusinessName,
		Phone:           p.Phone,
		Email:           p.Email,
		Active:          p.Active,
		Approved:        p.Approved,
		Categories:      p.Categories,
		ServicePincodes: p.ServicePincodes,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
