package service

import (
	"context"
	"sync"
	"testing"

	"homeserve_backend/internal/events"
	"homeserve_backend/internal/partners/repository"
	"homeserve_backend/platform/logger"

	"github.com/google/uuid"
)

type fakePartnerRepo struct {
	mu       sync.Mutex
	partners map[uuid.UUID]*repository.Partner

	findEligibleCalls int
}

func newFakePartnerRepo() *fakePartnerRepo {
	return &fakePartnerRepo{partners: make(map[uuid.UUID]*repository.Partner)}
}

func (f *fakePartnerRepo) add(p *repository.Partner) *repository.Partner {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.partners[p.ID] = p
	return p
}

func (f *fakePartnerRepo) Create(_ context.Context, p *repository.Partner) (*repository.Partner, error) {
	f.mu.Lock()
	for _, existing := range f.partners {
		if existing.Phone == p.Phone {
			f.mu.Unlock()
			return nil, repository.ErrDuplicatePhone
		}
	}
	f.mu.Unlock()
	stored := *p
	created := f.add(&stored)
	result := *created
	return &result, nil
}

func (f *fakePartnerRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.partners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	result := *p
	return &result, nil
}

func (f *fakePartnerRepo) List(_ context.Context, _ repository.ListParams) ([]repository.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []repository.Partner
	for _, p := range f.partners {
		all = append(all, *p)
	}
	return all, nil
}

func (f *fakePartnerRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateParams) (*repository.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.partners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if params.Active != nil {
		p.Active = *params.Active
	}
	if params.Approved != nil {
		p.Approved = *params.Approved
	}
	if params.ServicePincodes != nil {
		p.ServicePincodes = params.ServicePincodes
	}
	result := *p
	return &result, nil
}

func (f *fakePartnerRepo) FindEligible(_ context.Context, pincode, category string) ([]repository.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findEligibleCalls++
	var eligible []repository.Partner
	for _, p := range f.partners {
		if !p.Active || !p.Approved {
			continue
		}
		if !contains(p.ServicePincodes, pincode) {
			continue
		}
		if category != "" && !contains(p.Categories, category) {
			continue
		}
		eligible = append(eligible, *p)
	}
	return eligible, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// fakeCache is a map-backed EligibilityCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]uuid.UUID
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]uuid.UUID)}
}

func (c *fakeCache) Get(_ context.Context, pincode, category string) ([]uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids, ok := c.entries[pincode+":"+category]
	return ids, ok
}

func (c *fakeCache) Set(_ context.Context, pincode, category string, ids []uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pincode+":"+category] = ids
	c.sets++
	return nil
}

func (c *fakeCache) InvalidatePincodes(_ context.Context, pincodes []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pincode := range pincodes {
		for key := range c.entries {
			if len(key) >= len(pincode) && key[:len(pincode)] == pincode {
				delete(c.entries, key)
			}
		}
	}
	return nil
}

type subscriberBus struct{}

func (subscriberBus) Publish(context.Context, events.Event) {}
func (subscriberBus) PublishSync(context.Context, events.Event) error {
	return nil
}
func (subscriberBus) Subscribe(string, events.Handler) {}

func activePartner(pincode string) *repository.Partner {
	return &repository.Partner{
		BusinessName:    "Acme",
		Phone:           "+919800000000",
		Active:          true,
		Approved:        true,
		Categories:      []string{"plumbing"},
		ServicePincodes: []string{pincode},
	}
}

func TestFindEligiblePopulatesCache(t *testing.T) {
	repo := newFakePartnerRepo()
	cache := newFakeCache()
	svc := New(repo, cache, subscriberBus{}, logger.New("development"))

	partner := repo.add(activePartner("560066"))

	first, err := svc.FindEligible(context.Background(), "560066", "plumbing")
	if err != nil {
		t.Fatalf("FindEligible failed: %v", err)
	}
	if len(first) != 1 || first[0].ID != partner.ID {
		t.Fatalf("expected the active partner, got %v", first)
	}
	if cache.sets != 1 {
		t.Errorf("expected one cache fill, got %d", cache.sets)
	}

	if _, err := svc.FindEligible(context.Background(), "560066", "plumbing"); err != nil {
		t.Fatalf("second FindEligible failed: %v", err)
	}
	if repo.findEligibleCalls != 1 {
		t.Errorf("expected cached second lookup, repo queried %d times", repo.findEligibleCalls)
	}
}

func TestFindEligibleDropsDeactivatedCachedPartner(t *testing.T) {
	repo := newFakePartnerRepo()
	cache := newFakeCache()
	svc := New(repo, cache, subscriberBus{}, logger.New("development"))

	stayed := repo.add(activePartner("560066"))
	left := activePartner("560066")
	left.Phone = "+919800000001"
	repo.add(left)

	if _, err := svc.FindEligible(context.Background(), "560066", "plumbing"); err != nil {
		t.Fatalf("warm-up failed: %v", err)
	}

	left.Active = false

	eligible, err := svc.FindEligible(context.Background(), "560066", "plumbing")
	if err != nil {
		t.Fatalf("FindEligible failed: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != stayed.ID {
		t.Fatalf("expected the deactivated partner filtered out, got %v", eligible)
	}
}

func TestFindEligibleFullyStaleEntryFallsBack(t *testing.T) {
	repo := newFakePartnerRepo()
	cache := newFakeCache()
	svc := New(repo, cache, subscriberBus{}, logger.New("development"))

	// Cache references a partner that no longer exists.
	cache.entries["560066:plumbing"] = []uuid.UUID{uuid.New()}
	fresh := repo.add(activePartner("560066"))

	eligible, err := svc.FindEligible(context.Background(), "560066", "plumbing")
	if err != nil {
		t.Fatalf("FindEligible failed: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != fresh.ID {
		t.Fatalf("expected fallback to the database, got %v", eligible)
	}
	if repo.findEligibleCalls != 1 {
		t.Errorf("expected one database fallback, got %d", repo.findEligibleCalls)
	}
}

func TestFindEligibleWorksWithoutCache(t *testing.T) {
	repo := newFakePartnerRepo()
	svc := New(repo, nil, subscriberBus{}, logger.New("development"))
	partner := repo.add(activePartner("560066"))

	eligible, err := svc.FindEligible(context.Background(), "560066", "plumbing")
	if err != nil {
		t.Fatalf("FindEligible failed: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != partner.ID {
		t.Fatalf("expected the partner without a cache, got %v", eligible)
	}
}
