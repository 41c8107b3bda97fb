package service

import (
	"context"
	"sync"
	"time"

	bookingrepo "homeserve_backend/internal/bookings/repository"
	"homeserve_backend/internal/events"
	"homeserve_backend/internal/leads/domain"
	"homeserve_backend/internal/leads/repository"
	partnerrepo "homeserve_backend/internal/partners/repository"
	userrepo "homeserve_backend/internal/users/repository"
	"homeserve_backend/platform/logger"

	"github.com/google/uuid"
)

func testLogger() *logger.Logger {
	return logger.New("development")
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) byName(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []events.Event
	for _, e := range b.events {
		if e.EventName() == name {
			matched = append(matched, e)
		}
	}
	return matched
}

// fakeLeadRepo is an in-memory LeadRepository.
type fakeLeadRepo struct {
	mu    sync.Mutex
	leads map[uuid.UUID]*repository.Lead

	createErr    error
	submitErr    error
	acceptErr    error
	acceptResult *repository.Lead

	lastStatusUpdate *repository.StatusUpdate
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[uuid.UUID]*repository.Lead)}
}

func (f *fakeLeadRepo) Create(_ context.Context, lead *repository.Lead) (*repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}

	stored := *lead
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.BookingID != nil {
		for _, existing := range f.leads {
			if existing.BookingID != nil && *existing.BookingID == *stored.BookingID {
				return nil, repository.ErrDuplicateBooking
			}
		}
	}
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	if stored.Bids == nil {
		stored.Bids = []repository.Bid{}
	}
	f.leads[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (f *fakeLeadRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	result := *lead
	return &result, nil
}

func (f *fakeLeadRepo) GetByBookingID(_ context.Context, bookingID uuid.UUID) (*repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, lead := range f.leads {
		if lead.BookingID != nil && *lead.BookingID == bookingID {
			result := *lead
			return &result, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLeadRepo) HasLeadForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	_, err := f.GetByBookingID(ctx, bookingID)
	if err == repository.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeLeadRepo) List(_ context.Context, _ repository.ListParams) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []repository.Lead
	for _, lead := range f.leads {
		all = append(all, *lead)
	}
	return all, nil
}

func (f *fakeLeadRepo) UpdateStatus(_ context.Context, id uuid.UUID, expectedCurrent domain.Status, update repository.StatusUpdate) (*repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if lead.Status != expectedCurrent {
		return nil, repository.ErrAlreadyResolved
	}

	f.lastStatusUpdate = &update
	lead.Status = update.Status
	if update.AssignedPartnerID != nil {
		lead.AssignedPartnerID = update.AssignedPartnerID
	}
	if update.AllocationTime != nil {
		lead.AllocationTime = update.AllocationTime
	}
	if update.ConvertedAt != nil {
		lead.ConvertedAt = update.ConvertedAt
	}
	lead.UpdatedAt = time.Now()

	result := *lead
	return &result, nil
}

func (f *fakeLeadRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeLeadRepo) SubmitBid(_ context.Context, leadID, partnerID uuid.UUID, amountCents int64, etaDays *int, score *float64) (*repository.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitErr != nil {
		return nil, f.submitErr
	}

	lead, ok := f.leads[leadID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if lead.Status != domain.StatusAwaitingBid && lead.Status != domain.StatusBidding {
		return nil, repository.ErrNotOpenForBids
	}

	lead.Status = domain.StatusBidding
	bid := repository.Bid{
		ID:          uuid.New(),
		LeadID:      leadID,
		PartnerID:   partnerID,
		AmountCents: amountCents,
		ETADays:     etaDays,
		Score:       score,
		Status:      domain.BidPending,
		CreatedAt:   time.Now(),
	}
	lead.Bids = append(lead.Bids, bid)

	result := bid
	return &result, nil
}

func (f *fakeLeadRepo) AcceptBid(_ context.Context, leadID, bidID uuid.UUID) (*repository.Lead, error) {
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	if f.acceptResult != nil {
		return f.acceptResult, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[leadID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if lead.AcceptedBidID != nil || (lead.Status != domain.StatusAwaitingBid && lead.Status != domain.StatusBidding) {
		return nil, repository.ErrAlreadyResolved
	}

	var winner *repository.Bid
	for i := range lead.Bids {
		if lead.Bids[i].ID == bidID {
			winner = &lead.Bids[i]
			break
		}
	}
	if winner == nil {
		return nil, repository.ErrBidNotFound
	}

	now := time.Now()
	for i := range lead.Bids {
		if lead.Bids[i].ID == bidID {
			lead.Bids[i].Status = domain.BidAccepted
		} else if lead.Bids[i].Status == domain.BidPending {
			lead.Bids[i].Status = domain.BidRejected
		}
	}
	lead.Status = domain.StatusAssigned
	lead.AssignedPartnerID = &winner.PartnerID
	lead.AcceptedBidID = &winner.ID
	lead.AllocationTime = &now

	result := *lead
	return &result, nil
}

func (f *fakeLeadRepo) ExpireLeads(_ context.Context, now time.Time) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var expired []repository.Lead
	for _, lead := range f.leads {
		if !lead.Status.Terminal() && lead.ExpiryTime.Before(now) {
			lead.Status = domain.StatusExpired
			expired = append(expired, *lead)
		}
	}
	return expired, nil
}

func (f *fakeLeadRepo) GetAnalytics(_ context.Context) (*repository.Analytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a := &repository.Analytics{StatusCounts: make(map[domain.Status]int64)}
	for _, lead := range f.leads {
		a.StatusCounts[lead.Status]++
		a.TotalLeads++
		if !lead.Status.Terminal() {
			a.ActiveLeads++
		}
	}
	a.ConvertedLeads = a.StatusCounts[domain.StatusConverted]
	if a.TotalLeads > 0 {
		a.ConversionRate = float64(a.ConvertedLeads) / float64(a.TotalLeads)
	}
	return a, nil
}

// fakeBookingStore is an in-memory BookingStore.
type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingrepo.Booking

	createErr error
	listErr   error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[uuid.UUID]*bookingrepo.Booking)}
}

func (f *fakeBookingStore) add(b *bookingrepo.Booking) *bookingrepo.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = bookingrepo.StatusPending
	}
	f.bookings[b.ID] = b
	return b
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uuid.UUID) (*bookingrepo.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingrepo.ErrNotFound
	}
	result := *b
	return &result, nil
}

func (f *fakeBookingStore) Create(_ context.Context, b *bookingrepo.Booking) (*bookingrepo.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	stored := *b
	created := f.add(&stored)
	result := *created
	return &result, nil
}

func (f *fakeBookingStore) ListUnassignedOpen(_ context.Context) ([]bookingrepo.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var open []bookingrepo.Booking
	for _, b := range f.bookings {
		if b.PartnerID == nil && (b.Status == bookingrepo.StatusPending || b.Status == bookingrepo.StatusConfirmed) {
			open = append(open, *b)
		}
	}
	return open, nil
}

// fakeUserStore is an in-memory UserStore keyed by phone.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*userrepo.User
	err   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*userrepo.User)}
}

func (f *fakeUserStore) FindOrCreateByPhone(_ context.Context, phone, name, email string) (*userrepo.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[phone]; ok {
		result := *u
		return &result, nil
	}
	u := &userrepo.User{ID: uuid.New(), Name: name, Phone: phone, Email: email}
	f.users[phone] = u
	result := *u
	return &result, nil
}

// fakePartnerStore is an in-memory PartnerStore.
type fakePartnerStore struct {
	mu       sync.Mutex
	partners map[uuid.UUID]*partnerrepo.Partner
}

func newFakePartnerStore() *fakePartnerStore {
	return &fakePartnerStore{partners: make(map[uuid.UUID]*partnerrepo.Partner)}
}

func (f *fakePartnerStore) add(p *partnerrepo.Partner) *partnerrepo.Partner {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.partners[p.ID] = p
	return p
}

func (f *fakePartnerStore) GetByID(_ context.Context, id uuid.UUID) (*partnerrepo.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.partners[id]
	if !ok {
		return nil, partnerrepo.ErrNotFound
	}
	result := *p
	return &result, nil
}

func partnerFixture(name string) *partnerrepo.Partner {
	return &partnerrepo.Partner{
		BusinessName:    name,
		Phone:           "+919800000000",
		Active:          true,
		Approved:        true,
		Categories:      []string{"plumbing"},
		ServicePincodes: []string{"560066"},
	}
}

// policyConfig is a fixed LeadPolicyConfig for tests.
type policyConfig struct {
	bookingTTL time.Duration
	enquiryTTL time.Duration
}

func (p policyConfig) GetBookingLeadTTL() time.Duration { return p.bookingTTL }
func (p policyConfig) GetEnquiryLeadTTL() time.Duration { return p.enquiryTTL }

type fixture struct {
	service  *Service
	repo     *fakeLeadRepo
	bookings *fakeBookingStore
	users    *fakeUserStore
	partners *fakePartnerStore
	bus      *recordingBus
}

func newFixture() *fixture {
	repo := newFakeLeadRepo()
	bookings := newFakeBookingStore()
	users := newFakeUserStore()
	partners := newFakePartnerStore()
	bus := &recordingBus{}

	policy := policyConfig{bookingTTL: 24 * time.Hour, enquiryTTL: 720 * time.Hour}
	svc := New(repo, bookings, users, partners, policy, bus, testLogger())

	return &fixture{
		service:  svc,
		repo:     repo,
		bookings: bookings,
		users:    users,
		partners: partners,
		bus:      bus,
	}
}
