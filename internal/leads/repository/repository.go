// Package repository provides data access for leads and their bids.
// A lead and its bids are one consistency unit: every multi-row mutation
// runs inside a single transaction, and bid acceptance is a conditional
// update so two racing resolvers cannot both win.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homeserve_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors returned by this package.
var (
	ErrNotFound         = errors.New("lead not found")
	ErrBidNotFound      = errors.New("bid not found")
	ErrDuplicateBooking = errors.New("lead already exists for booking")
	ErrAlreadyResolved  = errors.New("lead already resolved")
	ErrNotOpenForBids   = errors.New("lead is not open for bidding")
	ErrTerminalState    = errors.New("lead is in a terminal state")
)

// Lead is one unit of demand.
type Lead struct {
	ID                 uuid.UUID
	LeadRef            string
	BookingID          *uuid.UUID
	UserID             *uuid.UUID
	Category           string
	Service            string
	SubService         string
	City               string
	Address            string
	Landmark           string
	Pincode            string
	ValueCents         int64
	AllocationStrategy domain.AllocationStrategy
	Priority           domain.Priority
	Status             domain.Status
	AssignedPartnerID  *uuid.UUID
	AcceptedBidID      *uuid.UUID
	AllocationTime     *time.Time
	ConvertedAt        *time.Time
	ExpiryTime         time.Time
	Source             domain.Source
	ContactName        string
	ContactPhone       string
	ContactEmail       string
	Description        string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Bids is the lead's ordered bid collection, oldest first.
	Bids []Bid
}

// Bid is a partner's offer against a lead.
type Bid struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	PartnerID   uuid.UUID
	AmountCents int64
	ETADays     *int
	Score       *float64
	Status      domain.BidStatus
	CreatedAt   time.Time
}

// ListParams controls filtering and pagination for lead listings.
type ListParams struct {
	Status             domain.Status
	City               string
	AllocationStrategy domain.AllocationStrategy
	AssignedPartnerID  *uuid.UUID
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
	Limit              int
	Offset             int
}

// StatusUpdate carries the fields written alongside a status transition.
// Nil pointer fields are left untouched.
type StatusUpdate struct {
	Status            domain.Status
	AssignedPartnerID *uuid.UUID
	AllocationTime    *time.Time
	ConvertedAt       *time.Time
}

// Repository provides access to the leads store.
type Repository struct {
	db *pgxpool.Pool
}

// New creates a leads repository.
func New(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const leadColumns = `id, lead_ref, booking_id, user_id, category, service, sub_service, city, address, landmark, pincode,
	value_cents, allocation_strategy, priority, status, assigned_partner_id, accepted_bid_id,
	allocation_time, converted_at, expiry_time, source, contact_name, contact_phone, contact_email, description,
	created_at, updated_at`

const bidColumns = `id, lead_id, partner_id, amount_cents, eta_days, score, status, created_at`

// Create inserts a new lead. A unique index on booking_id makes the
// one-lead-per-booking invariant hold even under concurrent retries;
// violating it surfaces as ErrDuplicateBooking.
func (r *Repository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	query := `
		INSERT INTO leads (id, lead_ref, booking_id, user_id, category, service, sub_service, city, address, landmark, pincode,
			value_cents, allocation_strategy, priority, status, assigned_partner_id, accepted_bid_id,
			allocation_time, expiry_time, source, contact_name, contact_phone, contact_email, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING ` + leadColumns

	id := lead.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var created Lead
	err := r.db.QueryRow(ctx, query,
		id, lead.LeadRef, lead.BookingID, lead.UserID, lead.Category, lead.Service, lead.SubService,
		lead.City, lead.Address, lead.Landmark, lead.Pincode,
		lead.ValueCents, lead.AllocationStrategy, lead.Priority, lead.Status,
		lead.AssignedPartnerID, lead.AcceptedBidID, lead.AllocationTime, lead.ExpiryTime,
		lead.Source, lead.ContactName, lead.ContactPhone, lead.ContactEmail, lead.Description,
	).Scan(leadScanTargets(&created)...)
	if err != nil {
		if strings.Contains(err.Error(), "leads_booking_id_key") || strings.Contains(err.Error(), "idx_leads_booking") {
			return nil, ErrDuplicateBooking
		}
		return nil, fmt.Errorf("create lead: %w", err)
	}

	created.Bids = []Bid{}
	return &created, nil
}

// GetByID fetches a lead together with its full bid collection.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	var lead Lead
	err := r.db.QueryRow(ctx, query, id).Scan(leadScanTargets(&lead)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}

	bids, err := r.listBids(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	lead.Bids = bids

	return &lead, nil
}

// GetByBookingID fetches the lead referencing a booking, if any.
func (r *Repository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE booking_id = $1`

	var lead Lead
	err := r.db.QueryRow(ctx, query, bookingID).Scan(leadScanTargets(&lead)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get lead by booking: %w", err)
	}

	bids, err := r.listBids(ctx, r.db, lead.ID)
	if err != nil {
		return nil, err
	}
	lead.Bids = bids

	return &lead, nil
}

// HasLeadForBooking reports whether any lead references the booking.
func (r *Repository) HasLeadForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM leads WHERE booking_id = $1)`, bookingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check lead for booking: %w", err)
	}
	return exists, nil
}

// List returns leads matching the filter, newest first. Bids are not
// loaded for listings; use GetByID for the full document.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if params.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, params.Status)
		argIdx++
	}
	if params.City != "" {
		query += fmt.Sprintf(" AND lower(city) = lower($%d)", argIdx)
		args = append(args, params.City)
		argIdx++
	}
	if params.AllocationStrategy != "" {
		query += fmt.Sprintf(" AND allocation_strategy = $%d", argIdx)
		args = append(args, params.AllocationStrategy)
		argIdx++
	}
	if params.AssignedPartnerID != nil {
		query += fmt.Sprintf(" AND assigned_partner_id = $%d", argIdx)
		args = append(args, *params.AssignedPartnerID)
		argIdx++
	}
	if params.CreatedFrom != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *params.CreatedFrom)
		argIdx++
	}
	if params.CreatedTo != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *params.CreatedTo)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, params.Limit)
		argIdx++
	}
	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, params.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(leadScanTargets(&lead)...); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// UpdateStatus applies an administrative status transition. The WHERE
// clause pins the expected current status so a concurrent transition
// loses cleanly instead of overwriting; callers validate the transition
// against the state machine before getting here.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedCurrent domain.Status, update StatusUpdate) (*Lead, error) {
	setClauses := []string{"status = $2", "updated_at = now()"}
	args := []interface{}{id, update.Status}
	argIdx := 3

	if update.AssignedPartnerID != nil {
		setClauses = append(setClauses, fmt.Sprintf("assigned_partner_id = $%d", argIdx))
		args = append(args, *update.AssignedPartnerID)
		argIdx++
	}
	if update.AllocationTime != nil {
		setClauses = append(setClauses, fmt.Sprintf("allocation_time = $%d", argIdx))
		args = append(args, *update.AllocationTime)
		argIdx++
	}
	if update.ConvertedAt != nil {
		setClauses = append(setClauses, fmt.Sprintf("converted_at = $%d", argIdx))
		args = append(args, *update.ConvertedAt)
		argIdx++
	}

	query := fmt.Sprintf(`
		UPDATE leads
		SET %s
		WHERE id = $1 AND status = $%d
		RETURNING `+leadColumns, strings.Join(setClauses, ", "), argIdx)
	args = append(args, expectedCurrent)

	var lead Lead
	err := r.db.QueryRow(ctx, query, args...).Scan(leadScanTargets(&lead)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrAlreadyResolved
		}
		return nil, fmt.Errorf("update lead status: %w", err)
	}

	bids, err := r.listBids(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	lead.Bids = bids

	return &lead, nil
}

// Delete removes a lead and its bids. This is the admin cleanup path;
// normal lifecycle never deletes.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *Repository) listBids(ctx context.Context, q queryer, leadID uuid.UUID) ([]Bid, error) {
	rows, err := q.Query(ctx,
		`SELECT `+bidColumns+` FROM lead_bids WHERE lead_id = $1 ORDER BY created_at ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	bids := []Bid{}
	for rows.Next() {
		var b Bid
		if err := rows.Scan(&b.ID, &b.LeadID, &b.PartnerID, &b.AmountCents, &b.ETADays, &b.Score, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func leadScanTargets(l *Lead) []interface{} {
	return []interface{}{
		&l.ID, &l.LeadRef, &l.BookingID, &l.UserID, &l.Category, &l.Service, &l.SubService,
		&l.City, &l.Address, &l.Landmark, &l.Pincode,
		&l.ValueCents, &l.AllocationStrategy, &l.Priority, &l.Status,
		&l.AssignedPartnerID, &l.AcceptedBidID, &l.AllocationTime, &l.ConvertedAt, &l.ExpiryTime,
		&l.Source, &l.ContactName, &l.ContactPhone, &l.ContactEmail, &l.Description,
		&l.CreatedAt, &l.UpdatedAt,
	}
}
