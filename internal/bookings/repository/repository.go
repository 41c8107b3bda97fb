// Package repository provides data access for bookings.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested booking does not exist.
var ErrNotFound = errors.New("booking not found")

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Booking represents a customer service booking.
type Booking struct {
	ID          uuid.UUID
	UserID      *uuid.UUID
	PartnerID   *uuid.UUID
	Category    string
	Service     string
	SubService  string
	Address     string
	Landmark    string
	Pincode     string
	City        string
	AmountCents int64
	Status      string
	Paid        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListParams controls filtering for booking listings.
type ListParams struct {
	UserID    *uuid.UUID
	PartnerID *uuid.UUID
	Status    string
	Limit     int
	Offset    int
}

// Repository provides access to the bookings store.
type Repository struct {
	db *pgxpool.Pool
}

// New creates a bookings repository.
func New(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const bookingColumns = `id, user_id, partner_id, category, service, sub_service, address, landmark, pincode, city, amount_cents, status, paid, created_at, updated_at`

// Create inserts a new booking.
func (r *Repository) Create(ctx context.Context, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (id, user_id, partner_id, category, service, sub_service, address, landmark, pincode, city, amount_cents, status, paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + bookingColumns

	id := b.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	status := b.Status
	if status == "" {
		status = StatusPending
	}

	var created Booking
	err := r.db.QueryRow(ctx, query,
		id, b.UserID, b.PartnerID, b.Category, b.Service, b.SubService,
		b.Address, b.Landmark, b.Pincode, b.City, b.AmountCents, status, b.Paid,
	).Scan(scanTargets(&created)...)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	return &created, nil
}

// GetByID fetches a single booking.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var b Booking
	err := r.db.QueryRow(ctx, query, id).Scan(scanTargets(&b)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}

	return &b, nil
}

// List returns bookings matching the filter, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if params.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, *params.UserID)
		argIdx++
	}
	if params.PartnerID != nil {
		query += fmt.Sprintf(" AND partner_id = $%d", argIdx)
		args = append(args, *params.PartnerID)
		argIdx++
	}
	if params.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, params.Status)
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
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListUnassignedOpen returns pending/confirmed bookings that have no
// partner yet. Demand intake uses this for bulk lead sync.
func (r *Repository) ListUnassignedOpen(ctx context.Context) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status IN ($1, $2)
		  AND partner_id IS NULL
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("list unassigned bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateStatus sets the booking status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Booking, error) {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + bookingColumns

	var b Booking
	err := r.db.QueryRow(ctx, query, id, status).Scan(scanTargets(&b)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	return &b, nil
}

// AssignPartner binds a partner to a booking and advances the status.
// The conditional on partner_id keeps two racing assignments from both
// winning; the second caller sees zero rows and gets ErrAlreadyAssigned.
func (r *Repository) AssignPartner(ctx context.Context, id, partnerID uuid.UUID, status string) (*Booking, error) {
	query := `
		UPDATE bookings
		SET partner_id = $2, status = $3, updated_at = now()
		WHERE id = $1 AND partner_id IS NULL
		RETURNING ` + bookingColumns

	var b Booking
	err := r.db.QueryRow(ctx, query, id, partnerID, status).Scan(scanTargets(&b)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing booking from one already assigned.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrAlreadyAssigned
		}
		return nil, fmt.Errorf("assign booking partner: %w", err)
	}

	return &b, nil
}

// ErrAlreadyAssigned indicates the booking already has a partner bound.
var ErrAlreadyAssigned = errors.New("booking already assigned")

// SetPaid marks a booking as paid.
func (r *Repository) SetPaid(ctx context.Context, id uuid.UUID, paid bool) (*Booking, error) {
	query := `
		UPDATE bookings
		SET paid = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + bookingColumns

	var b Booking
	err := r.db.QueryRow(ctx, query, id, paid).Scan(scanTargets(&b)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("set booking paid: %w", err)
	}

	return &b, nil
}

func scanTargets(b *Booking) []interface{} {
	return []interface{}{
		&b.ID, &b.UserID, &b.PartnerID, &b.Category, &b.Service, &b.SubService,
		&b.Address, &b.Landmark, &b.Pincode, &b.City, &b.AmountCents,
		&b.Status, &b.Paid, &b.CreatedAt, &b.UpdatedAt,
	}
}

func scanBookings(rows pgx.Rows) ([]Booking, error) {
	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(scanTargets(&b)...); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
