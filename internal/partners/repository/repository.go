// Package repository provides data access for service partners.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested partner does not exist.
var ErrNotFound = errors.New("partner not found")

// ErrDuplicatePhone indicates a partner with the same phone already exists.
var ErrDuplicatePhone = errors.New("partner phone already registered")

// Partner represents a service provider registered on the platform.
type Partner struct {
	ID              uuid.UUID
	BusinessName    string
	Phone           string
	Email           string
	Active          bool
	Approved        bool
	Categories      []string
	ServicePincodes []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ListParams controls filtering for partner listings.
type ListParams struct {
	Active   *bool
	Approved *bool
	Category string
	Pincode  string
	Limit    int
	Offset   int
}

// UpdateParams holds the mutable fields of a partner. Nil fields are left
// unchanged.
type UpdateParams struct {
	BusinessName    *string
	Email           *string
	Active          *bool
	Approved        *bool
	Categories      []string
	ServicePincodes []string
}

// Repository provides access to the partners store.
type Repository struct {
	db *pgxpool.Pool
}

// New creates a partners repository.
func New(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new partner.
func (r *Repository) Create(ctx context.Context, p *Partner) (*Partner, error) {
	query := `
		INSERT INTO partners (id, business_name, phone, email, active, approved, categories, service_pincodes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, business_name, phone, email, active, approved, categories, service_pincodes, created_at, updated_at`

	var created Partner
	err := r.db.QueryRow(ctx, query,
		uuid.New(), p.BusinessName, p.Phone, p.Email, p.Active, p.Approved, p.Categories, p.ServicePincodes,
	).Scan(
		&created.ID, &created.BusinessName, &created.Phone, &created.Email,
		&created.Active, &created.Approved, &created.Categories, &created.ServicePincodes,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "partners_phone_key") {
			return nil, ErrDuplicatePhone
		}
		return nil, fmt.Errorf("create partner: %w", err)
	}

	return &created, nil
}

// GetByID fetches a single partner.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Partner, error) {
	query := `
		SELECT id, business_name, phone, email, active, approved, categories, service_pincodes, created_at, updated_at
		FROM partners
		WHERE id = $1`

	var p Partner
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.BusinessName, &p.Phone, &p.Email,
		&p.Active, &p.Approved, &p.Categories, &p.ServicePincodes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}

	return &p, nil
}

// List returns partners matching the filter, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Partner, error) {
	query := `
		SELECT id, business_name, phone, email, active, approved, categories, service_pincodes, created_at, updated_at
		FROM partners
		WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if params.Active != nil {
		query += fmt.Sprintf(" AND active = $%d", argIdx)
		args = append(args, *params.Active)
		argIdx++
	}
	if params.Approved != nil {
		query += fmt.Sprintf(" AND approved = $%d", argIdx)
		args = append(args, *params.Approved)
		argIdx++
	}
	if params.Category != "" {
		query += fmt.Sprintf(" AND $%d = ANY(categories)", argIdx)
		args = append(args, params.Category)
		argIdx++
	}
	if params.Pincode != "" {
		query += fmt.Sprintf(" AND $%d = ANY(service_pincodes)", argIdx)
		args = append(args, params.Pincode)
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
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	return scanPartners(rows)
}

// Update applies the non-nil fields of params to a partner.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Partner, error) {
	setClauses := []string{"updated_at = now()"}
	args := []interface{}{}
	argIdx := 1

	if params.BusinessName != nil {
		setClauses = append(setClauses, fmt.Sprintf("business_name = $%d", argIdx))
		args = append(args, *params.BusinessName)
		argIdx++
	}
	if params.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argIdx))
		args = append(args, *params.Email)
		argIdx++
	}
	if params.Active != nil {
		setClauses = append(setClauses, fmt.Sprintf("active = $%d", argIdx))
		args = append(args, *params.Active)
		argIdx++
	}
	if params.Approved != nil {
		setClauses = append(setClauses, fmt.Sprintf("approved = $%d", argIdx))
		args = append(args, *params.Approved)
		argIdx++
	}
	if params.Categories != nil {
		setClauses = append(setClauses, fmt.Sprintf("categories = $%d", argIdx))
		args = append(args, params.Categories)
		argIdx++
	}
	if params.ServicePincodes != nil {
		setClauses = append(setClauses, fmt.Sprintf("service_pincodes = $%d", argIdx))
		args = append(args, params.ServicePincodes)
		argIdx++
	}

	query := fmt.Sprintf(`
		UPDATE partners
		SET %s
		WHERE id = $%d
		RETURNING id, business_name, phone, email, active, approved, categories, service_pincodes, created_at, updated_at`,
		strings.Join(setClauses, ", "), argIdx)
	args = append(args, id)

	var p Partner
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.BusinessName, &p.Phone, &p.Email,
		&p.Active, &p.Approved, &p.Categories, &p.ServicePincodes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update partner: %w", err)
	}

	return &p, nil
}

// FindEligible returns active, approved partners serving the given pincode.
// When category is non-empty the partner must also cover that category.
// Results are ordered oldest first so rule-based allocation is stable.
func (r *Repository) FindEligible(ctx context.Context, pincode, category string) ([]Partner, error) {
	query := `
		SELECT id, business_name, phone, email, active, approved, categories, service_pincodes, created_at, updated_at
		FROM partners
		WHERE active = true
		  AND approved = true
		  AND $1 = ANY(service_pincodes)`

	args := []interface{}{pincode}
	if category != "" {
		query += " AND $2 = ANY(categories)"
		args = append(args, category)
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find eligible partners: %w", err)
	}
	defer rows.Close()

	return scanPartners(rows)
}

func scanPartners(rows pgx.Rows) ([]Partner, error) {
	var partners []Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(
			&p.ID, &p.BusinessName, &p.Phone, &p.Email,
			&p.Active, &p.Approved, &p.Categories, &p.ServicePincodes,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}
