// Package repository provides data access for customer accounts.
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

// ErrNotFound indicates the requested user does not exist.
var ErrNotFound = errors.New("user not found")

// User represents a customer account.
type User struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to the users store.
type Repository struct {
	db *pgxpool.Pool
}

// New creates a users repository.
func New(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByID fetches a single user.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, name, phone, email, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Email, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// FindByPhone looks up a user by normalized phone number.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*User, error) {
	query := `
		SELECT id, name, phone, email, created_at, updated_at
		FROM users
		WHERE phone = $1`

	var u User
	err := r.db.QueryRow(ctx, query, phone).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Email, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by phone: %w", err)
	}

	return &u, nil
}

// FindOrCreateByPhone returns the user with the given phone, creating one
// if none exists. Name and email on an existing record are only filled in
// when they are currently empty, so a later enquiry never clobbers details
// the customer already provided.
func (r *Repository) FindOrCreateByPhone(ctx context.Context, phone, name, email string) (*User, error) {
	query := `
		INSERT INTO users (id, name, phone, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (phone) DO UPDATE SET
			name = CASE WHEN users.name = '' THEN EXCLUDED.name ELSE users.name END,
			email = CASE WHEN users.email = '' THEN EXCLUDED.email ELSE users.email END,
			updated_at = now()
		RETURNING id, name, phone, email, created_at, updated_at`

	var u User
	err := r.db.QueryRow(ctx, query, uuid.New(), name, phone, email).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Email, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find or create user: %w", err)
	}

	return &u, nil
}
