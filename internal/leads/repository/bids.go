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
)

// SubmitBid appends a bid to an open lead. The lead's status move from
// awaiting_bid to bidding rides in the same transaction as the insert,
// so the first bid and the transition commit together. The conditional
// update doubles as the open-for-bidding check.
func (r *Repository) SubmitBid(ctx context.Context, leadID, partnerID uuid.UUID, amountCents int64, etaDays *int, score *float64) (*Bid, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin submit bid: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE leads
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status IN ($3, $4)`,
		leadID, domain.StatusBidding, domain.StatusAwaitingBid, domain.StatusBidding)
	if err != nil {
		return nil, fmt.Errorf("open lead for bidding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, leadID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNotOpenForBids
	}

	var bid Bid
	err = tx.QueryRow(ctx, `
		INSERT INTO lead_bids (id, lead_id, partner_id, amount_cents, eta_days, score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+bidColumns,
		uuid.New(), leadID, partnerID, amountCents, etaDays, score, domain.BidPending,
	).Scan(&bid.ID, &bid.LeadID, &bid.PartnerID, &bid.AmountCents, &bid.ETADays, &bid.Score, &bid.Status, &bid.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert bid: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit submit bid: %w", err)
	}

	return &bid, nil
}

// AcceptBid resolves a lead to a single winning bid. The whole
// resolution is one transaction:
//
//  1. the target bid is loaded (NotFound if absent or on another lead),
//  2. the lead row is conditionally moved to assigned, guarded on it
//     still being unresolved, so a second concurrent accept loses with
//     ErrAlreadyResolved instead of overwriting the first,
//  3. the winning bid flips to accepted, every sibling pending bid to
//     rejected.
//
// A partial unique index on accepted bids per lead backs the same
// invariant at the storage level.
func (r *Repository) AcceptBid(ctx context.Context, leadID, bidID uuid.UUID) (*Lead, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin accept bid: %w", err)
	}
	defer tx.Rollback(ctx)

	var bid Bid
	err = tx.QueryRow(ctx,
		`SELECT `+bidColumns+` FROM lead_bids WHERE id = $1 AND lead_id = $2`,
		bidID, leadID,
	).Scan(&bid.ID, &bid.LeadID, &bid.PartnerID, &bid.AmountCents, &bid.ETADays, &bid.Score, &bid.Status, &bid.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, leadID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrBidNotFound
		}
		return nil, fmt.Errorf("load bid: %w", err)
	}

	now := time.Now()
	tag, err := tx.Exec(ctx, `
		UPDATE leads
		SET status = $2, assigned_partner_id = $3, accepted_bid_id = $4, allocation_time = $5, updated_at = now()
		WHERE id = $1
		  AND status IN ($6, $7)
		  AND accepted_bid_id IS NULL`,
		leadID, domain.StatusAssigned, bid.PartnerID, bid.ID, now,
		domain.StatusAwaitingBid, domain.StatusBidding)
	if err != nil {
		return nil, fmt.Errorf("assign lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyResolved
	}

	_, err = tx.Exec(ctx, `
		UPDATE lead_bids
		SET status = $3
		WHERE lead_id = $1 AND id != $2 AND status = $4`,
		leadID, bidID, domain.BidRejected, domain.BidPending)
	if err != nil {
		return nil, fmt.Errorf("reject sibling bids: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE lead_bids SET status = $2 WHERE id = $1`,
		bidID, domain.BidAccepted)
	if err != nil {
		if strings.Contains(err.Error(), "idx_lead_bids_exclusive_acceptance") {
			return nil, ErrAlreadyResolved
		}
		return nil, fmt.Errorf("accept bid: %w", err)
	}

	var lead Lead
	err = tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, leadID).
		Scan(leadScanTargets(&lead)...)
	if err != nil {
		return nil, fmt.Errorf("reload lead: %w", err)
	}

	bids, err := r.listBids(ctx, tx, leadID)
	if err != nil {
		return nil, err
	}
	lead.Bids = bids

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit accept bid: %w", err)
	}

	return &lead, nil
}

// ExpireLeads sweeps every non-terminal lead whose TTL has elapsed into
// the expired state and returns the closed leads. Run periodically by
// the scheduler.
func (r *Repository) ExpireLeads(ctx context.Context, now time.Time) ([]Lead, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE leads
		SET status = $1, updated_at = now()
		WHERE status NOT IN ($2, $3, $4)
		  AND expiry_time < $5
		RETURNING `+leadColumns,
		domain.StatusExpired,
		domain.StatusConverted, domain.StatusCancelled, domain.StatusExpired,
		now)
	if err != nil {
		return nil, fmt.Errorf("expire leads: %w", err)
	}
	defer rows.Close()

	var expired []Lead
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(leadScanTargets(&lead)...); err != nil {
			return nil, fmt.Errorf("scan expired lead: %w", err)
		}
		expired = append(expired, lead)
	}
	return expired, rows.Err()
}
