package repository

import (
	"context"
	"fmt"

	"homeserve_backend/internal/leads/domain"
)

// Analytics is the aggregate rollup over the lead store.
type Analytics struct {
	TotalLeads           int64
	ActiveLeads          int64
	ConvertedLeads       int64
	ExpiredLeads         int64
	CancelledLeads       int64
	ConversionRate       float64
	AvgAllocationSeconds float64
	LeadsWithBids        int64
	BidParticipationRate float64
	TotalBids            int64
	CityCount            int64
	StatusCounts         map[domain.Status]int64
}

// GetAnalytics computes the lead funnel rollup in two aggregate queries.
// Rates are computed here rather than in SQL to keep the division-by-zero
// handling in one obvious place.
func (r *Repository) GetAnalytics(ctx context.Context) (*Analytics, error) {
	a := &Analytics{StatusCounts: make(map[domain.Status]int64)}

	rows, err := r.db.Query(ctx, `SELECT status, count(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("lead status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.Status
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		a.StatusCounts[status] = count
		a.TotalLeads += count
		if !status.Terminal() {
			a.ActiveLeads += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	a.ConvertedLeads = a.StatusCounts[domain.StatusConverted]
	a.ExpiredLeads = a.StatusCounts[domain.StatusExpired]
	a.CancelledLeads = a.StatusCounts[domain.StatusCancelled]

	err = r.db.QueryRow(ctx, `
		SELECT
			COALESCE(EXTRACT(EPOCH FROM avg(allocation_time - created_at)), 0),
			count(DISTINCT city) FILTER (WHERE city != ''),
			(SELECT count(*) FROM lead_bids),
			(SELECT count(DISTINCT lead_id) FROM lead_bids)
		FROM leads`,
	).Scan(&a.AvgAllocationSeconds, &a.CityCount, &a.TotalBids, &a.LeadsWithBids)
	if err != nil {
		return nil, fmt.Errorf("lead analytics rollup: %w", err)
	}

	if a.TotalLeads > 0 {
		a.ConversionRate = float64(a.ConvertedLeads) / float64(a.TotalLeads)
		a.BidParticipationRate = float64(a.LeadsWithBids) / float64(a.TotalLeads)
	}

	return a, nil
}
