package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gids_backend/platform/apperr"
)

// Repo implements Repository backed by Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Insert(ctx context.Context, entry Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_events (tenant_id, lead_id, event_name, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.TenantID, entry.LeadID, entry.EventName, entry.Payload, entry.OccurredAt)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to insert lead event", err)
	}
	return nil
}

func (r *Repo) ListByLead(ctx context.Context, leadID, tenantID uuid.UUID) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, lead_id, event_name, payload, occurred_at, created_at
		FROM lead_events
		WHERE lead_id = $1 AND tenant_id = $2
		ORDER BY occurred_at, created_at`,
		leadID, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list lead events", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.LeadID, &e.EventName, &e.Payload, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan lead event", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
