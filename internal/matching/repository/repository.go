package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

func (r *Repo) GetLeadFacts(ctx context.Context, leadID, tenantID uuid.UUID) (LeadFacts, error) {
	var f LeadFacts
	err := r.pool.QueryRow(ctx, `
		SELECT l.id, l.tenant_id, l.category_id, c.parent_id, l.postcode, l.city, l.status
		FROM leads l
		JOIN categories c ON c.id = l.category_id
		WHERE l.id = $1 AND l.tenant_id = $2`,
		leadID, tenantID).
		Scan(&f.LeadID, &f.TenantID, &f.CategoryID, &f.ParentCategoryID, &f.Postcode, &f.City, &f.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeadFacts{}, apperr.NotFound("lead not found")
		}
		return LeadFacts{}, apperr.Wrap(apperr.KindInternal, "failed to get lead facts", err)
	}
	return f, nil
}

// FindCandidates returns active companies in the lead's category tree that
// match the requested geographic strategy. An empty result is not an error.
func (r *Repo) FindCandidates(ctx context.Context, facts LeadFacts, strategy CandidateStrategy) ([]Candidate, error) {
	var geoPredicate string
	switch strategy {
	case StrategyPostcode:
		geoPredicate = `EXISTS (
			SELECT 1 FROM company_service_areas csa
			WHERE csa.company_id = co.id AND csa.postcode = $3)`
	case StrategySameCity:
		geoPredicate = `lower(co.city) = lower($5)`
	default:
		return nil, apperr.Wrap(apperr.KindInternal, fmt.Sprintf("unknown candidate strategy %q", strategy), nil)
	}

	query := fmt.Sprintf(`
		SELECT co.id, co.name, co.city, co.postcode, co.subscription_tier,
			EXISTS (
				SELECT 1 FROM company_service_areas csa
				WHERE csa.company_id = co.id AND csa.postcode = $3) AS exact_postcode,
			lower(co.city) = lower($5) AS same_city,
			EXISTS (
				SELECT 1 FROM company_categories cc
				WHERE cc.company_id = co.id AND cc.category_id = $2) AS exact_category,
			($4::uuid IS NOT NULL AND EXISTS (
				SELECT 1 FROM company_categories cc
				WHERE cc.company_id = co.id AND cc.category_id = $4)) AS parent_category
		FROM companies co
		WHERE co.tenant_id = $1
			AND co.is_active
			AND co.subscription_status IN ('active', 'trial')
			AND EXISTS (
				SELECT 1 FROM company_categories cc
				WHERE cc.company_id = co.id
					AND (cc.category_id = $2 OR ($4::uuid IS NOT NULL AND cc.category_id = $4)))
			AND %s
		ORDER BY co.id`, geoPredicate)

	rows, err := r.pool.Query(ctx, query,
		facts.TenantID, facts.CategoryID, facts.Postcode, facts.ParentCategoryID, facts.City)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to find candidates", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.CompanyID, &c.Name, &c.City, &c.Postcode, &c.SubscriptionTier,
			&c.ExactPostcode, &c.SameCity, &c.ExactCategory, &c.ParentCategory); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan candidate", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// CompanyHistories aggregates responded assignments over each company's
// last `window` responses.
func (r *Repo) CompanyHistories(ctx context.Context, tenantID uuid.UUID, companyIDs []uuid.UUID, window int) (map[uuid.UUID]History, error) {
	if len(companyIDs) == 0 {
		return map[uuid.UUID]History{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT co.id,
			count(r.status),
			count(r.status) FILTER (WHERE r.status = 'accepted'),
			COALESCE(avg(r.response_seconds), 0)
		FROM unnest($1::uuid[]) AS co(id)
		LEFT JOIN LATERAL (
			SELECT a.status, a.response_seconds
			FROM assignments a
			JOIN leads l ON l.id = a.lead_id
			WHERE a.company_id = co.id
				AND l.tenant_id = $2
				AND a.status IN ('accepted', 'declined')
				AND a.responded_at IS NOT NULL
			ORDER BY a.responded_at DESC
			LIMIT $3
		) r ON true
		GROUP BY co.id`,
		companyIDs, tenantID, window)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load company histories", err)
	}
	defer rows.Close()

	histories := make(map[uuid.UUID]History, len(companyIDs))
	for rows.Next() {
		var id uuid.UUID
		var h History
		if err := rows.Scan(&id, &h.Responded, &h.Accepted, &h.AvgResponseSeconds); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan company history", err)
		}
		histories[id] = h
	}
	return histories, rows.Err()
}

const assignmentColumns = `a.id, a.lead_id, l.tenant_id, a.company_id, a.score, a.rank,
	a.status, a.offered_at, a.responded_at, a.response_seconds, a.decline_reason, a.notes, a.created_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.LeadID, &a.TenantID, &a.CompanyID, &a.Score, &a.Rank,
		&a.Status, &a.OfferedAt, &a.RespondedAt, &a.ResponseSeconds, &a.DeclineReason, &a.Notes, &a.CreatedAt)
	return a, err
}

// CreateBatch creates all assignments for a plan in one transaction. A
// mid-batch failure rolls the whole set back; a lead never carries a
// partial plan.
func (r *Repo) CreateBatch(ctx context.Context, params CreateBatchParams) ([]Assignment, error) {
	if len(params.Entries) == 0 {
		return nil, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var leadStatus string
	err = tx.QueryRow(ctx,
		`SELECT status FROM leads WHERE id = $1 AND tenant_id = $2 AND archived_at IS NULL FOR UPDATE`,
		params.LeadID, params.TenantID).Scan(&leadStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to lock lead", err)
	}
	if leadStatus != "new" && leadStatus != "assigned" {
		return nil, apperr.Conflict("lead is closed")
	}

	// Guarded insert-select: a company outside the lead's tenant produces
	// zero rows instead of a cross-tenant assignment.
	assignments := make([]Assignment, 0, len(params.Entries))
	for _, entry := range params.Entries {
		row := tx.QueryRow(ctx, `
			INSERT INTO assignments (lead_id, company_id, score, rank, status, offered_at)
			SELECT $1, co.id, $3, $4, 'sent', $5
			FROM companies co
			WHERE co.id = $2 AND co.tenant_id = $6
			RETURNING id, lead_id, $6::uuid, company_id, score, rank,
				status, offered_at, responded_at, response_seconds, decline_reason, notes, created_at`,
			params.LeadID, entry.CompanyID, entry.Score, entry.Rank, params.OfferedAt, params.TenantID)

		a, err := scanAssignment(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperr.Validation("company does not belong to this tenant")
			}
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, apperr.Conflict("company already assigned to this lead")
			}
			return nil, apperr.Wrap(apperr.KindInternal, "failed to create assignment", err)
		}
		assignments = append(assignments, a)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE leads SET status = 'assigned' WHERE id = $1 AND status = 'new'`,
		params.LeadID); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to update lead status", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to commit assignment batch", err)
	}
	return assignments, nil
}

func (r *Repo) GetAssignment(ctx context.Context, id, tenantID uuid.UUID) (Assignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM assignments a
		JOIN leads l ON l.id = a.lead_id
		WHERE a.id = $1 AND l.tenant_id = $2`, assignmentColumns)

	a, err := scanAssignment(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, apperr.NotFound("assignment not found")
		}
		return Assignment{}, apperr.Wrap(apperr.KindInternal, "failed to get assignment", err)
	}
	return a, nil
}

func (r *Repo) ListByLead(ctx context.Context, leadID, tenantID uuid.UUID) ([]Assignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM assignments a
		JOIN leads l ON l.id = a.lead_id
		WHERE a.lead_id = $1 AND l.tenant_id = $2
		ORDER BY a.rank`, assignmentColumns)

	rows, err := r.pool.Query(ctx, query, leadID, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list assignments", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan assignment", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// Accept marks an assignment accepted, expires its still-open siblings and
// closes the lead as won, all in one transaction. The guarded update plus
// the partial unique index on accepted assignments keep concurrent accepts
// down to a single winner.
func (r *Repo) Accept(ctx context.Context, id, tenantID uuid.UUID, notes *string) (AcceptResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return AcceptResult{}, apperr.Wrap(apperr.KindInternal, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
		UPDATE assignments a
		SET status = 'accepted',
			responded_at = now(),
			response_seconds = GREATEST(0, EXTRACT(EPOCH FROM (now() - a.offered_at)))::int,
			notes = COALESCE($3, a.notes)
		FROM leads l
		WHERE a.id = $1 AND a.status = 'sent' AND l.id = a.lead_id AND l.tenant_id = $2
		RETURNING %s`, assignmentColumns)

	accepted, err := scanAssignment(tx.QueryRow(ctx, query, id, tenantID, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AcceptResult{}, r.respondConflict(ctx, id, tenantID)
		}
		return AcceptResult{}, apperr.Wrap(apperr.KindInternal, "failed to accept assignment", err)
	}

	siblingQuery := fmt.Sprintf(`
		UPDATE assignments a
		SET status = 'expired'
		FROM leads l
		WHERE a.lead_id = $1 AND a.status = 'sent' AND l.id = a.lead_id
		RETURNING %s`, assignmentColumns)

	rows, err := tx.Query(ctx, siblingQuery, accepted.LeadID)
	if err != nil {
		return AcceptResult{}, apperr.Wrap(apperr.KindInternal, "failed to expire sibling assignments", err)
	}
	var expired []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			rows.Close()
			return AcceptResult{}, apperr.Wrap(apperr.KindInternal, "failed to scan expired sibling", err)
		}
		expired = append(expired, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return AcceptResult{}, apperr.Wrap(apperr.KindInternal, "failed to read expired siblings", err)
	}

	var leadStatus string
	if err := tx.QueryRow(ctx,
		`UPDATE leads SET status = 'won' WHERE id = $1 RETURNING status`, accepted.LeadID).
		Scan(&leadStatus); err != nil {
		return AcceptResult{}, apperr.Wrap(apperr.KindInternal, "failed to close lead", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return AcceptResult{}, apperr.Wrap(apperr.KindInternal, "failed to commit acceptance", err)
	}
	return AcceptResult{Accepted: accepted, Expired: expired, LeadStatus: leadStatus}, nil
}

// Decline is a guarded single-row update; the lead and its other
// assignments are untouched.
func (r *Repo) Decline(ctx context.Context, params DeclineParams) (DeclineResult, error) {
	query := fmt.Sprintf(`
		UPDATE assignments a
		SET status = 'declined',
			responded_at = now(),
			response_seconds = GREATEST(0, EXTRACT(EPOCH FROM (now() - a.offered_at)))::int,
			decline_reason = $3,
			notes = $4
		FROM leads l
		WHERE a.id = $1 AND a.status = 'sent' AND l.id = a.lead_id AND l.tenant_id = $2
		RETURNING %s, l.status`, assignmentColumns)

	var a Assignment
	var leadStatus string
	err := r.pool.QueryRow(ctx, query,
		params.AssignmentID, params.TenantID, params.Reason, params.Notes).
		Scan(&a.ID, &a.LeadID, &a.TenantID, &a.CompanyID, &a.Score, &a.Rank,
			&a.Status, &a.OfferedAt, &a.RespondedAt, &a.ResponseSeconds, &a.DeclineReason, &a.Notes, &a.CreatedAt,
			&leadStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DeclineResult{}, r.respondConflict(ctx, params.AssignmentID, params.TenantID)
		}
		return DeclineResult{}, apperr.Wrap(apperr.KindInternal, "failed to decline assignment", err)
	}
	return DeclineResult{Declined: a, LeadStatus: leadStatus}, nil
}

// ExpireStale expires every open offer older than the cutoff in one guarded
// batch update. Safe to run concurrently with responses: a row that flips
// out of 'sent' first is simply skipped.
func (r *Repo) ExpireStale(ctx context.Context, cutoff time.Time) ([]Assignment, error) {
	query := fmt.Sprintf(`
		UPDATE assignments a
		SET status = 'expired'
		FROM leads l
		WHERE a.status = 'sent' AND a.offered_at < $1 AND l.id = a.lead_id
		RETURNING %s`, assignmentColumns)

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to expire stale assignments", err)
	}
	defer rows.Close()

	var expired []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan expired assignment", err)
		}
		expired = append(expired, a)
	}
	return expired, rows.Err()
}

// respondConflict distinguishes a missing assignment from one that already
// left 'sent': the first is NotFound, the second Conflict.
func (r *Repo) respondConflict(ctx context.Context, id, tenantID uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM assignments a
			JOIN leads l ON l.id = a.lead_id
			WHERE a.id = $1 AND l.tenant_id = $2)`,
		id, tenantID).Scan(&exists)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to check assignment", err)
	}
	if !exists {
		return apperr.NotFound("assignment not found")
	}
	return apperr.Conflict("offer no longer available")
}
