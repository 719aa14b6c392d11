package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const leadColumns = `id, tenant_id, category_id, postcode, city, name, phone,
	email, note, status, archived_at, created_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.TenantID, &l.CategoryID, &l.Postcode, &l.City, &l.Name,
		&l.Phone, &l.Email, &l.Note, &l.Status, &l.ArchivedAt, &l.CreatedAt)
	return l, err
}

func (r *Repo) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	query := fmt.Sprintf(`
		INSERT INTO leads (tenant_id, category_id, postcode, city, name, phone, email, note, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '%s')
		RETURNING %s`, StatusNew, leadColumns)

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		params.TenantID, params.CategoryID, params.Postcode, params.City,
		params.Name, params.Phone, params.Email, params.Note))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Lead{}, apperr.Validation("unknown category")
		}
		return Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}
	return lead, nil
}

func (r *Repo) GetByID(ctx context.Context, id, tenantID uuid.UUID) (Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1 AND tenant_id = $2`, leadColumns)

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound("lead not found")
		}
		return Lead{}, apperr.Wrap(apperr.KindInternal, "failed to get lead", err)
	}
	return lead, nil
}

func (r *Repo) List(ctx context.Context, params LeadListParams) (LeadListResult, error) {
	where := []string{"tenant_id = $1"}
	args := []any{params.TenantID}
	idx := 2

	if params.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", idx))
		args = append(args, params.Status)
		idx++
	}
	if !params.IncludeArchived {
		where = append(where, "archived_at IS NULL")
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM leads WHERE %s`, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return LeadListResult{}, apperr.Wrap(apperr.KindInternal, "failed to count leads", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}

	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, leadColumns, whereClause, idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return LeadListResult{}, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	defer rows.Close()

	var items []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return LeadListResult{}, apperr.Wrap(apperr.KindInternal, "failed to scan lead", err)
		}
		items = append(items, lead)
	}
	if err := rows.Err(); err != nil {
		return LeadListResult{}, apperr.Wrap(apperr.KindInternal, "failed to read leads", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return LeadListResult{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}, nil
}

// MarkLost closes a lead that will not be matched further. Only leads still
// in 'new' or 'assigned' can be closed; a won lead stays won.
func (r *Repo) MarkLost(ctx context.Context, id, tenantID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = $3
		WHERE id = $1 AND tenant_id = $2 AND status IN ($4, $5)`,
		id, tenantID, StatusLost, StatusNew, StatusAssigned)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to mark lead lost", err)
	}
	if tag.RowsAffected() == 0 {
		if err := r.probeLead(ctx, id, tenantID); err != nil {
			return err
		}
		return apperr.Conflict("lead is no longer open")
	}
	return nil
}

func (r *Repo) Archive(ctx context.Context, id, tenantID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET archived_at = now()
		WHERE id = $1 AND tenant_id = $2 AND archived_at IS NULL`,
		id, tenantID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to archive lead", err)
	}
	if tag.RowsAffected() == 0 {
		if err := r.probeLead(ctx, id, tenantID); err != nil {
			return err
		}
		return apperr.Conflict("lead already archived")
	}
	return nil
}

func (r *Repo) probeLead(ctx context.Context, id, tenantID uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1 AND tenant_id = $2)`,
		id, tenantID).Scan(&exists)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to check lead", err)
	}
	if !exists {
		return apperr.NotFound("lead not found")
	}
	return nil
}
