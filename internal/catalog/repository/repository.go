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

const tenantColumns = `id, name, domain, created_at`

func (r *Repo) GetTenantByDomain(ctx context.Context, domain string) (Tenant, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE domain = $1`, tenantColumns)

	var t Tenant
	err := r.pool.QueryRow(ctx, query, domain).Scan(&t.ID, &t.Name, &t.Domain, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, apperr.NotFound("tenant not found")
		}
		return Tenant{}, apperr.Wrap(apperr.KindInternal, "failed to get tenant", err)
	}
	return t, nil
}

const categoryColumns = `id, tenant_id, parent_id, name, slug, created_at`

func (r *Repo) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE tenant_id = $1 ORDER BY parent_id NULLS FIRST, name`, categoryColumns)

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list categories", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.ParentID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan category", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *Repo) CreateCategory(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID, name, slug string) (Category, error) {
	query := fmt.Sprintf(`
		INSERT INTO categories (tenant_id, parent_id, name, slug)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, categoryColumns)

	var c Category
	err := r.pool.QueryRow(ctx, query, tenantID, parentID, name, slug).
		Scan(&c.ID, &c.TenantID, &c.ParentID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Category{}, apperr.Conflict("category slug already exists")
		}
		return Category{}, apperr.Wrap(apperr.KindInternal, "failed to create category", err)
	}
	return c, nil
}

const companyColumns = `id, tenant_id, name, city, postcode, is_active,
	subscription_tier, subscription_status, phone, email, created_at, updated_at`

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.City, &c.Postcode, &c.IsActive,
		&c.SubscriptionTier, &c.SubscriptionStatus, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repo) CreateCompany(ctx context.Context, params CreateCompanyParams) (Company, error) {
	query := fmt.Sprintf(`
		INSERT INTO companies (tenant_id, name, city, postcode, is_active,
			subscription_tier, subscription_status, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, companyColumns)

	c, err := scanCompany(r.pool.QueryRow(ctx, query,
		params.TenantID, params.Name, params.City, params.Postcode, params.IsActive,
		params.SubscriptionTier, params.SubscriptionStatus, params.Phone, params.Email))
	if err != nil {
		return Company{}, apperr.Wrap(apperr.KindInternal, "failed to create company", err)
	}
	return c, nil
}

func (r *Repo) GetCompanyByID(ctx context.Context, id, tenantID uuid.UUID) (Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE id = $1 AND tenant_id = $2`, companyColumns)

	c, err := scanCompany(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound("company not found")
		}
		return Company{}, apperr.Wrap(apperr.KindInternal, "failed to get company", err)
	}
	return c, nil
}

func (r *Repo) UpdateCompany(ctx context.Context, params UpdateCompanyParams) (Company, error) {
	setClauses := []string{"updated_at = now()"}
	args := []any{params.ID, params.TenantID}
	idx := 3

	addSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if params.Name != nil {
		addSet("name", *params.Name)
	}
	if params.City != nil {
		addSet("city", *params.City)
	}
	if params.Postcode != nil {
		addSet("postcode", *params.Postcode)
	}
	if params.IsActive != nil {
		addSet("is_active", *params.IsActive)
	}
	if params.SubscriptionTier != nil {
		addSet("subscription_tier", *params.SubscriptionTier)
	}
	if params.SubscriptionStatus != nil {
		addSet("subscription_status", *params.SubscriptionStatus)
	}
	if params.Phone != nil {
		addSet("phone", *params.Phone)
	}
	if params.Email != nil {
		addSet("email", *params.Email)
	}

	query := fmt.Sprintf(`
		UPDATE companies SET %s
		WHERE id = $1 AND tenant_id = $2
		RETURNING %s`, strings.Join(setClauses, ", "), companyColumns)

	c, err := scanCompany(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound("company not found")
		}
		return Company{}, apperr.Wrap(apperr.KindInternal, "failed to update company", err)
	}
	return c, nil
}

func (r *Repo) ListCompanies(ctx context.Context, params CompanyListParams) (CompanyListResult, error) {
	where := []string{"c.tenant_id = $1"}
	args := []any{params.TenantID}
	idx := 2

	if params.Search != "" {
		where = append(where, fmt.Sprintf("(c.name ILIKE $%d OR c.city ILIKE $%d)", idx, idx))
		args = append(args, "%"+params.Search+"%")
		idx++
	}
	if params.ActiveOnly {
		where = append(where, "c.is_active = true")
	}
	if params.CategoryID != uuid.Nil {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM company_categories cc WHERE cc.company_id = c.id AND cc.category_id = $%d)", idx))
		args = append(args, params.CategoryID)
		idx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM companies c WHERE %s`, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return CompanyListResult{}, apperr.Wrap(apperr.KindInternal, "failed to count companies", err)
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
		SELECT %s FROM companies c
		WHERE %s
		ORDER BY c.name
		LIMIT $%d OFFSET $%d`,
		strings.ReplaceAll(companyColumns, "id,", "c.id,"), whereClause, idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return CompanyListResult{}, apperr.Wrap(apperr.KindInternal, "failed to list companies", err)
	}
	defer rows.Close()

	var items []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return CompanyListResult{}, apperr.Wrap(apperr.KindInternal, "failed to scan company", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return CompanyListResult{}, apperr.Wrap(apperr.KindInternal, "failed to read companies", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return CompanyListResult{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}, nil
}

func (r *Repo) ReplaceCompanyCategories(ctx context.Context, companyID, tenantID uuid.UUID, categoryIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `SELECT 1 FROM companies WHERE id = $1 AND tenant_id = $2`, companyID, tenantID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to check company", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("company not found")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM company_categories WHERE company_id = $1`, companyID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to clear company categories", err)
	}
	for _, categoryID := range categoryIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO company_categories (company_id, category_id) VALUES ($1, $2)`,
			companyID, categoryID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperr.Validation("unknown category")
			}
			return apperr.Wrap(apperr.KindInternal, "failed to insert company category", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to commit", err)
	}
	return nil
}

func (r *Repo) ListCompanyCategoryIDs(ctx context.Context, companyID, tenantID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cc.category_id
		FROM company_categories cc
		JOIN companies c ON c.id = cc.company_id
		WHERE cc.company_id = $1 AND c.tenant_id = $2`, companyID, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list company categories", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan category id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repo) ReplaceCompanyServiceAreas(ctx context.Context, companyID, tenantID uuid.UUID, postcodes []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `SELECT 1 FROM companies WHERE id = $1 AND tenant_id = $2`, companyID, tenantID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to check company", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("company not found")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM company_service_areas WHERE company_id = $1`, companyID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to clear service areas", err)
	}
	for _, postcode := range postcodes {
		_, err := tx.Exec(ctx,
			`INSERT INTO company_service_areas (company_id, postcode) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			companyID, postcode)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to insert service area", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to commit", err)
	}
	return nil
}

func (r *Repo) ListCompanyServiceAreas(ctx context.Context, companyID, tenantID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT csa.postcode
		FROM company_service_areas csa
		JOIN companies c ON c.id = csa.company_id
		WHERE csa.company_id = $1 AND c.tenant_id = $2
		ORDER BY csa.postcode`, companyID, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list service areas", err)
	}
	defer rows.Close()

	var postcodes []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan postcode", err)
		}
		postcodes = append(postcodes, p)
	}
	return postcodes, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
