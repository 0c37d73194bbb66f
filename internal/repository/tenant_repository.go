package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/auth-service/internal/model"
)

// TenantQuery filters and paginates the tenant listing.
type TenantQuery struct {
	Q           string
	PerPage     int
	CurrentPage int
}

// TenantStore is the persistence contract for tenants.
type TenantStore interface {
	Create(ctx context.Context, name, address string) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Tenant, error)
	Update(ctx context.Context, id uint64, name, address string) error
	List(ctx context.Context, q TenantQuery) ([]model.Tenant, int, error)
	Delete(ctx context.Context, id uint64) error
}

// TenantRepo persists tenants in the `tenants` table.
type TenantRepo struct{ DB *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{DB: db} }

// Create inserts a tenant and returns its id.
func (r *TenantRepo) Create(ctx context.Context, name, address string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tenants (name, address) VALUES (?,?)", name, address)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a tenant by id.
func (r *TenantRepo) GetByID(ctx context.Context, id uint64) (model.Tenant, error) {
	var t model.Tenant
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,address,created_at,updated_at FROM tenants WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tenant{}, ErrNotFound
	}
	return t, err
}

// Update rewrites name and address of a tenant row.
func (r *TenantRepo) Update(ctx context.Context, id uint64, name, address string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tenants SET name=?, address=? WHERE id=?", name, address, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of tenants plus the total match count. Q matches
// against name and address.
func (r *TenantRepo) List(ctx context.Context, q TenantQuery) ([]model.Tenant, int, error) {
	where := "1=1"
	args := []any{}
	if q.Q != "" {
		needle := "%" + strings.TrimSpace(q.Q) + "%"
		where += " AND (name LIKE ? OR address LIKE ?)"
		args = append(args, needle, needle)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tenants WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage, page := normalizePage(q.PerPage, q.CurrentPage)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,address,created_at,updated_at FROM tenants WHERE "+where+" ORDER BY id LIMIT ? OFFSET ?",
		append(args, perPage, (page-1)*perPage)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tenants := make([]model.Tenant, 0, perPage)
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, t)
	}
	return tenants, total, rows.Err()
}

// Delete removes a tenant row by id.
func (r *TenantRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tenants WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
