package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/utils"
)

// mysqlDuplicateEntry is the server error number raised when an insert
// violates a unique index.
const mysqlDuplicateEntry = 1062

// CreateUserParams carries the fields needed to insert a user row. Password
// is the plaintext; hashing happens inside Create so a hash can never be
// forgotten by a caller.
type CreateUserParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      model.Role
	TenantID  *uint64
}

// UpdateUserParams carries the administrative update surface: names, email,
// role and tenant. Passwords are never updated through this path.
type UpdateUserParams struct {
	FirstName string
	LastName  string
	Email     string
	Role      model.Role
	TenantID  *uint64
}

// UserQuery filters and paginates the admin user listing.
type UserQuery struct {
	Q           string
	Role        model.Role
	PerPage     int
	CurrentPage int
}

// UserStore is the persistence contract the handlers depend on. *UserRepo
// is the MySQL implementation; tests substitute in-memory fakes.
type UserStore interface {
	Create(ctx context.Context, p CreateUserParams, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Update(ctx context.Context, id uint64, p UpdateUserParams) error
	List(ctx context.Context, q UserQuery) ([]model.User, int, error)
	Delete(ctx context.Context, id uint64) error
}

// UserRepo persists users in the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its id. The email existence check is a
// best-effort fast path; concurrent registrations race on it and the unique
// index makes the final call, surfacing as ErrEmailExists either way.
func (r *UserRepo) Create(ctx context.Context, p CreateUserParams, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))

	var exists int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email=? LIMIT 1", email).Scan(&exists)
	switch {
	case err == nil:
		return 0, ErrEmailExists
	case !errors.Is(err, sql.ErrNoRows):
		return 0, err
	}

	hash, err := utils.HashPassword(p.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password_hash, role, tenant_id) VALUES (?,?,?,?,?,?)",
		p.FirstName, p.LastName, email, hash, string(p.Role), p.TenantID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,first_name,last_name,email,password_hash,role,tenant_id,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,first_name,last_name,email,password_hash,role,tenant_id,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

// Update rewrites the administrative fields of a user row.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UpdateUserParams) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, email=?, role=?, tenant_id=? WHERE id=?",
		p.FirstName, p.LastName, strings.ToLower(strings.TrimSpace(p.Email)), string(p.Role), p.TenantID, id)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrEmailExists
		}
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

// List returns a page of users plus the total match count. Q matches against
// name and email; Role narrows to a single role when set.
func (r *UserRepo) List(ctx context.Context, q UserQuery) ([]model.User, int, error) {
	where := "1=1"
	args := []any{}
	if q.Q != "" {
		needle := "%" + strings.TrimSpace(q.Q) + "%"
		where += " AND (CONCAT(first_name,' ',last_name) LIKE ? OR email LIKE ?)"
		args = append(args, needle, needle)
	}
	if q.Role != "" {
		where += " AND role=?"
		args = append(args, string(q.Role))
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage, page := normalizePage(q.PerPage, q.CurrentPage)
	offset := (page - 1) * perPage
	rows, err := r.DB.QueryContext(ctx,
		fmt.Sprintf("SELECT id,first_name,last_name,email,password_hash,role,tenant_id,created_at,updated_at FROM users WHERE %s ORDER BY id LIMIT ? OFFSET ?", where),
		append(args, perPage, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]model.User, 0, perPage)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Delete removes a user row by id.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
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

type rowScanner interface{ Scan(dest ...any) error }

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u        model.User
		role     string
		tenantID sql.NullInt64
	)
	err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&role, &tenantID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role, err = model.ParseRole(role)
	if err != nil {
		return model.User{}, fmt.Errorf("user %d: %w", u.ID, err)
	}
	if tenantID.Valid {
		tid := uint64(tenantID.Int64)
		u.TenantID = &tid
	}
	return u, nil
}

func normalizePage(perPage, page int) (int, int) {
	if perPage < 1 {
		perPage = 10
	}
	if page < 1 {
		page = 1
	}
	return perPage, page
}
