package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
)

// RefreshTokenStore persists refresh token rows keyed by their auto-
// increment id. The id returned by Create becomes the jti claim of the
// signed refresh token, so revocation is a primary-key delete that works
// independently of signature verification.
type RefreshTokenStore interface {
	Create(ctx context.Context, userID uint64, expiresAt time.Time) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.RefreshToken, error)
	DeleteByID(ctx context.Context, id uint64) error
}

// RefreshTokenRepo is the MySQL implementation of RefreshTokenStore.
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// Create inserts a refresh token row and returns its id. One row per
// issuance; rotation always creates a new row rather than renewing in place.
func (r *RefreshTokenRepo) Create(ctx context.Context, userID uint64, expiresAt time.Time) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, expires_at) VALUES (?,?)",
		userID, expiresAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns the row if it still exists and is unexpired; ErrNotFound
// otherwise. An expired row is as good as a deleted one for validation.
func (r *RefreshTokenRepo) GetByID(ctx context.Context, id uint64) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,expires_at,created_at FROM refresh_tokens WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return model.RefreshToken{}, ErrNotFound
	}
	return t, nil
}

// DeleteByID removes the row. Idempotent: deleting an id that is already
// gone is not an error, which keeps logout and rotation replay-safe.
func (r *RefreshTokenRepo) DeleteByID(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id=?", id)
	return err
}
