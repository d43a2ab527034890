package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo manages the single active refresh token stored on the
// users row (columns refresh_token_hash / refresh_expires_at). Only
// one session can hold a valid refresh token at a time; issuing a new
// one invalidates the previous session. Rotation is a compare-and-swap
// on the stored hash so two concurrent refreshes cannot both win, and
// a swap miss is treated as revocation rather than a transient error.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// SetRefresh unconditionally installs a new refresh token hash for the
// user. Used on register and login, where replacing any existing
// session is the intended behavior.
func (r *TokenRepo) SetRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_expires_at=? WHERE id=?",
		tokenHash, exp, userID)
	return err
}

// ValidateRefresh returns the owning user ID when the presented hash
// matches the stored, unexpired token. Any mismatch surfaces as
// sql.ErrNoRows so callers treat stale and revoked tokens alike.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, refresh_expires_at FROM users WHERE refresh_token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt)
	if err != nil {
		return 0, err
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

// RotateRefresh swaps oldHash for newHash only when oldHash is still
// the current token. A zero-row update means another session rotated
// first; the presented token is revoked and sql.ErrNoRows is returned.
func (r *TokenRepo) RotateRefresh(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_expires_at=? WHERE id=? AND refresh_token_hash=?",
		newHash, exp, userID, oldHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ClearRefresh drops the user's refresh token if the presented hash is
// still current, ending the session. Clearing an already-replaced
// token is a no-op.
func (r *TokenRepo) ClearRefresh(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=NULL, refresh_expires_at=NULL WHERE refresh_token_hash=?",
		tokenHash)
	return err
}
