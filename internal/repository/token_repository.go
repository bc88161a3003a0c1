// Package repository contains data access logic for refresh tokens.
// Only the SHA-256 hash of a refresh token is ever stored, so a leaked
// table cannot be replayed against the API.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrTokenInvalid indicates that a refresh token is unknown, revoked
// or expired.  The three cases are deliberately indistinguishable to
// callers.
var ErrTokenInvalid = errors.New("refresh token invalid")

// TokenRepo manages persistence for refresh token hashes.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo constructs a TokenRepo with the given DB handle.
func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// StoreRefresh records the hash of a newly issued refresh token with
// its expiry.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, userID, tokenHash, exp)
	return err
}

// ValidateRefresh resolves a token hash to its owning user.  Unknown,
// revoked and expired tokens all return ErrTokenInvalid.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	const q = `SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? LIMIT 1`
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTokenInvalid
		}
		return 0, err
	}
	if revokedAt.Valid {
		return 0, ErrTokenInvalid
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}

// RevokeByHash marks one token as revoked.  Revoking an already
// revoked or unknown token is a no-op: logout must be idempotent.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	const q = `UPDATE refresh_tokens SET revoked_at = CURRENT_TIMESTAMP WHERE token_hash = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, tokenHash)
	return err
}

// RevokeAllForUser revokes every active session of a user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	const q = `UPDATE refresh_tokens SET revoked_at = CURRENT_TIMESTAMP WHERE user_id = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}
