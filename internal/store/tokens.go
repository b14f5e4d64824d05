// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// Token kinds stored in auth_tokens.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// AuthToken is a stored (hashed) access or refresh token.
type AuthToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CreateAuthTokenParams holds parameters for CreateAuthToken.
type CreateAuthTokenParams struct {
	UserID    int64
	TokenHash string
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CreateAuthToken stores a hashed token.
func (q *Queries) CreateAuthToken(ctx context.Context, arg CreateAuthTokenParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (user_id, token_hash, kind, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.UserID, arg.TokenHash, arg.Kind, arg.ExpiresAt, arg.CreatedAt)
	return err
}

// GetAuthTokenByHash looks a token up by its hash.
func (q *Queries) GetAuthTokenByHash(ctx context.Context, hash string) (AuthToken, error) {
	var t AuthToken
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, kind, expires_at, created_at
		FROM auth_tokens WHERE token_hash = ?`, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Kind, &t.ExpiresAt, &t.CreatedAt)
	return t, err
}

// DeleteAuthToken removes a single token by hash.
func (q *Queries) DeleteAuthToken(ctx context.Context, hash string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE token_hash = ?`, hash)
	return err
}

// DeleteAuthTokensByUser revokes every token of a user (logout).
func (q *Queries) DeleteAuthTokensByUser(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = ?`, userID)
	return err
}

// DeleteExpiredAuthTokens purges tokens past their expiry. Returns the
// number of rows removed.
func (q *Queries) DeleteExpiredAuthTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
