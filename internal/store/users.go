// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samajhub/samaj-go/internal/model"
)

const userColumns = `id, email_id, mobile_no, password_hash, role, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Mobile, &u.PasswordHash, &u.Role,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

// CreateUserParams holds parameters for CreateUser.
type CreateUserParams struct {
	Email        sql.NullString
	Mobile       string
	PasswordHash sql.NullString
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user and returns it.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (email_id, mobile_no, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		arg.Email, arg.Mobile, arg.PasswordHash, arg.Role, arg.CreatedAt, arg.UpdatedAt)
	return scanUser(row)
}

// GetUserByID returns a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail returns a user by email address.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email_id = ?`, email)
	return scanUser(row)
}

// GetUserByMobile returns a user by mobile number.
func (q *Queries) GetUserByMobile(ctx context.Context, mobile string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE mobile_no = ?`, mobile)
	return scanUser(row)
}

// GetUserWithProfile returns a user with the profile attached when one exists.
func (q *Queries) GetUserWithProfile(ctx context.Context, id int64) (model.User, error) {
	user, err := q.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	profile, err := q.GetProfileByUserID(ctx, id)
	switch {
	case err == nil:
		user.Profile = &profile
	case errors.Is(err, sql.ErrNoRows):
		// No profile yet; the user stays bare.
	default:
		return model.User{}, err
	}
	return user, nil
}

// UpdateUserCredentialsParams holds parameters for UpdateUserCredentials.
type UpdateUserCredentialsParams struct {
	ID           int64
	Email        sql.NullString
	PasswordHash sql.NullString
	UpdatedAt    time.Time
}

// UpdateUserCredentials sets email and password hash on a user. Used when
// a phone-only guest completes registration.
func (q *Queries) UpdateUserCredentials(ctx context.Context, arg UpdateUserCredentialsParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users SET email_id = ?, password_hash = ?, updated_at = ? WHERE id = ?`,
		arg.Email, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

// TouchUserLogin records a successful login timestamp.
func (q *Queries) TouchUserLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`, at, at, id)
	return err
}

// DeleteStaleGuests removes phone-only users created before the cutoff
// that never completed a profile. Returns the number of rows removed.
func (q *Queries) DeleteStaleGuests(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM users
		WHERE password_hash IS NULL
		  AND created_at < ?
		  AND id NOT IN (SELECT user_id FROM user_profile)`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUsers returns the total number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
