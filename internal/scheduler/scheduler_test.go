// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samajhub/samaj-go/internal/model"
	"github.com/samajhub/samaj-go/internal/store"
	"github.com/samajhub/samaj-go/internal/testutil"
)

func newScheduler(t *testing.T) (*Scheduler, *store.Queries) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	return New(db, testutil.TestLoggerSilent(), nil), store.New(db)
}

func TestStartStop(t *testing.T) {
	s, _ := newScheduler(t)
	require.NoError(t, s.Start())
	s.Stop()
}

func TestPurgeExpiredTokens(t *testing.T) {
	s, queries := newScheduler(t)
	ctx := t.Context()
	now := time.Now()

	user, err := queries.CreateUser(ctx, store.CreateUserParams{
		Mobile: "9876543210", Role: model.RoleUser, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	require.NoError(t, queries.CreateAuthToken(ctx, store.CreateAuthTokenParams{
		UserID: user.ID, TokenHash: "expired", Kind: store.TokenKindAccess,
		ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, queries.CreateAuthToken(ctx, store.CreateAuthTokenParams{
		UserID: user.ID, TokenHash: "live", Kind: store.TokenKindAccess,
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	require.NoError(t, s.PurgeExpiredTokens())

	_, err = queries.GetAuthTokenByHash(ctx, "expired")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = queries.GetAuthTokenByHash(ctx, "live")
	assert.NoError(t, err)

	// The purge leaves an audit trail.
	events, err := queries.ListRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "auth", events[0].Category)
}

func TestPurgeStaleGuests(t *testing.T) {
	s, queries := newScheduler(t)
	ctx := t.Context()
	now := time.Now()
	old := now.Add(-2 * GuestRetention)

	stale, err := queries.CreateUser(ctx, store.CreateUserParams{
		Mobile: "9000000001", Role: model.RoleUser, CreatedAt: old, UpdatedAt: old,
	})
	require.NoError(t, err)

	fresh, err := queries.CreateUser(ctx, store.CreateUserParams{
		Mobile: "9000000002", Role: model.RoleUser, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	registered, err := queries.CreateUser(ctx, store.CreateUserParams{
		Email:        sql.NullString{String: "member@example.com", Valid: true},
		Mobile:       "9000000003",
		PasswordHash: sql.NullString{String: "argon2id$hash", Valid: true},
		Role:         model.RoleUser, CreatedAt: old, UpdatedAt: old,
	})
	require.NoError(t, err)

	require.NoError(t, s.PurgeStaleGuests())

	_, err = queries.GetUserByID(ctx, stale.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows, "old guest without profile is removed")
	_, err = queries.GetUserByID(ctx, fresh.ID)
	assert.NoError(t, err, "recent guest survives")
	_, err = queries.GetUserByID(ctx, registered.ID)
	assert.NoError(t, err, "registered user survives regardless of age")
}

func TestTrimEventLog(t *testing.T) {
	s, queries := newScheduler(t)
	ctx := t.Context()
	now := time.Now()

	_, err := queries.CreateEvent(ctx, store.CreateEventParams{
		Level: "info", Category: "auth", Message: "ancient",
		CreatedAt: now.Add(-2 * EventRetention),
	})
	require.NoError(t, err)
	_, err = queries.CreateEvent(ctx, store.CreateEventParams{
		Level: "info", Category: "auth", Message: "recent", CreatedAt: now,
	})
	require.NoError(t, err)

	require.NoError(t, s.TrimEventLog())

	events, err := queries.ListRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "recent", events[0].Message)
}
