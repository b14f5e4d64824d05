// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session keeps the client's authentication state: the current
// user in memory and the token pair in the token store. All mutating
// calls go through the API client; failures leave the session unchanged.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samajhub/samaj-go/internal/client"
	"github.com/samajhub/samaj-go/internal/model"
	"github.com/samajhub/samaj-go/internal/tokenstore"
)

// Manager owns the client-side auth session.
type Manager struct {
	mu     sync.RWMutex
	api    *client.Client
	tokens *tokenstore.Store
	user   *model.User

	// hasTokens is the best-effort flag from Bootstrap: tokens were
	// present on disk, but the server has not confirmed them yet.
	hasTokens bool
}

// NewManager creates a session manager over the given client and store.
func NewManager(api *client.Client, tokens *tokenstore.Store) *Manager {
	return &Manager{api: api, tokens: tokens}
}

// User returns the current in-memory user, nil when signed out.
func (m *Manager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Authenticated reports whether a user is present in memory.
func (m *Manager) Authenticated() bool {
	return m.User() != nil
}

// Bootstrap checks for persisted tokens. It does not call the server:
// the result is a best-effort "probably signed in" flag. Use Validate
// for a server-confirmed answer.
func (m *Manager) Bootstrap() bool {
	has := m.tokens.IsAuthenticated()
	m.mu.Lock()
	m.hasTokens = has
	m.mu.Unlock()
	return has
}

// LikelyAuthenticated reports the Bootstrap result: tokens exist, the
// server may still reject them.
func (m *Manager) LikelyAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasTokens || m.user != nil
}

// Validate confirms the stored tokens with a whoami call and loads the
// user. Rejected tokens are cleared so the next Bootstrap reports
// signed out.
func (m *Manager) Validate(ctx context.Context) (*model.User, error) {
	user, err := m.api.GetProfile(ctx)
	if err != nil {
		if client.IsAuthError(err) {
			_ = m.tokens.ClearTokens()
			m.mu.Lock()
			m.user = nil
			m.hasTokens = false
			m.mu.Unlock()
		}
		return nil, err
	}

	m.mu.Lock()
	m.user = user
	m.hasTokens = true
	m.mu.Unlock()
	return user, nil
}

// adopt stores a successful auth result: tokens to disk, user to memory.
func (m *Manager) adopt(result *client.AuthResult) {
	if result.Tokens != nil {
		if err := m.tokens.SetTokens(result.Tokens.AccessToken, result.Tokens.RefreshToken); err != nil {
			slog.Warn("persisting tokens failed", "error", err)
		}
	}
	m.mu.Lock()
	m.user = result.User
	m.hasTokens = result.Tokens != nil
	m.mu.Unlock()
}

// Login authenticates and adopts the session on success.
func (m *Manager) Login(ctx context.Context, email, mobile, password string) (*model.User, error) {
	result, err := m.api.Login(ctx, email, mobile, password)
	if err != nil {
		return nil, err
	}
	m.adopt(result)
	return result.User, nil
}

// Register creates an account and adopts the session on success.
func (m *Manager) Register(ctx context.Context, email, mobile, password string) (*model.User, error) {
	result, err := m.api.Register(ctx, email, mobile, password)
	if err != nil {
		return nil, err
	}
	m.adopt(result)
	return result.User, nil
}

// StorePhone records a visitor's number as a guest. The guest id is
// persisted for the later complete-profile step; the session stays
// unauthenticated.
func (m *Manager) StorePhone(ctx context.Context, mobile string) (*model.User, error) {
	guest, err := m.api.StorePhone(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if guest != nil {
		if err := m.tokens.SetGuestUserID(guest.ID); err != nil {
			slog.Warn("persisting guest id failed", "error", err)
		}
	}
	return guest, nil
}

// CompleteProfile promotes a guest to a member and adopts the session.
func (m *Manager) CompleteProfile(ctx context.Context, params client.CompleteProfileParams) (*model.User, error) {
	result, err := m.api.CompleteProfile(ctx, params)
	if err != nil {
		return nil, err
	}
	m.adopt(result)
	return result.User, nil
}

// Logout clears the session unconditionally. The server-side revocation
// is best-effort: a dead network must not keep a user signed in.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		slog.Debug("server logout failed", "error", err)
	}
	if err := m.tokens.ClearTokens(); err != nil {
		slog.Warn("clearing tokens failed", "error", err)
	}
	m.mu.Lock()
	m.user = nil
	m.hasTokens = false
	m.mu.Unlock()
}

// UpdateUser shallow-merges the given fields into the in-memory user
// without calling the backend. Zero-value fields are left untouched.
// A no-op when signed out.
func (m *Manager) UpdateUser(update model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return
	}

	merged := *m.user
	if update.Email.Valid {
		merged.Email = update.Email
	}
	if update.Mobile != "" {
		merged.Mobile = update.Mobile
	}
	if update.Role != "" {
		merged.Role = update.Role
	}
	if update.Profile != nil {
		merged.Profile = update.Profile
	}
	m.user = &merged
}
