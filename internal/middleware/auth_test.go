// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/samajhub/samaj-go/internal/auth"
	"github.com/samajhub/samaj-go/internal/model"
	"github.com/samajhub/samaj-go/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "samaj-middleware-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	})
	return db
}

// issueToken creates a user with the given role and stores an auth token
// for it, returning the user and the raw token.
func issueToken(t *testing.T, db *sql.DB, role, kind string, expiresAt time.Time) (model.User, string) {
	t.Helper()

	queries := store.New(db)
	now := time.Now().UTC()
	user, err := queries.CreateUser(t.Context(), store.CreateUserParams{
		Email:        sql.NullString{String: role + "@example.com", Valid: true},
		Mobile:       "90000000" + role[:2],
		PasswordHash: sql.NullString{String: "x", Valid: true},
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	raw, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	err = queries.CreateAuthToken(t.Context(), store.CreateAuthTokenParams{
		UserID:    user.ID,
		TokenHash: auth.HashToken(raw),
		Kind:      kind,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAuthToken: %v", err)
	}
	return user, raw
}

func authedHandler(t *testing.T, wantUserID int64) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r)
		if user == nil {
			t.Error("no user in context")
		} else if user.ID != wantUserID {
			t.Errorf("user ID = %d, want %d", user.ID, wantUserID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestTokenAuth_ValidToken(t *testing.T) {
	db := testDB(t)
	user, raw := issueToken(t, db, model.RoleUser, store.TokenKindAccess, time.Now().Add(time.Hour))

	wrapped := TokenAuth(db)(authedHandler(t, user.ID))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (body: %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestTokenAuth_Rejections(t *testing.T) {
	db := testDB(t)
	_, access := issueToken(t, db, model.RoleUser, store.TokenKindAccess, time.Now().Add(time.Hour))
	_, refresh := issueToken(t, db, model.RoleModerator, store.TokenKindRefresh, time.Now().Add(time.Hour))
	_, expired := issueToken(t, db, model.RoleAdmin, store.TokenKindAccess, time.Now().Add(-time.Minute))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + access},
		{"empty token", "Bearer "},
		{"unknown token", "Bearer " + "0000000000000000000000000000000000000000000000000000000000000000"},
		{"refresh token", "Bearer " + refresh},
		{"expired token", "Bearer " + expired},
	}

	wrapped := TokenAuth(db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for rejected requests")
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			wrapped.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestOptionalTokenAuth(t *testing.T) {
	db := testDB(t)
	user, raw := issueToken(t, db, model.RoleUser, store.TokenKindAccess, time.Now().Add(time.Hour))

	var gotID int64
	wrapped := OptionalTokenAuth(db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	}))

	// Without a token the request passes through anonymously.
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("anonymous status = %d, want %d", rr.Code, http.StatusOK)
	}
	if gotID != 0 {
		t.Errorf("anonymous user ID = %d, want 0", gotID)
	}

	// With an invalid token it still passes through.
	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("invalid token status = %d, want %d", rr.Code, http.StatusOK)
	}

	// With a valid token the user lands in context.
	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	if gotID != user.ID {
		t.Errorf("user ID = %d, want %d", gotID, user.ID)
	}
}

func TestGetUserHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if GetUser(req) != nil {
		t.Error("GetUser on bare request should be nil")
	}
	if GetUserID(req) != 0 {
		t.Error("GetUserID on bare request should be 0")
	}
	if GetUserIDPtr(req) != nil {
		t.Error("GetUserIDPtr on bare request should be nil")
	}
	if GetUserEmail(req) != "" {
		t.Error("GetUserEmail on bare request should be empty")
	}
}

func TestRoleLevel(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{model.RoleAdmin, 3},
		{model.RoleModerator, 2},
		{model.RoleUser, 1},
		{"", 0},
		{"SUPERUSER", 0},
	}

	for _, tt := range tests {
		if got := roleLevel(tt.role); got != tt.want {
			t.Errorf("roleLevel(%q) = %d, want %d", tt.role, got, tt.want)
		}
	}
}

func TestRequireRole(t *testing.T) {
	db := testDB(t)
	_, userToken := issueToken(t, db, model.RoleUser, store.TokenKindAccess, time.Now().Add(time.Hour))
	_, modToken := issueToken(t, db, model.RoleModerator, store.TokenKindAccess, time.Now().Add(time.Hour))
	_, adminToken := issueToken(t, db, model.RoleAdmin, store.TokenKindAccess, time.Now().Add(time.Hour))

	tests := []struct {
		name     string
		minRole  string
		token    string
		wantCode int
	}{
		{"user blocked from moderator route", model.RoleModerator, userToken, http.StatusForbidden},
		{"moderator allowed on moderator route", model.RoleModerator, modToken, http.StatusOK},
		{"admin allowed on moderator route", model.RoleModerator, adminToken, http.StatusOK},
		{"moderator blocked from admin route", model.RoleAdmin, modToken, http.StatusForbidden},
		{"admin allowed on admin route", model.RoleAdmin, adminToken, http.StatusOK},
		{"user allowed on user route", model.RoleUser, userToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			wrapped := TokenAuth(db)(RequireRole(tt.minRole)(handler))

			req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rr := httptest.NewRecorder()
			wrapped.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
		})
	}
}

func TestRequireRole_NoUser(t *testing.T) {
	wrapped := RequireRole(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a user")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRequestPath(t *testing.T) {
	var got string
	wrapped := RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestPath(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts/42", nil)
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	if got != "/api/posts/42" {
		t.Errorf("GetRequestPath = %q, want /api/posts/42", got)
	}
}
