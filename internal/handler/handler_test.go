// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/samajhub/samaj-go/internal/cache"
	"github.com/samajhub/samaj-go/internal/config"
	"github.com/samajhub/samaj-go/internal/imaging"
	"github.com/samajhub/samaj-go/internal/middleware"
	"github.com/samajhub/samaj-go/internal/store"
	"github.com/samajhub/samaj-go/internal/testutil"
)

// testEnv bundles everything handler tests need: a routed API over a
// seeded temp database.
type testEnv struct {
	router  chi.Router
	queries *store.Queries
	db      *sql.DB
	uploads string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	require.NoError(t, store.Seed(t.Context(), db))

	queries := store.New(db)
	master := cache.NewMasterDataCache(queries, cache.NewDefaultCache(), time.Minute)
	uploads := t.TempDir()
	h := NewHandler(db, &config.Config{}, master, nil,
		imaging.NewProcessor(uploads),
		middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()))

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/store-phone", h.StorePhone)
		r.Post("/complete-profile", h.CompleteProfile)
		r.Post("/refresh-token", h.RefreshToken)
		r.With(middleware.TokenAuth(db)).Post("/logout", h.Logout)
	})
	r.Route("/api/users", func(r chi.Router) {
		r.Use(middleware.TokenAuth(db))
		r.Use(middleware.UserRateLimit(100, 200))
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Delete("/profile", h.DeleteProfile)
		r.Post("/profile/picture", h.UploadProfilePicture)
	})
	r.Route("/api/master-data", func(r chi.Router) {
		r.Get("/states", h.ListStates)
		r.Get("/states/{id}/districts", h.ListDistricts)
		r.Get("/districts/{id}/tahsils", h.ListTahsils)
		r.Get("/professions", h.ListProfessions)
		r.Get("/location-hierarchy", h.LocationHierarchy)
	})
	r.Get("/api/analytics", h.Analytics)
	r.Route("/api/blog", func(r chi.Router) {
		r.Get("/posts", h.ListPosts)
		r.Get("/posts/search", h.SearchPosts)
		r.With(middleware.OptionalTokenAuth(db)).Get("/posts/{id}", h.GetPost)
		r.Get("/users/{id}/posts", h.ListUserPosts)
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(db))
			r.Use(middleware.UserRateLimit(100, 200))
			r.Post("/posts", h.CreatePost)
			r.Put("/posts/{id}", h.UpdatePost)
			r.Delete("/posts/{id}", h.DeletePost)
		})
	})
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.TokenAuth(db))
		r.With(middleware.RequireModerator()).Get("/events", h.ListEvents)
		r.With(middleware.RequireAdmin()).Post("/master-data/refresh", h.RefreshMasterData)
	})

	return &testEnv{router: r, queries: queries, db: db, uploads: uploads}
}

// do sends a JSON request through the router. An empty token leaves the
// Authorization header unset.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) AuthResponse {
	t.Helper()
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// wrappedBody mirrors the master-data envelope with raw data for
// per-test decoding.
type wrappedBody struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
}

func decodeWrapped(t *testing.T, rec *httptest.ResponseRecorder) wrappedBody {
	t.Helper()
	var resp wrappedBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// blogBody mirrors the blog envelope with raw data.
type blogBody struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

func decodeBlog(t *testing.T, rec *httptest.ResponseRecorder) blogBody {
	t.Helper()
	var resp blogBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func apiErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp middleware.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

// register creates an account and returns the auth response with tokens.
func (e *testEnv) register(t *testing.T, email, mobile string) AuthResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email_id":  email,
		"mobile_no": mobile,
		"password":  "sw0rdfish!",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeAuth(t, rec)
	require.NotNil(t, resp.User)
	require.NotNil(t, resp.Tokens)
	return resp
}

// loginAdmin signs in with the seeded admin account.
func (e *testEnv) loginAdmin(t *testing.T) AuthResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email_id": store.DefaultAdminEmail,
		"password": store.DefaultAdminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeAuth(t, rec)
}
