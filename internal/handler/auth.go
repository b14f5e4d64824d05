// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/samajhub/samaj-go/internal/auth"
	"github.com/samajhub/samaj-go/internal/middleware"
	"github.com/samajhub/samaj-go/internal/model"
	"github.com/samajhub/samaj-go/internal/store"
)

// RegisterRequest is the request body for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email_id"`
	Mobile   string `json:"mobile_no"`
	Password string `json:"password"`
}

// LoginRequest is the request body for POST /api/auth/login.
// Either email or mobile identifies the account.
type LoginRequest struct {
	Email    string `json:"email_id,omitempty"`
	Mobile   string `json:"mobile_no,omitempty"`
	Password string `json:"password"`
}

// StorePhoneRequest is the request body for POST /api/auth/store-phone.
type StorePhoneRequest struct {
	Mobile string `json:"mobile_no"`
}

// CompleteProfileRequest is the request body for POST /api/auth/complete-profile.
// It promotes a phone-only guest to a full account in one step.
type CompleteProfileRequest struct {
	Mobile   string `json:"mobile_no"`
	Email    string `json:"email_id"`
	Password string `json:"password"`
	ProfileRequest
}

// RefreshTokenRequest is the request body for POST /api/auth/refresh-token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is the bare envelope returned by the auth endpoints.
type AuthResponse struct {
	Message string          `json:"message"`
	User    *model.User     `json:"user,omitempty"`
	Tokens  *auth.TokenPair `json:"tokens,omitempty"`
}

// issueTokens generates an access/refresh pair for a user and stores the
// hashes. The raw tokens are only ever seen by the caller.
func (h *Handler) issueTokens(r *http.Request, userID int64) (*auth.TokenPair, error) {
	pair, err := auth.GenerateTokenPair()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = h.queries.CreateAuthToken(r.Context(), store.CreateAuthTokenParams{
		UserID:    userID,
		TokenHash: auth.HashToken(pair.AccessToken),
		Kind:      store.TokenKindAccess,
		ExpiresAt: now.Add(auth.AccessTokenTTL),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	err = h.queries.CreateAuthToken(r.Context(), store.CreateAuthTokenParams{
		UserID:    userID,
		TokenHash: auth.HashToken(pair.RefreshToken),
		Kind:      store.TokenKindRefresh,
		ExpiresAt: now.Add(auth.RefreshTokenTTL),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// requestAttrs returns slog attributes describing the caller: client IP,
// parsed user agent and, when GeoIP is available, the country code.
func (h *Handler) requestAttrs(r *http.Request) []any {
	ip := middleware.GetClientIP(r)
	ua := useragent.Parse(r.UserAgent())

	attrs := []any{
		"ip", ip,
		"browser", ua.Name,
		"os", ua.OS,
	}
	if h.geo != nil {
		if country := h.geo.LookupCountry(ip); country != "" {
			attrs = append(attrs, "country", country)
		}
	}
	return attrs
}

// Register handles POST /api/auth/register.
// A guest created earlier through the phone capture flow is promoted in
// place when the mobile number matches; otherwise a new account is created.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	details := map[string]string{}
	if msg := ValidateEmail(req.Email); msg != "" {
		details["email_id"] = msg
	}
	if msg := ValidateMobile(req.Mobile); msg != "" {
		details["mobile_no"] = msg
	}
	if msg := ValidatePassword(req.Password); msg != "" {
		details["password"] = msg
	}
	if len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	if _, err := h.queries.GetUserByEmail(r.Context(), req.Email); err == nil {
		WriteConflict(w, "Email is already registered")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("register: email lookup failed", "error", err)
		WriteInternalError(w, "Registration failed")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("register: hashing failed", "error", err)
		WriteInternalError(w, "Registration failed")
		return
	}

	now := time.Now().UTC()
	var user model.User

	existing, err := h.queries.GetUserByMobile(r.Context(), req.Mobile)
	switch {
	case err == nil && existing.IsGuest():
		// Promote the guest in place, keeping its id and any profile.
		err = h.queries.UpdateUserCredentials(r.Context(), store.UpdateUserCredentialsParams{
			ID:           existing.ID,
			Email:        sql.NullString{String: req.Email, Valid: true},
			PasswordHash: sql.NullString{String: hash, Valid: true},
			UpdatedAt:    now,
		})
		if err == nil {
			user, err = h.queries.GetUserWithProfile(r.Context(), existing.ID)
		}
	case err == nil:
		WriteConflict(w, "Mobile number is already registered")
		return
	case errors.Is(err, sql.ErrNoRows):
		user, err = h.queries.CreateUser(r.Context(), store.CreateUserParams{
			Email:        sql.NullString{String: req.Email, Valid: true},
			Mobile:       req.Mobile,
			PasswordHash: sql.NullString{String: hash, Valid: true},
			Role:         model.RoleUser,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err != nil {
		slog.Error("register: user creation failed", "error", err)
		WriteInternalError(w, "Registration failed")
		return
	}

	tokens, err := h.issueTokens(r, user.ID)
	if err != nil {
		slog.Error("register: token issue failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Registration failed")
		return
	}

	slog.Info("user registered", append([]any{"user_id", user.ID, "category", "auth"}, h.requestAttrs(r)...)...)
	WriteJSON(w, http.StatusCreated, AuthResponse{
		Message: "Registration successful",
		User:    &user,
		Tokens:  tokens,
	})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	account := req.Email
	if account == "" {
		account = req.Mobile
	}
	if account == "" || req.Password == "" {
		WriteBadRequest(w, "Email or mobile number and password are required", nil)
		return
	}

	if h.loginShield != nil {
		if locked, remaining := h.loginShield.IsAccountLocked(account); locked {
			slog.Warn("login attempt on locked account",
				append([]any{"account", account, "category", "auth"}, h.requestAttrs(r)...)...)
			WriteError(w, http.StatusTooManyRequests, "account_locked",
				"Account temporarily locked. Try again in "+remaining.Round(time.Second).String(), nil)
			return
		}
	}

	var (
		user model.User
		err  error
	)
	if req.Email != "" {
		user, err = h.queries.GetUserByEmail(r.Context(), req.Email)
	} else {
		user, err = h.queries.GetUserByMobile(r.Context(), req.Mobile)
	}
	passwordOK := false
	if err == nil && user.PasswordHash.Valid {
		passwordOK, _ = auth.CheckPassword(req.Password, user.PasswordHash.String)
	}
	if err != nil || !user.PasswordHash.Valid || !passwordOK {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			slog.Error("login: user lookup failed", "error", err)
			WriteInternalError(w, "Login failed")
			return
		}
		if h.loginShield != nil {
			h.loginShield.RecordFailedAttempt(account)
		}
		slog.Warn("failed login attempt",
			append([]any{"account", account, "category", "auth"}, h.requestAttrs(r)...)...)
		WriteUnauthorized(w, "Invalid credentials")
		return
	}

	// Transparent parameter upgrade for hashes created under older costs.
	if auth.NeedsRehash(user.PasswordHash.String) {
		if hash, err := auth.HashPassword(req.Password); err == nil {
			_ = h.queries.UpdateUserCredentials(r.Context(), store.UpdateUserCredentialsParams{
				ID:           user.ID,
				Email:        user.Email,
				PasswordHash: sql.NullString{String: hash, Valid: true},
				UpdatedAt:    time.Now().UTC(),
			})
		}
	}

	if h.loginShield != nil {
		h.loginShield.RecordSuccessfulLogin(account)
	}
	_ = h.queries.TouchUserLogin(r.Context(), user.ID, time.Now().UTC())

	tokens, err := h.issueTokens(r, user.ID)
	if err != nil {
		slog.Error("login: token issue failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Login failed")
		return
	}

	full, err := h.queries.GetUserWithProfile(r.Context(), user.ID)
	if err != nil {
		full = user
	}

	slog.Info("user logged in", append([]any{"user_id", user.ID, "category", "auth"}, h.requestAttrs(r)...)...)
	WriteJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		User:    &full,
		Tokens:  tokens,
	})
}

// StorePhone handles POST /api/auth/store-phone.
// It records a visitor's mobile number as a guest user without
// credentials. Calling it again with the same number is idempotent.
func (h *Handler) StorePhone(w http.ResponseWriter, r *http.Request) {
	var req StorePhoneRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if msg := ValidateMobile(req.Mobile); msg != "" {
		WriteBadRequest(w, msg, nil)
		return
	}

	user, err := h.queries.GetUserByMobile(r.Context(), req.Mobile)
	if errors.Is(err, sql.ErrNoRows) {
		now := time.Now().UTC()
		user, err = h.queries.CreateUser(r.Context(), store.CreateUserParams{
			Mobile:    req.Mobile,
			Role:      model.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err != nil {
		slog.Error("store-phone failed", "error", err)
		WriteInternalError(w, "Could not store phone number")
		return
	}

	WriteJSON(w, http.StatusOK, AuthResponse{
		Message: "Phone number stored",
		User:    &user,
	})
}

// CompleteProfile handles POST /api/auth/complete-profile.
// It attaches credentials and a full profile to a phone-only guest and
// issues tokens, completing the guest-to-member flow.
func (h *Handler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	var req CompleteProfileRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	details := map[string]string{}
	if msg := ValidateMobile(req.Mobile); msg != "" {
		details["mobile_no"] = msg
	}
	if msg := ValidateEmail(req.Email); msg != "" {
		details["email_id"] = msg
	}
	if msg := ValidatePassword(req.Password); msg != "" {
		details["password"] = msg
	}
	req.ProfileRequest.validate(details)
	if len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	user, err := h.queries.GetUserByMobile(r.Context(), req.Mobile)
	if errors.Is(err, sql.ErrNoRows) {
		WriteNotFound(w, "No guest account for this mobile number")
		return
	}
	if err != nil {
		slog.Error("complete-profile: user lookup failed", "error", err)
		WriteInternalError(w, "Profile completion failed")
		return
	}
	if !user.IsGuest() {
		WriteConflict(w, "Account already has credentials; use login instead")
		return
	}

	if _, err := h.queries.GetUserByEmail(r.Context(), req.Email); err == nil {
		WriteConflict(w, "Email is already registered")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("complete-profile: email lookup failed", "error", err)
		WriteInternalError(w, "Profile completion failed")
		return
	}

	params, errMsg := req.ProfileRequest.toParams(r, h, user.ID)
	if errMsg != "" {
		WriteBadRequest(w, errMsg, nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("complete-profile: hashing failed", "error", err)
		WriteInternalError(w, "Profile completion failed")
		return
	}

	now := time.Now().UTC()
	err = h.queries.UpdateUserCredentials(r.Context(), store.UpdateUserCredentialsParams{
		ID:           user.ID,
		Email:        sql.NullString{String: req.Email, Valid: true},
		PasswordHash: sql.NullString{String: hash, Valid: true},
		UpdatedAt:    now,
	})
	if err != nil {
		slog.Error("complete-profile: credential update failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Profile completion failed")
		return
	}

	if _, err := h.queries.UpsertProfile(r.Context(), params); err != nil {
		slog.Error("complete-profile: profile upsert failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Profile completion failed")
		return
	}

	tokens, err := h.issueTokens(r, user.ID)
	if err != nil {
		slog.Error("complete-profile: token issue failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Profile completion failed")
		return
	}

	full, err := h.queries.GetUserWithProfile(r.Context(), user.ID)
	if err != nil {
		full = user
	}

	slog.Info("guest completed profile", append([]any{"user_id", user.ID, "category", "auth"}, h.requestAttrs(r)...)...)
	WriteJSON(w, http.StatusOK, AuthResponse{
		Message: "Profile completed",
		User:    &full,
		Tokens:  tokens,
	})
}

// Logout handles POST /api/auth/logout. It revokes every token of the
// authenticated user, so all devices are signed out at once.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.queries.DeleteAuthTokensByUser(r.Context(), user.ID); err != nil {
		slog.Error("logout: token revocation failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Logout failed")
		return
	}

	slog.Info("user logged out", "user_id", user.ID, "category", "auth")
	WriteJSON(w, http.StatusOK, AuthResponse{Message: "Logged out"})
}

// RefreshToken handles POST /api/auth/refresh-token. The presented
// refresh token is consumed and a fresh access/refresh pair is issued
// (rotation: a refresh token works exactly once).
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		WriteBadRequest(w, "Refresh token is required", nil)
		return
	}

	hash := auth.HashToken(req.RefreshToken)
	token, err := h.queries.GetAuthTokenByHash(r.Context(), hash)
	if errors.Is(err, sql.ErrNoRows) {
		WriteUnauthorized(w, "Invalid refresh token")
		return
	}
	if err != nil {
		slog.Error("refresh: token lookup failed", "error", err)
		WriteInternalError(w, "Token refresh failed")
		return
	}
	if token.Kind != store.TokenKindRefresh {
		WriteUnauthorized(w, "Not a refresh token")
		return
	}
	if time.Now().After(token.ExpiresAt) {
		_ = h.queries.DeleteAuthToken(r.Context(), hash)
		WriteUnauthorized(w, "Refresh token has expired")
		return
	}

	if err := h.queries.DeleteAuthToken(r.Context(), hash); err != nil {
		slog.Error("refresh: token rotation failed", "error", err)
		WriteInternalError(w, "Token refresh failed")
		return
	}

	tokens, err := h.issueTokens(r, token.UserID)
	if err != nil {
		slog.Error("refresh: token issue failed", "error", err, "user_id", token.UserID)
		WriteInternalError(w, "Token refresh failed")
		return
	}

	WriteJSON(w, http.StatusOK, AuthResponse{
		Message: "Token refreshed",
		Tokens:  tokens,
	})
}
