// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, rate limiting and security headers.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samajhub/samaj-go/internal/auth"
	"github.com/samajhub/samaj-go/internal/model"
	"github.com/samajhub/samaj-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request-scoped data.
const (
	ContextKeyUser        ContextKey = "user"
	ContextKeyRequestPath ContextKey = "request_path"
)

// validateToken parses the Authorization header and resolves the bearer
// token to a user. Only access tokens authenticate requests; refresh
// tokens are rejected so a leaked refresh token cannot be used directly.
// If required is true and validation fails, an error response is written
// and the second return value is true.
func validateToken(w http.ResponseWriter, r *http.Request, queries *store.Queries, required bool) (*model.User, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header", nil)
			return nil, true
		}
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format. Use: Bearer <token>", nil)
			return nil, true
		}
		return nil, false
	}

	rawToken := parts[1]
	if rawToken == "" {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Token is empty", nil)
			return nil, true
		}
		return nil, false
	}

	token, err := queries.GetAuthTokenByHash(r.Context(), auth.HashToken(rawToken))
	if err != nil {
		if required {
			if errors.Is(err, sql.ErrNoRows) {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid token", nil)
			} else {
				slog.Error("failed to validate token", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to validate token", nil)
			}
			return nil, true
		}
		return nil, false
	}

	if token.Kind != store.TokenKindAccess {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Refresh tokens cannot be used for authentication", nil)
			return nil, true
		}
		return nil, false
	}

	if time.Now().After(token.ExpiresAt) {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Token has expired", nil)
			return nil, true
		}
		return nil, false
	}

	user, err := queries.GetUserWithProfile(r.Context(), token.UserID)
	if err != nil {
		if required {
			slog.Error("failed to load token user", "error", err, "user_id", token.UserID)
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid token", nil)
			return nil, true
		}
		return nil, false
	}

	return &user, false
}

// TokenAuth creates middleware that requires bearer token authentication.
// The resolved user (with profile attached) is stored in the request context.
func TokenAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, errorWritten := validateToken(w, r, queries, true)
			if errorWritten {
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, *user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalTokenAuth creates middleware that resolves a bearer token when one
// is present but never rejects the request. Handlers that serve both public
// and personalized responses use this.
func OptionalTokenAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := validateToken(w, r, queries, false)
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, *user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
// Safe to use in logging where a zero-value is acceptable.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetUserIDPtr returns a pointer to the current user's ID from context, or
// nil if not found. Useful for optional user ID parameters in event logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// GetUserEmail returns the current user's email from context, or empty
// string if the user is anonymous or a phone-only guest.
func GetUserEmail(r *http.Request) string {
	if user := GetUser(r); user != nil && user.Email.Valid {
		return user.Email.String
	}
	return ""
}

// RequestPath creates middleware that stores the request path in the context.
// This is used by the logging handler to include the URL in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}

// roleLevel returns a numeric level for role hierarchy.
// Higher level = more permissions. Unknown roles have no access.
func roleLevel(role string) int {
	switch role {
	case model.RoleAdmin:
		return 3
	case model.RoleModerator:
		return 2
	case model.RoleUser:
		return 1
	default:
		return 0
	}
}

// RequireRole creates middleware that requires a minimum user role.
// Roles are hierarchical: ADMIN > MODERATOR > USER. For example,
// RequireRole(model.RoleModerator) allows both admins and moderators.
// Must be used after TokenAuth.
func RequireRole(minRole string) func(http.Handler) http.Handler {
	minLevel := roleLevel(minRole)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			if roleLevel(user.Role) < minLevel {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"required_role", minRole,
					"remote_addr", r.RemoteAddr,
				)
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin creates middleware that requires the admin role.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// RequireModerator creates middleware that requires at least moderator role.
// Allows both admins and moderators.
func RequireModerator() func(http.Handler) http.Handler {
	return RequireRole(model.RoleModerator)
}
