// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including User, Profile, BlogPost and master data structures.
package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleAdmin     = "ADMIN"
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
)

// User represents a community member. A user created through the guest
// phone-capture flow has a mobile number but no email or password hash
// until the profile is completed.
type User struct {
	ID           int64          `json:"id"`
	Email        sql.NullString `json:"email_id,omitempty"`
	Mobile       string         `json:"mobile_no"`
	PasswordHash sql.NullString `json:"-"` // Never expose in JSON
	Role         string         `json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	LastLoginAt  sql.NullTime   `json:"last_login_at,omitempty"`

	// Profile is attached on reads when one exists.
	Profile *Profile `json:"profile,omitempty"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsGuest returns true for phone-only users that never set credentials.
func (u *User) IsGuest() bool {
	return !u.PasswordHash.Valid
}

// HasCompleteProfile reports whether the user has a profile that passes
// the completeness predicate. Used by the preview gate.
func (u *User) HasCompleteProfile() bool {
	return u.Profile != nil && u.Profile.IsComplete()
}

// ValidRole returns true for a known user role.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleUser, RoleModerator:
		return true
	}
	return false
}
