// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"regexp"
	"strings"
)

var (
	emailRegex  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	mobileRegex = regexp.MustCompile(`^[0-9]{10}$`)
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidateEmail returns an error message for an invalid email, or "".
func ValidateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required"
	}
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return "Invalid email address"
	}
	return ""
}

// ValidateMobile returns an error message for an invalid mobile number,
// or "". Numbers are ten digits without a country prefix.
func ValidateMobile(mobile string) string {
	if mobile == "" {
		return "Mobile number is required"
	}
	if !mobileRegex.MatchString(mobile) {
		return "Mobile number must be 10 digits"
	}
	return ""
}

// ValidatePassword returns an error message for a weak password, or "".
func ValidatePassword(password string) string {
	if password == "" {
		return "Password is required"
	}
	if len(password) < MinPasswordLength {
		return "Password must be at least 8 characters"
	}
	return ""
}
