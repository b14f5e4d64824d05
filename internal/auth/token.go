// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Token lifetimes. Access tokens are short-lived; refresh tokens let a
// client obtain a new pair without re-authenticating.
const (
	AccessTokenTTL  = 1 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour

	tokenBytes = 32
)

// TokenPair carries a freshly issued access and refresh token in plain
// form. Only hashes are ever persisted.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// GenerateToken returns a new opaque token: 32 random bytes, hex encoded.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateTokenPair returns a new access and refresh token.
func GenerateTokenPair() (TokenPair, error) {
	access, err := GenerateToken()
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := GenerateToken()
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// HashToken returns the hex SHA-256 digest stored in place of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
