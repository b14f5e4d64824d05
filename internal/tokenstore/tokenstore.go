// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tokenstore persists auth tokens between client runs in a JSON
// file under the user's config directory.
package tokenstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	configDirName = "samaj"
	fileName      = "tokens.json"
)

// Tokens is what the store persists: the opaque token pair plus the
// transient guest user id from the phone-capture flow.
type Tokens struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	GuestUserID  int64  `json:"guestUserId,omitempty"`
}

// Store reads and writes the token file. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a store at the default location under the user's config
// directory.
func New() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	return NewWithPath(filepath.Join(dir, configDirName, fileName)), nil
}

// NewWithPath creates a store backed by the given file path.
func NewWithPath(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted tokens. A missing file is not an error: it
// yields empty tokens.
func (s *Store) Load() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Tokens, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Tokens{}, nil
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("reading token file: %w", err)
	}

	var tokens Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		// A corrupt token file means starting over, not a dead client.
		return Tokens{}, nil
	}
	return tokens, nil
}

// Save writes the tokens, creating the directory if needed. The file is
// private to the user.
func (s *Store) Save(tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(tokens)
}

func (s *Store) save(tokens Tokens) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tokens: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// SetTokens replaces the token pair, keeping the guest user id.
func (s *Store) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return err
	}
	tokens.AccessToken = access
	tokens.RefreshToken = refresh
	return s.save(tokens)
}

// SetGuestUserID records the guest user id from the phone-capture flow.
func (s *Store) SetGuestUserID(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return err
	}
	tokens.GuestUserID = id
	return s.save(tokens)
}

// ClearTokens drops the token pair but keeps the guest user id, so a
// signed-out visitor is still recognized by the phone-capture flow.
func (s *Store) ClearTokens() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return err
	}
	tokens.AccessToken = ""
	tokens.RefreshToken = ""
	return s.save(tokens)
}

// Clear removes the token file entirely.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether an access token is stored. It says
// nothing about whether the server still accepts it.
func (s *Store) IsAuthenticated() bool {
	tokens, err := s.Load()
	return err == nil && tokens.AccessToken != ""
}
