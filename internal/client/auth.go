// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/samajhub/samaj-go/internal/auth"
	"github.com/samajhub/samaj-go/internal/model"
)

// AuthResult is the bare envelope the auth endpoints answer with.
type AuthResult struct {
	Message string          `json:"message"`
	User    *model.User     `json:"user,omitempty"`
	Tokens  *auth.TokenPair `json:"tokens,omitempty"`
}

// ProfileParams carries the writable profile fields.
type ProfileParams struct {
	FirstName    string `json:"first_name"`
	MiddleName   string `json:"middle_name,omitempty"`
	LastName     string `json:"last_name"`
	DOB          string `json:"dob,omitempty"`
	Gender       string `json:"gender"`
	StateID      *int64 `json:"state_id,omitempty"`
	DistrictID   *int64 `json:"district_id,omitempty"`
	TahsilID     *int64 `json:"tahsil_id,omitempty"`
	AddressLine  string `json:"address_line,omitempty"`
	About        string `json:"about,omitempty"`
	ProfessionID *int64 `json:"profession_id,omitempty"`
	BusinessDesc string `json:"business_description,omitempty"`
}

// CompleteProfileParams promotes a phone-only guest to a full account.
type CompleteProfileParams struct {
	Mobile   string `json:"mobile_no"`
	Email    string `json:"email_id"`
	Password string `json:"password"`
	ProfileParams
}

// Register creates an account and returns the issued tokens.
func (c *Client) Register(ctx context.Context, email, mobile, password string) (*AuthResult, error) {
	var result AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email_id":  email,
		"mobile_no": mobile,
		"password":  password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Login authenticates with an email or mobile number plus password.
func (c *Client) Login(ctx context.Context, email, mobile, password string) (*AuthResult, error) {
	body := map[string]string{"password": password}
	if email != "" {
		body["email_id"] = email
	} else {
		body["mobile_no"] = mobile
	}

	var result AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StorePhone records a visitor's mobile number as a guest account.
func (c *Client) StorePhone(ctx context.Context, mobile string) (*model.User, error) {
	var result AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/store-phone", map[string]string{
		"mobile_no": mobile,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.User, nil
}

// CompleteProfile attaches credentials and a profile to a guest account.
func (c *Client) CompleteProfile(ctx context.Context, params CompleteProfileParams) (*AuthResult, error) {
	var result AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/complete-profile", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout revokes every token of the authenticated user on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// RefreshToken rotates a refresh token into a fresh pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	var result AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh-token", map[string]string{
		"refreshToken": refreshToken,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Tokens, nil
}

// GetProfile is the whoami call: the authenticated user with profile.
func (c *Client) GetProfile(ctx context.Context) (*model.User, error) {
	var result AuthResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/profile", nil, &result); err != nil {
		return nil, err
	}
	return result.User, nil
}

// UpdateProfile replaces the authenticated user's profile.
func (c *Client) UpdateProfile(ctx context.Context, params ProfileParams) (*model.User, error) {
	var result AuthResult
	if err := c.doJSON(ctx, http.MethodPut, "/api/users/profile", params, &result); err != nil {
		return nil, err
	}
	return result.User, nil
}

// DeleteProfile removes the profile but keeps the account.
func (c *Client) DeleteProfile(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/users/profile", nil, nil)
}

// UploadProfilePicture uploads an avatar image and returns the stored
// picture URL path.
func (c *Client) UploadProfilePicture(ctx context.Context, picture io.Reader, filename string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("picture", filename)
	if err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if _, err := io.Copy(part, picture); err != nil {
		return "", fmt.Errorf("reading picture: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/users/profile/picture", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.tokens != nil {
		if stored, err := c.tokens.Load(); err == nil && stored.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+stored.AccessToken)
		}
	}

	var result struct {
		ProfileURL string `json:"profile_url"`
	}
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	return result.ProfileURL, nil
}
