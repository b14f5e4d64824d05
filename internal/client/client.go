// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package client is the typed API client for the community platform.
// It exposes one method per backend operation and normalizes the
// server's envelope shapes into plain results. There is no retrying,
// caching or request deduplication: callers see exactly one round trip
// per call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samajhub/samaj-go/internal/tokenstore"
)

const defaultTimeout = 15 * time.Second

// APIError is a failure reported by the server, carrying its error
// envelope when one was sent.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// AuthError is an APIError for 401 responses, so callers can tell
// "credentials rejected" apart from other failures.
type AuthError struct {
	APIError
}

// IsAuthError reports whether err is (or wraps) an authentication failure.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Client talks to the community platform API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *tokenstore.Store
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API at baseURL. When store is non-nil,
// a stored access token is attached to every request.
func New(baseURL string, store *tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newRequest builds a request with the JSON body and bearer token set.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		if stored, err := c.tokens.Load(); err == nil && stored.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+stored.AccessToken)
		}
	}
	return req, nil
}

// do sends the request and decodes a 2xx body into out (when non-nil).
// Non-2xx responses become *APIError, or *AuthError for 401.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// doJSON is the bare-envelope round trip: request in, payload out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// wrappedEnvelope is the {success, count, data, message} master-data shape.
type wrappedEnvelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// doWrapped performs a round trip against a wrapped endpoint and decodes
// the inner data into out.
func (c *Client) doWrapped(ctx context.Context, method, path string, body, out any) error {
	var envelope wrappedEnvelope
	if err := c.doJSON(ctx, method, path, body, &envelope); err != nil {
		return err
	}
	if !envelope.Success {
		return &APIError{StatusCode: http.StatusOK, Code: "request_failed", Message: failureMessage(envelope.Message)}
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

// Pagination is list paging metadata as reported by the blog endpoints.
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

// blogEnvelope is the {success, data, pagination, message} blog shape.
type blogEnvelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

// doBlog performs a round trip against a blog endpoint, decoding the
// inner data into out and returning pagination when present.
func (c *Client) doBlog(ctx context.Context, method, path string, body, out any) (*Pagination, error) {
	var envelope blogEnvelope
	if err := c.doJSON(ctx, method, path, body, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, &APIError{StatusCode: http.StatusOK, Code: "request_failed", Message: failureMessage(envelope.Message)}
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return nil, fmt.Errorf("decoding response data: %w", err)
		}
	}
	return envelope.Pagination, nil
}

// decodeError turns a non-2xx body into an *APIError or *AuthError.
func decodeError(statusCode int, data []byte) error {
	apiErr := APIError{
		StatusCode: statusCode,
		Message:    failureMessage(""),
	}

	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Details = envelope.Error.Details
	}

	if statusCode == http.StatusUnauthorized {
		return &AuthError{APIError: apiErr}
	}
	return &apiErr
}

func failureMessage(message string) string {
	if message != "" {
		return message
	}
	return "The request could not be completed. Please try again."
}
