// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samajhub/samaj-go/internal/model"
)

// PostParams carries the writable blog post fields. Nil pointer fields
// are left unchanged on update.
type PostParams struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	Tags     string `json:"tags,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ListPosts fetches published posts, newest first, with optional search.
func (c *Client) ListPosts(ctx context.Context, page, perPage int, search string) ([]model.BlogPost, *Pagination, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	if search != "" {
		query.Set("search", search)
	}

	path := "/api/blog/posts"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var posts []model.BlogPost
	pagination, err := c.doBlog(ctx, http.MethodGet, path, nil, &posts)
	if err != nil {
		return nil, nil, err
	}
	return posts, pagination, nil
}

// SearchPosts queries the dedicated search route.
func (c *Client) SearchPosts(ctx context.Context, q string, page, perPage int) ([]model.BlogPost, *Pagination, error) {
	query := url.Values{"q": {q}}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	var posts []model.BlogPost
	pagination, err := c.doBlog(ctx, http.MethodGet, "/api/blog/posts/search?"+query.Encode(), nil, &posts)
	if err != nil {
		return nil, nil, err
	}
	return posts, pagination, nil
}

// GetPost fetches a single post. Reading a published post counts a view.
func (c *Client) GetPost(ctx context.Context, id int64) (*model.BlogPost, error) {
	var post model.BlogPost
	path := fmt.Sprintf("/api/blog/posts/%d", id)
	if _, err := c.doBlog(ctx, http.MethodGet, path, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListUserPosts fetches a user's posts, newest first.
func (c *Client) ListUserPosts(ctx context.Context, userID int64, page, perPage int) ([]model.BlogPost, *Pagination, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	path := fmt.Sprintf("/api/blog/users/%d/posts", userID)
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var posts []model.BlogPost
	pagination, err := c.doBlog(ctx, http.MethodGet, path, nil, &posts)
	if err != nil {
		return nil, nil, err
	}
	return posts, pagination, nil
}

// CreatePost publishes a new post as the authenticated user.
func (c *Client) CreatePost(ctx context.Context, params PostParams) (*model.BlogPost, error) {
	var post model.BlogPost
	if _, err := c.doBlog(ctx, http.MethodPost, "/api/blog/posts", params, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePostParams carries partial post updates; nil fields keep their value.
type UpdatePostParams struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
	Tags     *string `json:"tags,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// UpdatePost edits an existing post (author, moderator or admin only).
func (c *Client) UpdatePost(ctx context.Context, id int64, params UpdatePostParams) (*model.BlogPost, error) {
	var post model.BlogPost
	path := fmt.Sprintf("/api/blog/posts/%d", id)
	if _, err := c.doBlog(ctx, http.MethodPut, path, params, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost soft-deletes a post (author, moderator or admin only).
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/blog/posts/%d", id)
	_, err := c.doBlog(ctx, http.MethodDelete, path, nil, nil)
	return err
}
