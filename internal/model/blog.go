// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"strings"
	"time"
)

// Blog post statuses.
const (
	PostStatusDraft     = "DRAFT"
	PostStatusPublished = "PUBLISHED"
	PostStatusArchived  = "ARCHIVED"
	PostStatusDeleted   = "DELETED"
)

// BlogPost is a community blog entry. Author display fields are
// denormalized from the author's profile on reads.
type BlogPost struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"user_id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Content      string         `json:"content"`
	ContentHTML  string         `json:"content_html,omitempty"`
	ImageURL     sql.NullString `json:"image_url,omitempty"`
	Tags         sql.NullString `json:"tags,omitempty"`
	Status       string         `json:"status"`
	ViewCount    int64          `json:"view_count"`
	LikeCount    int64          `json:"like_count"`
	CommentCount int64          `json:"comment_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	// Author display fields.
	AuthorEmail      sql.NullString `json:"email_id,omitempty"`
	AuthorFirstName  sql.NullString `json:"first_name,omitempty"`
	AuthorLastName   sql.NullString `json:"last_name,omitempty"`
	AuthorProfileURL sql.NullString `json:"author_profile_url,omitempty"`
}

// TagList splits the comma-separated tags field into trimmed tags.
func (p *BlogPost) TagList() []string {
	if !p.Tags.Valid || p.Tags.String == "" {
		return nil
	}
	parts := strings.Split(p.Tags.String, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// MatchesQuery reports whether the post's title, content or tags contain
// the query, case-insensitively. Used for client-side filtering of a
// cached post list.
func (p *BlogPost) MatchesQuery(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Content), q) {
		return true
	}
	return p.Tags.Valid && strings.Contains(strings.ToLower(p.Tags.String), q)
}

// ValidPostStatus returns true for a known blog post status.
func ValidPostStatus(status string) bool {
	switch status {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived, PostStatusDeleted:
		return true
	}
	return false
}
