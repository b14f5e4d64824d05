// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/samajhub/samaj-go/internal/model"
)

const blogColumns = `
	b.id, b.user_id, b.title, b.slug, b.content, b.image_url, b.tags, b.status,
	b.view_count, b.like_count, b.comment_count, b.created_at, b.updated_at,
	u.email_id, p.first_name, p.last_name, p.profile_url`

const blogJoins = `
	FROM blog_posts b
	JOIN users u ON b.user_id = u.id
	LEFT JOIN user_profile p ON b.user_id = p.user_id`

func scanBlogPost(row interface{ Scan(...any) error }) (model.BlogPost, error) {
	var b model.BlogPost
	err := row.Scan(&b.ID, &b.UserID, &b.Title, &b.Slug, &b.Content, &b.ImageURL,
		&b.Tags, &b.Status, &b.ViewCount, &b.LikeCount, &b.CommentCount,
		&b.CreatedAt, &b.UpdatedAt,
		&b.AuthorEmail, &b.AuthorFirstName, &b.AuthorLastName, &b.AuthorProfileURL)
	return b, err
}

func (q *Queries) listPosts(ctx context.Context, where string, args ...any) ([]model.BlogPost, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+blogColumns+blogJoins+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.BlogPost
	for rows.Next() {
		post, err := scanBlogPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// ListPostsParams holds pagination and search parameters for ListPosts.
type ListPostsParams struct {
	Search string
	Limit  int64
	Offset int64
}

// ListPosts returns published posts newest-first, optionally filtered by a
// case-insensitive substring match on title, content or tags.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]model.BlogPost, error) {
	if arg.Search != "" {
		pattern := "%" + arg.Search + "%"
		return q.listPosts(ctx, `
			WHERE b.status = 'PUBLISHED'
			  AND (b.title LIKE ? COLLATE NOCASE
			    OR b.content LIKE ? COLLATE NOCASE
			    OR b.tags LIKE ? COLLATE NOCASE)
			ORDER BY b.created_at DESC LIMIT ? OFFSET ?`,
			pattern, pattern, pattern, arg.Limit, arg.Offset)
	}
	return q.listPosts(ctx, `
		WHERE b.status = 'PUBLISHED'
		ORDER BY b.created_at DESC LIMIT ? OFFSET ?`, arg.Limit, arg.Offset)
}

// CountPosts returns the number of published posts matching the search.
func (q *Queries) CountPosts(ctx context.Context, search string) (int64, error) {
	var n int64
	if search != "" {
		pattern := "%" + search + "%"
		err := q.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM blog_posts b
			WHERE b.status = 'PUBLISHED'
			  AND (b.title LIKE ? COLLATE NOCASE
			    OR b.content LIKE ? COLLATE NOCASE
			    OR b.tags LIKE ? COLLATE NOCASE)`,
			pattern, pattern, pattern).Scan(&n)
		return n, err
	}
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blog_posts WHERE status = 'PUBLISHED'`).Scan(&n)
	return n, err
}

// ListPostsByUser returns a user's non-deleted posts newest-first.
func (q *Queries) ListPostsByUser(ctx context.Context, userID, limit, offset int64) ([]model.BlogPost, error) {
	return q.listPosts(ctx, `
		WHERE b.user_id = ? AND b.status != 'DELETED'
		ORDER BY b.created_at DESC LIMIT ? OFFSET ?`, userID, limit, offset)
}

// CountPostsByUser returns the number of a user's non-deleted posts.
func (q *Queries) CountPostsByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blog_posts WHERE user_id = ? AND status != 'DELETED'`,
		userID).Scan(&n)
	return n, err
}

// GetPostByID returns a single post regardless of status.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.BlogPost, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+blogColumns+blogJoins+` WHERE b.id = ?`, id)
	return scanBlogPost(row)
}

// CreatePostParams holds parameters for CreatePost.
type CreatePostParams struct {
	UserID    int64
	Title     string
	Slug      string
	Content   string
	ImageURL  sql.NullString
	Tags      sql.NullString
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePost inserts a new blog post and returns it with author fields.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.BlogPost, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO blog_posts (user_id, title, slug, content, image_url, tags, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.UserID, arg.Title, arg.Slug, arg.Content, arg.ImageURL, arg.Tags,
		arg.Status, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.BlogPost{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.BlogPost{}, err
	}
	return q.GetPostByID(ctx, id)
}

// UpdatePostParams holds parameters for UpdatePost.
type UpdatePostParams struct {
	ID        int64
	Title     string
	Slug      string
	Content   string
	ImageURL  sql.NullString
	Tags      sql.NullString
	Status    string
	UpdatedAt time.Time
}

// UpdatePost rewrites the mutable fields of a post.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE blog_posts
		SET title = ?, slug = ?, content = ?, image_url = ?, tags = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		arg.Title, arg.Slug, arg.Content, arg.ImageURL, arg.Tags, arg.Status,
		arg.UpdatedAt, arg.ID)
	return err
}

// SoftDeletePost marks a post as deleted without removing the row.
func (q *Queries) SoftDeletePost(ctx context.Context, id int64, now time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE blog_posts SET status = 'DELETED', updated_at = ? WHERE id = ?`, now, id)
	return err
}

// IncrementPostViews bumps the view counter of a post.
func (q *Queries) IncrementPostViews(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE blog_posts SET view_count = view_count + 1 WHERE id = ?`, id)
	return err
}
