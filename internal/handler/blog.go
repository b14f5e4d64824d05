// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/samajhub/samaj-go/internal/middleware"
	"github.com/samajhub/samaj-go/internal/model"
	"github.com/samajhub/samaj-go/internal/store"
	"github.com/samajhub/samaj-go/internal/util"
)

// markdown renders post bodies; the UGC policy strips anything unsafe
// that authors sneak into raw HTML.
var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	ugcHTML  = bluemonday.UGCPolicy()
)

// renderContentHTML converts markdown content to sanitized HTML.
func renderContentHTML(content string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		// Fall back to the sanitized raw text.
		return ugcHTML.Sanitize(content)
	}
	return ugcHTML.Sanitize(buf.String())
}

// newPostSlug builds a unique URL slug from a title. A random suffix
// avoids a uniqueness round-trip against concurrent inserts.
func newPostSlug(title string) string {
	slug := util.Slugify(title)
	if slug == "" {
		slug = "post"
	}
	if len(slug) > 80 {
		slug = strings.Trim(slug[:80], "-")
	}
	return slug + "-" + uuid.NewString()[:8]
}

// PostRequest is the request body for creating a blog post.
type PostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	Tags     string `json:"tags,omitempty"`
	Status   string `json:"status,omitempty"`
}

// UpdatePostRequest is the request body for updating a blog post.
// Nil fields are left unchanged.
type UpdatePostRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
	Tags     *string `json:"tags,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// postView returns the post with rendered HTML attached.
func postView(post model.BlogPost) model.BlogPost {
	post.ContentHTML = renderContentHTML(post.Content)
	return post
}

// canEditPost reports whether the user may modify the post: the author,
// or a moderator or admin.
func canEditPost(user *model.User, post *model.BlogPost) bool {
	if user == nil {
		return false
	}
	if user.ID == post.UserID {
		return true
	}
	return user.Role == model.RoleAdmin || user.Role == model.RoleModerator
}

// ListPosts handles GET /api/blog/posts. Published posts newest-first,
// with optional search and pagination.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	h.listPosts(w, r, r.URL.Query().Get("search"))
}

// SearchPosts handles GET /api/blog/posts/search?q=. Same result shape
// as ListPosts; kept as a separate route for the original clients.
func (h *Handler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	h.listPosts(w, r, r.URL.Query().Get("q"))
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request, search string) {
	page := ParsePageParam(r)
	perPage := ParsePerPageParam(r, 10, 50)

	posts, err := h.queries.ListPosts(r.Context(), store.ListPostsParams{
		Search: search,
		Limit:  int64(perPage),
		Offset: int64((page - 1) * perPage),
	})
	if err != nil {
		slog.Error("listing posts failed", "error", err)
		WriteInternalError(w, "Could not load posts")
		return
	}
	total, err := h.queries.CountPosts(r.Context(), search)
	if err != nil {
		slog.Error("counting posts failed", "error", err)
		WriteInternalError(w, "Could not load posts")
		return
	}

	if posts == nil {
		posts = []model.BlogPost{}
	}
	WriteBlog(w, http.StatusOK, posts, NewPagination(page, perPage, total))
}

// GetPost handles GET /api/blog/posts/{id}. Reading a published post
// increments its view counter. Unpublished posts are visible only to
// their author and to moderators.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid post id", nil)
		return
	}

	post, err := h.queries.GetPostByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		WriteNotFound(w, "Post not found")
		return
	}
	if err != nil {
		slog.Error("loading post failed", "error", err, "post_id", id)
		WriteInternalError(w, "Could not load post")
		return
	}

	if post.Status != model.PostStatusPublished {
		user := middleware.GetUser(r)
		if post.Status == model.PostStatusDeleted || !canEditPost(user, &post) {
			WriteNotFound(w, "Post not found")
			return
		}
	} else {
		if err := h.queries.IncrementPostViews(r.Context(), id); err != nil {
			slog.Warn("view count increment failed", "error", err, "post_id", id, "category", "blog")
		} else {
			post.ViewCount++
		}
	}

	WriteBlog(w, http.StatusOK, postView(post), nil)
}

// ListUserPosts handles GET /api/blog/users/{id}/posts: a user's
// non-deleted posts, newest first.
func (h *Handler) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid user id", nil)
		return
	}

	page := ParsePageParam(r)
	perPage := ParsePerPageParam(r, 10, 50)

	posts, err := h.queries.ListPostsByUser(r.Context(), userID, int64(perPage), int64((page-1)*perPage))
	if err != nil {
		slog.Error("listing user posts failed", "error", err, "user_id", userID)
		WriteInternalError(w, "Could not load posts")
		return
	}
	total, err := h.queries.CountPostsByUser(r.Context(), userID)
	if err != nil {
		slog.Error("counting user posts failed", "error", err, "user_id", userID)
		WriteInternalError(w, "Could not load posts")
		return
	}

	if posts == nil {
		posts = []model.BlogPost{}
	}
	WriteBlog(w, http.StatusOK, posts, NewPagination(page, perPage, total))
}

// CreatePost handles POST /api/blog/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	var req PostRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	details := map[string]string{}
	if req.Title == "" {
		details["title"] = "Title is required"
	}
	if strings.TrimSpace(req.Content) == "" {
		details["content"] = "Content is required"
	}
	status := req.Status
	if status == "" {
		status = model.PostStatusPublished
	}
	if !model.ValidPostStatus(status) || status == model.PostStatusDeleted {
		details["status"] = "Status must be DRAFT, PUBLISHED or ARCHIVED"
	}
	if len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	now := time.Now().UTC()
	params := store.CreatePostParams{
		UserID:    user.ID,
		Title:     req.Title,
		Slug:      newPostSlug(req.Title),
		Content:   req.Content,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	params.ImageURL = util.NullStringFromValue(strings.TrimSpace(req.ImageURL))
	params.Tags = util.NullStringFromValue(strings.TrimSpace(req.Tags))

	post, err := h.queries.CreatePost(r.Context(), params)
	if err != nil {
		slog.Error("creating post failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Could not create post")
		return
	}

	slog.Info("post created", "post_id", post.ID, "user_id", user.ID, "category", "blog")
	WriteBlog(w, http.StatusCreated, postView(post), nil)
}

// UpdatePost handles PUT /api/blog/posts/{id}. Only the author, a
// moderator or an admin may update; nil fields keep their value.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid post id", nil)
		return
	}

	post, err := h.queries.GetPostByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		WriteNotFound(w, "Post not found")
		return
	}
	if err != nil {
		slog.Error("loading post failed", "error", err, "post_id", id)
		WriteInternalError(w, "Could not update post")
		return
	}
	if post.Status == model.PostStatusDeleted || !canEditPost(user, &post) {
		WriteForbidden(w, "You cannot edit this post")
		return
	}

	var req UpdatePostRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	params := store.UpdatePostParams{
		ID:        post.ID,
		Title:     post.Title,
		Slug:      post.Slug,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		Tags:      post.Tags,
		Status:    post.Status,
		UpdatedAt: time.Now().UTC(),
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			WriteBadRequest(w, "Title cannot be empty", nil)
			return
		}
		params.Title = title
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			WriteBadRequest(w, "Content cannot be empty", nil)
			return
		}
		params.Content = *req.Content
	}
	if req.ImageURL != nil {
		params.ImageURL = util.NullStringFromValue(strings.TrimSpace(*req.ImageURL))
	}
	if req.Tags != nil {
		params.Tags = util.NullStringFromValue(strings.TrimSpace(*req.Tags))
	}
	if req.Status != nil {
		if !model.ValidPostStatus(*req.Status) || *req.Status == model.PostStatusDeleted {
			WriteBadRequest(w, "Status must be DRAFT, PUBLISHED or ARCHIVED", nil)
			return
		}
		params.Status = *req.Status
	}

	if err := h.queries.UpdatePost(r.Context(), params); err != nil {
		slog.Error("updating post failed", "error", err, "post_id", id)
		WriteInternalError(w, "Could not update post")
		return
	}

	updated, err := h.queries.GetPostByID(r.Context(), id)
	if err != nil {
		slog.Error("reloading post failed", "error", err, "post_id", id)
		WriteInternalError(w, "Could not update post")
		return
	}

	WriteBlog(w, http.StatusOK, postView(updated), nil)
}

// DeletePost handles DELETE /api/blog/posts/{id}: a soft delete that
// keeps the row for the counters and audit trail.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid post id", nil)
		return
	}

	post, err := h.queries.GetPostByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		WriteNotFound(w, "Post not found")
		return
	}
	if err != nil {
		slog.Error("loading post failed", "error", err, "post_id", id)
		WriteInternalError(w, "Could not delete post")
		return
	}
	if post.Status == model.PostStatusDeleted {
		WriteNotFound(w, "Post not found")
		return
	}
	if !canEditPost(user, &post) {
		WriteForbidden(w, "You cannot delete this post")
		return
	}

	if err := h.queries.SoftDeletePost(r.Context(), id, time.Now().UTC()); err != nil {
		slog.Error("deleting post failed", "error", err, "post_id", id)
		WriteInternalError(w, "Could not delete post")
		return
	}

	slog.Info("post deleted", "post_id", id, "user_id", user.ID, "category", "blog")
	WriteBlog(w, http.StatusOK, map[string]any{"id": id, "status": model.PostStatusDeleted}, nil)
}
