// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/samajhub/samaj-go/internal/middleware"
	"github.com/samajhub/samaj-go/internal/model"
	"github.com/samajhub/samaj-go/internal/util"
)

// Event listing bounds for GET /api/admin/events.
const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

// eventView is the JSON shape of an audit log entry.
type eventView struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	UserID    *int64          `json:"user_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

func newEventView(e model.Event) eventView {
	view := eventView{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		Metadata:  json.RawMessage(e.Metadata),
		CreatedAt: e.CreatedAt,
	}
	if e.Metadata == "" {
		view.Metadata = json.RawMessage("{}")
	}
	if e.UserID.Valid {
		id := e.UserID.Int64
		view.UserID = &id
	}
	return view
}

// ListEvents handles GET /api/admin/events: the newest audit log
// entries, for moderators and admins. An optional limit query parameter
// narrows the page.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultEventLimit)
	if v := util.ParseNullInt64Positive(r.URL.Query().Get("limit")); v.Valid {
		limit = min(v.Int64, maxEventLimit)
	}

	events, err := h.queries.ListRecentEvents(r.Context(), limit)
	if err != nil {
		slog.Error("listing events failed", "error", err)
		WriteInternalError(w, "Could not load events")
		return
	}

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, newEventView(e))
	}
	WriteWrapped(w, len(views), views)
}

// RefreshMasterData handles POST /api/admin/master-data/refresh: drops
// every cached master data entry so edited location tables are served
// fresh. Admin only.
func (h *Handler) RefreshMasterData(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.master.Invalidate(r.Context()); err != nil {
		slog.Error("master data invalidation failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Could not refresh master data")
		return
	}

	slog.Info("master data cache invalidated", "user_id", user.ID, "category", "cache")
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Master data cache refreshed",
	})
}
