// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ListStates handles GET /api/master-data/states.
func (h *Handler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.master.States(r.Context())
	if err != nil {
		slog.Error("listing states failed", "error", err)
		WriteInternalError(w, "Could not load states")
		return
	}
	WriteWrapped(w, len(states), states)
}

// ListDistricts handles GET /api/master-data/states/{id}/districts.
func (h *Handler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	stateID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid state id", nil)
		return
	}

	districts, err := h.master.DistrictsByState(r.Context(), stateID)
	if err != nil {
		slog.Error("listing districts failed", "error", err, "state_id", stateID)
		WriteInternalError(w, "Could not load districts")
		return
	}
	WriteWrapped(w, len(districts), districts)
}

// ListTahsils handles GET /api/master-data/districts/{id}/tahsils.
func (h *Handler) ListTahsils(w http.ResponseWriter, r *http.Request) {
	districtID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid district id", nil)
		return
	}

	tahsils, err := h.master.TahsilsByDistrict(r.Context(), districtID)
	if err != nil {
		slog.Error("listing tahsils failed", "error", err, "district_id", districtID)
		WriteInternalError(w, "Could not load tahsils")
		return
	}
	WriteWrapped(w, len(tahsils), tahsils)
}

// ListProfessions handles GET /api/master-data/professions.
func (h *Handler) ListProfessions(w http.ResponseWriter, r *http.Request) {
	professions, err := h.master.Professions(r.Context())
	if err != nil {
		slog.Error("listing professions failed", "error", err)
		WriteInternalError(w, "Could not load professions")
		return
	}
	WriteWrapped(w, len(professions), professions)
}

// LocationHierarchy handles GET /api/master-data/location-hierarchy.
// Returns the full states -> districts -> tahsils tree in one response
// so clients can populate cascading selectors without per-level calls.
func (h *Handler) LocationHierarchy(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.master.Hierarchy(r.Context())
	if err != nil {
		slog.Error("loading location hierarchy failed", "error", err)
		WriteInternalError(w, "Could not load location hierarchy")
		return
	}
	WriteWrapped(w, len(nodes), nodes)
}

// analyticsData is the payload of the analytics endpoint.
type analyticsData struct {
	TotalStates      int64 `json:"total_states"`
	TotalDistricts   int64 `json:"total_districts"`
	TotalTahsils     int64 `json:"total_tahsils"`
	TotalProfessions int64 `json:"total_professions"`
	TotalUsers       int64 `json:"total_users"`
	TotalProfiles    int64 `json:"total_profiles"`
	TotalPosts       int64 `json:"total_posts"`
}

// Analytics handles GET /api/analytics: aggregate community counters.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	counts, err := h.queries.CountMasterData(r.Context())
	if err != nil {
		slog.Error("analytics: master counts failed", "error", err)
		WriteInternalError(w, "Could not load analytics")
		return
	}
	users, err := h.queries.CountUsers(r.Context())
	if err != nil {
		slog.Error("analytics: user count failed", "error", err)
		WriteInternalError(w, "Could not load analytics")
		return
	}
	profiles, err := h.queries.CountProfiles(r.Context())
	if err != nil {
		slog.Error("analytics: profile count failed", "error", err)
		WriteInternalError(w, "Could not load analytics")
		return
	}
	posts, err := h.queries.CountPosts(r.Context(), "")
	if err != nil {
		slog.Error("analytics: post count failed", "error", err)
		WriteInternalError(w, "Could not load analytics")
		return
	}

	WriteWrapped(w, 1, analyticsData{
		TotalStates:      counts.States,
		TotalDistricts:   counts.Districts,
		TotalTahsils:     counts.Tahsils,
		TotalProfessions: counts.Professions,
		TotalUsers:       users,
		TotalProfiles:    profiles,
		TotalPosts:       posts,
	})
}
