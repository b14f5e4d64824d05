// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samajhub/samaj-go/internal/imaging"
	"github.com/samajhub/samaj-go/internal/middleware"
	"github.com/samajhub/samaj-go/internal/model"
	"github.com/samajhub/samaj-go/internal/store"
	"github.com/samajhub/samaj-go/internal/util"
)

// ProfileRequest carries the writable profile fields. It is the body of
// PUT /api/users/profile and is embedded in the complete-profile request.
type ProfileRequest struct {
	FirstName    string `json:"first_name"`
	MiddleName   string `json:"middle_name,omitempty"`
	LastName     string `json:"last_name"`
	DOB          string `json:"dob,omitempty"` // YYYY-MM-DD
	Gender       string `json:"gender"`
	StateID      *int64 `json:"state_id,omitempty"`
	DistrictID   *int64 `json:"district_id,omitempty"`
	TahsilID     *int64 `json:"tahsil_id,omitempty"`
	AddressLine  string `json:"address_line,omitempty"`
	About        string `json:"about,omitempty"`
	ProfessionID *int64 `json:"profession_id,omitempty"`
	BusinessDesc string `json:"business_description,omitempty"`
}

// validate appends field error messages to details.
func (p *ProfileRequest) validate(details map[string]string) {
	if strings.TrimSpace(p.FirstName) == "" {
		details["first_name"] = "First name is required"
	}
	if strings.TrimSpace(p.LastName) == "" {
		details["last_name"] = "Last name is required"
	}
	if !model.ValidGender(p.Gender) {
		details["gender"] = "Gender must be MALE, FEMALE or OTHER"
	}
	if p.DOB != "" {
		if _, err := time.Parse("2006-01-02", p.DOB); err != nil {
			details["dob"] = "Date of birth must be YYYY-MM-DD"
		}
	}
	// A child location without its parent can never be validated.
	if p.DistrictID != nil && p.StateID == nil {
		details["district_id"] = "District requires a state"
	}
	if p.TahsilID != nil && p.DistrictID == nil {
		details["tahsil_id"] = "Tahsil requires a district"
	}
}

// toParams converts the request to store parameters, checking that the
// referenced district and tahsil belong to their claimed parents.
func (p *ProfileRequest) toParams(r *http.Request, h *Handler, userID int64) (store.UpsertProfileParams, string) {
	params := store.UpsertProfileParams{
		UserID:    userID,
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Gender:    p.Gender,
		Now:       time.Now().UTC(),
	}

	params.MiddleName = util.NullStringFromValue(strings.TrimSpace(p.MiddleName))
	params.AddressLine = util.NullStringFromValue(strings.TrimSpace(p.AddressLine))
	params.About = util.NullStringFromValue(strings.TrimSpace(p.About))
	params.BusinessDesc = util.NullStringFromValue(strings.TrimSpace(p.BusinessDesc))
	params.ProfessionID = util.NullInt64FromPtr(p.ProfessionID)
	if p.DOB != "" {
		dob, _ := time.Parse("2006-01-02", p.DOB)
		params.DOB = sql.NullTime{Time: dob, Valid: true}
	}

	params.StateID = util.NullInt64FromPtr(p.StateID)
	if p.DistrictID != nil {
		district, err := h.queries.GetDistrict(r.Context(), *p.DistrictID)
		if err != nil || district.StateID != *p.StateID {
			return params, "District does not belong to the selected state"
		}
		params.DistrictID = util.NullInt64FromPtr(p.DistrictID)
	}
	if p.TahsilID != nil {
		tahsil, err := h.queries.GetTahsil(r.Context(), *p.TahsilID)
		if err != nil || tahsil.DistrictID != *p.DistrictID {
			return params, "Tahsil does not belong to the selected district"
		}
		params.TahsilID = util.NullInt64FromPtr(p.TahsilID)
	}

	return params, ""
}

// GetProfile handles GET /api/users/profile.
// It doubles as the whoami call clients use to validate stored tokens.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	WriteJSON(w, http.StatusOK, AuthResponse{
		Message: "OK",
		User:    user,
	})
}

// UpdateProfile handles PUT /api/users/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ProfileRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	details := map[string]string{}
	req.validate(details)
	if len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	params, errMsg := req.toParams(r, h, user.ID)
	if errMsg != "" {
		WriteBadRequest(w, errMsg, nil)
		return
	}

	// A profile picture set earlier survives a profile update.
	if user.Profile != nil && user.Profile.ProfileURL.Valid {
		params.ProfileURL = user.Profile.ProfileURL
	}

	profile, err := h.queries.UpsertProfile(r.Context(), params)
	if err != nil {
		slog.Error("profile update failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Profile update failed")
		return
	}

	updated := *user
	updated.Profile = &profile
	WriteJSON(w, http.StatusOK, AuthResponse{
		Message: "Profile updated",
		User:    &updated,
	})
}

// DeleteProfile handles DELETE /api/users/profile. It removes the
// profile record but keeps the account and its credentials.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.queries.DeleteProfile(r.Context(), user.ID); err != nil {
		slog.Error("profile delete failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Profile deletion failed")
		return
	}

	slog.Info("profile deleted", "user_id", user.ID, "category", "user")
	WriteJSON(w, http.StatusOK, AuthResponse{Message: "Profile deleted"})
}

// maxAvatarUpload caps profile picture uploads at 5 MiB.
const maxAvatarUpload = 5 << 20

// UploadProfilePicture handles POST /api/users/profile/picture.
// Accepts a multipart "picture" file, resizes it to a square avatar and
// stores the resulting URL on the profile.
func (h *Handler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	if user.Profile == nil {
		WriteBadRequest(w, "Create a profile before uploading a picture", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarUpload)
	if err := r.ParseMultipartForm(maxAvatarUpload); err != nil {
		WriteBadRequest(w, "Invalid upload or file too large", nil)
		return
	}

	file, header, err := r.FormFile("picture")
	if err != nil {
		WriteBadRequest(w, "Missing picture file", nil)
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.avatars.SaveAvatar(file, header.Filename)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			WriteBadRequest(w, "Unsupported image format", nil)
			return
		}
		slog.Error("avatar processing failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Could not process picture")
		return
	}

	if err := h.queries.UpdateProfilePicture(r.Context(), user.ID, url, time.Now().UTC()); err != nil {
		slog.Error("avatar save failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Could not save picture")
		return
	}

	// The replaced picture has no remaining reference; drop its file.
	if old := user.Profile.ProfileURL; old.Valid && old.String != url {
		if err := h.avatars.DeleteAvatar(old.String); err != nil {
			slog.Warn("stale avatar cleanup failed", "error", err, "user_id", user.ID, "category", "user")
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"message":     "Picture uploaded",
		"profile_url": url,
	})
}
