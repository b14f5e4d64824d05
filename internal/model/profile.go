// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Genders accepted on a profile.
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

// Profile holds the demographic, location and profession record attached
// to a user. Location references form a strict containment hierarchy:
// tahsil belongs to district belongs to state.
type Profile struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"user_id"`
	FirstName    string         `json:"first_name"`
	MiddleName   sql.NullString `json:"middle_name,omitempty"`
	LastName     string         `json:"last_name"`
	DOB          sql.NullTime   `json:"dob,omitempty"`
	Gender       string         `json:"gender"`
	StateID      sql.NullInt64  `json:"state_id,omitempty"`
	DistrictID   sql.NullInt64  `json:"district_id,omitempty"`
	TahsilID     sql.NullInt64  `json:"tahsil_id,omitempty"`
	AddressLine  sql.NullString `json:"address_line,omitempty"`
	About        sql.NullString `json:"about,omitempty"`
	ProfessionID sql.NullInt64  `json:"profession_id,omitempty"`
	BusinessDesc sql.NullString `json:"business_description,omitempty"`
	ProfileURL   sql.NullString `json:"profile_url,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	// Denormalized display names, populated on joined reads.
	StateName      sql.NullString `json:"state_name,omitempty"`
	DistrictName   sql.NullString `json:"dist_name,omitempty"`
	TahsilName     sql.NullString `json:"tahsil_name,omitempty"`
	ProfessionType sql.NullString `json:"employee_type,omitempty"`
}

// IsComplete reports whether all required fields are present: name, date
// of birth, gender, the full location chain, profession and address.
// This predicate drives the profile-completion freeze.
func (p *Profile) IsComplete() bool {
	return p.FirstName != "" &&
		p.LastName != "" &&
		p.DOB.Valid &&
		ValidGender(p.Gender) &&
		p.StateID.Valid &&
		p.DistrictID.Valid &&
		p.TahsilID.Valid &&
		p.ProfessionID.Valid &&
		p.AddressLine.Valid && p.AddressLine.String != ""
}

// ValidGender returns true for a known gender value.
func ValidGender(gender string) bool {
	switch gender {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}
