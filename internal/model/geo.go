// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// State is a top-level entry in the master location hierarchy.
type State struct {
	ID   int64  `json:"id"`
	Name string `json:"state_name"`
}

// District belongs to exactly one state.
type District struct {
	ID      int64  `json:"id"`
	StateID int64  `json:"master_state_id"`
	Name    string `json:"dist_name"`
}

// Tahsil belongs to exactly one district.
type Tahsil struct {
	ID         int64  `json:"id"`
	DistrictID int64  `json:"master_dist_id"`
	Name       string `json:"tahsil_name"`
}

// Profession employee types.
const (
	ProfessionPrivate      = "PRIVATE"
	ProfessionGovernment   = "GOVERNMENT"
	ProfessionSelfEmployed = "SELF_EMPLOYED"
	ProfessionBusiness     = "BUSINESS"
)

// Profession is a master profession entry.
type Profession struct {
	ID           int64  `json:"id"`
	EmployeeType string `json:"employee_type"`
}

// StateNode is a state with its nested districts, used by the
// location-hierarchy endpoint.
type StateNode struct {
	ID        int64          `json:"id"`
	Name      string         `json:"state_name"`
	Districts []DistrictNode `json:"districts"`
}

// DistrictNode is a district with its nested tahsils.
type DistrictNode struct {
	ID      int64    `json:"id"`
	Name    string   `json:"dist_name"`
	Tahsils []Tahsil `json:"tahsils"`
}
