// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"

	"github.com/samajhub/samaj-go/internal/model"
)

// ListStates returns all states ordered by name.
func (q *Queries) ListStates(ctx context.Context) ([]model.State, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, state_name FROM master_state ORDER BY state_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []model.State
	for rows.Next() {
		var s model.State
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

// ListDistrictsByState returns the districts of a state ordered by name.
func (q *Queries) ListDistrictsByState(ctx context.Context, stateID int64) ([]model.District, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, master_state_id, dist_name FROM master_dist
		WHERE master_state_id = ? ORDER BY dist_name`, stateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var districts []model.District
	for rows.Next() {
		var d model.District
		if err := rows.Scan(&d.ID, &d.StateID, &d.Name); err != nil {
			return nil, err
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

// ListTahsilsByDistrict returns the tahsils of a district ordered by name.
func (q *Queries) ListTahsilsByDistrict(ctx context.Context, districtID int64) ([]model.Tahsil, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, master_dist_id, tahsil_name FROM master_tahsil
		WHERE master_dist_id = ? ORDER BY tahsil_name`, districtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tahsils []model.Tahsil
	for rows.Next() {
		var t model.Tahsil
		if err := rows.Scan(&t.ID, &t.DistrictID, &t.Name); err != nil {
			return nil, err
		}
		tahsils = append(tahsils, t)
	}
	return tahsils, rows.Err()
}

// ListProfessions returns all professions ordered by type.
func (q *Queries) ListProfessions(ctx context.Context) ([]model.Profession, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, employee_type FROM master_profession ORDER BY employee_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var professions []model.Profession
	for rows.Next() {
		var p model.Profession
		if err := rows.Scan(&p.ID, &p.EmployeeType); err != nil {
			return nil, err
		}
		professions = append(professions, p)
	}
	return professions, rows.Err()
}

// LocationHierarchy returns the full states -> districts -> tahsils tree
// in a single query, grouped in memory.
func (q *Queries) LocationHierarchy(ctx context.Context) ([]model.StateNode, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT s.id, s.state_name, d.id, d.dist_name, t.id, t.tahsil_name
		FROM master_state s
		LEFT JOIN master_dist d ON s.id = d.master_state_id
		LEFT JOIN master_tahsil t ON d.id = t.master_dist_id
		ORDER BY s.state_name, d.dist_name, t.tahsil_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		nodes     []model.StateNode
		stateIdx  = make(map[int64]int)
		distIdx   = make(map[int64]int) // district id -> index within its state
		distState = make(map[int64]int64)
	)
	for rows.Next() {
		var (
			stateID    int64
			stateName  string
			distID     *int64
			distName   *string
			tahsilID   *int64
			tahsilName *string
		)
		if err := rows.Scan(&stateID, &stateName, &distID, &distName, &tahsilID, &tahsilName); err != nil {
			return nil, err
		}

		si, ok := stateIdx[stateID]
		if !ok {
			si = len(nodes)
			stateIdx[stateID] = si
			nodes = append(nodes, model.StateNode{ID: stateID, Name: stateName})
		}
		if distID == nil {
			continue
		}

		di, ok := distIdx[*distID]
		if !ok {
			di = len(nodes[si].Districts)
			distIdx[*distID] = di
			distState[*distID] = stateID
			nodes[si].Districts = append(nodes[si].Districts,
				model.DistrictNode{ID: *distID, Name: *distName})
		}
		if tahsilID == nil {
			continue
		}

		nodes[si].Districts[di].Tahsils = append(nodes[si].Districts[di].Tahsils,
			model.Tahsil{ID: *tahsilID, DistrictID: *distID, Name: *tahsilName})
	}
	return nodes, rows.Err()
}

// GetDistrict returns a single district row. Used to validate that a
// district belongs to the claimed state.
func (q *Queries) GetDistrict(ctx context.Context, id int64) (model.District, error) {
	var d model.District
	err := q.db.QueryRowContext(ctx,
		`SELECT id, master_state_id, dist_name FROM master_dist WHERE id = ?`, id).
		Scan(&d.ID, &d.StateID, &d.Name)
	return d, err
}

// GetTahsil returns a single tahsil row. Used to validate that a tahsil
// belongs to the claimed district.
func (q *Queries) GetTahsil(ctx context.Context, id int64) (model.Tahsil, error) {
	var t model.Tahsil
	err := q.db.QueryRowContext(ctx,
		`SELECT id, master_dist_id, tahsil_name FROM master_tahsil WHERE id = ?`, id).
		Scan(&t.ID, &t.DistrictID, &t.Name)
	return t, err
}

// MasterCounts holds aggregate counts for the analytics endpoint.
type MasterCounts struct {
	States      int64 `json:"total_states"`
	Districts   int64 `json:"total_districts"`
	Tahsils     int64 `json:"total_tahsils"`
	Professions int64 `json:"total_professions"`
}

// CountMasterData returns aggregate counts of the master tables.
func (q *Queries) CountMasterData(ctx context.Context) (MasterCounts, error) {
	var c MasterCounts
	err := q.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM master_state),
			(SELECT COUNT(*) FROM master_dist),
			(SELECT COUNT(*) FROM master_tahsil),
			(SELECT COUNT(*) FROM master_profession)`).
		Scan(&c.States, &c.Districts, &c.Tahsils, &c.Professions)
	return c, err
}
