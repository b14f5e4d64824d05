// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samajhub/samaj-go/internal/model"
)

// States lists the master states.
func (c *Client) States(ctx context.Context) ([]model.State, error) {
	var states []model.State
	if err := c.doWrapped(ctx, http.MethodGet, "/api/master-data/states", nil, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// Districts lists the districts of a state.
func (c *Client) Districts(ctx context.Context, stateID int64) ([]model.District, error) {
	var districts []model.District
	path := fmt.Sprintf("/api/master-data/states/%d/districts", stateID)
	if err := c.doWrapped(ctx, http.MethodGet, path, nil, &districts); err != nil {
		return nil, err
	}
	return districts, nil
}

// Tahsils lists the tahsils of a district.
func (c *Client) Tahsils(ctx context.Context, districtID int64) ([]model.Tahsil, error) {
	var tahsils []model.Tahsil
	path := fmt.Sprintf("/api/master-data/districts/%d/tahsils", districtID)
	if err := c.doWrapped(ctx, http.MethodGet, path, nil, &tahsils); err != nil {
		return nil, err
	}
	return tahsils, nil
}

// Professions lists the master professions.
func (c *Client) Professions(ctx context.Context) ([]model.Profession, error) {
	var professions []model.Profession
	if err := c.doWrapped(ctx, http.MethodGet, "/api/master-data/professions", nil, &professions); err != nil {
		return nil, err
	}
	return professions, nil
}

// LocationHierarchy fetches the full states-districts-tahsils tree.
func (c *Client) LocationHierarchy(ctx context.Context) ([]model.StateNode, error) {
	var nodes []model.StateNode
	if err := c.doWrapped(ctx, http.MethodGet, "/api/master-data/location-hierarchy", nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Analytics is the community counters payload.
type Analytics struct {
	TotalStates      int64 `json:"total_states"`
	TotalDistricts   int64 `json:"total_districts"`
	TotalTahsils     int64 `json:"total_tahsils"`
	TotalProfessions int64 `json:"total_professions"`
	TotalUsers       int64 `json:"total_users"`
	TotalProfiles    int64 `json:"total_profiles"`
	TotalPosts       int64 `json:"total_posts"`
}

// GetAnalytics fetches the aggregate community counters.
func (c *Client) GetAnalytics(ctx context.Context) (*Analytics, error) {
	var data Analytics
	if err := c.doWrapped(ctx, http.MethodGet, "/api/analytics", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
