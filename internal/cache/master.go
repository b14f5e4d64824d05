// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/samajhub/samaj-go/internal/model"
	"github.com/samajhub/samaj-go/internal/store"
)

// Master data cache keys. District and tahsil lists carry their parent id.
const (
	masterKeyPrefix      = "master:"
	masterKeyStates      = masterKeyPrefix + "states"
	masterKeyProfessions = masterKeyPrefix + "professions"
	masterKeyHierarchy   = masterKeyPrefix + "hierarchy"
)

// MasterDataCache provides cached access to the location and profession
// master tables. The data changes rarely, so entries use a long TTL and
// are invalidated wholesale when it does.
type MasterDataCache struct {
	queries *store.Queries
	backend Cache

	states      *TypedCache[[]model.State]
	districts   *MultiTypedCache[[]model.District]
	tahsils     *MultiTypedCache[[]model.Tahsil]
	professions *TypedCache[[]model.Profession]
	hierarchy   *TypedCache[[]model.StateNode]
}

// NewMasterDataCache creates a master data cache on top of the given backend.
func NewMasterDataCache(queries *store.Queries, backend Cache, ttl time.Duration) *MasterDataCache {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &MasterDataCache{
		queries:     queries,
		backend:     backend,
		states:      NewTypedCache[[]model.State](backend, ttl),
		districts:   NewMultiTypedCache[[]model.District](backend, ttl),
		tahsils:     NewMultiTypedCache[[]model.Tahsil](backend, ttl),
		professions: NewTypedCache[[]model.Profession](backend, ttl),
		hierarchy:   NewTypedCache[[]model.StateNode](backend, ttl),
	}
}

// States returns all states, cached.
func (c *MasterDataCache) States(ctx context.Context) ([]model.State, error) {
	result, err := c.states.GetOrSet(ctx, masterKeyStates, func() (*[]model.State, error) {
		states, err := c.queries.ListStates(ctx)
		if err != nil {
			return nil, err
		}
		return &states, nil
	})
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// DistrictsByState returns the districts of a state, cached per state.
func (c *MasterDataCache) DistrictsByState(ctx context.Context, stateID int64) ([]model.District, error) {
	key := fmt.Sprintf("%sdistricts:%d", masterKeyPrefix, stateID)
	result, err := c.districts.GetOrSet(ctx, key, func() (*[]model.District, error) {
		districts, err := c.queries.ListDistrictsByState(ctx, stateID)
		if err != nil {
			return nil, err
		}
		return &districts, nil
	})
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// TahsilsByDistrict returns the tahsils of a district, cached per district.
func (c *MasterDataCache) TahsilsByDistrict(ctx context.Context, districtID int64) ([]model.Tahsil, error) {
	key := fmt.Sprintf("%stahsils:%d", masterKeyPrefix, districtID)
	result, err := c.tahsils.GetOrSet(ctx, key, func() (*[]model.Tahsil, error) {
		tahsils, err := c.queries.ListTahsilsByDistrict(ctx, districtID)
		if err != nil {
			return nil, err
		}
		return &tahsils, nil
	})
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// Professions returns all professions, cached.
func (c *MasterDataCache) Professions(ctx context.Context) ([]model.Profession, error) {
	result, err := c.professions.GetOrSet(ctx, masterKeyProfessions, func() (*[]model.Profession, error) {
		professions, err := c.queries.ListProfessions(ctx)
		if err != nil {
			return nil, err
		}
		return &professions, nil
	})
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// Hierarchy returns the full states -> districts -> tahsils tree, cached.
func (c *MasterDataCache) Hierarchy(ctx context.Context) ([]model.StateNode, error) {
	result, err := c.hierarchy.GetOrSet(ctx, masterKeyHierarchy, func() (*[]model.StateNode, error) {
		nodes, err := c.queries.LocationHierarchy(ctx)
		if err != nil {
			return nil, err
		}
		return &nodes, nil
	})
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// Preload warms every master data entry from one hierarchy query, so
// the first requests after startup are served from cache. The per-parent
// district and tahsil lists are stored in bulk.
func (c *MasterDataCache) Preload(ctx context.Context) error {
	states, err := c.queries.ListStates(ctx)
	if err != nil {
		return err
	}
	if err := c.states.Set(ctx, masterKeyStates, &states); err != nil {
		return err
	}

	professions, err := c.queries.ListProfessions(ctx)
	if err != nil {
		return err
	}
	if err := c.professions.Set(ctx, masterKeyProfessions, &professions); err != nil {
		return err
	}

	nodes, err := c.queries.LocationHierarchy(ctx)
	if err != nil {
		return err
	}
	if err := c.hierarchy.Set(ctx, masterKeyHierarchy, &nodes); err != nil {
		return err
	}

	districtItems := make(map[string]*[]model.District, len(nodes))
	tahsilItems := make(map[string]*[]model.Tahsil)
	for _, node := range nodes {
		districts := make([]model.District, 0, len(node.Districts))
		for _, dn := range node.Districts {
			districts = append(districts, model.District{ID: dn.ID, StateID: node.ID, Name: dn.Name})
			tahsils := append([]model.Tahsil(nil), dn.Tahsils...)
			tahsilItems[fmt.Sprintf("%stahsils:%d", masterKeyPrefix, dn.ID)] = &tahsils
		}
		districtItems[fmt.Sprintf("%sdistricts:%d", masterKeyPrefix, node.ID)] = &districts
	}
	if err := c.districts.SetMultiple(ctx, districtItems); err != nil {
		return err
	}
	return c.tahsils.SetMultiple(ctx, tahsilItems)
}

// Invalidate drops every cached master data entry.
func (c *MasterDataCache) Invalidate(ctx context.Context) error {
	return c.backend.DeleteByPrefix(ctx, masterKeyPrefix)
}

// Stats returns backend statistics when the backend supports them.
func (c *MasterDataCache) Stats() (Stats, bool) {
	if sp, ok := c.backend.(StatsProvider); ok {
		return sp.Stats(), true
	}
	return Stats{}, false
}
