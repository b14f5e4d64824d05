// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cascade drives the state > district > tahsil picker. Selecting
// a level loads its children and clears everything below it, so a stale
// district can never be submitted under a freshly chosen state.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samajhub/samaj-go/internal/model"
)

// ErrParentNotSelected is returned when a child level is selected before
// its parent.
var ErrParentNotSelected = errors.New("cascade: parent level not selected")

// locationAPI is the slice of the API client the selector needs.
type locationAPI interface {
	States(ctx context.Context) ([]model.State, error)
	Districts(ctx context.Context, stateID int64) ([]model.District, error)
	Tahsils(ctx context.Context, districtID int64) ([]model.Tahsil, error)
}

// Selection is the chosen location chain. Zero ids mean not selected.
type Selection struct {
	StateID    int64
	DistrictID int64
	TahsilID   int64
}

// Complete reports whether all three levels are chosen.
func (s Selection) Complete() bool {
	return s.StateID != 0 && s.DistrictID != 0 && s.TahsilID != 0
}

// Selector holds the option lists and the current selection. Safe for
// concurrent use.
type Selector struct {
	mu  sync.Mutex
	api locationAPI

	states    []model.State
	districts []model.District
	tahsils   []model.Tahsil
	selection Selection
}

// NewSelector creates an empty selector over the given API client.
func NewSelector(api locationAPI) *Selector {
	return &Selector{api: api}
}

// LoadStates fetches the state list. The current selection is kept so a
// reload does not wipe an in-progress form.
func (s *Selector) LoadStates(ctx context.Context) ([]model.State, error) {
	states, err := s.api.States(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.states = states
	s.mu.Unlock()
	return states, nil
}

// SelectState chooses a state, loads its districts and clears the
// district and tahsil levels. On fetch failure the selection sticks but
// the district list stays empty; reselecting retries.
func (s *Selector) SelectState(ctx context.Context, stateID int64) ([]model.District, error) {
	s.mu.Lock()
	if !s.knownStateLocked(stateID) {
		s.mu.Unlock()
		return nil, fmt.Errorf("cascade: unknown state %d", stateID)
	}
	s.selection = Selection{StateID: stateID}
	s.districts = nil
	s.tahsils = nil
	s.mu.Unlock()

	districts, err := s.api.Districts(ctx, stateID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	// A concurrent reselection wins; do not resurrect its children.
	if s.selection.StateID == stateID {
		s.districts = districts
	}
	s.mu.Unlock()
	return districts, nil
}

// SelectDistrict chooses a district under the current state, loads its
// tahsils and clears the tahsil level.
func (s *Selector) SelectDistrict(ctx context.Context, districtID int64) ([]model.Tahsil, error) {
	s.mu.Lock()
	if s.selection.StateID == 0 {
		s.mu.Unlock()
		return nil, ErrParentNotSelected
	}
	if !s.knownDistrictLocked(districtID) {
		s.mu.Unlock()
		return nil, fmt.Errorf("cascade: district %d not in selected state", districtID)
	}
	s.selection.DistrictID = districtID
	s.selection.TahsilID = 0
	s.tahsils = nil
	s.mu.Unlock()

	tahsils, err := s.api.Tahsils(ctx, districtID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.selection.DistrictID == districtID {
		s.tahsils = tahsils
	}
	s.mu.Unlock()
	return tahsils, nil
}

// SelectTahsil chooses a tahsil under the current district.
func (s *Selector) SelectTahsil(tahsilID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.DistrictID == 0 {
		return ErrParentNotSelected
	}
	if !s.knownTahsilLocked(tahsilID) {
		return fmt.Errorf("cascade: tahsil %d not in selected district", tahsilID)
	}
	s.selection.TahsilID = tahsilID
	return nil
}

// Reset clears the selection and all loaded child lists.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = Selection{}
	s.districts = nil
	s.tahsils = nil
}

// Selection returns the current chain.
func (s *Selector) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// States returns the loaded state options.
func (s *Selector) States() []model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states
}

// Districts returns the options for the selected state.
func (s *Selector) Districts() []model.District {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.districts
}

// Tahsils returns the options for the selected district.
func (s *Selector) Tahsils() []model.Tahsil {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tahsils
}

func (s *Selector) knownStateLocked(id int64) bool {
	for _, st := range s.states {
		if st.ID == id {
			return true
		}
	}
	return false
}

func (s *Selector) knownDistrictLocked(id int64) bool {
	for _, d := range s.districts {
		if d.ID == id {
			return true
		}
	}
	return false
}

func (s *Selector) knownTahsilLocked(id int64) bool {
	for _, t := range s.tahsils {
		if t.ID == id {
			return true
		}
	}
	return false
}
