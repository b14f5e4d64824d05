// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gate implements the anonymous-preview state machine. A visitor
// may browse for a short window; when it runs out the UI shows an expiry
// notice and, after a grace delay, freezes until they sign in. A signed-in
// user with an incomplete profile is frozen immediately regardless of the
// timers.
package gate

import (
	"fmt"
	"sync"
	"time"

	"github.com/samajhub/samaj-go/internal/model"
)

// State of the preview gate.
type State int

const (
	// Inactive means the gate is not running: either never started,
	// stopped, or discarded after authentication.
	Inactive State = iota
	// Browsing is the anonymous preview window.
	Browsing
	// Expired means the preview window ran out; the freeze delay is
	// pending.
	Expired
	// Frozen blocks an unauthenticated visitor until they sign in.
	Frozen
	// FrozenForIncompleteProfile blocks an authenticated user until
	// their profile passes the completeness predicate.
	FrozenForIncompleteProfile
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Browsing:
		return "browsing"
	case Expired:
		return "expired"
	case Frozen:
		return "frozen"
	case FrozenForIncompleteProfile:
		return "frozen_incomplete_profile"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Locked reports whether the gate blocks further browsing.
func (s State) Locked() bool {
	return s == Frozen || s == FrozenForIncompleteProfile
}

// Defaults for the preview window and the grace delay before freezing.
const (
	DefaultPreviewTTL  = 10 * time.Second
	DefaultFreezeDelay = 10 * time.Second
)

// Gate drives the preview state machine. Safe for concurrent use.
type Gate struct {
	mu          sync.Mutex
	clock       Clock
	previewTTL  time.Duration
	freezeDelay time.Duration
	onChange    func(State)

	state    State
	deadline time.Time
	timer    Timer
	// gen invalidates timer callbacks scheduled before a Stop or an
	// authentication event.
	gen int
}

// Option configures a Gate.
type Option func(*Gate)

// WithPreviewTTL overrides the anonymous browsing window.
func WithPreviewTTL(d time.Duration) Option {
	return func(g *Gate) { g.previewTTL = d }
}

// WithFreezeDelay overrides the expired-to-frozen grace delay.
func WithFreezeDelay(d time.Duration) Option {
	return func(g *Gate) { g.freezeDelay = d }
}

// WithOnChange registers a callback invoked after every state change.
// The callback runs outside the gate's lock and may call back into it.
func WithOnChange(fn func(State)) Option {
	return func(g *Gate) { g.onChange = fn }
}

// New creates a stopped gate. Call Start to begin the preview window.
func New(clock Clock, opts ...Option) *Gate {
	g := &Gate{
		clock:       clock,
		previewTTL:  DefaultPreviewTTL,
		freezeDelay: DefaultFreezeDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// SecondsRemaining returns the whole seconds left in the preview window,
// zero outside Browsing.
func (g *Gate) SecondsRemaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Browsing {
		return 0
	}
	left := g.deadline.Sub(g.clock.Now())
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Start begins a fresh preview window, replacing any previous run.
func (g *Gate) Start() {
	g.mu.Lock()
	g.cancelTimerLocked()
	g.deadline = g.clock.Now().Add(g.previewTTL)
	gen := g.gen
	g.timer = g.clock.AfterFunc(g.previewTTL, func() { g.expire(gen) })
	fire := g.setStateLocked(Browsing)
	g.mu.Unlock()
	fire()
}

// Stop cancels all pending transitions and deactivates the gate.
func (g *Gate) Stop() {
	g.mu.Lock()
	g.cancelTimerLocked()
	fire := g.setStateLocked(Inactive)
	g.mu.Unlock()
	fire()
}

// SetUser re-evaluates the gate against the session's user. A signed-in
// user with a complete profile dismisses the gate; an incomplete profile
// freezes it immediately, taking priority over the timer states. A nil
// user (signed out) deactivates the gate; callers restart the preview
// window with Start. In every case pending timers are cancelled.
func (g *Gate) SetUser(user *model.User) {
	g.mu.Lock()
	g.cancelTimerLocked()

	next := Inactive
	if user != nil && !user.HasCompleteProfile() {
		next = FrozenForIncompleteProfile
	}
	fire := g.setStateLocked(next)
	g.mu.Unlock()
	fire()
}

// cancelTimerLocked stops the pending timer and invalidates callbacks
// already scheduled for the old generation.
func (g *Gate) cancelTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.gen++
}

// setStateLocked records the transition and returns the notification to
// run after the lock is released.
func (g *Gate) setStateLocked(next State) func() {
	if g.state == next {
		return func() {}
	}
	g.state = next
	if g.onChange == nil {
		return func() {}
	}
	fn := g.onChange
	return func() { fn(next) }
}

func (g *Gate) expire(gen int) {
	g.mu.Lock()
	if gen != g.gen || g.state != Browsing {
		g.mu.Unlock()
		return
	}
	g.timer = g.clock.AfterFunc(g.freezeDelay, func() { g.freeze(gen) })
	fire := g.setStateLocked(Expired)
	g.mu.Unlock()
	fire()
}

func (g *Gate) freeze(gen int) {
	g.mu.Lock()
	if gen != g.gen || g.state != Expired {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	fire := g.setStateLocked(Frozen)
	g.mu.Unlock()
	fire()
}
