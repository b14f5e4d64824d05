// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background maintenance jobs: purging
// expired auth tokens, removing stale guest users, trimming the event
// log and refreshing the GeoIP database.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/samajhub/samaj-go/internal/geoip"
	"github.com/samajhub/samaj-go/internal/store"
)

// Retention windows for the maintenance jobs.
const (
	// GuestRetention keeps phone-only guests long enough to come back
	// and complete their profile.
	GuestRetention = 30 * 24 * time.Hour
	// EventRetention bounds the audit event log.
	EventRetention = 90 * 24 * time.Hour
)

// Scheduler owns the cron instance and the maintenance jobs.
type Scheduler struct {
	db     *sql.DB
	cron   *cron.Cron
	logger *slog.Logger
	geo    *geoip.Lookup
}

// New creates a scheduler. geo may be nil when GeoIP is disabled.
func New(db *sql.DB, logger *slog.Logger, geo *geoip.Lookup) *Scheduler {
	return &Scheduler{
		db:     db,
		cron:   cron.New(),
		logger: logger,
		geo:    geo,
	}
}

// Start registers the maintenance jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	jobs := []struct {
		schedule string
		name     string
		run      func() error
	}{
		{"0 * * * *", "purge expired tokens", s.PurgeExpiredTokens},
		{"30 2 * * *", "purge stale guests", s.PurgeStaleGuests},
		{"0 3 * * *", "trim event log", s.TrimEventLog},
	}
	if s.geo != nil && s.geo.IsEnabled() {
		jobs = append(jobs, struct {
			schedule string
			name     string
			run      func() error
		}{"0 4 * * 1", "reload geoip database", s.geo.Reload})
	}

	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(job.schedule, func() {
			if err := job.run(); err != nil {
				s.logger.Error("maintenance job failed", "job", job.name, "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// PurgeExpiredTokens removes auth tokens past their expiry.
func (s *Scheduler) PurgeExpiredTokens() error {
	ctx := context.Background()
	now := time.Now()

	removed, err := store.New(s.db).DeleteExpiredAuthTokens(ctx, now)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("purged expired auth tokens", "count", removed)
		s.logEvent(ctx, "auth", "Expired auth tokens purged", removed, now)
	}
	return nil
}

// PurgeStaleGuests removes phone-only users that never completed a
// profile within the retention window.
func (s *Scheduler) PurgeStaleGuests() error {
	ctx := context.Background()
	now := time.Now()

	removed, err := store.New(s.db).DeleteStaleGuests(ctx, now.Add(-GuestRetention))
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("purged stale guest users", "count", removed)
		s.logEvent(ctx, "user", "Stale guest users purged", removed, now)
	}
	return nil
}

// TrimEventLog deletes audit events older than the retention window.
func (s *Scheduler) TrimEventLog() error {
	ctx := context.Background()
	now := time.Now()

	removed, err := store.New(s.db).DeleteEventsBefore(ctx, now.Add(-EventRetention))
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("trimmed event log", "count", removed)
	}
	return nil
}

// logEvent records a maintenance action in the audit log.
func (s *Scheduler) logEvent(ctx context.Context, category, message string, count int64, now time.Time) {
	metadata, _ := json.Marshal(map[string]int64{"count": count})
	_, err := store.New(s.db).CreateEvent(ctx, store.CreateEventParams{
		Level:     "info",
		Category:  category,
		Message:   message,
		UserID:    sql.NullInt64{},
		Metadata:  string(metadata),
		CreatedAt: now,
	})
	if err != nil {
		s.logger.Warn("failed to log maintenance event", "error", err)
	}
}
