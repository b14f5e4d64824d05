// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the REST API handlers for the community
// platform: authentication, user profiles, master location data and
// the community blog.
package handler

import (
	"database/sql"

	"github.com/samajhub/samaj-go/internal/cache"
	"github.com/samajhub/samaj-go/internal/config"
	"github.com/samajhub/samaj-go/internal/geoip"
	"github.com/samajhub/samaj-go/internal/imaging"
	"github.com/samajhub/samaj-go/internal/middleware"
	"github.com/samajhub/samaj-go/internal/store"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db          *sql.DB
	queries     *store.Queries
	cfg         *config.Config
	master      *cache.MasterDataCache
	geo         *geoip.Lookup
	avatars     *imaging.Processor
	loginShield *middleware.LoginProtection
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB, cfg *config.Config, master *cache.MasterDataCache, geo *geoip.Lookup, avatars *imaging.Processor, loginShield *middleware.LoginProtection) *Handler {
	return &Handler{
		db:          db,
		queries:     store.New(db),
		cfg:         cfg,
		master:      master,
		geo:         geo,
		avatars:     avatars,
		loginShield: loginShield,
	}
}
