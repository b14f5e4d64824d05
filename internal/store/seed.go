// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/samajhub/samaj-go/internal/auth"
	"github.com/samajhub/samaj-go/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminMobile   = "9999999999"
	DefaultAdminPassword = "changeme"
)

// seedStates maps state names to their districts and tahsils.
var seedStates = map[string]map[string][]string{
	"Maharashtra": {
		"Pune":   {"Haveli", "Mulshi", "Baramati"},
		"Nagpur": {"Nagpur Rural", "Katol", "Ramtek"},
		"Nashik": {"Nashik", "Malegaon", "Sinnar"},
	},
	"Gujarat": {
		"Ahmedabad": {"Daskroi", "Sanand", "Dholka"},
		"Surat":     {"Chorasi", "Olpad", "Bardoli"},
	},
	"Rajasthan": {
		"Jaipur":  {"Sanganer", "Amber", "Chomu"},
		"Jodhpur": {"Luni", "Shergarh", "Phalodi"},
	},
}

// Seed creates initial data in the database.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	if err := seedMasterData(ctx, queries); err != nil {
		return err
	}

	// Check if admin user already exists
	_, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	// Hash the default password
	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	// Create admin user
	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        sql.NullString{String: DefaultAdminEmail, Valid: true},
		Mobile:       DefaultAdminMobile,
		PasswordHash: sql.NullString{String: passwordHash, Valid: true},
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", DefaultAdminEmail,
		"password", DefaultAdminPassword,
	)

	return nil
}

// seedMasterData fills the location and profession tables when empty.
func seedMasterData(ctx context.Context, queries *Queries) error {
	counts, err := queries.CountMasterData(ctx)
	if err != nil {
		return fmt.Errorf("counting master data: %w", err)
	}
	if counts.States > 0 {
		return nil
	}

	for stateName, districts := range seedStates {
		var stateID int64
		err := queries.db.QueryRowContext(ctx,
			`INSERT INTO master_state (state_name) VALUES (?) RETURNING id`,
			stateName).Scan(&stateID)
		if err != nil {
			return fmt.Errorf("seeding state %s: %w", stateName, err)
		}
		for distName, tahsils := range districts {
			var distID int64
			err := queries.db.QueryRowContext(ctx,
				`INSERT INTO master_dist (master_state_id, dist_name) VALUES (?, ?) RETURNING id`,
				stateID, distName).Scan(&distID)
			if err != nil {
				return fmt.Errorf("seeding district %s: %w", distName, err)
			}
			for _, tahsilName := range tahsils {
				_, err := queries.db.ExecContext(ctx,
					`INSERT INTO master_tahsil (master_dist_id, tahsil_name) VALUES (?, ?)`,
					distID, tahsilName)
				if err != nil {
					return fmt.Errorf("seeding tahsil %s: %w", tahsilName, err)
				}
			}
		}
	}

	for _, employeeType := range []string{
		model.ProfessionPrivate,
		model.ProfessionGovernment,
		model.ProfessionSelfEmployed,
		model.ProfessionBusiness,
	} {
		_, err := queries.db.ExecContext(ctx,
			`INSERT INTO master_profession (employee_type) VALUES (?)`, employeeType)
		if err != nil {
			return fmt.Errorf("seeding profession %s: %w", employeeType, err)
		}
	}

	slog.Info("seeded master data")
	return nil
}
