// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/samajhub/samaj-go/internal/model"
)

const profileColumns = `
	p.id, p.user_id, p.first_name, p.middle_name, p.last_name, p.dob, p.gender,
	p.state_id, p.district_id, p.tahsil_id, p.address_line, p.about,
	p.profession_id, p.business_description, p.profile_url, p.created_at, p.updated_at,
	s.state_name, d.dist_name, t.tahsil_name, pr.employee_type`

const profileJoins = `
	FROM user_profile p
	LEFT JOIN master_state s ON p.state_id = s.id
	LEFT JOIN master_dist d ON p.district_id = d.id
	LEFT JOIN master_tahsil t ON p.tahsil_id = t.id
	LEFT JOIN master_profession pr ON p.profession_id = pr.id`

func scanProfile(row interface{ Scan(...any) error }) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.FirstName, &p.MiddleName, &p.LastName,
		&p.DOB, &p.Gender, &p.StateID, &p.DistrictID, &p.TahsilID,
		&p.AddressLine, &p.About, &p.ProfessionID, &p.BusinessDesc, &p.ProfileURL,
		&p.CreatedAt, &p.UpdatedAt,
		&p.StateName, &p.DistrictName, &p.TahsilName, &p.ProfessionType)
	return p, err
}

// GetProfileByUserID returns a user's profile with joined display names.
func (q *Queries) GetProfileByUserID(ctx context.Context, userID int64) (model.Profile, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+profileJoins+` WHERE p.user_id = ?`, userID)
	return scanProfile(row)
}

// UpsertProfileParams holds parameters for UpsertProfile.
type UpsertProfileParams struct {
	UserID       int64
	FirstName    string
	MiddleName   sql.NullString
	LastName     string
	DOB          sql.NullTime
	Gender       string
	StateID      sql.NullInt64
	DistrictID   sql.NullInt64
	TahsilID     sql.NullInt64
	AddressLine  sql.NullString
	About        sql.NullString
	ProfessionID sql.NullInt64
	BusinessDesc sql.NullString
	ProfileURL   sql.NullString
	Now          time.Time
}

// UpsertProfile creates or replaces the profile attached to a user and
// returns the stored row with joined display names.
func (q *Queries) UpsertProfile(ctx context.Context, arg UpsertProfileParams) (model.Profile, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO user_profile (
			user_id, first_name, middle_name, last_name, dob, gender,
			state_id, district_id, tahsil_id, address_line, about,
			profession_id, business_description, profile_url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = excluded.first_name,
			middle_name = excluded.middle_name,
			last_name = excluded.last_name,
			dob = excluded.dob,
			gender = excluded.gender,
			state_id = excluded.state_id,
			district_id = excluded.district_id,
			tahsil_id = excluded.tahsil_id,
			address_line = excluded.address_line,
			about = excluded.about,
			profession_id = excluded.profession_id,
			business_description = excluded.business_description,
			profile_url = excluded.profile_url,
			updated_at = excluded.updated_at`,
		arg.UserID, arg.FirstName, arg.MiddleName, arg.LastName, arg.DOB, arg.Gender,
		arg.StateID, arg.DistrictID, arg.TahsilID, arg.AddressLine, arg.About,
		arg.ProfessionID, arg.BusinessDesc, arg.ProfileURL, arg.Now, arg.Now)
	if err != nil {
		return model.Profile{}, err
	}
	return q.GetProfileByUserID(ctx, arg.UserID)
}

// UpdateProfilePicture sets only the profile picture URL.
func (q *Queries) UpdateProfilePicture(ctx context.Context, userID int64, url string, now time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE user_profile SET profile_url = ?, updated_at = ? WHERE user_id = ?`,
		url, now, userID)
	return err
}

// DeleteProfile removes the profile attached to a user.
func (q *Queries) DeleteProfile(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM user_profile WHERE user_id = ?`, userID)
	return err
}

// CountProfiles returns the total number of profiles.
func (q *Queries) CountProfiles(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_profile`).Scan(&n)
	return n, err
}
