package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/veldt-labs/caresage/internal/core"
)

type ProfilesRepo struct {
	db *sql.DB
}

func NewProfilesRepo(db *sql.DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

// Get returns an empty profile for unknown users; a user without
// recorded allergies or conditions is a valid state, not an error.
func (r *ProfilesRepo) Get(ctx context.Context, userID string) (core.UserProfile, error) {
	profile := core.UserProfile{UserID: userID}

	var allergies, conditions, medications string
	err := r.db.QueryRowContext(ctx,
		`SELECT allergies, conditions, medications FROM profiles WHERE user_id = ?`, userID,
	).Scan(&allergies, &conditions, &medications)
	if errors.Is(err, sql.ErrNoRows) {
		return profile, nil
	}
	if err != nil {
		return profile, fmt.Errorf("failed to query profile: %w", err)
	}

	for _, pair := range []struct {
		raw  string
		dest *[]string
	}{
		{allergies, &profile.Allergies},
		{conditions, &profile.Conditions},
		{medications, &profile.Medications},
	} {
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return profile, fmt.Errorf("failed to decode profile field: %w", err)
		}
	}
	return profile, nil
}

func (r *ProfilesRepo) Save(ctx context.Context, profile core.UserProfile) error {
	encode := func(ss []string) string {
		if ss == nil {
			ss = []string{}
		}
		data, _ := json.Marshal(ss)
		return string(data)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, allergies, conditions, medications, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET
			allergies = excluded.allergies,
			conditions = excluded.conditions,
			medications = excluded.medications,
			updated_at = CURRENT_TIMESTAMP`,
		profile.UserID, encode(profile.Allergies), encode(profile.Conditions), encode(profile.Medications),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
