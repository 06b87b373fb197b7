package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL. Badges and
// preferences are stored as JSONB.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

// prefsDoc is the JSONB shape of stored preferences.
type prefsDoc struct {
	WorkHours      string `json:"work_hours,omitempty"`
	EnergyPeak     string `json:"energy_peak,omitempty"`
	MaxTasksPerDay int    `json:"max_tasks_per_day,omitempty"`
	MaxWorkMinutes int    `json:"max_work_minutes,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
}

// GetByID returns the profile for the user.
func (r *UserRepository) GetByID(ctx context.Context, userID shared.UserID) (*user.Profile, error) {
	query := `
		SELECT user_id, total_xp, badges, preferences, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var p user.Profile
	var id string
	var xp int
	var badgesJSON, prefsJSON []byte

	err := r.q.QueryRow(ctx, query, userID.String()).Scan(
		&id, &xp, &badgesJSON, &prefsJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var prefs prefsDoc
	if err := json.Unmarshal(prefsJSON, &prefs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	if err := json.Unmarshal(badgesJSON, &p.Badges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal badges: %w", err)
	}

	p.UserID = shared.UserID(id)
	p.TotalXP = shared.XP(xp)
	p.Preferences = user.Preferences{
		WorkHours:      prefs.WorkHours,
		EnergyPeak:     prefs.EnergyPeak,
		MaxTasksPerDay: prefs.MaxTasksPerDay,
		MaxWorkMinutes: prefs.MaxWorkMinutes,
		Timezone:       prefs.Timezone,
	}
	return &p, nil
}

// Update persists changes to the profile (XP total, badges, preferences).
func (r *UserRepository) Update(ctx context.Context, p *user.Profile) error {
	badgesJSON, err := json.Marshal(p.Badges)
	if err != nil {
		return fmt.Errorf("failed to marshal badges: %w", err)
	}
	prefsJSON, err := json.Marshal(prefsDoc{
		WorkHours:      p.Preferences.WorkHours,
		EnergyPeak:     p.Preferences.EnergyPeak,
		MaxTasksPerDay: p.Preferences.MaxTasksPerDay,
		MaxWorkMinutes: p.Preferences.MaxWorkMinutes,
		Timezone:       p.Preferences.Timezone,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	query := `
		UPDATE profiles SET
			total_xp = $1,
			badges = $2,
			preferences = $3,
			updated_at = $4
		WHERE user_id = $5
	`

	result, err := r.q.Exec(ctx, query,
		p.TotalXP.Int(),
		badgesJSON,
		prefsJSON,
		p.UpdatedAt,
		p.UserID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// ListActive returns all user IDs, for background jobs that fan out.
func (r *UserRepository) ListActive(ctx context.Context) ([]shared.UserID, error) {
	rows, err := r.q.Query(ctx, `SELECT user_id FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var ids []shared.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, shared.UserID(id))
	}
	return ids, rows.Err()
}
