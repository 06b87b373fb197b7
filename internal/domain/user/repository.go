package user

import (
	"context"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

// Repository defines the storage contract for user profiles.
type Repository interface {
	// GetByID returns the profile for the user.
	// Returns shared.ErrUserNotFound when the profile is missing.
	GetByID(ctx context.Context, userID shared.UserID) (*Profile, error)

	// Update persists changes to the profile (XP total, badges, preferences).
	Update(ctx context.Context, p *Profile) error

	// ListActive returns the user IDs of all profiles, for background jobs
	// that fan out over users (nightly replan, streak reminders).
	ListActive(ctx context.Context) ([]shared.UserID, error)
}
