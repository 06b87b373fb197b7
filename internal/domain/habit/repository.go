package habit

import (
	"context"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

// Repository defines the storage contract for habits. Implementations live in
// infrastructure/persistence. Every query is scoped by user ID.
type Repository interface {
	// GetByID returns a habit by ID, scoped to the owning user.
	// Returns shared.ErrHabitNotFound when missing or owned by another user.
	GetByID(ctx context.Context, userID shared.UserID, id string) (*Habit, error)

	// ListActive returns all active habits for the user.
	ListActive(ctx context.Context, userID shared.UserID) ([]*Habit, error)

	// Update persists changes to a habit, including its completion history
	// and streak fields.
	Update(ctx context.Context, h *Habit) error
}
