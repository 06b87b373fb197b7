package task

import (
	"context"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

// Repository defines the storage contract for tasks. Implementations live in
// infrastructure/persistence. Every query is scoped by user ID - the tenancy
// boundary for this system.
type Repository interface {
	// GetByID returns a task by ID, scoped to the owning user.
	// Returns shared.ErrTaskNotFound when missing or owned by another user.
	GetByID(ctx context.Context, userID shared.UserID, id string) (*Task, error)

	// ListIncomplete returns all incomplete tasks for the user.
	ListIncomplete(ctx context.Context, userID shared.UserID) ([]*Task, error)

	// Update persists changes to a task.
	// Returns shared.ErrTaskNotFound when the task does not exist.
	Update(ctx context.Context, t *Task) error
}
