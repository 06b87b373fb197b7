package schedule

import (
	"context"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

// Repository defines the storage contract for schedule blocks.
type Repository interface {
	// GetByID returns a block by ID, scoped to the owning user.
	// Returns shared.ErrBlockNotFound when missing or owned by another user.
	GetByID(ctx context.Context, userID shared.UserID, id string) (*Block, error)

	// ListByDate returns all blocks for the user and date, ordered by start.
	ListByDate(ctx context.Context, userID shared.UserID, key shared.DateKey) ([]*Block, error)

	// ReplacePlanned atomically deletes every block for (user, date) whose
	// status is planned and inserts the given blocks in their place.
	// Completed blocks for the date are untouched, so a concurrent completion
	// is excluded from deletion by the status predicate, not by a lock.
	// Partial application is not a possible outcome.
	ReplacePlanned(ctx context.Context, userID shared.UserID, key shared.DateKey, blocks []*Block) (int, error)
}
