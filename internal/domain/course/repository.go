package course

import (
	"context"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

// Repository defines the read-only storage contract for course records.
// Course data is maintained by external import flows; the core only reads it.
type Repository interface {
	// ListByUser returns the raw course records for the user.
	ListByUser(ctx context.Context, userID shared.UserID) ([]Record, error)
}
