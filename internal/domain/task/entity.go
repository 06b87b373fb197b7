// Package task contains the task domain model: one-off pieces of work with a
// due date, an effort estimate, and an XP value granted exactly once on
// completion. No external dependencies - pure business logic.
package task

import (
	"strings"
	"time"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ENUMS
// ═══════════════════════════════════════════════════════════════════════════

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid checks that the priority is one of the known values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Weight returns a numeric ordering weight (higher = more urgent).
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Source records where a task came from.
type Source string

const (
	// SourceManual - created by the user in the app.
	SourceManual Source = "manual"
	// SourceImported - created by an external import job.
	SourceImported Source = "imported"
)

// IsValid checks that the source is one of the known values.
func (s Source) IsValid() bool {
	return s == SourceManual || s == SourceImported
}

// ═══════════════════════════════════════════════════════════════════════════
// EFFORT
// ═══════════════════════════════════════════════════════════════════════════

// Effort is the estimated work for a task at the ingestion boundary. Newer
// records carry explicit minutes; legacy records carry a single ambiguous
// number that meant hours for small values and minutes for large ones. The
// union is resolved exactly once, during context aggregation, and the
// resolution is lossy by design.
type Effort struct {
	// Minutes is the explicit estimate. Preferred when positive.
	Minutes int

	// LegacyAmount is the ambiguous hours-or-minutes value from old records.
	// Only consulted when Minutes is zero.
	LegacyAmount float64
}

// Resolve normalizes the effort to minutes. A legacy amount at or below
// hoursMax is treated as hours, anything larger as minutes. The threshold is
// configurable because the cutoff is a documented heuristic: a genuine
// 10-minute legacy task will be misread as 10 hours.
func (e Effort) Resolve(hoursMax float64) int {
	if e.Minutes > 0 {
		return e.Minutes
	}
	if e.LegacyAmount <= 0 {
		return 0
	}
	if e.LegacyAmount <= hoursMax {
		return int(e.LegacyAmount * 60)
	}
	return int(e.LegacyAmount)
}

// ═══════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: TASK
// ═══════════════════════════════════════════════════════════════════════════

// Task is a one-off piece of work owned by exactly one user.
type Task struct {
	ID          string
	UserID      shared.UserID
	Title       string
	Description string
	DueAt       *time.Time // nil when the task has no deadline
	Effort      Effort
	Priority    Priority
	Category    string
	IsComplete  bool
	CompletedAt *time.Time
	XPValue     shared.XP
	CourseID    string // optional link to a course
	Source      Source
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the task's invariants.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return shared.WrapError("task", "Validate", shared.ErrInvalidID, "task id is empty", nil)
	}
	if !t.UserID.IsValid() {
		return shared.WrapError("task", "Validate", shared.ErrInvalidID, "user id is invalid", nil)
	}
	if strings.TrimSpace(t.Title) == "" {
		return shared.WrapError("task", "Validate", shared.ErrEmptyValue, "task title is empty", nil)
	}
	if !t.Priority.IsValid() {
		return shared.ErrInvalidTaskPriority
	}
	if !t.XPValue.IsValid() {
		return shared.WrapError("task", "Validate", shared.ErrNegativeValue, "xp value is negative", nil)
	}
	return nil
}

// Complete transitions the task to complete. The false→true transition happens
// at most once; a second call reports the task as already complete so callers
// can skip the XP grant.
func (t *Task) Complete(now time.Time) (xpGained shared.XP, already bool) {
	if t.IsComplete {
		return 0, true
	}
	t.IsComplete = true
	completedAt := now.UTC()
	t.CompletedAt = &completedAt
	t.UpdatedAt = completedAt
	return t.XPValue, false
}

// IsOverdue reports whether the task's due date is in the past at now.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueAt != nil && t.DueAt.Before(now)
}
