// Package schedule contains the schedule-block domain model: the time windows
// of a user's daily plan. Blocks are created in batches by the reconciler and
// mutated only by the completion path (planned → completed, a terminal,
// one-way transition).
package schedule

import (
	"strings"
	"time"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ENUMS
// ═══════════════════════════════════════════════════════════════════════════

// BlockType classifies what a block schedules.
type BlockType string

const (
	BlockTypeTask  BlockType = "task"
	BlockTypeHabit BlockType = "habit"
	BlockTypeBreak BlockType = "break"
)

// IsValid checks that the type is one of the known values.
func (t BlockType) IsValid() bool {
	switch t {
	case BlockTypeTask, BlockTypeHabit, BlockTypeBreak:
		return true
	default:
		return false
	}
}

// Status is the lifecycle state of a block.
type Status string

const (
	// StatusPlanned - created by the reconciler, not yet done.
	StatusPlanned Status = "planned"
	// StatusCompleted - terminal. Completed blocks survive replans.
	StatusCompleted Status = "completed"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	return s == StatusPlanned || s == StatusCompleted
}

// ═══════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: SCHEDULE BLOCK
// ═══════════════════════════════════════════════════════════════════════════

// Block is one scheduled time window in a daily plan. A block references at
// most one task or one habit, or neither for a break.
type Block struct {
	ID         string
	UserID     shared.UserID
	DateKey    shared.DateKey
	Start      time.Time
	End        time.Time
	Type       BlockType
	TaskID     string // set only for task blocks
	HabitID    string // set only for habit blocks
	Status     Status
	Reasoning  string
	Confidence shared.Confidence
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the block's invariants.
func (b *Block) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return shared.WrapError("schedule", "Validate", shared.ErrInvalidID, "block id is empty", nil)
	}
	if !b.UserID.IsValid() {
		return shared.WrapError("schedule", "Validate", shared.ErrInvalidID, "user id is invalid", nil)
	}
	if !b.DateKey.IsValid() {
		return shared.WrapError("schedule", "Validate", shared.ErrInvalidFormat, "date key is invalid", nil)
	}
	if !b.Type.IsValid() {
		return shared.WrapError("schedule", "Validate", shared.ErrInvalidInput, "block type is invalid", nil)
	}
	if !b.Status.IsValid() {
		return shared.WrapError("schedule", "Validate", shared.ErrInvalidState, "block status is invalid", nil)
	}
	if !b.End.After(b.Start) {
		return shared.ErrInvalidBlockWindow
	}
	if b.TaskID != "" && b.HabitID != "" {
		return shared.ErrInvalidBlockTarget
	}
	switch b.Type {
	case BlockTypeTask:
		if b.TaskID == "" {
			return shared.ErrInvalidBlockTarget
		}
	case BlockTypeHabit:
		if b.HabitID == "" {
			return shared.ErrInvalidBlockTarget
		}
	case BlockTypeBreak:
		if b.TaskID != "" || b.HabitID != "" {
			return shared.ErrInvalidBlockTarget
		}
	}
	if !b.Confidence.IsValid() {
		return shared.WrapError("schedule", "Validate", shared.ErrValueOutOfRange, "confidence out of range", nil)
	}
	return nil
}

// IsCompleted reports whether the block has reached its terminal state.
func (b *Block) IsCompleted() bool {
	return b.Status == StatusCompleted
}

// Complete transitions the block planned → completed. The transition happens
// at most once; a second call reports the block as already completed.
func (b *Block) Complete(now time.Time) (already bool) {
	if b.IsCompleted() {
		return true
	}
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	return false
}

// DurationMinutes returns the block's length in whole minutes.
func (b *Block) DurationMinutes() int {
	return int(b.End.Sub(b.Start).Minutes())
}
