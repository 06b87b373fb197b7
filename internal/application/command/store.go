// Package command contains write operations (CQRS - Commands): the completion
// transactor entry points and the plan-generation pipeline.
package command

import (
	"context"

	"github.com/studyflow/studyflow/internal/domain/habit"
	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/task"
	"github.com/studyflow/studyflow/internal/domain/user"
)

// TxOps exposes the typed reads and writes available inside one storage
// transaction. All reads observe a consistent snapshot; all writes apply
// together or not at all.
type TxOps interface {
	GetTask(ctx context.Context, userID shared.UserID, id string) (*task.Task, error)
	GetHabit(ctx context.Context, userID shared.UserID, id string) (*habit.Habit, error)
	GetBlock(ctx context.Context, userID shared.UserID, id string) (*schedule.Block, error)
	GetProfile(ctx context.Context, userID shared.UserID) (*user.Profile, error)

	UpdateTask(ctx context.Context, t *task.Task) error
	UpdateHabit(ctx context.Context, h *habit.Habit) error
	UpdateBlock(ctx context.Context, b *schedule.Block) error
	UpdateProfile(ctx context.Context, p *user.Profile) error
}

// TxStore runs a function within one atomic transaction. The store retries
// the function transparently on write conflicts, so the body must be safe to
// re-execute: perform all reads, compute pure decisions, then issue all
// writes. Because each attempt re-reads before re-deciding, the guard checks
// (isComplete, same-day history) make re-execution naturally idempotent.
//
// When retries are exhausted the store returns shared.ErrTransactionConflict;
// any error from the function aborts the transaction with no partial state.
type TxStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxOps) error) error
}

// Publisher publishes domain events after a command commits. Publishing is
// best-effort; command results never depend on it.
type Publisher interface {
	Publish(ctx context.Context, event shared.Event) error
}

// CacheInvalidator drops cached schedules after writes that change them.
type CacheInvalidator interface {
	InvalidateSchedule(ctx context.Context, userID shared.UserID, key shared.DateKey)
}
