package command

import (
	"context"
	"time"

	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/task"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/pkg/logger"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE TASK COMMAND
// Flips isComplete false→true and grants the task's XP exactly once. The
// isComplete flag is the single idempotency guard shared with the block path,
// so concurrent task and block completions converge regardless of order.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteTaskCommand identifies the task to complete.
type CompleteTaskCommand struct {
	UserID shared.UserID
	TaskID string

	// Now is the completion instant. Zero means time.Now.
	Now time.Time
}

// Validate validates the command.
func (c CompleteTaskCommand) Validate() error {
	if !c.UserID.IsValid() {
		return shared.WrapError("command", "CompleteTask", shared.ErrValidation, "user id is required", nil)
	}
	if c.TaskID == "" {
		return shared.WrapError("command", "CompleteTask", shared.ErrValidation, "task id is required", nil)
	}
	return nil
}

// CompleteTaskHandler executes direct task completions.
type CompleteTaskHandler struct {
	store TxStore
	bus   Publisher
	log   *logger.Logger
}

// NewCompleteTaskHandler creates the handler.
func NewCompleteTaskHandler(store TxStore, bus Publisher, log *logger.Logger) *CompleteTaskHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CompleteTaskHandler{
		store: store,
		bus:   bus,
		log:   log.With(logger.Component("complete_task")),
	}
}

// Handle runs the completion transaction.
func (h *CompleteTaskHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) (*CompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}

	var result *CompletionResult
	err := h.store.WithinTx(ctx, func(ctx context.Context, tx TxOps) error {
		t, err := tx.GetTask(ctx, cmd.UserID, cmd.TaskID)
		if err != nil {
			return err
		}
		profile, err := tx.GetProfile(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		res, writes := applyTaskCompletion(t, profile, now)
		result = res
		if !writes {
			return nil
		}

		if err := tx.UpdateTask(ctx, t); err != nil {
			return err
		}
		return tx.UpdateProfile(ctx, profile)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	if h.bus != nil && !result.AlreadyCompleted {
		event := shared.CompletionEvent{
			BaseEvent:  shared.NewBaseEvent(shared.EventTaskCompleted, cmd.TaskID, cmd.UserID),
			XPGained:   result.XPGained,
			NewTotalXP: result.NewTotalXP,
			DateKey:    result.DateKey.String(),
		}
		if err := h.bus.Publish(ctx, event); err != nil {
			h.log.Warn("event publish failed", logger.Err(err))
		}
	}
	return result, nil
}

// applyTaskCompletion runs the pure decision part of a task completion
// against already-read state. Returns the result and whether writes are due.
func applyTaskCompletion(t *task.Task, profile *user.Profile, now time.Time) (*CompletionResult, bool) {
	loc := profile.Preferences.Merge(user.DefaultPreferences()).Location()
	key := shared.DateKey(timeutil.DateKey(now, loc))

	xp, already := t.Complete(now)
	if already {
		return &CompletionResult{
			AlreadyCompleted: true,
			NewTotalXP:       profile.TotalXP.Int(),
			DateKey:          key,
		}, false
	}

	profile.GrantXP(xp, now)

	badges := user.EligibleBadges(profile, user.BadgeContext{
		NewTotalXP:       profile.TotalXP,
		TotalCompletions: 1,
	}, now)
	for _, b := range badges {
		profile.AwardBadge(b)
	}

	return &CompletionResult{
		XPGained:      xp.Int(),
		NewTotalXP:    profile.TotalXP.Int(),
		BadgesAwarded: badges,
		DateKey:       key,
	}, true
}
