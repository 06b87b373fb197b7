package command

import (
	"context"
	"time"

	"github.com/studyflow/studyflow/internal/domain/habit"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/task"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/pkg/logger"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE BLOCK COMMAND
// Marks a schedule block completed and, when it references a task or habit,
// runs the respective completion logic inside the same transaction. A block
// whose task was already completed by a separate action still gets marked
// completed - its XP contribution is simply zero.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteBlockCommand identifies the block to complete.
type CompleteBlockCommand struct {
	UserID  shared.UserID
	BlockID string

	// Now is the completion instant. Zero means time.Now.
	Now time.Time
}

// Validate validates the command.
func (c CompleteBlockCommand) Validate() error {
	if !c.UserID.IsValid() {
		return shared.WrapError("command", "CompleteBlock", shared.ErrValidation, "user id is required", nil)
	}
	if c.BlockID == "" {
		return shared.WrapError("command", "CompleteBlock", shared.ErrValidation, "block id is required", nil)
	}
	return nil
}

// CompleteBlockHandler executes block completions.
type CompleteBlockHandler struct {
	store TxStore
	bus   Publisher
	cache CacheInvalidator
	log   *logger.Logger
}

// NewCompleteBlockHandler creates the handler. cache may be nil.
func NewCompleteBlockHandler(store TxStore, bus Publisher, cache CacheInvalidator, log *logger.Logger) *CompleteBlockHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CompleteBlockHandler{
		store: store,
		bus:   bus,
		cache: cache,
		log:   log.With(logger.Component("complete_block")),
	}
}

// Handle runs the completion transaction. All reads (block, profile, linked
// task or habit) happen before the first write, per the store's
// read-before-write discipline.
func (h *CompleteBlockHandler) Handle(ctx context.Context, cmd CompleteBlockCommand) (*CompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}

	var result *CompletionResult
	var dateKey shared.DateKey
	err := h.store.WithinTx(ctx, func(ctx context.Context, tx TxOps) error {
		block, err := tx.GetBlock(ctx, cmd.UserID, cmd.BlockID)
		if err != nil {
			return err
		}
		dateKey = block.DateKey

		profile, err := tx.GetProfile(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		// The credited day is resolved in the user's zone, same as the habit
		// and task paths record it.
		loc := profile.Preferences.Merge(user.DefaultPreferences()).Location()
		dayKey := shared.DateKey(timeutil.DateKey(now, loc))

		if block.IsCompleted() {
			result = &CompletionResult{
				AlreadyCompleted: true,
				NewTotalXP:       profile.TotalXP.Int(),
				DateKey:          dayKey,
			}
			return nil
		}

		// Resolve the linked entity while still in the read phase. A link
		// that no longer resolves does not block completion: the block is
		// finished either way, just without an XP contribution.
		var linkedTask *task.Task
		var linkedHabit *habit.Habit
		if block.TaskID != "" {
			linkedTask, err = tx.GetTask(ctx, cmd.UserID, block.TaskID)
			if err != nil && !shared.IsNotFound(err) {
				return err
			}
		}
		if block.HabitID != "" {
			linkedHabit, err = tx.GetHabit(ctx, cmd.UserID, block.HabitID)
			if err != nil && !shared.IsNotFound(err) {
				return err
			}
		}

		res := &CompletionResult{NewTotalXP: profile.TotalXP.Int(), DateKey: dayKey}
		writeTask, writeHabit := false, false
		switch {
		case linkedTask != nil:
			taskRes, writes := applyTaskCompletion(linkedTask, profile, now)
			if writes {
				res.XPGained += taskRes.XPGained
				res.BadgesAwarded = append(res.BadgesAwarded, taskRes.BadgesAwarded...)
				writeTask = true
			}
			res.NewTotalXP = profile.TotalXP.Int()
		case linkedHabit != nil:
			habitRes, writes := applyHabitCompletion(linkedHabit, profile, now)
			res.CurrentStreak = habitRes.CurrentStreak
			if writes {
				res.XPGained += habitRes.XPGained
				res.BadgesAwarded = append(res.BadgesAwarded, habitRes.BadgesAwarded...)
				writeHabit = true
			}
			res.NewTotalXP = profile.TotalXP.Int()
		}

		block.Complete(now)
		result = res

		// Write phase.
		if writeTask {
			if err := tx.UpdateTask(ctx, linkedTask); err != nil {
				return err
			}
		}
		if writeHabit {
			if err := tx.UpdateHabit(ctx, linkedHabit); err != nil {
				return err
			}
		}
		if writeTask || writeHabit {
			if err := tx.UpdateProfile(ctx, profile); err != nil {
				return err
			}
		}
		return tx.UpdateBlock(ctx, block)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	if h.cache != nil && !result.AlreadyCompleted {
		h.cache.InvalidateSchedule(ctx, cmd.UserID, dateKey)
	}
	h.publishBlockEvents(ctx, cmd, result)
	return result, nil
}

// publishBlockEvents emits completion and badge events after commit, keyed to
// the day the transaction credited.
func (h *CompleteBlockHandler) publishBlockEvents(ctx context.Context, cmd CompleteBlockCommand, res *CompletionResult) {
	if h.bus == nil || res.AlreadyCompleted {
		return
	}
	event := shared.CompletionEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventBlockCompleted, cmd.BlockID, cmd.UserID),
		XPGained:      res.XPGained,
		NewTotalXP:    res.NewTotalXP,
		CurrentStreak: res.CurrentStreak,
		DateKey:       res.DateKey.String(),
	}
	if err := h.bus.Publish(ctx, event); err != nil {
		h.log.Warn("event publish failed", logger.Err(err))
	}
	for _, b := range res.BadgesAwarded {
		badgeEvent := shared.BadgeAwardedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventBadgeAwarded, b.ID, cmd.UserID),
			BadgeID:   b.ID,
			BadgeName: b.Name,
		}
		if err := h.bus.Publish(ctx, badgeEvent); err != nil {
			h.log.Warn("event publish failed", logger.Err(err))
		}
	}
}
