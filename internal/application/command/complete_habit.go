package command

import (
	"context"
	"errors"
	"time"

	"github.com/studyflow/studyflow/internal/domain/habit"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/pkg/logger"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE HABIT COMMAND
// Records today's completion for a habit: XP grant, streak accounting and
// badge awards in one atomic transaction. Completing the same habit twice on
// one calendar day is a no-op with zero XP, not an error.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteHabitCommand identifies the habit to complete.
type CompleteHabitCommand struct {
	// UserID is the authenticated owner. Trusted as-is.
	UserID shared.UserID

	// HabitID is the habit to complete.
	HabitID string

	// Now is the completion instant. Zero means time.Now.
	Now time.Time
}

// Validate validates the command.
func (c CompleteHabitCommand) Validate() error {
	if !c.UserID.IsValid() {
		return shared.WrapError("command", "CompleteHabit", shared.ErrValidation, "user id is required", nil)
	}
	if c.HabitID == "" {
		return shared.WrapError("command", "CompleteHabit", shared.ErrValidation, "habit id is required", nil)
	}
	return nil
}

// CompletionResult is the shared result shape of all completion commands.
type CompletionResult struct {
	// AlreadyCompleted is true when the target was already done; XPGained is
	// zero and nothing changed.
	AlreadyCompleted bool

	// XPGained is the XP granted by this call.
	XPGained int

	// NewTotalXP is the profile total after the grant.
	NewTotalXP int

	// CurrentStreak is the habit streak after this completion (habit paths only).
	CurrentStreak int

	// BadgesAwarded lists badges newly attached to the profile.
	BadgesAwarded []user.Badge

	// DateKey is the calendar day the completion was credited to, resolved in
	// the user's zone. Events carry this key, not a UTC-derived one.
	DateKey shared.DateKey
}

// CompleteHabitHandler executes habit completions.
type CompleteHabitHandler struct {
	store TxStore
	bus   Publisher
	log   *logger.Logger
}

// NewCompleteHabitHandler creates the handler.
func NewCompleteHabitHandler(store TxStore, bus Publisher, log *logger.Logger) *CompleteHabitHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CompleteHabitHandler{
		store: store,
		bus:   bus,
		log:   log.With(logger.Component("complete_habit")),
	}
}

// Handle runs the completion transaction. Two concurrent calls for the same
// habit race to be first: the transaction's snapshot plus the same-day guard
// guarantee exactly one grants XP and the other observes the no-op.
func (h *CompleteHabitHandler) Handle(ctx context.Context, cmd CompleteHabitCommand) (*CompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}

	var result *CompletionResult
	err := h.store.WithinTx(ctx, func(ctx context.Context, tx TxOps) error {
		// Reads first: transaction conflict detection requires every read to
		// precede the first write.
		hb, err := tx.GetHabit(ctx, cmd.UserID, cmd.HabitID)
		if err != nil {
			return err
		}
		profile, err := tx.GetProfile(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		res, writes := applyHabitCompletion(hb, profile, now)
		result = res
		if !writes {
			return nil
		}

		if err := tx.UpdateHabit(ctx, hb); err != nil {
			return err
		}
		return tx.UpdateProfile(ctx, profile)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	h.publishHabitEvents(ctx, cmd, result)
	return result, nil
}

// applyHabitCompletion runs the pure decision part of a habit completion
// against already-read state. Returns the result and whether writes are due.
// Shared with the block-completion path so both converge on identical rules.
func applyHabitCompletion(hb *habit.Habit, profile *user.Profile, now time.Time) (*CompletionResult, bool) {
	loc := profile.Preferences.Merge(user.DefaultPreferences()).Location()
	key := shared.DateKey(timeutil.DateKey(now, loc))

	outcome := hb.CompleteOn(key, now)
	if outcome.Already {
		return &CompletionResult{
			AlreadyCompleted: true,
			NewTotalXP:       profile.TotalXP.Int(),
			CurrentStreak:    hb.CurrentStreak,
			DateKey:          key,
		}, false
	}

	profile.GrantXP(outcome.XPGained, now)

	badges := user.EligibleBadges(profile, user.BadgeContext{
		NewTotalXP:       profile.TotalXP,
		NewStreak:        outcome.NewStreak,
		TotalCompletions: hb.TotalDone,
	}, now)
	for _, b := range badges {
		profile.AwardBadge(b)
	}

	return &CompletionResult{
		XPGained:      outcome.XPGained.Int(),
		NewTotalXP:    profile.TotalXP.Int(),
		CurrentStreak: outcome.NewStreak,
		BadgesAwarded: badges,
		DateKey:       key,
	}, true
}

// publishHabitEvents emits completion and badge events after commit. The
// event's date key is the credited day from the transaction, so a late-evening
// completion in a non-UTC zone reports the same day it was recorded under.
func (h *CompleteHabitHandler) publishHabitEvents(ctx context.Context, cmd CompleteHabitCommand, res *CompletionResult) {
	if h.bus == nil || res.AlreadyCompleted {
		return
	}
	event := shared.CompletionEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventHabitCompleted, cmd.HabitID, cmd.UserID),
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

// mapStoreError normalizes storage errors to the command taxonomy.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, shared.ErrTransactionConflict):
		return shared.WrapError("command", "Complete", shared.ErrTransactionConflict, "transaction conflict after retries", err)
	default:
		return err
	}
}
