// Package habit contains the habit domain model: recurring practices with a
// completion history keyed by calendar day, streak accounting, and an XP value
// granted at most once per day. No external dependencies - pure business logic.
package habit

import (
	"strings"
	"time"

	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// ENUMS
// ═══════════════════════════════════════════════════════════════════════════

// Frequency is the cadence of a habit.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// IsValid checks that the frequency is one of the known values.
func (f Frequency) IsValid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// ═══════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: HABIT
// ═══════════════════════════════════════════════════════════════════════════

// Habit is a recurring practice owned by exactly one user. Streak fields are
// derived state: they are recomputed only by the completion path, never
// edited directly.
type Habit struct {
	ID              string
	UserID          shared.UserID
	Title           string
	Frequency       Frequency
	TargetDays      []time.Weekday // relevant only for weekly cadence
	DurationMinutes int
	XPValue         shared.XP
	CurrentStreak   int
	LongestStreak   int
	TotalDone       int
	// History is the set of date keys with a recorded completion. Each key
	// appears at most once; exactly one XP grant is attributable to each.
	History   map[shared.DateKey]struct{}
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the habit's invariants.
func (h *Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return shared.WrapError("habit", "Validate", shared.ErrInvalidID, "habit id is empty", nil)
	}
	if !h.UserID.IsValid() {
		return shared.WrapError("habit", "Validate", shared.ErrInvalidID, "user id is invalid", nil)
	}
	if strings.TrimSpace(h.Title) == "" {
		return shared.WrapError("habit", "Validate", shared.ErrEmptyValue, "habit title is empty", nil)
	}
	if !h.Frequency.IsValid() {
		return shared.ErrInvalidHabitCadence
	}
	if !h.XPValue.IsValid() {
		return shared.WrapError("habit", "Validate", shared.ErrNegativeValue, "xp value is negative", nil)
	}
	return nil
}

// CompletedOn reports whether the habit has a completion recorded for the key.
func (h *Habit) CompletedOn(key shared.DateKey) bool {
	_, ok := h.History[key]
	return ok
}

// CompletionOutcome describes the state change from recording a completion.
type CompletionOutcome struct {
	// Already is true when the date key was already in the history; nothing
	// changed and no XP is due.
	Already bool

	// XPGained is the XP due for this completion (zero when Already).
	XPGained shared.XP

	// NewStreak is the streak length after this completion.
	NewStreak int

	// StreakExtended is true when the streak continued from yesterday rather
	// than restarting at 1.
	StreakExtended bool
}

// CompleteOn records a completion for the given date key. Idempotent: a key
// already in the history is a no-op, not an error. The streak extends by one
// when yesterday's key is present and resets to 1 after any gap.
func (h *Habit) CompleteOn(key shared.DateKey, now time.Time) CompletionOutcome {
	if h.CompletedOn(key) {
		return CompletionOutcome{Already: true, NewStreak: h.CurrentStreak}
	}

	yesterday := shared.DateKey(timeutil.PreviousDateKey(key.String()))
	extended := h.CompletedOn(yesterday)

	newStreak := 1
	if extended {
		newStreak = h.CurrentStreak + 1
	}

	if h.History == nil {
		h.History = make(map[shared.DateKey]struct{})
	}
	h.History[key] = struct{}{}
	h.CurrentStreak = newStreak
	if newStreak > h.LongestStreak {
		h.LongestStreak = newStreak
	}
	h.TotalDone++
	h.UpdatedAt = now.UTC()

	return CompletionOutcome{
		XPGained:       h.XPValue,
		NewStreak:      newStreak,
		StreakExtended: extended,
	}
}

// DueOn reports whether the habit is expected on the given weekday. Daily
// habits are always due; weekly habits only on their target days.
func (h *Habit) DueOn(day time.Weekday) bool {
	if !h.IsActive {
		return false
	}
	if h.Frequency == FrequencyDaily {
		return true
	}
	for _, d := range h.TargetDays {
		if d == day {
			return true
		}
	}
	return false
}
