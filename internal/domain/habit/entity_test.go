package habit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

func validHabit() *Habit {
	return &Habit{
		ID:              "habit-1",
		UserID:          "user-1",
		Title:           "Morning review",
		Frequency:       FrequencyDaily,
		DurationMinutes: 20,
		XPValue:         10,
		IsActive:        true,
		History:         make(map[shared.DateKey]struct{}),
	}
}

func TestHabit_Validate(t *testing.T) {
	assert.NoError(t, validHabit().Validate())

	h := validHabit()
	h.Frequency = "monthly"
	assert.ErrorIs(t, h.Validate(), shared.ErrInvalidInput)

	h = validHabit()
	h.Title = "  "
	assert.ErrorIs(t, h.Validate(), shared.ErrEmptyValue)
}

func TestHabit_CompleteOn_FirstCompletion(t *testing.T) {
	h := validHabit()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	out := h.CompleteOn("2026-03-02", now)

	assert.False(t, out.Already)
	assert.Equal(t, shared.XP(10), out.XPGained)
	assert.Equal(t, 1, out.NewStreak)
	assert.False(t, out.StreakExtended)
	assert.Equal(t, 1, h.CurrentStreak)
	assert.Equal(t, 1, h.LongestStreak)
	assert.Equal(t, 1, h.TotalDone)
	assert.True(t, h.CompletedOn("2026-03-02"))
}

func TestHabit_CompleteOn_Idempotent(t *testing.T) {
	h := validHabit()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	h.CompleteOn("2026-03-02", now)
	out := h.CompleteOn("2026-03-02", now.Add(2*time.Hour))

	assert.True(t, out.Already)
	assert.Equal(t, shared.XP(0), out.XPGained)
	assert.Equal(t, 1, out.NewStreak)
	assert.Equal(t, 1, h.TotalDone, "no double count")
	assert.Equal(t, 1, h.CurrentStreak)
}

func TestHabit_CompleteOn_StreakExtends(t *testing.T) {
	h := validHabit()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, key := range []shared.DateKey{"2026-03-01", "2026-03-02", "2026-03-03"} {
		out := h.CompleteOn(key, now.AddDate(0, 0, i))
		assert.Equal(t, i+1, out.NewStreak)
		assert.Equal(t, i > 0, out.StreakExtended)
	}
	assert.Equal(t, 3, h.CurrentStreak)
	assert.Equal(t, 3, h.LongestStreak)
}

func TestHabit_CompleteOn_GapResetsStreak(t *testing.T) {
	h := validHabit()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	h.CompleteOn("2026-03-01", now)
	h.CompleteOn("2026-03-02", now)

	// March 3rd is skipped.
	out := h.CompleteOn("2026-03-04", now)

	assert.False(t, out.StreakExtended)
	assert.Equal(t, 1, out.NewStreak)
	assert.Equal(t, 1, h.CurrentStreak)
	assert.Equal(t, 2, h.LongestStreak, "the longest streak is preserved")
	assert.Equal(t, 3, h.TotalDone)
}

func TestHabit_CompleteOn_MonthBoundary(t *testing.T) {
	h := validHabit()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	h.CompleteOn("2026-02-28", now)
	out := h.CompleteOn("2026-03-01", now)

	assert.True(t, out.StreakExtended)
	assert.Equal(t, 2, out.NewStreak)
}

func TestHabit_CompleteOn_NilHistory(t *testing.T) {
	h := validHabit()
	h.History = nil

	out := h.CompleteOn("2026-03-02", time.Now())
	require.False(t, out.Already)
	assert.True(t, h.CompletedOn("2026-03-02"))
}

func TestHabit_DueOn(t *testing.T) {
	daily := validHabit()
	assert.True(t, daily.DueOn(time.Monday))
	assert.True(t, daily.DueOn(time.Sunday))

	weekly := validHabit()
	weekly.Frequency = FrequencyWeekly
	weekly.TargetDays = []time.Weekday{time.Monday, time.Thursday}
	assert.True(t, weekly.DueOn(time.Monday))
	assert.True(t, weekly.DueOn(time.Thursday))
	assert.False(t, weekly.DueOn(time.Tuesday))

	inactive := validHabit()
	inactive.IsActive = false
	assert.False(t, inactive.DueOn(time.Monday), "inactive habits are never due")
}
