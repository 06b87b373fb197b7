package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

func TestPreferences_Merge(t *testing.T) {
	defaults := DefaultPreferences()

	t.Run("empty preferences keep defaults", func(t *testing.T) {
		merged := Preferences{}.Merge(defaults)
		assert.Equal(t, defaults, merged)
	})

	t.Run("set fields win", func(t *testing.T) {
		merged := Preferences{
			WorkHours: "08:00-16:00",
			Timezone:  "Asia/Almaty",
		}.Merge(defaults)

		assert.Equal(t, "08:00-16:00", merged.WorkHours)
		assert.Equal(t, "Asia/Almaty", merged.Timezone)
		assert.Equal(t, defaults.EnergyPeak, merged.EnergyPeak)
		assert.Equal(t, defaults.MaxTasksPerDay, merged.MaxTasksPerDay)
	})

	t.Run("zero numeric fields fall back", func(t *testing.T) {
		merged := Preferences{MaxTasksPerDay: 0, MaxWorkMinutes: 240}.Merge(defaults)
		assert.Equal(t, defaults.MaxTasksPerDay, merged.MaxTasksPerDay)
		assert.Equal(t, 240, merged.MaxWorkMinutes)
	})
}

func TestPreferences_Location(t *testing.T) {
	assert.Equal(t, time.UTC, Preferences{}.Location())
	assert.Equal(t, "Asia/Almaty", Preferences{Timezone: "Asia/Almaty"}.Location().String())
	assert.Equal(t, time.UTC, Preferences{Timezone: "Broken/Zone"}.Location())
}

func TestProfile_AwardBadge_Unique(t *testing.T) {
	p := &Profile{UserID: "user-1"}
	b := Badge{ID: BadgeStreak7, Name: BadgeName(BadgeStreak7), AwardedAt: time.Now()}

	assert.True(t, p.AwardBadge(b))
	assert.False(t, p.AwardBadge(b), "the same badge is never added twice")
	assert.Len(t, p.Badges, 1)
	assert.True(t, p.HasBadge(BadgeStreak7))
}

func TestProfile_GrantXP(t *testing.T) {
	p := &Profile{UserID: "user-1", TotalXP: 100}
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	p.GrantXP(50, now)

	assert.Equal(t, shared.XP(150), p.TotalXP)
	assert.Equal(t, now, p.UpdatedAt)
}

func TestEligibleBadges(t *testing.T) {
	now := time.Now()

	t.Run("first completion", func(t *testing.T) {
		p := &Profile{UserID: "user-1"}
		earned := EligibleBadges(p, BadgeContext{TotalCompletions: 1, NewTotalXP: 10}, now)
		require.Len(t, earned, 1)
		assert.Equal(t, BadgeFirstCompletion, earned[0].ID)
	})

	t.Run("multiple thresholds at once", func(t *testing.T) {
		p := &Profile{UserID: "user-1"}
		earned := EligibleBadges(p, BadgeContext{
			TotalCompletions: 40,
			NewStreak:        30,
			NewTotalXP:       1200,
		}, now)

		ids := make([]string, len(earned))
		for i, b := range earned {
			ids[i] = b.ID
		}
		assert.Equal(t, []string{BadgeFirstCompletion, BadgeStreak7, BadgeStreak30, BadgeXP1000}, ids)
	})

	t.Run("held badges are filtered", func(t *testing.T) {
		p := &Profile{UserID: "user-1"}
		p.AwardBadge(Badge{ID: BadgeFirstCompletion})
		p.AwardBadge(Badge{ID: BadgeStreak7})

		earned := EligibleBadges(p, BadgeContext{TotalCompletions: 10, NewStreak: 8}, now)
		assert.Empty(t, earned)
	})

	t.Run("nothing qualifies", func(t *testing.T) {
		p := &Profile{UserID: "user-1"}
		earned := EligibleBadges(p, BadgeContext{}, now)
		assert.Empty(t, earned)
	})
}

func TestBadgeName(t *testing.T) {
	assert.Equal(t, "7-Day Streak", BadgeName(BadgeStreak7))
	assert.Equal(t, "unknown-badge", BadgeName("unknown-badge"))
}
