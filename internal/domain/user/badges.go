package user

import (
	"time"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

// Badge catalog. IDs are stable; names are display text.
const (
	BadgeFirstCompletion = "first-completion"
	BadgeStreak7         = "streak-7"
	BadgeStreak30        = "streak-30"
	BadgeXP1000          = "xp-1000"
	BadgeXP10000         = "xp-10000"
)

var badgeNames = map[string]string{
	BadgeFirstCompletion: "First Step",
	BadgeStreak7:         "7-Day Streak",
	BadgeStreak30:        "30-Day Streak",
	BadgeXP1000:          "1,000 XP",
	BadgeXP10000:         "10,000 XP",
}

// BadgeName returns the display name for a badge ID.
func BadgeName(id string) string {
	if name, ok := badgeNames[id]; ok {
		return name
	}
	return id
}

// BadgeContext carries the post-completion state badge rules evaluate against.
type BadgeContext struct {
	NewTotalXP       shared.XP
	NewStreak        int
	TotalCompletions int
}

// EligibleBadges returns the badges the profile newly qualifies for, in
// catalog order. Badges already held are filtered out here, so repeatedly
// crossing a threshold never produces a duplicate.
func EligibleBadges(p *Profile, ctx BadgeContext, now time.Time) []Badge {
	var earned []Badge

	award := func(id string) {
		if p.HasBadge(id) {
			return
		}
		earned = append(earned, Badge{
			ID:        id,
			Name:      BadgeName(id),
			AwardedAt: now.UTC(),
		})
	}

	if ctx.TotalCompletions >= 1 {
		award(BadgeFirstCompletion)
	}
	if ctx.NewStreak >= 7 {
		award(BadgeStreak7)
	}
	if ctx.NewStreak >= 30 {
		award(BadgeStreak30)
	}
	if ctx.NewTotalXP >= 1000 {
		award(BadgeXP1000)
	}
	if ctx.NewTotalXP >= 10000 {
		award(BadgeXP10000)
	}

	return earned
}
