// Package user contains the user profile domain model: the XP ledger, the
// badge set, and the planning preferences. XP and badges are mutated only by
// the completion path; preferences come from external profile-edit flows.
package user

import (
	"time"

	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// PREFERENCES
// ═══════════════════════════════════════════════════════════════════════════

// Preferences are the user's planning settings. Zero values mean "not set";
// Merge fills those in from defaults so the planner never reads ambient state.
type Preferences struct {
	// WorkHours is the daily scheduling window, "HH:MM-HH:MM".
	WorkHours string

	// EnergyPeak is the window where demanding work goes, "HH:MM-HH:MM".
	EnergyPeak string

	// MaxTasksPerDay caps how many tasks a single daily plan may contain.
	MaxTasksPerDay int

	// MaxWorkMinutes caps the total scheduled work per day.
	MaxWorkMinutes int

	// Timezone is the IANA zone name all date keys are computed in.
	Timezone string
}

// DefaultPreferences are the planner defaults merged under user settings.
func DefaultPreferences() Preferences {
	return Preferences{
		WorkHours:      "09:00-21:00",
		EnergyPeak:     "10:00-12:00",
		MaxTasksPerDay: 7,
		MaxWorkMinutes: 360,
		Timezone:       "UTC",
	}
}

// Merge overlays p on top of defaults, keeping any field the user has set.
func (p Preferences) Merge(defaults Preferences) Preferences {
	out := defaults
	if p.WorkHours != "" {
		out.WorkHours = p.WorkHours
	}
	if p.EnergyPeak != "" {
		out.EnergyPeak = p.EnergyPeak
	}
	if p.MaxTasksPerDay > 0 {
		out.MaxTasksPerDay = p.MaxTasksPerDay
	}
	if p.MaxWorkMinutes > 0 {
		out.MaxWorkMinutes = p.MaxWorkMinutes
	}
	if p.Timezone != "" {
		out.Timezone = p.Timezone
	}
	return out
}

// Location resolves the preference timezone, falling back to UTC.
func (p Preferences) Location() *time.Location {
	return timeutil.LoadZone(p.Timezone)
}

// ═══════════════════════════════════════════════════════════════════════════
// BADGES
// ═══════════════════════════════════════════════════════════════════════════

// Badge is one earned award. A badge ID appears at most once per profile.
type Badge struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AwardedAt time.Time `json:"awarded_at"`
}

// ═══════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROFILE
// ═══════════════════════════════════════════════════════════════════════════

// Profile is the per-user ledger the completion path mutates.
type Profile struct {
	UserID      shared.UserID
	TotalXP     shared.XP
	Badges      []Badge
	Preferences Preferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasBadge reports whether the profile already holds the badge.
func (p *Profile) HasBadge(badgeID string) bool {
	for _, b := range p.Badges {
		if b.ID == badgeID {
			return true
		}
	}
	return false
}

// AwardBadge appends the badge if not already held. Returns true when the
// badge was actually added; the uniqueness invariant makes this idempotent.
func (p *Profile) AwardBadge(b Badge) bool {
	if p.HasBadge(b.ID) {
		return false
	}
	p.Badges = append(p.Badges, b)
	return true
}

// GrantXP adds to the total. Totals never decrease under normal operation.
func (p *Profile) GrantXP(xp shared.XP, now time.Time) {
	p.TotalXP = p.TotalXP.Add(xp)
	p.UpdatedAt = now.UTC()
}
