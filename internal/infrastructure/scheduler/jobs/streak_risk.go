package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/studyflow/studyflow/internal/domain/habit"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK RISK JOB
// ══════════════════════════════════════════════════════════════════════════════

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event shared.Event) error
}

// StreakRiskJob sweeps every user's active habits in the evening and emits an
// event for each habit that is due today, still incomplete, and carrying a
// streak. Subscribers decide what a reminder looks like; the job only detects.
//
// "Today" is evaluated in each user's own timezone, so the 20:00 server-time
// run lands at different local hours. Users far from the server zone get a
// rougher approximation; acceptable for a reminder.
type StreakRiskJob struct {
	users  user.Repository
	habits habit.Repository
	bus    EventPublisher
	logger *slog.Logger
	config StreakRiskConfig

	lastRunStats atomic.Value // *StreakRiskStats
}

// StreakRiskConfig contains configuration for the streak risk job.
type StreakRiskConfig struct {
	// Timeout is the maximum duration for the whole run.
	Timeout time.Duration

	// MinStreak is the smallest streak worth warning about. A one-day
	// streak breaking is not an event anyone needs an evening ping for.
	MinStreak int
}

// DefaultStreakRiskConfig returns sensible defaults.
func DefaultStreakRiskConfig() StreakRiskConfig {
	return StreakRiskConfig{
		Timeout:   5 * time.Minute,
		MinStreak: 2,
	}
}

// StreakRiskStats contains statistics from one run.
type StreakRiskStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	UsersChecked  int
	HabitsChecked int
	AtRiskFound   int
	Errors        int
}

// NewStreakRiskJob creates the job.
func NewStreakRiskJob(
	users user.Repository,
	habits habit.Repository,
	bus EventPublisher,
	logger *slog.Logger,
	config StreakRiskConfig,
) *StreakRiskJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreakRiskJob{
		users:  users,
		habits: habits,
		bus:    bus,
		logger: logger,
		config: config,
	}
}

// Name returns the job name.
func (j *StreakRiskJob) Name() string {
	return "streak_risk"
}

// Description returns a human-readable description.
func (j *StreakRiskJob) Description() string {
	return "Detects habit streaks about to break at midnight"
}

// Run executes the sweep.
func (j *StreakRiskJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &StreakRiskStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	userIDs, err := j.users.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}
		if err := j.checkUser(ctx, userID, stats); err != nil {
			stats.Errors++
			j.logger.Error("streak check failed for user", "user_id", userID.String(), "error", err)
		}
		stats.UsersChecked++
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("streak risk sweep finished",
		"users", stats.UsersChecked,
		"habits", stats.HabitsChecked,
		"at_risk", stats.AtRiskFound,
		"errors", stats.Errors,
		"duration", stats.Duration.String(),
	)

	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	return nil
}

// checkUser evaluates one user's habits against their local calendar day.
func (j *StreakRiskJob) checkUser(ctx context.Context, userID shared.UserID, stats *StreakRiskStats) error {
	profile, err := j.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	zone := timeutil.LoadZone(profile.Preferences.Timezone)
	localNow := time.Now().In(zone)
	key := shared.DateKey(timeutil.DateKey(localNow, zone))

	habits, err := j.habits.ListActive(ctx, userID)
	if err != nil {
		return err
	}

	for _, h := range habits {
		stats.HabitsChecked++

		if !h.DueOn(localNow.Weekday()) || h.CompletedOn(key) || h.CurrentStreak < j.config.MinStreak {
			continue
		}

		stats.AtRiskFound++
		event := shared.StreakAtRiskEvent{
			BaseEvent:     shared.NewBaseEvent(shared.EventStreakAtRisk, h.ID, userID),
			HabitID:       h.ID,
			HabitTitle:    h.Title,
			CurrentStreak: h.CurrentStreak,
			DateKey:       key.String(),
		}
		if err := j.bus.Publish(ctx, event); err != nil {
			j.logger.Warn("streak risk event publish failed", "habit_id", h.ID, "error", err)
		}
	}

	return nil
}

// LastRunStats returns statistics from the most recent run, or nil.
func (j *StreakRiskJob) LastRunStats() *StreakRiskStats {
	v := j.lastRunStats.Load()
	if v == nil {
		return nil
	}
	return v.(*StreakRiskStats)
}
