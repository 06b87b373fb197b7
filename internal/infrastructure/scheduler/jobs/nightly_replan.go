// Package jobs contains the scheduled jobs of the planning worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/studyflow/studyflow/internal/application/command"
	"github.com/studyflow/studyflow/internal/application/planner"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// NIGHTLY REPLAN JOB
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleGenerator runs the plan path for one user.
type ScheduleGenerator interface {
	Handle(ctx context.Context, cmd command.GenerateScheduleCommand) (*command.GenerateScheduleResult, error)
}

// Locker guards a job against concurrent runs across worker instances.
// *redis.Cache satisfies it.
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

// NightlyReplanJob generates the coming day's schedule for every user. It
// runs before anyone wakes up so that opening the app shows a ready plan.
// Per-user failures are counted, not fatal: one user's bad data must not
// cost everyone else their schedule.
type NightlyReplanJob struct {
	users     user.Repository
	generator ScheduleGenerator
	locker    Locker
	logger    *slog.Logger
	config    NightlyReplanConfig

	lastRunStats atomic.Value // *NightlyReplanStats
}

// NightlyReplanConfig contains configuration for the nightly replan job.
type NightlyReplanConfig struct {
	// Concurrency is the number of users planned in parallel.
	Concurrency int

	// Timeout is the maximum duration for the whole run.
	Timeout time.Duration

	// LockTTL is how long the cross-instance lock is held. It must exceed
	// the longest plausible run so a crashed holder eventually expires.
	LockTTL time.Duration
}

// DefaultNightlyReplanConfig returns sensible defaults.
func DefaultNightlyReplanConfig() NightlyReplanConfig {
	return NightlyReplanConfig{
		Concurrency: 8,
		Timeout:     15 * time.Minute,
		LockTTL:     redis.TTLJobLock,
	}
}

// NightlyReplanStats contains statistics from one run.
type NightlyReplanStats struct {
	StartedAt    time.Time
	CompletedAt  time.Time
	Duration     time.Duration
	UsersTotal   int
	UsersPlanned int
	UsersFailed  int
	FallbackUsed int
	BlocksTotal  int
}

// NewNightlyReplanJob creates the job. locker may be nil for single-instance
// deployments.
func NewNightlyReplanJob(
	users user.Repository,
	generator ScheduleGenerator,
	locker Locker,
	logger *slog.Logger,
	config NightlyReplanConfig,
) *NightlyReplanJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}

	return &NightlyReplanJob{
		users:     users,
		generator: generator,
		locker:    locker,
		logger:    logger,
		config:    config,
	}
}

// Name returns the job name.
func (j *NightlyReplanJob) Name() string {
	return "nightly_replan"
}

// Description returns a human-readable description.
func (j *NightlyReplanJob) Description() string {
	return "Generates the daily schedule for every user ahead of the day"
}

// Run executes the job.
func (j *NightlyReplanJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &NightlyReplanStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	if j.locker != nil {
		acquired, err := j.locker.SetNX(ctx, redis.LockKey(j.Name()), startedAt.Format(time.RFC3339), j.config.LockTTL)
		if err != nil {
			j.logger.Warn("lock check failed, proceeding without lock", "error", err)
		} else if !acquired {
			j.logger.Info("another instance holds the lock, skipping run")
			return nil
		}
	}

	userIDs, err := j.users.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	stats.UsersTotal = len(userIDs)

	j.logger.Info("nightly replan started", "users", len(userIDs))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, j.config.Concurrency)
	)

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(id shared.UserID) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := j.generator.Handle(ctx, command.GenerateScheduleCommand{UserID: id})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.UsersFailed++
				j.logger.Error("replan failed for user", "user_id", id.String(), "error", err)
				return
			}
			stats.UsersPlanned++
			stats.BlocksTotal += result.BlocksCreated
			if result.Source == planner.SourceFallback {
				stats.FallbackUsed++
			}
		}(userID)
	}

	wg.Wait()

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("nightly replan finished",
		"users", stats.UsersTotal,
		"planned", stats.UsersPlanned,
		"failed", stats.UsersFailed,
		"fallback", stats.FallbackUsed,
		"blocks", stats.BlocksTotal,
		"duration", stats.Duration.String(),
	)

	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	return nil
}

// LastRunStats returns statistics from the most recent run, or nil.
func (j *NightlyReplanJob) LastRunStats() *NightlyReplanStats {
	v := j.lastRunStats.Load()
	if v == nil {
		return nil
	}
	return v.(*NightlyReplanStats)
}
