package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	err  error
	runs atomic.Int64
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts its own runs" }

func (j *countingJob) Run(_ context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler() *Scheduler {
	return NewScheduler(SchedulerConfig{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		EnableMetrics: true,
	})
}

func TestScheduler_RegisterRejectsDuplicates(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "replan"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	err := s.Register(job, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_RegisterNilChecks(t *testing.T) {
	s := newTestScheduler()

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "j"}, nil), ErrNilSchedule)
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&countingJob{name: "replan"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "replan"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "replan")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "replan", result.JobName)
	assert.Equal(t, int64(1), job.runs.Load())

	_, err = s.RunNow(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNowRecordsFailure(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "flaky", err: errors.New("job boom")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "flaky")

	require.Error(t, err)
	assert.False(t, result.Success)

	snap := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.TotalFailures)
}

func TestScheduler_ListJobs(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&countingJob{name: "replan"}, MustParseCronExpression(NightlyReplan)))
	require.NoError(t, s.Register(&countingJob{name: "streaks"}, MustParseCronExpression(EveningCheckIn)))
	require.NoError(t, s.DisableJob("streaks"))

	infos := s.ListJobs()
	require.Len(t, infos, 2)

	byName := make(map[string]JobInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}

	assert.True(t, byName["replan"].Enabled)
	assert.Equal(t, NightlyReplan, byName["replan"].Schedule)
	assert.False(t, byName["replan"].NextRun.IsZero())
	assert.False(t, byName["streaks"].Enabled)
}

func TestScheduler_DisableUnknownJob(t *testing.T) {
	s := newTestScheduler()
	assert.ErrorIs(t, s.DisableJob("ghost"), ErrJobNotFound)
}

func TestScheduler_DueJobRunsOnTick(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "fast"}

	// A tiny interval makes the job due on the first one-second tick.
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(30 * time.Minute)
	from := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, from.Add(30*time.Minute), s.Next(from))
	assert.Equal(t, "@every 30m0s", s.String())
}
