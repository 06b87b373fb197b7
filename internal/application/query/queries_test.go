package query

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/internal/domain/habit"
	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/pkg/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

var errRepoDown = errors.New("repo down")

type fakeBlockRepo struct {
	blocks []*schedule.Block
	err    error
	calls  int
}

func (f *fakeBlockRepo) GetByID(_ context.Context, _ shared.UserID, _ string) (*schedule.Block, error) {
	return nil, shared.ErrBlockNotFound
}

func (f *fakeBlockRepo) ListByDate(_ context.Context, _ shared.UserID, _ shared.DateKey) ([]*schedule.Block, error) {
	f.calls++
	return f.blocks, f.err
}

func (f *fakeBlockRepo) ReplacePlanned(_ context.Context, _ shared.UserID, _ shared.DateKey, blocks []*schedule.Block) (int, error) {
	return len(blocks), nil
}

type fakeCache struct {
	blocks []*schedule.Block
	hit    bool

	gets    int
	sets    int
	lastSet []*schedule.Block
}

func (f *fakeCache) GetSchedule(_ context.Context, _ shared.UserID, _ shared.DateKey) ([]*schedule.Block, bool) {
	f.gets++
	return f.blocks, f.hit
}

func (f *fakeCache) SetSchedule(_ context.Context, _ shared.UserID, _ shared.DateKey, blocks []*schedule.Block) {
	f.sets++
	f.lastSet = blocks
}

type fakeUserRepo struct {
	profile *user.Profile
	err     error
}

func (f *fakeUserRepo) GetByID(_ context.Context, _ shared.UserID) (*user.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.profile == nil {
		return nil, shared.ErrUserNotFound
	}
	return f.profile, nil
}

func (f *fakeUserRepo) Update(_ context.Context, _ *user.Profile) error { return nil }

func (f *fakeUserRepo) ListActive(_ context.Context) ([]shared.UserID, error) { return nil, nil }

type fakeHabitRepo struct {
	habits []*habit.Habit
	err    error
}

func (f *fakeHabitRepo) GetByID(_ context.Context, _ shared.UserID, _ string) (*habit.Habit, error) {
	return nil, shared.ErrHabitNotFound
}

func (f *fakeHabitRepo) ListActive(_ context.Context, _ shared.UserID) ([]*habit.Habit, error) {
	return f.habits, f.err
}

func (f *fakeHabitRepo) Update(_ context.Context, _ *habit.Habit) error { return nil }

func storedBlock(id string, hour int) *schedule.Block {
	return &schedule.Block{
		ID:         id,
		UserID:     "user-1",
		DateKey:    "2026-03-02",
		Start:      time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 3, 2, hour+1, 0, 0, 0, time.UTC),
		Type:       schedule.BlockTypeTask,
		TaskID:     "t-" + id,
		Status:     schedule.StatusPlanned,
		Confidence: 0.5,
	}
}

func TestGetDailySchedule_CacheMissReadsStorage(t *testing.T) {
	repo := &fakeBlockRepo{blocks: []*schedule.Block{storedBlock("b1", 9), storedBlock("b2", 11)}}
	cache := &fakeCache{}
	h := NewGetDailyScheduleHandler(repo, cache, quietLogger())

	view, err := h.Handle(context.Background(), GetDailyScheduleQuery{
		UserID: "user-1", DateKey: "2026-03-02",
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-03-02", view.DateKey)
	assert.Len(t, view.Blocks, 2)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets, "the miss populates the cache")
	assert.Equal(t, repo.blocks, cache.lastSet)
}

func TestGetDailySchedule_CacheHitSkipsStorage(t *testing.T) {
	repo := &fakeBlockRepo{err: errRepoDown}
	cache := &fakeCache{blocks: []*schedule.Block{storedBlock("b1", 9)}, hit: true}
	h := NewGetDailyScheduleHandler(repo, cache, quietLogger())

	view, err := h.Handle(context.Background(), GetDailyScheduleQuery{
		UserID: "user-1", DateKey: "2026-03-02",
	})
	require.NoError(t, err, "a hit never touches storage")

	assert.Len(t, view.Blocks, 1)
	assert.Equal(t, 0, repo.calls)
	assert.Equal(t, 0, cache.sets)
}

func TestGetDailySchedule_NoCacheConfigured(t *testing.T) {
	repo := &fakeBlockRepo{blocks: []*schedule.Block{storedBlock("b1", 9)}}
	h := NewGetDailyScheduleHandler(repo, nil, quietLogger())

	view, err := h.Handle(context.Background(), GetDailyScheduleQuery{
		UserID: "user-1", DateKey: "2026-03-02",
	})
	require.NoError(t, err)

	assert.Len(t, view.Blocks, 1)
}

func TestGetDailySchedule_StorageFailure(t *testing.T) {
	h := NewGetDailyScheduleHandler(&fakeBlockRepo{err: errRepoDown}, nil, quietLogger())

	_, err := h.Handle(context.Background(), GetDailyScheduleQuery{
		UserID: "user-1", DateKey: "2026-03-02",
	})

	assert.ErrorIs(t, err, errRepoDown)
}

func TestGetDailySchedule_Validation(t *testing.T) {
	h := NewGetDailyScheduleHandler(&fakeBlockRepo{}, nil, quietLogger())

	_, err := h.Handle(context.Background(), GetDailyScheduleQuery{DateKey: "2026-03-02"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = h.Handle(context.Background(), GetDailyScheduleQuery{UserID: "user-1", DateKey: "02.03.2026"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetProgress_AssemblesSummary(t *testing.T) {
	profile := &user.Profile{UserID: "user-1", TotalXP: 1250}
	profile.AwardBadge(user.Badge{ID: user.BadgeXP1000, Name: user.BadgeName(user.BadgeXP1000)})

	habits := []*habit.Habit{
		{ID: "h1", Title: "Morning review", CurrentStreak: 4, LongestStreak: 9, TotalDone: 40},
		{ID: "h2", Title: "Evening reading", CurrentStreak: 1, LongestStreak: 2, TotalDone: 3},
	}

	h := NewGetProgressHandler(&fakeUserRepo{profile: profile}, &fakeHabitRepo{habits: habits}, quietLogger())

	view, err := h.Handle(context.Background(), GetProgressQuery{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, 1250, view.TotalXP)
	require.Len(t, view.Badges, 1)
	assert.Equal(t, user.BadgeXP1000, view.Badges[0].ID)

	require.Len(t, view.Habits, 2)
	assert.Equal(t, HabitProgress{
		ID: "h1", Title: "Morning review",
		CurrentStreak: 4, LongestStreak: 9, TotalDone: 40,
	}, view.Habits[0])
}

func TestGetProgress_HabitFailureDegrades(t *testing.T) {
	profile := &user.Profile{UserID: "user-1", TotalXP: 300}
	h := NewGetProgressHandler(&fakeUserRepo{profile: profile}, &fakeHabitRepo{err: errRepoDown}, quietLogger())

	view, err := h.Handle(context.Background(), GetProgressQuery{UserID: "user-1"})

	require.NoError(t, err, "the profile half of the summary still serves")
	assert.Equal(t, 300, view.TotalXP)
	assert.Empty(t, view.Habits)
}

func TestGetProgress_UserNotFound(t *testing.T) {
	h := NewGetProgressHandler(&fakeUserRepo{}, &fakeHabitRepo{}, quietLogger())

	_, err := h.Handle(context.Background(), GetProgressQuery{UserID: "user-1"})

	require.Error(t, err)
	assert.True(t, shared.IsUserNotFound(err))
}

func TestGetProgress_Validation(t *testing.T) {
	h := NewGetProgressHandler(&fakeUserRepo{}, &fakeHabitRepo{}, quietLogger())

	_, err := h.Handle(context.Background(), GetProgressQuery{})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
