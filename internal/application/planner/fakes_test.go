package planner

import (
	"context"
	"errors"
	"io"

	"github.com/studyflow/studyflow/internal/domain/course"
	"github.com/studyflow/studyflow/internal/domain/habit"
	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/task"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/pkg/logger"
)

// quietLogger keeps test output clean.
func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

var errRepoDown = errors.New("repo down")

type fakeTaskRepo struct {
	tasks []*task.Task
	err   error
}

func (f *fakeTaskRepo) GetByID(_ context.Context, _ shared.UserID, id string) (*task.Task, error) {
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrTaskNotFound
}

func (f *fakeTaskRepo) ListIncomplete(_ context.Context, _ shared.UserID) ([]*task.Task, error) {
	return f.tasks, f.err
}

func (f *fakeTaskRepo) Update(_ context.Context, _ *task.Task) error { return f.err }

type fakeHabitRepo struct {
	habits []*habit.Habit
	err    error
}

func (f *fakeHabitRepo) GetByID(_ context.Context, _ shared.UserID, id string) (*habit.Habit, error) {
	for _, h := range f.habits {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, shared.ErrHabitNotFound
}

func (f *fakeHabitRepo) ListActive(_ context.Context, _ shared.UserID) ([]*habit.Habit, error) {
	return f.habits, f.err
}

func (f *fakeHabitRepo) Update(_ context.Context, _ *habit.Habit) error { return f.err }

type fakeCourseRepo struct {
	records []course.Record
	err     error
}

func (f *fakeCourseRepo) ListByUser(_ context.Context, _ shared.UserID) ([]course.Record, error) {
	return f.records, f.err
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

func (f *fakeUserRepo) Update(_ context.Context, _ *user.Profile) error { return f.err }

func (f *fakeUserRepo) ListActive(_ context.Context) ([]shared.UserID, error) {
	if f.profile == nil {
		return nil, nil
	}
	return []shared.UserID{f.profile.UserID}, nil
}

type fakeBlockRepo struct {
	replaced []*schedule.Block
	err      error
}

func (f *fakeBlockRepo) GetByID(_ context.Context, _ shared.UserID, _ string) (*schedule.Block, error) {
	return nil, shared.ErrBlockNotFound
}

func (f *fakeBlockRepo) ListByDate(_ context.Context, _ shared.UserID, _ shared.DateKey) ([]*schedule.Block, error) {
	return f.replaced, nil
}

func (f *fakeBlockRepo) ReplacePlanned(_ context.Context, _ shared.UserID, _ shared.DateKey, blocks []*schedule.Block) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.replaced = blocks
	return len(blocks), nil
}

type fakeStrategy struct {
	name     string
	proposal *Proposal
	err      error
	calls    int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Synthesize(_ context.Context, _ *Context) (*Proposal, error) {
	f.calls++
	return f.proposal, f.err
}
