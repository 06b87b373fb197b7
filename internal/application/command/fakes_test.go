package command

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

var errStoreDown = errors.New("store down")

// fakeStore is an in-memory TxStore over single entities. WithinTx runs the
// body directly; setting err simulates a transaction that never commits.
type fakeStore struct {
	tx    *fakeTx
	err   error
	calls int
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxOps) error) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return fn(ctx, s.tx)
}

// fakeTx holds at most one entity of each kind and counts writes.
type fakeTx struct {
	task    *task.Task
	habit   *habit.Habit
	block   *schedule.Block
	profile *user.Profile

	updateErr error

	taskWrites    int
	habitWrites   int
	blockWrites   int
	profileWrites int
}

func (tx *fakeTx) GetTask(_ context.Context, userID shared.UserID, id string) (*task.Task, error) {
	if tx.task == nil || tx.task.ID != id || tx.task.UserID != userID {
		return nil, shared.ErrTaskNotFound
	}
	return tx.task, nil
}

func (tx *fakeTx) GetHabit(_ context.Context, userID shared.UserID, id string) (*habit.Habit, error) {
	if tx.habit == nil || tx.habit.ID != id || tx.habit.UserID != userID {
		return nil, shared.ErrHabitNotFound
	}
	return tx.habit, nil
}

func (tx *fakeTx) GetBlock(_ context.Context, userID shared.UserID, id string) (*schedule.Block, error) {
	if tx.block == nil || tx.block.ID != id || tx.block.UserID != userID {
		return nil, shared.ErrBlockNotFound
	}
	return tx.block, nil
}

func (tx *fakeTx) GetProfile(_ context.Context, userID shared.UserID) (*user.Profile, error) {
	if tx.profile == nil || tx.profile.UserID != userID {
		return nil, shared.ErrUserNotFound
	}
	return tx.profile, nil
}

func (tx *fakeTx) UpdateTask(_ context.Context, t *task.Task) error {
	tx.taskWrites++
	tx.task = t
	return tx.updateErr
}

func (tx *fakeTx) UpdateHabit(_ context.Context, h *habit.Habit) error {
	tx.habitWrites++
	tx.habit = h
	return tx.updateErr
}

func (tx *fakeTx) UpdateBlock(_ context.Context, b *schedule.Block) error {
	tx.blockWrites++
	tx.block = b
	return tx.updateErr
}

func (tx *fakeTx) UpdateProfile(_ context.Context, p *user.Profile) error {
	tx.profileWrites++
	tx.profile = p
	return tx.updateErr
}

// fakePublisher records published events in order.
type fakePublisher struct {
	events []shared.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event shared.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []shared.EventType {
	out := make([]shared.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// fakeInvalidator records cache invalidations.
type fakeInvalidator struct {
	userIDs []shared.UserID
	keys    []shared.DateKey
}

func (f *fakeInvalidator) InvalidateSchedule(_ context.Context, userID shared.UserID, key shared.DateKey) {
	f.userIDs = append(f.userIDs, userID)
	f.keys = append(f.keys, key)
}

// Repository fakes for the plan-generation pipeline.

type stubTaskRepo struct {
	tasks []*task.Task
	err   error
}

func (f *stubTaskRepo) GetByID(_ context.Context, _ shared.UserID, id string) (*task.Task, error) {
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrTaskNotFound
}

func (f *stubTaskRepo) ListIncomplete(_ context.Context, _ shared.UserID) ([]*task.Task, error) {
	return f.tasks, f.err
}

func (f *stubTaskRepo) Update(_ context.Context, _ *task.Task) error { return f.err }

type stubHabitRepo struct {
	habits []*habit.Habit
}

func (f *stubHabitRepo) GetByID(_ context.Context, _ shared.UserID, id string) (*habit.Habit, error) {
	for _, h := range f.habits {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, shared.ErrHabitNotFound
}

func (f *stubHabitRepo) ListActive(_ context.Context, _ shared.UserID) ([]*habit.Habit, error) {
	return f.habits, nil
}

func (f *stubHabitRepo) Update(_ context.Context, _ *habit.Habit) error { return nil }

type stubCourseRepo struct{}

func (f *stubCourseRepo) ListByUser(_ context.Context, _ shared.UserID) ([]course.Record, error) {
	return nil, nil
}

type stubUserRepo struct {
	profile *user.Profile
	err     error
}

func (f *stubUserRepo) GetByID(_ context.Context, _ shared.UserID) (*user.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.profile == nil {
		return nil, shared.ErrUserNotFound
	}
	return f.profile, nil
}

func (f *stubUserRepo) Update(_ context.Context, p *user.Profile) error {
	if f.err != nil {
		return f.err
	}
	f.profile = p
	return nil
}

func (f *stubUserRepo) ListActive(_ context.Context) ([]shared.UserID, error) {
	if f.profile == nil {
		return nil, nil
	}
	return []shared.UserID{f.profile.UserID}, nil
}

type stubBlockRepo struct {
	replaced []*schedule.Block
}

func (f *stubBlockRepo) GetByID(_ context.Context, _ shared.UserID, _ string) (*schedule.Block, error) {
	return nil, shared.ErrBlockNotFound
}

func (f *stubBlockRepo) ListByDate(_ context.Context, _ shared.UserID, _ shared.DateKey) ([]*schedule.Block, error) {
	return f.replaced, nil
}

func (f *stubBlockRepo) ReplacePlanned(_ context.Context, _ shared.UserID, _ shared.DateKey, blocks []*schedule.Block) (int, error) {
	f.replaced = blocks
	return len(blocks), nil
}
