package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/task"
	"github.com/studyflow/studyflow/internal/domain/user"
)

var completionNow = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func pendingTask() *task.Task {
	return &task.Task{
		ID:       "t1",
		UserID:   "user-1",
		Title:    "Write report",
		Priority: task.PriorityMedium,
		XPValue:  50,
	}
}

func TestCompleteTask_GrantsXPOnce(t *testing.T) {
	tx := &fakeTx{
		task:    pendingTask(),
		profile: &user.Profile{UserID: "user-1", TotalXP: 100},
	}
	bus := &fakePublisher{}
	h := NewCompleteTaskHandler(&fakeStore{tx: tx}, bus, quietLogger())

	res, err := h.Handle(context.Background(), CompleteTaskCommand{
		UserID: "user-1", TaskID: "t1", Now: completionNow,
	})
	require.NoError(t, err)

	assert.False(t, res.AlreadyCompleted)
	assert.Equal(t, 50, res.XPGained)
	assert.Equal(t, 150, res.NewTotalXP)

	assert.True(t, tx.task.IsComplete)
	require.NotNil(t, tx.task.CompletedAt)
	assert.Equal(t, completionNow, *tx.task.CompletedAt)
	assert.Equal(t, shared.XP(150), tx.profile.TotalXP)
	assert.Equal(t, 1, tx.taskWrites)
	assert.Equal(t, 1, tx.profileWrites)

	require.Len(t, bus.events, 1)
	event, ok := bus.events[0].(shared.CompletionEvent)
	require.True(t, ok)
	assert.Equal(t, shared.EventTaskCompleted, event.EventType())
	assert.Equal(t, 50, event.XPGained)
	assert.Equal(t, 150, event.NewTotalXP)
	assert.Equal(t, "2026-03-02", event.DateKey)
}

func TestCompleteTask_SecondCallIsNoOp(t *testing.T) {
	tx := &fakeTx{
		task:    pendingTask(),
		profile: &user.Profile{UserID: "user-1", TotalXP: 100},
	}
	bus := &fakePublisher{}
	h := NewCompleteTaskHandler(&fakeStore{tx: tx}, bus, quietLogger())

	cmd := CompleteTaskCommand{UserID: "user-1", TaskID: "t1", Now: completionNow}
	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	res, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, res.AlreadyCompleted)
	assert.Equal(t, 0, res.XPGained)
	assert.Equal(t, 150, res.NewTotalXP, "the total reflects the first grant only")
	assert.Equal(t, shared.XP(150), tx.profile.TotalXP)
	assert.Equal(t, 1, tx.taskWrites, "the no-op issues no writes")
	assert.Len(t, bus.events, 1, "no event for the no-op")
}

func TestCompleteTask_AwardsFirstCompletionBadge(t *testing.T) {
	tx := &fakeTx{
		task:    pendingTask(),
		profile: &user.Profile{UserID: "user-1"},
	}
	bus := &fakePublisher{}
	h := NewCompleteTaskHandler(&fakeStore{tx: tx}, bus, quietLogger())

	res, err := h.Handle(context.Background(), CompleteTaskCommand{
		UserID: "user-1", TaskID: "t1", Now: completionNow,
	})
	require.NoError(t, err)

	require.Len(t, res.BadgesAwarded, 1)
	assert.Equal(t, user.BadgeFirstCompletion, res.BadgesAwarded[0].ID)
	assert.True(t, tx.profile.HasBadge(user.BadgeFirstCompletion))
}

func TestCompleteTask_AwardsXPBadgeOnThresholdCrossing(t *testing.T) {
	profile := &user.Profile{UserID: "user-1", TotalXP: 980}
	profile.AwardBadge(user.Badge{ID: user.BadgeFirstCompletion})

	tx := &fakeTx{task: pendingTask(), profile: profile}
	h := NewCompleteTaskHandler(&fakeStore{tx: tx}, nil, quietLogger())

	res, err := h.Handle(context.Background(), CompleteTaskCommand{
		UserID: "user-1", TaskID: "t1", Now: completionNow,
	})
	require.NoError(t, err)

	assert.Equal(t, 1030, res.NewTotalXP)
	require.Len(t, res.BadgesAwarded, 1)
	assert.Equal(t, user.BadgeXP1000, res.BadgesAwarded[0].ID)
}

func TestCompleteTask_EventDateKeyInUserZone(t *testing.T) {
	// 20:00 UTC on March 1st is already March 2nd in Almaty (UTC+5); the event
	// must carry the day the completion was credited to, not the UTC day.
	late := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	tx := &fakeTx{
		task: pendingTask(),
		profile: &user.Profile{
			UserID:      "user-1",
			Preferences: user.Preferences{Timezone: "Asia/Almaty"},
		},
	}
	bus := &fakePublisher{}
	h := NewCompleteTaskHandler(&fakeStore{tx: tx}, bus, quietLogger())

	res, err := h.Handle(context.Background(), CompleteTaskCommand{
		UserID: "user-1", TaskID: "t1", Now: late,
	})
	require.NoError(t, err)
	assert.Equal(t, shared.DateKey("2026-03-02"), res.DateKey)

	require.Len(t, bus.events, 1)
	event, ok := bus.events[0].(shared.CompletionEvent)
	require.True(t, ok)
	assert.Equal(t, "2026-03-02", event.DateKey)
}

func TestCompleteTask_Validation(t *testing.T) {
	h := NewCompleteTaskHandler(&fakeStore{}, nil, quietLogger())

	_, err := h.Handle(context.Background(), CompleteTaskCommand{TaskID: "t1"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = h.Handle(context.Background(), CompleteTaskCommand{UserID: "user-1"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCompleteTask_NotFound(t *testing.T) {
	tx := &fakeTx{profile: &user.Profile{UserID: "user-1"}}
	h := NewCompleteTaskHandler(&fakeStore{tx: tx}, nil, quietLogger())

	_, err := h.Handle(context.Background(), CompleteTaskCommand{
		UserID: "user-1", TaskID: "missing", Now: completionNow,
	})

	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestCompleteTask_ConflictMapped(t *testing.T) {
	h := NewCompleteTaskHandler(&fakeStore{err: shared.ErrTransactionConflict}, nil, quietLogger())

	_, err := h.Handle(context.Background(), CompleteTaskCommand{
		UserID: "user-1", TaskID: "t1", Now: completionNow,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrTransactionConflict)
}
