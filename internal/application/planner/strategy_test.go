package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
)

func heuristicContext(taskIDs ...string) *Context {
	pc := &Context{
		UserID:   "user-1",
		DateKey:  "2026-03-02",
		Day:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Location: time.UTC,
	}
	for _, id := range taskIDs {
		pc.Tasks = append(pc.Tasks, ContextTask{ID: id, Title: id, Minutes: 30})
	}
	return pc
}

func TestHeuristic_Deterministic(t *testing.T) {
	h := NewHeuristic()
	pc := heuristicContext("a", "b", "c")

	first, err := h.Synthesize(context.Background(), pc)
	require.NoError(t, err)
	second, err := h.Synthesize(context.Background(), pc)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical contexts produce identical proposals")
}

func TestHeuristic_PlacesTasksInFixedSlots(t *testing.T) {
	h := NewHeuristic()
	pc := heuristicContext("a", "b")

	proposal, err := h.Synthesize(context.Background(), pc)
	require.NoError(t, err)

	require.Len(t, proposal.Blocks, 2)
	assert.Equal(t, SourceFallback, proposal.Source)

	firstBlock := proposal.Blocks[0]
	assert.Equal(t, "a", firstBlock.TaskID)
	assert.Equal(t, schedule.BlockTypeTask, firstBlock.Type)
	assert.Equal(t, 9, firstBlock.Start.Hour())
	assert.Equal(t, 10, firstBlock.End.Hour())
	assert.Equal(t, shared.Confidence(0.3), firstBlock.Confidence)

	secondBlock := proposal.Blocks[1]
	assert.Equal(t, "b", secondBlock.TaskID)
	assert.Equal(t, 10, secondBlock.Start.Hour())
	assert.Equal(t, 15, secondBlock.Start.Minute())
}

func TestHeuristic_CapsAtSlotCount(t *testing.T) {
	h := NewHeuristic()
	pc := heuristicContext("a", "b", "c", "d", "e", "f", "g")

	proposal, err := h.Synthesize(context.Background(), pc)
	require.NoError(t, err)

	assert.Len(t, proposal.Blocks, len(heuristicSlots))
}

func TestHeuristic_EmptyContext(t *testing.T) {
	h := NewHeuristic()

	proposal, err := h.Synthesize(context.Background(), heuristicContext())
	require.NoError(t, err)

	assert.Empty(t, proposal.Blocks)
	assert.NotEmpty(t, proposal.Rationale)
}

func TestHeuristic_CarriesDeferredTasks(t *testing.T) {
	h := NewHeuristic()
	pc := heuristicContext("a")
	pc.DeferredOverdue = []DeferredTask{{ID: "old", Title: "old", Reason: "overdue"}}

	proposal, err := h.Synthesize(context.Background(), pc)
	require.NoError(t, err)

	assert.Equal(t, pc.DeferredOverdue, proposal.Deferred)
}

func TestSynthesizer_FirstStrategyWins(t *testing.T) {
	primary := &fakeStrategy{name: "ai", proposal: &Proposal{Source: SourceAI}}
	fallback := &fakeStrategy{name: "fallback", proposal: &Proposal{Source: SourceFallback}}

	s := NewSynthesizer(quietLogger(), primary, fallback)
	got, err := s.Synthesize(context.Background(), heuristicContext("a"))

	require.NoError(t, err)
	assert.Equal(t, SourceAI, got.Source)
	assert.Empty(t, got.FellBackFrom)
	assert.Equal(t, 0, fallback.calls, "the fallback is never consulted on success")
}

func TestSynthesizer_FallsBackOnError(t *testing.T) {
	primary := &fakeStrategy{name: "ai", err: errRepoDown}
	fallback := &fakeStrategy{name: "fallback", proposal: &Proposal{Source: SourceFallback}}

	var failed []string
	s := NewSynthesizer(quietLogger(), primary, fallback)
	s.OnFallback(func(name string) { failed = append(failed, name) })

	got, err := s.Synthesize(context.Background(), heuristicContext("a"))

	require.NoError(t, err, "the caller never sees the primary failure")
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, "ai", got.FellBackFrom, "the proposal names the strategy it fell back from")
	assert.Equal(t, []string{"ai"}, failed)
}

func TestSynthesizer_AllStrategiesFail(t *testing.T) {
	s := NewSynthesizer(quietLogger(),
		&fakeStrategy{name: "ai", err: errRepoDown},
		&fakeStrategy{name: "fallback", err: errRepoDown},
	)

	_, err := s.Synthesize(context.Background(), heuristicContext("a"))

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrSynthesisFailure)
}

func TestSynthesizer_WithRealHeuristicNeverFails(t *testing.T) {
	s := NewSynthesizer(quietLogger(),
		&fakeStrategy{name: "ai", err: errRepoDown},
		NewHeuristic(),
	)

	got, err := s.Synthesize(context.Background(), heuristicContext("a", "b"))

	require.NoError(t, err)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Len(t, got.Blocks, 2)
}
