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

func reconcileContext() *Context {
	return &Context{
		UserID:   "user-1",
		DateKey:  "2026-03-02",
		Day:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Location: time.UTC,
	}
}

func proposedTaskBlock(taskID string, startHour int) ProposedBlock {
	return ProposedBlock{
		Start:      time.Date(2026, 3, 2, startHour, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 3, 2, startHour+1, 0, 0, 0, time.UTC),
		Type:       schedule.BlockTypeTask,
		TaskID:     taskID,
		Reasoning:  "fits the morning",
		Confidence: 0.8,
	}
}

func TestReconcile_PersistsProposal(t *testing.T) {
	repo := &fakeBlockRepo{}
	r := NewReconciler(repo, quietLogger())

	proposal := &Proposal{
		Blocks:    []ProposedBlock{proposedTaskBlock("t1", 9), proposedTaskBlock("t2", 11)},
		Rationale: "two tasks today",
		Source:    SourceAI,
	}

	result, err := r.Reconcile(context.Background(), reconcileContext(), proposal)
	require.NoError(t, err)

	assert.Equal(t, 2, result.BlocksCreated)
	assert.Equal(t, "two tasks today", result.Rationale)
	assert.Equal(t, SourceAI, result.Source)

	require.Len(t, repo.replaced, 2)
	for _, b := range repo.replaced {
		assert.NotEmpty(t, b.ID)
		assert.Equal(t, shared.UserID("user-1"), b.UserID)
		assert.Equal(t, shared.DateKey("2026-03-02"), b.DateKey)
		assert.Equal(t, schedule.StatusPlanned, b.Status)
		assert.NoError(t, b.Validate())
	}
	assert.NotEqual(t, repo.replaced[0].ID, repo.replaced[1].ID)
}

func TestReconcile_DropsInvalidBlocks(t *testing.T) {
	repo := &fakeBlockRepo{}
	r := NewReconciler(repo, quietLogger())

	bad := proposedTaskBlock("t2", 11)
	bad.End = bad.Start.Add(-time.Hour) // inverted window

	proposal := &Proposal{
		Blocks: []ProposedBlock{proposedTaskBlock("t1", 9), bad},
		Source: SourceAI,
	}

	result, err := r.Reconcile(context.Background(), reconcileContext(), proposal)
	require.NoError(t, err, "one bad block must not sink the plan")

	assert.Equal(t, 1, result.BlocksCreated)
	require.Len(t, repo.replaced, 1)
	assert.Equal(t, "t1", repo.replaced[0].TaskID)
}

func TestReconcile_ClampsConfidence(t *testing.T) {
	repo := &fakeBlockRepo{}
	r := NewReconciler(repo, quietLogger())

	overconfident := proposedTaskBlock("t1", 9)
	overconfident.Confidence = 3.7

	_, err := r.Reconcile(context.Background(), reconcileContext(), &Proposal{
		Blocks: []ProposedBlock{overconfident},
		Source: SourceAI,
	})
	require.NoError(t, err)

	require.Len(t, repo.replaced, 1)
	assert.Equal(t, shared.Confidence(1), repo.replaced[0].Confidence)
}

func TestReconcile_StorageFailure(t *testing.T) {
	r := NewReconciler(&fakeBlockRepo{err: errRepoDown}, quietLogger())

	_, err := r.Reconcile(context.Background(), reconcileContext(), &Proposal{
		Blocks: []ProposedBlock{proposedTaskBlock("t1", 9)},
		Source: SourceFallback,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrExternalService)
}

func TestReconcile_EmptyProposal(t *testing.T) {
	repo := &fakeBlockRepo{}
	r := NewReconciler(repo, quietLogger())

	result, err := r.Reconcile(context.Background(), reconcileContext(), &Proposal{Source: SourceFallback})
	require.NoError(t, err)

	assert.Equal(t, 0, result.BlocksCreated)
	assert.Empty(t, repo.replaced)
}
