package planner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/pkg/logger"
)

// ReconcileResult reports what a reconciliation did.
type ReconcileResult struct {
	BlocksCreated int
	Rationale     string
	Deferred      []DeferredTask
	Source        string
}

// Reconciler replaces the planned blocks of a date with a fresh proposal.
// Completed blocks survive: replanning is idempotent with respect to
// finished work.
type Reconciler struct {
	blocks schedule.Repository
	log    *logger.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(blocks schedule.Repository, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Default()
	}
	return &Reconciler{
		blocks: blocks,
		log:    log.With(logger.Component("reconciler")),
	}
}

// Reconcile persists the proposal for (user, date) in one atomic batch:
// every planned block for the date is deleted and the proposed blocks are
// inserted, all or nothing. The storage layer's batch guarantee is what rules
// out partial replacement.
func (r *Reconciler) Reconcile(ctx context.Context, pc *Context, proposal *Proposal) (*ReconcileResult, error) {
	now := time.Now().UTC()
	blocks := make([]*schedule.Block, 0, len(proposal.Blocks))
	for _, pb := range proposal.Blocks {
		b := &schedule.Block{
			ID:         uuid.NewString(),
			UserID:     pc.UserID,
			DateKey:    pc.DateKey,
			Start:      pb.Start,
			End:        pb.End,
			Type:       pb.Type,
			TaskID:     pb.TaskID,
			HabitID:    pb.HabitID,
			Status:     schedule.StatusPlanned,
			Reasoning:  pb.Reasoning,
			Confidence: pb.Confidence.Clamp(),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := b.Validate(); err != nil {
			// A proposal that survived schema validation should not produce
			// an invalid block; skip rather than abort the whole plan.
			r.log.Warn("dropping invalid proposed block",
				logger.UserID(pc.UserID.String()), logger.Err(err))
			continue
		}
		blocks = append(blocks, b)
	}

	created, err := r.blocks.ReplacePlanned(ctx, pc.UserID, pc.DateKey, blocks)
	if err != nil {
		return nil, shared.WrapError("planner", "Reconcile", shared.ErrExternalService, "block replacement failed", err)
	}

	r.log.Info("schedule reconciled",
		logger.UserID(pc.UserID.String()),
		logger.DateKey(pc.DateKey.String()),
		logger.Int("blocks_created", created),
		logger.PlanSource(proposal.Source))

	return &ReconcileResult{
		BlocksCreated: created,
		Rationale:     proposal.Rationale,
		Deferred:      proposal.Deferred,
		Source:        proposal.Source,
	}, nil
}
