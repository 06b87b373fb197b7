package command

import (
	"context"
	"time"

	"github.com/studyflow/studyflow/internal/application/planner"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE SCHEDULE COMMAND
// The plan path: Aggregator → Synthesizer → Reconciler for one user and one
// date. Replanning is the same invocation for the current date; completed
// blocks survive it.
// ══════════════════════════════════════════════════════════════════════════════

// GenerateScheduleCommand requests a daily plan.
type GenerateScheduleCommand struct {
	UserID shared.UserID

	// Date is the target calendar date. Zero means today.
	Date time.Time

	// Replan marks a regeneration of an existing plan, for event reporting
	// only - the pipeline is identical either way.
	Replan bool
}

// Validate validates the command.
func (c GenerateScheduleCommand) Validate() error {
	if !c.UserID.IsValid() {
		return shared.WrapError("command", "GenerateSchedule", shared.ErrValidation, "user id is required", nil)
	}
	return nil
}

// GenerateScheduleResult is what the plan path returns to the caller.
type GenerateScheduleResult struct {
	Success       bool                   `json:"success"`
	DateKey       string                 `json:"date"`
	BlocksCreated int                    `json:"blocks_created"`
	Rationale     string                 `json:"rationale"`
	Deferred      []planner.DeferredTask `json:"deferred,omitempty"`
	Source        string                 `json:"source"`
}

// GenerateScheduleHandler wires the three planning stages together.
type GenerateScheduleHandler struct {
	aggregator  *planner.Aggregator
	synthesizer *planner.Synthesizer
	reconciler  *planner.Reconciler
	bus         Publisher
	cache       CacheInvalidator
	log         *logger.Logger
}

// NewGenerateScheduleHandler creates the handler. bus and cache may be nil.
func NewGenerateScheduleHandler(
	aggregator *planner.Aggregator,
	synthesizer *planner.Synthesizer,
	reconciler *planner.Reconciler,
	bus Publisher,
	cache CacheInvalidator,
	log *logger.Logger,
) *GenerateScheduleHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GenerateScheduleHandler{
		aggregator:  aggregator,
		synthesizer: synthesizer,
		reconciler:  reconciler,
		bus:         bus,
		cache:       cache,
		log:         log.With(logger.Component("generate_schedule")),
	}
}

// Handle runs the plan path. Synthesis failures never escape: the fallback
// strategy inside the synthesizer absorbs them, so the caller either gets a
// plan or an aggregation/storage error.
func (h *GenerateScheduleHandler) Handle(ctx context.Context, cmd GenerateScheduleCommand) (*GenerateScheduleResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	date := cmd.Date
	if date.IsZero() {
		date = time.Now()
	}

	pc, err := h.aggregator.Aggregate(ctx, cmd.UserID, date)
	if err != nil {
		return nil, err
	}

	proposal, err := h.synthesizer.Synthesize(ctx, pc)
	if err != nil {
		return nil, err
	}

	result, err := h.reconciler.Reconcile(ctx, pc, proposal)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		h.cache.InvalidateSchedule(ctx, cmd.UserID, pc.DateKey)
	}
	if h.bus != nil {
		event := shared.ScheduleGeneratedEvent{
			BaseEvent:     shared.NewBaseEvent(shared.EventScheduleGenerated, pc.DateKey.String(), cmd.UserID),
			DateKey:       pc.DateKey.String(),
			BlocksCreated: result.BlocksCreated,
			Source:        result.Source,
			Replan:        cmd.Replan,
		}
		if cmd.Replan {
			event.Type = shared.EventScheduleReplanned
		}
		if err := h.bus.Publish(ctx, event); err != nil {
			h.log.Warn("event publish failed", logger.Err(err))
		}
		if proposal.FellBackFrom != "" {
			fellBack := shared.SynthesisFellBackEvent{
				BaseEvent:      shared.NewBaseEvent(shared.EventSynthesisFellBack, pc.DateKey.String(), cmd.UserID),
				DateKey:        pc.DateKey.String(),
				FailedStrategy: proposal.FellBackFrom,
			}
			if err := h.bus.Publish(ctx, fellBack); err != nil {
				h.log.Warn("event publish failed", logger.Err(err))
			}
		}
	}

	return &GenerateScheduleResult{
		Success:       true,
		DateKey:       pc.DateKey.String(),
		BlocksCreated: result.BlocksCreated,
		Rationale:     result.Rationale,
		Deferred:      result.Deferred,
		Source:        result.Source,
	}, nil
}
