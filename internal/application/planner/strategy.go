package planner

import (
	"context"
	"time"

	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/pkg/logger"
)

// Plan sources reported alongside proposals.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// ProposedBlock is one time window in a synthesized plan, not yet persisted.
type ProposedBlock struct {
	Start      time.Time
	End        time.Time
	Type       schedule.BlockType
	TaskID     string
	HabitID    string
	Reasoning  string
	Confidence shared.Confidence
}

// Proposal is the ordered output of one synthesis run.
type Proposal struct {
	Blocks    []ProposedBlock
	Rationale string
	Deferred  []DeferredTask
	Source    string

	// FellBackFrom names the strategy that failed before the producing one
	// succeeded. Empty when the first strategy delivered the plan.
	FellBackFrom string
}

// Strategy turns a planning context into a proposal. Implementations must not
// mutate persisted state: synthesis is a pure function of the context apart
// from the network call a strategy may make.
type Strategy interface {
	// Name identifies the strategy in logs and proposal sources.
	Name() string

	// Synthesize produces a proposal for the context.
	Synthesize(ctx context.Context, pc *Context) (*Proposal, error)
}

// Synthesizer runs strategies in fixed order and returns the first proposal.
// The last strategy is expected to be infallible (the deterministic
// heuristic), which is what guarantees a usable plan when the reasoning
// dependency is down: its failures are absorbed here, never surfaced.
type Synthesizer struct {
	strategies []Strategy
	log        *logger.Logger
	onFallback func(failed string) // optional hook for metrics
}

// NewSynthesizer creates a Synthesizer over the given strategy order.
func NewSynthesizer(log *logger.Logger, strategies ...Strategy) *Synthesizer {
	if log == nil {
		log = logger.Default()
	}
	return &Synthesizer{
		strategies: strategies,
		log:        log.With(logger.Component("synthesizer")),
	}
}

// OnFallback registers a hook invoked each time a strategy fails and the next
// one is tried.
func (s *Synthesizer) OnFallback(fn func(failed string)) {
	s.onFallback = fn
}

// Synthesize tries each strategy in order. An error from one strategy demotes
// to the next; only when every strategy fails does an error escape, and with
// the heuristic in last position that does not happen in practice.
func (s *Synthesizer) Synthesize(ctx context.Context, pc *Context) (*Proposal, error) {
	var lastErr error
	var fellBackFrom string
	for _, strat := range s.strategies {
		proposal, err := strat.Synthesize(ctx, pc)
		if err == nil {
			proposal.FellBackFrom = fellBackFrom
			return proposal, nil
		}
		if fellBackFrom == "" {
			fellBackFrom = strat.Name()
		}
		lastErr = err
		s.log.Warn("plan strategy failed, falling back",
			logger.UserID(pc.UserID.String()),
			logger.String("strategy", strat.Name()),
			logger.Err(err))
		if s.onFallback != nil {
			s.onFallback(strat.Name())
		}
	}
	return nil, shared.WrapError("planner", "Synthesize", shared.ErrSynthesisFailure, "all strategies failed", lastErr)
}
