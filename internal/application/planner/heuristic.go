package planner

import (
	"context"
	"fmt"

	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// heuristicSlot is one fixed window of the fallback day.
type heuristicSlot struct {
	start timeutil.ClockMinutes
	end   timeutil.ClockMinutes
}

// heuristicSlots is the constant ordered slot list the fallback fills. Five
// slots, morning-weighted, with gaps that double as breaks.
var heuristicSlots = []heuristicSlot{
	{start: 9 * 60, end: 10 * 60},            // 09:00 - 10:00
	{start: 10*60 + 15, end: 11*60 + 15},     // 10:15 - 11:15
	{start: 13 * 60, end: 14 * 60},           // 13:00 - 14:00
	{start: 14*60 + 15, end: 15*60 + 15},     // 14:15 - 15:15
	{start: 16 * 60, end: 17 * 60},           // 16:00 - 17:00
}

// heuristicConfidence is the fixed confidence label for fallback blocks, low
// enough that a UI can distinguish them from reasoned plans.
const heuristicConfidence = 0.3

// Heuristic is the deterministic fallback strategy: top tasks in context
// order, one per fixed slot, no randomness anywhere. Identical contexts
// produce identical proposals.
type Heuristic struct{}

// NewHeuristic creates the fallback strategy.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name implements Strategy.
func (h *Heuristic) Name() string { return SourceFallback }

// Synthesize implements Strategy. It never fails.
func (h *Heuristic) Synthesize(_ context.Context, pc *Context) (*Proposal, error) {
	n := len(pc.Tasks)
	if n > len(heuristicSlots) {
		n = len(heuristicSlots)
	}

	blocks := make([]ProposedBlock, 0, n)
	for i := 0; i < n; i++ {
		t := pc.Tasks[i]
		slot := heuristicSlots[i]
		blocks = append(blocks, ProposedBlock{
			Start:      slot.start.At(pc.Day, pc.Location),
			End:        slot.end.At(pc.Day, pc.Location),
			Type:       schedule.BlockTypeTask,
			TaskID:     t.ID,
			Reasoning:  fmt.Sprintf("Scheduled %q in the %s slot by due-date order.", t.Title, slot.start),
			Confidence: heuristicConfidence,
		})
	}

	rationale := fmt.Sprintf(
		"Fallback plan: %d task(s) placed into fixed focus slots in due-date order. "+
			"Generated without AI assistance.", len(blocks))

	return &Proposal{
		Blocks:    blocks,
		Rationale: rationale,
		Deferred:  pc.DeferredOverdue,
		Source:    SourceFallback,
	}, nil
}
