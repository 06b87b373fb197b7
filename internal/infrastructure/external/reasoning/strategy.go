package reasoning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyflow/studyflow/internal/application/planner"
	"github.com/studyflow/studyflow/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRIMARY PLAN STRATEGY
// ══════════════════════════════════════════════════════════════════════════════

// selectionPolicy is the instruction block sent with every plan request.
const selectionPolicy = `Plan one day for a student. Choose 5-7 items total and include 1-2 habits.
Respect the max_work_minutes budget. Never overlap a commitment window.
Prefer a quick win (under 30 minutes) as the first block. Place higher-focus
items inside the stated energy peak. Insert roughly 15-minute breaks between
demanding items. Do not schedule anything from deferred_overdue unless it is
marked critical. Return only JSON matching the output schema.`

// Strategy implements planner.Strategy against the reasoning service.
type Strategy struct {
	client *Client
	mapper *Mapper
	logger *slog.Logger
}

// NewStrategy creates the primary strategy.
func NewStrategy(client *Client, mapper *Mapper, logger *slog.Logger) *Strategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Strategy{client: client, mapper: mapper, logger: logger}
}

// Name implements planner.Strategy.
func (s *Strategy) Name() string { return planner.SourceAI }

// Synthesize implements planner.Strategy. Every error return here is wrapped
// as a synthesis failure, which the synthesizer absorbs by falling back.
func (s *Strategy) Synthesize(ctx context.Context, pc *planner.Context) (*planner.Proposal, error) {
	started := time.Now()

	raw, err := s.client.GeneratePlan(ctx, s.buildRequest(pc))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, shared.WrapError("reasoning", "Synthesize", shared.ErrReasoningTimeout, "plan request timed out", err)
		}
		return nil, shared.WrapError("reasoning", "Synthesize", shared.ErrSynthesisFailure, "plan request failed", err)
	}

	proposal, err := s.mapper.MapProposal(raw, pc)
	if err != nil {
		return nil, shared.WrapError("reasoning", "Synthesize", shared.ErrReasoningResponse, "plan response rejected", err)
	}

	s.logger.Debug("reasoning plan accepted",
		"user_id", pc.UserID.String(),
		"blocks", len(proposal.Blocks),
		"latency", time.Since(started))
	return proposal, nil
}

// buildRequest serializes the planning context for the service.
func (s *Strategy) buildRequest(pc *planner.Context) PlanRequestDTO {
	tasks := make([]TaskDTO, 0, len(pc.Tasks))
	for _, t := range pc.Tasks {
		dto := TaskDTO{
			ID:       t.ID,
			Title:    t.Title,
			Priority: string(t.Priority),
			Category: t.Category,
			Minutes:  t.Minutes,
		}
		if t.DueAt != nil {
			dto.DueAt = t.DueAt.In(pc.Location).Format(time.RFC3339)
		}
		tasks = append(tasks, dto)
	}

	habits := make([]HabitDTO, 0, len(pc.Habits))
	for _, h := range pc.Habits {
		habits = append(habits, HabitDTO{
			ID:      h.ID,
			Title:   h.Title,
			Minutes: h.DurationMinutes,
			Streak:  h.CurrentStreak,
		})
	}

	commitments := make([]CommitmentDTO, 0, len(pc.Commitments))
	for _, c := range pc.Commitments {
		commitments = append(commitments, CommitmentDTO{
			Title: c.Title,
			Start: c.Start.String(),
			End:   c.End.String(),
		})
	}

	deferred := make([]DeferredDTO, 0, len(pc.DeferredOverdue))
	for _, d := range pc.DeferredOverdue {
		deferred = append(deferred, DeferredDTO{ID: d.ID, Title: d.Title, Reason: d.Reason})
	}

	return PlanRequestDTO{
		Prompt: fmt.Sprintf("%s\nTarget date: %s.", selectionPolicy, pc.DateKey.String()),
		Context: PlanContextDTO{
			Date:        pc.DateKey.String(),
			Timezone:    pc.Preferences.Timezone,
			WorkHours:   pc.Preferences.WorkHours,
			EnergyPeak:  pc.Preferences.EnergyPeak,
			MaxMinutes:  pc.Preferences.MaxWorkMinutes,
			MaxTasks:    pc.Preferences.MaxTasksPerDay,
			Tasks:       tasks,
			Habits:      habits,
			Commitments: commitments,
			Deferred:    deferred,
		},
		OutputSchema: s.mapper.OutputSchema(),
	}
}
