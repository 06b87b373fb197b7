// Package query contains read operations (CQRS - Queries): daily schedule
// views and progress summaries. Queries never mutate domain state.
package query

import (
	"context"

	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/pkg/logger"
)

// ScheduleCache is a read-through cache for daily schedule views. A miss is
// not an error; Set failures are swallowed by implementations.
type ScheduleCache interface {
	GetSchedule(ctx context.Context, userID shared.UserID, key shared.DateKey) ([]*schedule.Block, bool)
	SetSchedule(ctx context.Context, userID shared.UserID, key shared.DateKey, blocks []*schedule.Block)
}

// GetDailyScheduleQuery asks for one user's blocks on one date.
type GetDailyScheduleQuery struct {
	UserID  shared.UserID
	DateKey shared.DateKey
}

// Validate validates the query.
func (q GetDailyScheduleQuery) Validate() error {
	if !q.UserID.IsValid() {
		return shared.WrapError("query", "GetDailySchedule", shared.ErrValidation, "user id is required", nil)
	}
	if !q.DateKey.IsValid() {
		return shared.WrapError("query", "GetDailySchedule", shared.ErrValidation, "date must be YYYY-MM-DD", nil)
	}
	return nil
}

// DailyScheduleView is the read model returned to callers.
type DailyScheduleView struct {
	DateKey string            `json:"date"`
	Blocks  []*schedule.Block `json:"blocks"`
}

// GetDailyScheduleHandler serves schedule reads, cache first.
type GetDailyScheduleHandler struct {
	blocks schedule.Repository
	cache  ScheduleCache
	log    *logger.Logger
}

// NewGetDailyScheduleHandler creates the handler. cache may be nil.
func NewGetDailyScheduleHandler(blocks schedule.Repository, cache ScheduleCache, log *logger.Logger) *GetDailyScheduleHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetDailyScheduleHandler{
		blocks: blocks,
		cache:  cache,
		log:    log.With(logger.Component("get_daily_schedule")),
	}
}

// Handle returns the user's blocks for the date, ordered by start time.
func (h *GetDailyScheduleHandler) Handle(ctx context.Context, q GetDailyScheduleQuery) (*DailyScheduleView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		if blocks, ok := h.cache.GetSchedule(ctx, q.UserID, q.DateKey); ok {
			return &DailyScheduleView{DateKey: q.DateKey.String(), Blocks: blocks}, nil
		}
	}

	blocks, err := h.blocks.ListByDate(ctx, q.UserID, q.DateKey)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		h.cache.SetSchedule(ctx, q.UserID, q.DateKey, blocks)
	}
	return &DailyScheduleView{DateKey: q.DateKey.String(), Blocks: blocks}, nil
}
