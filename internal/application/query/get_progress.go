package query

import (
	"context"

	"github.com/studyflow/studyflow/internal/domain/habit"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/pkg/logger"
)

// GetProgressQuery asks for a user's gamification summary.
type GetProgressQuery struct {
	UserID shared.UserID
}

// Validate validates the query.
func (q GetProgressQuery) Validate() error {
	if !q.UserID.IsValid() {
		return shared.WrapError("query", "GetProgress", shared.ErrValidation, "user id is required", nil)
	}
	return nil
}

// HabitProgress is the per-habit slice of the summary.
type HabitProgress struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	TotalDone     int    `json:"total_done"`
}

// ProgressView is the read model for XP, badges and streaks.
type ProgressView struct {
	TotalXP int             `json:"total_xp"`
	Badges  []user.Badge    `json:"badges"`
	Habits  []HabitProgress `json:"habits"`
}

// GetProgressHandler serves progress reads.
type GetProgressHandler struct {
	users  user.Repository
	habits habit.Repository
	log    *logger.Logger
}

// NewGetProgressHandler creates the handler.
func NewGetProgressHandler(users user.Repository, habits habit.Repository, log *logger.Logger) *GetProgressHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetProgressHandler{
		users:  users,
		habits: habits,
		log:    log.With(logger.Component("get_progress")),
	}
}

// Handle assembles the summary from the profile and active habits.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*ProgressView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	profile, err := h.users.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	view := &ProgressView{
		TotalXP: profile.TotalXP.Int(),
		Badges:  profile.Badges,
	}

	habits, err := h.habits.ListActive(ctx, q.UserID)
	if err != nil {
		h.log.Warn("habit fetch failed, returning profile-only progress",
			logger.UserID(q.UserID.String()), logger.Err(err))
		return view, nil
	}
	for _, hb := range habits {
		view.Habits = append(view.Habits, HabitProgress{
			ID:            hb.ID,
			Title:         hb.Title,
			CurrentStreak: hb.CurrentStreak,
			LongestStreak: hb.LongestStreak,
			TotalDone:     hb.TotalDone,
		})
	}
	return view, nil
}
