package command

import (
	"context"
	"time"

	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/pkg/logger"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// UpdatePreferencesCommand changes a user's planning settings. Empty or zero
// fields leave the current value untouched.
type UpdatePreferencesCommand struct {
	UserID         shared.UserID
	WorkHours      string
	EnergyPeak     string
	MaxTasksPerDay int
	MaxWorkMinutes int
	Timezone       string
}

// Validate validates the command.
func (c UpdatePreferencesCommand) Validate() error {
	if !c.UserID.IsValid() {
		return shared.WrapError("command", "UpdatePreferences", shared.ErrValidation, "user id is required", nil)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return shared.WrapError("command", "UpdatePreferences", shared.ErrValidation, "unknown timezone", shared.ErrInvalidTimezone)
		}
	}
	for _, window := range []string{c.WorkHours, c.EnergyPeak} {
		if window == "" {
			continue
		}
		if _, _, err := timeutil.ParseWindow(window); err != nil {
			return shared.WrapError("command", "UpdatePreferences", shared.ErrValidation, "invalid time window", err)
		}
	}
	if c.MaxTasksPerDay < 0 || c.MaxWorkMinutes < 0 {
		return shared.WrapError("command", "UpdatePreferences", shared.ErrValidation, "limits must be non-negative", nil)
	}
	return nil
}

// UpdatePreferencesHandler persists preference changes.
type UpdatePreferencesHandler struct {
	users user.Repository
	log   *logger.Logger
}

// NewUpdatePreferencesHandler creates the handler.
func NewUpdatePreferencesHandler(users user.Repository, log *logger.Logger) *UpdatePreferencesHandler {
	if log == nil {
		log = logger.Default()
	}
	return &UpdatePreferencesHandler{
		users: users,
		log:   log.With(logger.Component("update_preferences")),
	}
}

// Handle merges the submitted fields over the stored preferences and saves.
func (h *UpdatePreferencesHandler) Handle(ctx context.Context, cmd UpdatePreferencesCommand) (*user.Preferences, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	profile, err := h.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	submitted := user.Preferences{
		WorkHours:      cmd.WorkHours,
		EnergyPeak:     cmd.EnergyPeak,
		MaxTasksPerDay: cmd.MaxTasksPerDay,
		MaxWorkMinutes: cmd.MaxWorkMinutes,
		Timezone:       cmd.Timezone,
	}
	profile.Preferences = submitted.Merge(profile.Preferences)
	profile.UpdatedAt = time.Now().UTC()

	if err := h.users.Update(ctx, profile); err != nil {
		return nil, err
	}

	h.log.Info("preferences updated", logger.UserID(cmd.UserID.String()))
	prefs := profile.Preferences
	return &prefs, nil
}
