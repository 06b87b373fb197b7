package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/user"
)

func TestUpdatePreferences_MergesOverStored(t *testing.T) {
	users := &stubUserRepo{profile: &user.Profile{
		UserID: "user-1",
		Preferences: user.Preferences{
			WorkHours: "08:00-16:00",
			Timezone:  "Asia/Almaty",
		},
	}}
	h := NewUpdatePreferencesHandler(users, quietLogger())

	prefs, err := h.Handle(context.Background(), UpdatePreferencesCommand{
		UserID:         "user-1",
		EnergyPeak:     "14:00-16:00",
		MaxTasksPerDay: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "14:00-16:00", prefs.EnergyPeak)
	assert.Equal(t, 5, prefs.MaxTasksPerDay)
	assert.Equal(t, "08:00-16:00", prefs.WorkHours, "untouched fields keep their stored value")
	assert.Equal(t, "Asia/Almaty", prefs.Timezone)

	assert.Equal(t, users.profile.Preferences, *prefs, "the merge was persisted")
	assert.False(t, users.profile.UpdatedAt.IsZero())
}

func TestUpdatePreferences_Validation(t *testing.T) {
	h := NewUpdatePreferencesHandler(&stubUserRepo{}, quietLogger())

	tests := []struct {
		name string
		cmd  UpdatePreferencesCommand
	}{
		{"missing user", UpdatePreferencesCommand{}},
		{"unknown timezone", UpdatePreferencesCommand{UserID: "user-1", Timezone: "Broken/Zone"}},
		{"malformed work hours", UpdatePreferencesCommand{UserID: "user-1", WorkHours: "late-ish"}},
		{"inverted energy peak", UpdatePreferencesCommand{UserID: "user-1", EnergyPeak: "16:00-14:00"}},
		{"negative limit", UpdatePreferencesCommand{UserID: "user-1", MaxTasksPerDay: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestUpdatePreferences_UnknownTimezoneClassified(t *testing.T) {
	h := NewUpdatePreferencesHandler(&stubUserRepo{}, quietLogger())

	_, err := h.Handle(context.Background(), UpdatePreferencesCommand{
		UserID: "user-1", Timezone: "Broken/Zone",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidTimezone)
}

func TestUpdatePreferences_UserNotFound(t *testing.T) {
	h := NewUpdatePreferencesHandler(&stubUserRepo{}, quietLogger())

	_, err := h.Handle(context.Background(), UpdatePreferencesCommand{UserID: "user-1"})

	require.Error(t, err)
	assert.True(t, shared.IsUserNotFound(err))
}

func TestUpdatePreferences_StorageFailure(t *testing.T) {
	h := NewUpdatePreferencesHandler(&stubUserRepo{err: errStoreDown}, quietLogger())

	_, err := h.Handle(context.Background(), UpdatePreferencesCommand{UserID: "user-1"})

	assert.ErrorIs(t, err, errStoreDown)
}
