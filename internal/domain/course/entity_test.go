package course

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

func TestParseMeetingTimes(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantDays  []time.Weekday
		wantStart timeutil.ClockMinutes
		wantEnd   timeutil.ClockMinutes
		wantErr   error
	}{
		{
			name:      "MWF morning",
			input:     "MWF 10:00 AM - 10:50 AM",
			wantDays:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			wantStart: 600,
			wantEnd:   650,
		},
		{
			name:      "TR afternoon",
			input:     "TR 2:30 PM - 3:45 PM",
			wantDays:  []time.Weekday{time.Tuesday, time.Thursday},
			wantStart: 14*60 + 30,
			wantEnd:   15*60 + 45,
		},
		{
			name:      "lowercase day codes",
			input:     "mwf 9:00 AM - 9:50 AM",
			wantDays:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			wantStart: 540,
			wantEnd:   590,
		},
		{
			name:      "weekend codes",
			input:     "SU 11:00 AM - 12:00 PM",
			wantDays:  []time.Weekday{time.Saturday, time.Sunday},
			wantStart: 660,
			wantEnd:   720,
		},
		{name: "empty", input: "", wantErr: shared.ErrEmptyValue},
		{name: "no time range", input: "MWF", wantErr: shared.ErrInvalidFormat},
		{name: "unknown day code", input: "XYZ 10:00 AM - 11:00 AM", wantErr: shared.ErrInvalidFormat},
		{name: "missing dash separator", input: "MWF 10:00 AM to 11:00 AM", wantErr: shared.ErrInvalidFormat},
		{name: "bad clock", input: "MWF 25:00 AM - 26:00 AM", wantErr: shared.ErrInvalidFormat},
		{name: "inverted range", input: "MWF 11:00 AM - 10:00 AM", wantErr: shared.ErrValueOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMeetingTimes(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDays, got.Days)
			assert.Equal(t, tt.wantStart, got.Start)
			assert.Equal(t, tt.wantEnd, got.End)
		})
	}
}

func TestCommitments_StructuredFieldsWin(t *testing.T) {
	rec := Record{
		CourseID:     "course-1",
		Title:        "Algorithms",
		Days:         []time.Weekday{time.Monday},
		StartTime:    "14:00",
		EndTime:      "15:30",
		MeetingTimes: "TR 9:00 AM - 10:00 AM", // ignored
	}

	got := Commitments(rec)
	require.Len(t, got, 1)
	assert.Equal(t, "course-1", got[0].CourseID)
	assert.Equal(t, []time.Weekday{time.Monday}, got[0].Days)
	assert.Equal(t, timeutil.ClockMinutes(840), got[0].Start)
	assert.Equal(t, timeutil.ClockMinutes(930), got[0].End)
}

func TestCommitments_FallsBackToMeetingString(t *testing.T) {
	rec := Record{
		CourseID:     "course-2",
		Title:        "Databases",
		MeetingTimes: "TR 2:30 PM - 3:45 PM",
	}

	got := Commitments(rec)
	require.Len(t, got, 1)
	assert.Equal(t, "course-2", got[0].CourseID)
	assert.Equal(t, "Databases", got[0].Title)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Thursday}, got[0].Days)
}

func TestCommitments_FailsOpen(t *testing.T) {
	assert.Empty(t, Commitments(Record{MeetingTimes: "not a schedule"}))
	assert.Empty(t, Commitments(Record{
		Days:      []time.Weekday{time.Monday},
		StartTime: "15:00",
		EndTime:   "14:00", // inverted
	}))
	assert.Empty(t, Commitments(Record{}))
}

func TestCommitment_OccursOn(t *testing.T) {
	c := Commitment{Days: []time.Weekday{time.Monday, time.Friday}}
	assert.True(t, c.OccursOn(time.Monday))
	assert.False(t, c.OccursOn(time.Tuesday))
}
