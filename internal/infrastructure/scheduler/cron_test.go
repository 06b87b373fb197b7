package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression_Fields(t *testing.T) {
	tests := []struct {
		name        string
		expr        string
		wantMinutes []int
		wantHours   []int
	}{
		{
			name:        "fixed time",
			expr:        "30 3 * * *",
			wantMinutes: []int{30},
			wantHours:   []int{3},
		},
		{
			name:        "step minutes",
			expr:        "*/15 * * * *",
			wantMinutes: []int{0, 15, 30, 45},
		},
		{
			name:        "minute range",
			expr:        "10-12 * * * *",
			wantMinutes: []int{10, 11, 12},
		},
		{
			name:        "hour list",
			expr:        "0 8,12,20 * * *",
			wantMinutes: []int{0},
			wantHours:   []int{8, 12, 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, err := ParseCronExpression(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, ce.String())
			if tt.wantMinutes != nil {
				assert.Equal(t, tt.wantMinutes, ce.minutes)
			}
			if tt.wantHours != nil {
				assert.Equal(t, tt.wantHours, ce.hours)
			}
		})
	}
}

func TestParseCronExpression_Invalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"* * * *",
		"* * * * * *",
		"60 * * * *",
		"* 24 * * *",
		"x * * * *",
		"*/0 * * * *",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseCronExpression(expr)
			assert.Error(t, err)
		})
	}
}

func TestCronExpression_Next(t *testing.T) {
	nightly := MustParseCronExpression(NightlyReplan)

	// Just before the nightly window.
	from := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	next := nightly.Next(from)
	assert.Equal(t, time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC), next)

	// Just after it rolls to the following day.
	from = time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)
	next = nightly.Next(from)
	assert.Equal(t, time.Date(2026, 3, 3, 3, 30, 0, 0, time.UTC), next)
}

func TestCronExpression_NextStrictlyAfter(t *testing.T) {
	every := MustParseCronExpression(EveryMinute)

	from := time.Date(2026, 3, 2, 10, 15, 30, 0, time.UTC)
	next := every.Next(from)

	assert.True(t, next.After(from))
	assert.Equal(t, 0, next.Second())
	assert.Equal(t, 16, next.Minute())
}

func TestCronExpression_DayFieldsAreANDed(t *testing.T) {
	// With both day fields restricted this implementation requires both to
	// match, unlike classic cron which fires on either. "0 0 1 * 1" therefore
	// means Monday-the-first, not "the 1st or any Monday".
	ce := MustParseCronExpression("0 0 1 * 1")

	assert.False(t, ce.matches(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)), "a plain Monday does not fire")
	assert.False(t, ce.matches(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)), "a plain 1st does not fire")
	assert.True(t, ce.matches(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)), "June 1st 2026 is a Monday")

	next := ce.Next(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestCronExpression_Presets(t *testing.T) {
	for _, preset := range []string{
		EveryMinute, Every15Minutes, EveryHour,
		NightlyReplan, EveningCheckIn, EveryDayNoon, FirstOfMonth,
	} {
		_, err := ParseCronExpression(preset)
		assert.NoError(t, err, preset)
	}
}

func TestMustParseCronExpression_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseCronExpression("not a cron") })
}
