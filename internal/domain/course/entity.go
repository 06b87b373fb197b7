// Package course contains the read-only commitment model: recurring fixed
// time windows (class meetings) the planner must never schedule over. The
// data comes from external course records, either structured or as a
// fixed-grammar meeting string.
package course

import (
	"strings"
	"time"

	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// Commitment is one recurring fixed window. Read-only to the core.
type Commitment struct {
	CourseID string
	Title    string
	Days     []time.Weekday
	Start    timeutil.ClockMinutes
	End      timeutil.ClockMinutes
}

// OccursOn reports whether the commitment meets on the given weekday.
func (c Commitment) OccursOn(day time.Weekday) bool {
	for _, d := range c.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Record is a course's raw meeting data as supplied by the external source.
// Structured fields win when present; otherwise MeetingTimes is parsed.
type Record struct {
	CourseID string
	Title    string

	// Structured form (per-user override).
	Days      []time.Weekday
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM"

	// Free-text form, e.g. "MWF 10:00 AM - 10:50 AM".
	MeetingTimes string
}

// Commitments derives the commitment windows from a record. Records that
// cannot be interpreted yield no commitments: an unparsable meeting string
// fails open, never fatally, so one bad course cannot sink the whole plan.
func Commitments(rec Record) []Commitment {
	if len(rec.Days) > 0 && rec.StartTime != "" && rec.EndTime != "" {
		start, err := timeutil.ParseClock(rec.StartTime)
		if err != nil {
			return nil
		}
		end, err := timeutil.ParseClock(rec.EndTime)
		if err != nil || end <= start {
			return nil
		}
		return []Commitment{{
			CourseID: rec.CourseID,
			Title:    rec.Title,
			Days:     rec.Days,
			Start:    start,
			End:      end,
		}}
	}

	c, err := ParseMeetingTimes(rec.MeetingTimes)
	if err != nil {
		return nil
	}
	c.CourseID = rec.CourseID
	c.Title = rec.Title
	return []Commitment{c}
}

// ParseMeetingTimes parses the fixed grammar "<day-letters> <start> - <end>",
// e.g. "MWF 10:00 AM - 10:50 AM" or "TR 2:30 PM - 3:45 PM". Day letters are
// single-character weekday codes (M T W R F S U).
func ParseMeetingTimes(s string) (Commitment, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Commitment{}, shared.WrapError("course", "ParseMeetingTimes", shared.ErrEmptyValue, "meeting string is empty", nil)
	}

	dayPart, timePart, found := strings.Cut(s, " ")
	if !found {
		return Commitment{}, shared.WrapError("course", "ParseMeetingTimes", shared.ErrInvalidFormat, "missing time range", nil)
	}

	var days []time.Weekday
	for _, code := range strings.ToUpper(dayPart) {
		day, ok := timeutil.WeekdayFromCode(code)
		if !ok {
			return Commitment{}, shared.WrapError("course", "ParseMeetingTimes", shared.ErrInvalidFormat, "unknown day code "+string(code), nil)
		}
		days = append(days, day)
	}
	if len(days) == 0 {
		return Commitment{}, shared.WrapError("course", "ParseMeetingTimes", shared.ErrInvalidFormat, "no day codes", nil)
	}

	startStr, endStr, found := strings.Cut(timePart, " - ")
	if !found {
		return Commitment{}, shared.WrapError("course", "ParseMeetingTimes", shared.ErrInvalidFormat, "time range must be \"<start> - <end>\"", nil)
	}

	start, err := timeutil.ParseMeetingClock(strings.TrimSpace(startStr))
	if err != nil {
		return Commitment{}, shared.WrapError("course", "ParseMeetingTimes", shared.ErrInvalidFormat, "bad start time", err)
	}
	end, err := timeutil.ParseMeetingClock(strings.TrimSpace(endStr))
	if err != nil {
		return Commitment{}, shared.WrapError("course", "ParseMeetingTimes", shared.ErrInvalidFormat, "bad end time", err)
	}
	if end <= start {
		return Commitment{}, shared.WrapError("course", "ParseMeetingTimes", shared.ErrValueOutOfRange, "end not after start", nil)
	}

	return Commitment{Days: days, Start: start, End: end}, nil
}
