// Package timeutil provides date-key and time-of-day utilities for the
// StudyFlow planner. Every user carries their own IANA time zone, so all
// helpers here take an explicit *time.Location instead of assuming one.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Common date/time formats.
const (
	// FormatDateKey is the calendar-day identifier format (YYYY-MM-DD).
	FormatDateKey = "2006-01-02"
	// FormatClock is the wall-clock format used in preferences (HH:MM).
	FormatClock = "15:04"
	// FormatMeetingClock is the clock format used in free-text meeting
	// strings ("10:00 AM").
	FormatMeetingClock = "3:04 PM"
)

// DefaultZone is used when a user has no configured time zone.
var DefaultZone = time.UTC

// LoadZone resolves an IANA zone name, falling back to DefaultZone when the
// name is empty or unknown.
func LoadZone(name string) *time.Location {
	if name == "" {
		return DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return DefaultZone
	}
	return loc
}

// DateKey returns the calendar-day identifier for t in the given zone.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(FormatDateKey)
}

// ParseDateKey parses a YYYY-MM-DD date key as midnight in the given zone.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(FormatDateKey, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid date key %q: %w", key, err)
	}
	return t, nil
}

// PreviousDateKey returns the date key of the calendar day before the given
// key. The input must be a valid date key.
func PreviousDateKey(key string) string {
	t, err := ParseDateKey(key, time.UTC)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(FormatDateKey)
}

// NextDateKey returns the date key of the calendar day after the given key.
func NextDateKey(key string) string {
	t, err := ParseDateKey(key, time.UTC)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(FormatDateKey)
}

// StartOfDay returns midnight of t's calendar day in the given zone.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last nanosecond of t's calendar day in the given zone.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, loc)
}

// IsSameDay reports whether two instants fall on the same calendar day in the
// given zone.
func IsSameDay(t1, t2 time.Time, loc *time.Location) bool {
	a, b := t1.In(loc), t2.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DaysBetween returns the absolute number of calendar days between two
// instants in the given zone.
func DaysBetween(t1, t2 time.Time, loc *time.Location) int {
	days := dayNumber(t2, loc) - dayNumber(t1, loc)
	if days < 0 {
		days = -days
	}
	return days
}

// DaysOverdue returns how many whole calendar days past due the instant is at
// now. Zero when due is today or in the future.
func DaysOverdue(due, now time.Time, loc *time.Location) int {
	days := dayNumber(now, loc) - dayNumber(due, loc)
	if days < 0 {
		return 0
	}
	return days
}

// dayNumber maps an instant to its calendar day counted from the Unix epoch.
// The local date is re-anchored at UTC midnight before dividing, because a DST
// transition makes a local day 23 or 25 hours long and duration division would
// miscount across it.
func dayNumber(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return int(midnight.Unix() / 86400)
}

// ClockMinutes holds a wall-clock time as minutes since midnight. It is the
// normalized form of "HH:MM" preference strings and commitment windows.
type ClockMinutes int

// ParseClock parses an "HH:MM" string into minutes since midnight.
func ParseClock(s string) (ClockMinutes, error) {
	t, err := time.Parse(FormatClock, s)
	if err != nil {
		return 0, fmt.Errorf("timeutil: invalid clock time %q: %w", s, err)
	}
	return ClockMinutes(t.Hour()*60 + t.Minute()), nil
}

// ParseWindow parses an "HH:MM-HH:MM" window into its start and end clocks.
// The end must be strictly after the start.
func ParseWindow(s string) (ClockMinutes, ClockMinutes, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("timeutil: invalid window %q: want HH:MM-HH:MM", s)
	}
	start, err := ParseClock(strings.TrimSpace(startStr))
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClock(strings.TrimSpace(endStr))
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("timeutil: invalid window %q: end not after start", s)
	}
	return start, end, nil
}

// ParseMeetingClock parses a "3:04 PM" style clock string into minutes since
// midnight.
func ParseMeetingClock(s string) (ClockMinutes, error) {
	t, err := time.Parse(FormatMeetingClock, s)
	if err != nil {
		return 0, fmt.Errorf("timeutil: invalid meeting time %q: %w", s, err)
	}
	return ClockMinutes(t.Hour()*60 + t.Minute()), nil
}

// String formats the clock minutes back into "HH:MM".
func (c ClockMinutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// At anchors the wall-clock time onto the given calendar day in its zone.
func (c ClockMinutes) At(day time.Time, loc *time.Location) time.Time {
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), int(c)/60, int(c)%60, 0, 0, loc)
}

// Weekday letter codes used by free-text meeting strings. "R" is Thursday and
// "U" is Sunday, the common US registrar convention.
var weekdayByCode = map[rune]time.Weekday{
	'M': time.Monday,
	'T': time.Tuesday,
	'W': time.Wednesday,
	'R': time.Thursday,
	'F': time.Friday,
	'S': time.Saturday,
	'U': time.Sunday,
}

// WeekdayFromCode resolves a single-character weekday code.
func WeekdayFromCode(code rune) (time.Weekday, bool) {
	d, ok := weekdayByCode[code]
	return d, ok
}
