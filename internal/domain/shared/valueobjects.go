// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID identifies the owning user of every entity. It is issued by the
// external identity provider and trusted as-is; the core only scopes queries
// and mutations by it.
type UserID string

// IsValid checks that the user ID is non-empty and printable.
func (u UserID) IsValid() bool {
	s := string(u)
	return len(s) > 0 && len(s) <= 128 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// NewUserID creates a UserID with validation.
func NewUserID(id string) (UserID, error) {
	u := UserID(strings.TrimSpace(id))
	if !u.IsValid() {
		return "", ErrInvalidID
	}
	return u, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Date Keys
// ═══════════════════════════════════════════════════════════════════════════

// dateKeyRegex matches the YYYY-MM-DD calendar-day identifier.
var dateKeyRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateKey is a calendar-day identifier (YYYY-MM-DD) in the user's configured
// zone. Streak and completion-history membership is keyed by it.
type DateKey string

// IsValid checks the date-key format.
func (d DateKey) IsValid() bool {
	return dateKeyRegex.MatchString(string(d))
}

// String returns the string representation.
func (d DateKey) String() string {
	return string(d)
}

// NewDateKey creates a DateKey with validation.
func NewDateKey(key string) (DateKey, error) {
	d := DateKey(strings.TrimSpace(key))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: date key %q", ErrInvalidFormat, key)
	}
	return d, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points. Totals are monotonically non-decreasing
// under normal operation: the core only ever adds.
type XP int

// IsValid checks that the XP value is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add returns the sum of two XP values.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// ═══════════════════════════════════════════════════════════════════════════
// Confidence
// ═══════════════════════════════════════════════════════════════════════════

// Confidence is the synthesizer's self-reported confidence in a block, 0.0-1.0.
type Confidence float64

// IsValid checks the confidence range.
func (c Confidence) IsValid() bool {
	return c >= 0.0 && c <= 1.0
}

// Clamp forces the value into the valid range.
func (c Confidence) Clamp() Confidence {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
