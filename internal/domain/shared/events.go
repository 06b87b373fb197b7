// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - each represents something significant that happened.
const (
	// Completion events. XP and streak changes ride on the completion event
	// itself rather than getting events of their own.
	EventTaskCompleted  EventType = "completion.task_completed"
	EventHabitCompleted EventType = "completion.habit_completed"
	EventBlockCompleted EventType = "completion.block_completed"
	EventStreakAtRisk   EventType = "completion.streak_at_risk"
	EventBadgeAwarded   EventType = "completion.badge_awarded"

	// Planning events
	EventScheduleGenerated EventType = "planning.schedule_generated"
	EventScheduleReplanned EventType = "planning.schedule_replanned"
	EventSynthesisFellBack EventType = "planning.synthesis_fallback"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a published event. Handlers must be safe for
// concurrent invocation.
type EventHandler func(event Event) error

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	UserId      string    `json:"user_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent constructs the common part of an event.
func NewBaseEvent(t EventType, aggregateID string, userID UserID) BaseEvent {
	return BaseEvent{
		Type:        t,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		UserId:      userID.String(),
	}
}

// CompletionEvent is emitted after a completion transaction commits.
type CompletionEvent struct {
	BaseEvent
	XPGained      int    `json:"xp_gained"`
	NewTotalXP    int    `json:"new_total_xp"`
	CurrentStreak int    `json:"current_streak,omitempty"`
	DateKey       string `json:"date_key"`
}

// Payload implements Event interface.
func (e CompletionEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"xp_gained":      e.XPGained,
		"new_total_xp":   e.NewTotalXP,
		"current_streak": e.CurrentStreak,
		"date_key":       e.DateKey,
	}
}

// BadgeAwardedEvent is emitted when a badge is attached to a profile.
type BadgeAwardedEvent struct {
	BaseEvent
	BadgeID   string `json:"badge_id"`
	BadgeName string `json:"badge_name"`
}

// Payload implements Event interface.
func (e BadgeAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"badge_id":   e.BadgeID,
		"badge_name": e.BadgeName,
	}
}

// StreakAtRiskEvent is emitted by the evening sweep for a habit that is due
// today, still incomplete, and carrying a streak that would break at midnight.
type StreakAtRiskEvent struct {
	BaseEvent
	HabitID       string `json:"habit_id"`
	HabitTitle    string `json:"habit_title"`
	CurrentStreak int    `json:"current_streak"`
	DateKey       string `json:"date_key"`
}

// Payload implements Event interface.
func (e StreakAtRiskEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"habit_id":       e.HabitID,
		"habit_title":    e.HabitTitle,
		"current_streak": e.CurrentStreak,
		"date_key":       e.DateKey,
	}
}

// SynthesisFellBackEvent is emitted alongside a generated schedule when the
// primary strategy failed and a later one produced the plan.
type SynthesisFellBackEvent struct {
	BaseEvent
	DateKey        string `json:"date_key"`
	FailedStrategy string `json:"failed_strategy"`
}

// Payload implements Event interface.
func (e SynthesisFellBackEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date_key":        e.DateKey,
		"failed_strategy": e.FailedStrategy,
	}
}

// ScheduleGeneratedEvent is emitted after a plan is reconciled into storage.
type ScheduleGeneratedEvent struct {
	BaseEvent
	DateKey       string `json:"date_key"`
	BlocksCreated int    `json:"blocks_created"`
	Source        string `json:"source"` // "ai" or "fallback"
	Replan        bool   `json:"replan"`
}

// Payload implements Event interface.
func (e ScheduleGeneratedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date_key":       e.DateKey,
		"blocks_created": e.BlocksCreated,
		"source":         e.Source,
		"replan":         e.Replan,
	}
}
