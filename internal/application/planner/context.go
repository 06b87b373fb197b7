// Package planner implements the adaptive scheduling pipeline: aggregating a
// bounded planning context, synthesizing a daily plan through an ordered list
// of strategies, and reconciling the result against persisted blocks.
package planner

import (
	"context"
	"sort"
	"time"

	"github.com/studyflow/studyflow/internal/domain/course"
	"github.com/studyflow/studyflow/internal/domain/habit"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/task"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/pkg/logger"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// Bounds keeping the context small enough for a single reasoning request.
const (
	// maxContextTasks caps the active task list handed to synthesis.
	maxContextTasks = 20

	// maxOverdueDays is how far past due a task may be before it is deferred
	// out of active scheduling instead of competing for today's plan.
	maxOverdueDays = 14
)

// ContextTask is a task normalized for planning: effort already resolved to
// minutes, ordering already decided.
type ContextTask struct {
	ID       string
	Title    string
	Priority task.Priority
	Category string
	DueAt    *time.Time
	Minutes  int
	XPValue  int
}

// DeferredTask is an overdue task excluded from active scheduling, surfaced
// separately so callers can show it without scheduling pressure.
type DeferredTask struct {
	ID     string
	Title  string
	Reason string
}

// ContextHabit is a habit exposed to planning as-is.
type ContextHabit struct {
	ID              string
	Title           string
	DurationMinutes int
	CurrentStreak   int
	XPValue         int
}

// Context is the bounded, normalized planning input for one user and one
// calendar date.
type Context struct {
	UserID          shared.UserID
	DateKey         shared.DateKey
	Day             time.Time // midnight of the target date in the user's zone
	Location        *time.Location
	Tasks           []ContextTask
	DeferredOverdue []DeferredTask
	Habits          []ContextHabit
	Commitments     []course.Commitment
	Preferences     user.Preferences
}

// AggregatorConfig carries the tunables the aggregator needs.
type AggregatorConfig struct {
	// LegacyEffortHoursMax is the threshold below which a legacy effort
	// number is read as hours. Arbitrary but preserved from the data it
	// inherits; see the task.Effort docs.
	LegacyEffortHoursMax float64

	// Defaults are merged under user preferences.
	Defaults user.Preferences
}

// DefaultAggregatorConfig returns the documented planner defaults.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		LegacyEffortHoursMax: 12,
		Defaults:             user.DefaultPreferences(),
	}
}

// Aggregator builds planning contexts from persisted state.
type Aggregator struct {
	tasks   task.Repository
	habits  habit.Repository
	courses course.Repository
	users   user.Repository
	config  AggregatorConfig
	log     *logger.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(
	tasks task.Repository,
	habits habit.Repository,
	courses course.Repository,
	users user.Repository,
	config AggregatorConfig,
	log *logger.Logger,
) *Aggregator {
	if log == nil {
		log = logger.Default()
	}
	return &Aggregator{
		tasks:   tasks,
		habits:  habits,
		courses: courses,
		users:   users,
		config:  config,
		log:     log.With(logger.Component("aggregator")),
	}
}

// Aggregate builds the planning context for one user and date. Only a failed
// profile read is fatal; task, habit and commitment failures degrade to empty
// lists so a partial context still produces a plan.
func (a *Aggregator) Aggregate(ctx context.Context, userID shared.UserID, targetDate time.Time) (*Context, error) {
	profile, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("planner", "Aggregate", shared.ErrAggregation, "profile unreadable", err)
	}

	prefs := profile.Preferences.Merge(a.config.Defaults)
	loc := prefs.Location()
	day := timeutil.StartOfDay(targetDate, loc)
	dateKey := shared.DateKey(timeutil.DateKey(day, loc))

	pc := &Context{
		UserID:      userID,
		DateKey:     dateKey,
		Day:         day,
		Location:    loc,
		Preferences: prefs,
	}

	a.collectTasks(ctx, pc, day)
	a.collectHabits(ctx, pc)
	a.collectCommitments(ctx, pc, day.Weekday())

	return pc, nil
}

// collectTasks fetches incomplete tasks, normalizes effort, defers the deeply
// overdue, sorts by due date and caps the list.
func (a *Aggregator) collectTasks(ctx context.Context, pc *Context, day time.Time) {
	all, err := a.tasks.ListIncomplete(ctx, pc.UserID)
	if err != nil {
		a.log.Warn("task fetch failed, planning without tasks",
			logger.UserID(pc.UserID.String()), logger.Err(err))
		return
	}

	var active []*task.Task
	for _, t := range all {
		if t.DueAt != nil {
			overdue := timeutil.DaysOverdue(*t.DueAt, day, pc.Location)
			if overdue > maxOverdueDays {
				pc.DeferredOverdue = append(pc.DeferredOverdue, DeferredTask{
					ID:     t.ID,
					Title:  t.Title,
					Reason: "overdue by more than 14 days; review or reschedule manually",
				})
				continue
			}
		}
		active = append(active, t)
	}

	// Due date ascending, undated last; SliceStable keeps fetch order for ties.
	sort.SliceStable(active, func(i, j int) bool {
		di, dj := active[i].DueAt, active[j].DueAt
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})

	if len(active) > maxContextTasks {
		active = active[:maxContextTasks]
	}

	for _, t := range active {
		pc.Tasks = append(pc.Tasks, ContextTask{
			ID:       t.ID,
			Title:    t.Title,
			Priority: t.Priority,
			Category: t.Category,
			DueAt:    t.DueAt,
			Minutes:  t.Effort.Resolve(a.config.LegacyEffortHoursMax),
			XPValue:  t.XPValue.Int(),
		})
	}
}

// collectHabits fetches active habits; nothing is computed here beyond
// exposing current fields.
func (a *Aggregator) collectHabits(ctx context.Context, pc *Context) {
	habits, err := a.habits.ListActive(ctx, pc.UserID)
	if err != nil {
		a.log.Warn("habit fetch failed, planning without habits",
			logger.UserID(pc.UserID.String()), logger.Err(err))
		return
	}
	for _, h := range habits {
		if !h.DueOn(pc.Day.Weekday()) {
			continue
		}
		pc.Habits = append(pc.Habits, ContextHabit{
			ID:              h.ID,
			Title:           h.Title,
			DurationMinutes: h.DurationMinutes,
			CurrentStreak:   h.CurrentStreak,
			XPValue:         h.XPValue.Int(),
		})
	}
}

// collectCommitments derives today's fixed windows from course records.
// Unparsable records contribute nothing (fail open inside course.Commitments).
func (a *Aggregator) collectCommitments(ctx context.Context, pc *Context, weekday time.Weekday) {
	records, err := a.courses.ListByUser(ctx, pc.UserID)
	if err != nil {
		a.log.Warn("course fetch failed, planning without commitments",
			logger.UserID(pc.UserID.String()), logger.Err(err))
		return
	}
	for _, rec := range records {
		for _, c := range course.Commitments(rec) {
			if c.OccursOn(weekday) {
				pc.Commitments = append(pc.Commitments, c)
			}
		}
	}
}
