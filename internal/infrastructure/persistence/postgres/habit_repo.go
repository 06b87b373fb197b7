package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studyflow/studyflow/internal/domain/habit"
	"github.com/studyflow/studyflow/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HABIT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const habitColumns = `id, user_id, title, frequency, target_days, duration_minutes,
	xp_value, current_streak, longest_streak, total_done, history, is_active,
	created_at, updated_at`

// HabitRepository implements habit.Repository for PostgreSQL. Target days and
// the completion history are stored as JSONB.
type HabitRepository struct {
	q Querier
}

// NewHabitRepository creates a new HabitRepository.
func NewHabitRepository(q Querier) *HabitRepository {
	return &HabitRepository{q: q}
}

// GetByID returns a habit by ID, scoped to the owning user.
func (r *HabitRepository) GetByID(ctx context.Context, userID shared.UserID, id string) (*habit.Habit, error) {
	query := fmt.Sprintf(`SELECT %s FROM habits WHERE id = $1 AND user_id = $2`, habitColumns)

	h, err := scanHabit(r.q.QueryRow(ctx, query, id, userID.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrHabitNotFound
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return h, nil
}

// ListActive returns all active habits for the user.
func (r *HabitRepository) ListActive(ctx context.Context, userID shared.UserID) ([]*habit.Habit, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM habits
		WHERE user_id = $1 AND is_active
		ORDER BY created_at
	`, habitColumns)

	rows, err := r.q.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []*habit.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// Update persists changes to a habit, including streaks and history.
func (r *HabitRepository) Update(ctx context.Context, h *habit.Habit) error {
	daysJSON, err := json.Marshal(weekdaysToInts(h.TargetDays))
	if err != nil {
		return fmt.Errorf("failed to marshal target days: %w", err)
	}
	historyJSON, err := json.Marshal(historyToKeys(h.History))
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `
		UPDATE habits SET
			title = $1,
			frequency = $2,
			target_days = $3,
			duration_minutes = $4,
			xp_value = $5,
			current_streak = $6,
			longest_streak = $7,
			total_done = $8,
			history = $9,
			is_active = $10,
			updated_at = $11
		WHERE id = $12 AND user_id = $13
	`

	result, err := r.q.Exec(ctx, query,
		h.Title,
		string(h.Frequency),
		daysJSON,
		h.DurationMinutes,
		h.XPValue.Int(),
		h.CurrentStreak,
		h.LongestStreak,
		h.TotalDone,
		historyJSON,
		h.IsActive,
		h.UpdatedAt,
		h.ID,
		h.UserID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrHabitNotFound
	}
	return nil
}

func scanHabit(row rowScanner) (*habit.Habit, error) {
	var h habit.Habit
	var userID, frequency string
	var xp int
	var daysJSON, historyJSON []byte

	err := row.Scan(
		&h.ID,
		&userID,
		&h.Title,
		&frequency,
		&daysJSON,
		&h.DurationMinutes,
		&xp,
		&h.CurrentStreak,
		&h.LongestStreak,
		&h.TotalDone,
		&historyJSON,
		&h.IsActive,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var days []int
	if err := json.Unmarshal(daysJSON, &days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal target days: %w", err)
	}
	var keys []string
	if err := json.Unmarshal(historyJSON, &keys); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	h.UserID = shared.UserID(userID)
	h.Frequency = habit.Frequency(frequency)
	h.XPValue = shared.XP(xp)
	h.TargetDays = intsToWeekdays(days)
	h.History = keysToHistory(keys)
	return &h, nil
}

func weekdaysToInts(days []time.Weekday) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, int(d))
	}
	return out
}

func intsToWeekdays(days []int) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}

func historyToKeys(history map[shared.DateKey]struct{}) []string {
	out := make([]string, 0, len(history))
	for k := range history {
		out = append(out, k.String())
	}
	return out
}

func keysToHistory(keys []string) map[shared.DateKey]struct{} {
	out := make(map[shared.DateKey]struct{}, len(keys))
	for _, k := range keys {
		out[shared.DateKey(k)] = struct{}{}
	}
	return out
}
