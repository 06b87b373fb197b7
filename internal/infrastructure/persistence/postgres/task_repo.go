package postgres

import (
	"context"
	"fmt"

	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const taskColumns = `id, user_id, title, description, due_at, effort_min, legacy_effort,
	priority, category, is_complete, completed_at, xp_value, course_id, source,
	created_at, updated_at`

// TaskRepository implements task.Repository for PostgreSQL. It works against
// any Querier, so the same code runs standalone or inside a transaction.
type TaskRepository struct {
	q Querier
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(q Querier) *TaskRepository {
	return &TaskRepository{q: q}
}

// GetByID returns a task by ID, scoped to the owning user.
func (r *TaskRepository) GetByID(ctx context.Context, userID shared.UserID, id string) (*task.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1 AND user_id = $2`, taskColumns)

	t, err := scanTask(r.q.QueryRow(ctx, query, id, userID.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListIncomplete returns all incomplete tasks for the user.
func (r *TaskRepository) ListIncomplete(ctx context.Context, userID shared.UserID) ([]*task.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE user_id = $1 AND NOT is_complete
		ORDER BY created_at
	`, taskColumns)

	rows, err := r.q.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update persists changes to a task.
func (r *TaskRepository) Update(ctx context.Context, t *task.Task) error {
	query := `
		UPDATE tasks SET
			title = $1,
			description = $2,
			due_at = $3,
			effort_min = $4,
			legacy_effort = $5,
			priority = $6,
			category = $7,
			is_complete = $8,
			completed_at = $9,
			xp_value = $10,
			course_id = $11,
			source = $12,
			updated_at = $13
		WHERE id = $14 AND user_id = $15
	`

	result, err := r.q.Exec(ctx, query,
		t.Title,
		t.Description,
		t.DueAt,
		t.Effort.Minutes,
		t.Effort.LegacyAmount,
		string(t.Priority),
		t.Category,
		t.IsComplete,
		t.CompletedAt,
		t.XPValue.Int(),
		t.CourseID,
		string(t.Source),
		t.UpdatedAt,
		t.ID,
		t.UserID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrTaskNotFound
	}
	return nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var t task.Task
	var userID, priority, source string
	var xp int

	err := row.Scan(
		&t.ID,
		&userID,
		&t.Title,
		&t.Description,
		&t.DueAt,
		&t.Effort.Minutes,
		&t.Effort.LegacyAmount,
		&priority,
		&t.Category,
		&t.IsComplete,
		&t.CompletedAt,
		&xp,
		&t.CourseID,
		&source,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.UserID = shared.UserID(userID)
	t.Priority = task.Priority(priority)
	t.Source = task.Source(source)
	t.XPValue = shared.XP(xp)
	return &t, nil
}
