package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const blockColumns = `id, user_id, date_key, start_at, end_at, block_type,
	task_id, habit_id, status, reasoning, confidence, created_at, updated_at`

// txRunner executes a function inside one database transaction. *Connection is
// the production implementation; having the seam lets tests observe the exact
// statements ReplacePlanned issues.
type txRunner interface {
	WithTx(ctx context.Context, opts TxOptions, fn func(pgx.Tx) error) error
}

// ScheduleRepository implements schedule.Repository for PostgreSQL.
type ScheduleRepository struct {
	runner txRunner
	q      Querier
}

// NewScheduleRepository creates a new ScheduleRepository. ReplacePlanned needs
// the connection for its own transaction; reads go through the Querier.
func NewScheduleRepository(conn *Connection) *ScheduleRepository {
	return &ScheduleRepository{runner: conn, q: conn}
}

// GetByID returns a block by ID, scoped to the owning user.
func (r *ScheduleRepository) GetByID(ctx context.Context, userID shared.UserID, id string) (*schedule.Block, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_blocks WHERE id = $1 AND user_id = $2`, blockColumns)

	b, err := scanBlock(r.q.QueryRow(ctx, query, id, userID.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrBlockNotFound
		}
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	return b, nil
}

// ListByDate returns all blocks for the user and date, ordered by start.
func (r *ScheduleRepository) ListByDate(ctx context.Context, userID shared.UserID, key shared.DateKey) ([]*schedule.Block, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM schedule_blocks
		WHERE user_id = $1 AND date_key = $2
		ORDER BY start_at
	`, blockColumns)

	rows, err := r.q.Query(ctx, query, userID.String(), key.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*schedule.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// ReplacePlanned atomically swaps the planned blocks of (user, date) for the
// given set. The delete's status predicate leaves completed blocks alone, so
// a completion committing between plan and replan is never clobbered.
func (r *ScheduleRepository) ReplacePlanned(ctx context.Context, userID shared.UserID, key shared.DateKey, blocks []*schedule.Block) (int, error) {
	created := 0
	err := r.runner.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM schedule_blocks
			WHERE user_id = $1 AND date_key = $2 AND status = $3
		`, userID.String(), key.String(), string(schedule.StatusPlanned))
		if err != nil {
			return fmt.Errorf("failed to delete planned blocks: %w", err)
		}

		insertQuery := `
			INSERT INTO schedule_blocks (
				id, user_id, date_key, start_at, end_at, block_type,
				task_id, habit_id, status, reasoning, confidence,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		for _, b := range blocks {
			_, err := tx.Exec(ctx, insertQuery,
				b.ID,
				b.UserID.String(),
				b.DateKey.String(),
				b.Start,
				b.End,
				string(b.Type),
				b.TaskID,
				b.HabitID,
				string(b.Status),
				b.Reasoning,
				float64(b.Confidence),
				b.CreatedAt,
				b.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert block %s: %w", b.ID, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// UpdateStatus persists a block's status transition.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, b *schedule.Block) error {
	result, err := r.q.Exec(ctx, `
		UPDATE schedule_blocks SET status = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
	`, string(b.Status), b.UpdatedAt, b.ID, b.UserID.String())
	if err != nil {
		return fmt.Errorf("failed to update block: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrBlockNotFound
	}
	return nil
}

func scanBlock(row rowScanner) (*schedule.Block, error) {
	var b schedule.Block
	var userID, dateKey, blockType, status string
	var confidence float64

	err := row.Scan(
		&b.ID,
		&userID,
		&dateKey,
		&b.Start,
		&b.End,
		&blockType,
		&b.TaskID,
		&b.HabitID,
		&status,
		&b.Reasoning,
		&confidence,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.UserID = shared.UserID(userID)
	b.DateKey = shared.DateKey(dateKey)
	b.Type = schedule.BlockType(blockType)
	b.Status = schedule.Status(status)
	b.Confidence = shared.Confidence(confidence)
	return &b, nil
}
