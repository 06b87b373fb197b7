package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/studyflow/studyflow/internal/application/command"
	"github.com/studyflow/studyflow/internal/domain/habit"
	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/internal/domain/task"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/pkg/logger"
	"github.com/studyflow/studyflow/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION STORE
// Runs command transactions at SERIALIZABLE isolation and replays them on
// serialization failures. The command layer's read-then-decide-then-write
// discipline makes replays safe: every attempt re-reads fresh state.
// ══════════════════════════════════════════════════════════════════════════════

// TxStore implements command.TxStore on the connection pool.
type TxStore struct {
	conn    *Connection
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewTxStore creates the store. Conflict retries use short backoff because
// serialization failures resolve as soon as the competing transaction commits.
func NewTxStore(conn *Connection, log *logger.Logger) *TxStore {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("tx_store"))
	return &TxStore{
		conn: conn,
		retrier: retry.New(retry.Config{
			MaxAttempts:  3,
			InitialDelay: 20 * time.Millisecond,
			MaxDelay:     200 * time.Millisecond,
			Multiplier:   2.0,
			JitterFactor: 0.5,
			RetryIf:      IsSerializationFailure,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				log.Warn("transaction conflict, retrying",
					logger.Int("attempt", attempt), logger.Err(err))
			},
		}),
		log: log,
	}
}

// WithinTx implements command.TxStore.
func (s *TxStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx command.TxOps) error) error {
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, SerializableTxOptions(), func(tx pgx.Tx) error {
			return fn(ctx, newTxOps(tx))
		})
	})
	if err != nil {
		if IsSerializationFailure(err) {
			return shared.WrapError("postgres", "WithinTx", shared.ErrTransactionConflict, "serialization failure after retries", err)
		}
		return err
	}
	return nil
}

// txOps adapts the repositories to command.TxOps on one open transaction.
type txOps struct {
	tasks    *TaskRepository
	habits   *HabitRepository
	blocks   *ScheduleRepository
	profiles *UserRepository
}

func newTxOps(tx pgx.Tx) *txOps {
	return &txOps{
		tasks:    NewTaskRepository(tx),
		habits:   NewHabitRepository(tx),
		blocks:   &ScheduleRepository{q: tx},
		profiles: NewUserRepository(tx),
	}
}

func (o *txOps) GetTask(ctx context.Context, userID shared.UserID, id string) (*task.Task, error) {
	return o.tasks.GetByID(ctx, userID, id)
}

func (o *txOps) GetHabit(ctx context.Context, userID shared.UserID, id string) (*habit.Habit, error) {
	return o.habits.GetByID(ctx, userID, id)
}

func (o *txOps) GetBlock(ctx context.Context, userID shared.UserID, id string) (*schedule.Block, error) {
	return o.blocks.GetByID(ctx, userID, id)
}

func (o *txOps) GetProfile(ctx context.Context, userID shared.UserID) (*user.Profile, error) {
	return o.profiles.GetByID(ctx, userID)
}

func (o *txOps) UpdateTask(ctx context.Context, t *task.Task) error {
	return o.tasks.Update(ctx, t)
}

func (o *txOps) UpdateHabit(ctx context.Context, h *habit.Habit) error {
	return o.habits.Update(ctx, h)
}

func (o *txOps) UpdateBlock(ctx context.Context, b *schedule.Block) error {
	return o.blocks.UpdateStatus(ctx, b)
}

func (o *txOps) UpdateProfile(ctx context.Context, p *user.Profile) error {
	return o.profiles.Update(ctx, p)
}
