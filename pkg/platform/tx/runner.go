package tx

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "landledger/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// Runner executes fn as a single unit of work. Stores reached through the
// context passed to fn participate in it.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner runs units of work inside a database transaction.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLRunner builds a runner; a zero timeout selects the default.
func NewSQLRunner(db *sql.DB, timeout time.Duration) *SQLRunner {
	return &SQLRunner{db: db, timeout: timeout}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// MemoryRunner gives in-memory stores all-or-nothing semantics by replaying
// their undo journal when fn fails. Units run one at a time so no unit reads
// another's uncommitted writes; a unit started inside a unit joins it.
type MemoryRunner struct {
	mu sync.Mutex
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if inJournal(ctx) {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, journal := WithJournal(ctx)
	if err := fn(ctx); err != nil {
		journal.Rollback()
		return err
	}
	return nil
}
