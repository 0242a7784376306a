package uow

import (
	"context"
	"database/sql"

	"ridemods-be/internal/logger"

	"go.uber.org/zap"
)

// Executor is the minimal query surface shared by *sql.DB and *sql.Tx.
// Repositories whose writes must join a unit of work accept an Executor
// instead of holding their own handle.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scope is handed to the unit-of-work body. The body marks named steps as
// they complete so the sequential runner can report exactly what was
// applied when a later step fails.
type Scope struct {
	exec      Executor
	completed []string
}

func (s *Scope) Exec() Executor {
	return s.exec
}

// Done records that a named step has been applied.
func (s *Scope) Done(step string) {
	s.completed = append(s.completed, step)
}

func (s *Scope) Completed() []string {
	return s.completed
}

// Runner executes a unit of work. The transactional implementation wraps
// the body in a real database transaction; the sequential one applies the
// same steps best-effort without rollback.
type Runner interface {
	Run(ctx context.Context, fn func(*Scope) error) error
	Transactional() bool
}

// NewRunner picks the implementation matching the store's capability,
// decided once at startup.
func NewRunner(database *sql.DB, transactions bool) Runner {
	if transactions {
		return &txRunner{db: database}
	}
	return &seqRunner{db: database}
}

type txRunner struct {
	db *sql.DB
}

func (r *txRunner) Transactional() bool { return true }

func (r *txRunner) Run(ctx context.Context, fn func(*Scope) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.FromCtx(ctx).Error("failed to rollback unit of work", zap.Error(rbErr))
			}
		}
	}()

	if err := fn(&Scope{exec: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	committed = true
	return nil
}

// seqRunner applies the body directly against the bare connection. There
// is no rollback: a failure after the first completed step surfaces as a
// *PartialCommitError listing what was applied, so an operator can
// reconcile manually.
type seqRunner struct {
	db *sql.DB
}

func (r *seqRunner) Transactional() bool { return false }

func (r *seqRunner) Run(ctx context.Context, fn func(*Scope) error) error {
	scope := &Scope{exec: r.db}

	err := fn(scope)
	if err == nil {
		return nil
	}

	if len(scope.completed) > 0 {
		logger.FromCtx(ctx).Error("unit of work failed after partial writes",
			zap.Strings("completed_steps", scope.completed),
			zap.Error(err),
		)
		return &PartialCommitError{Completed: scope.completed, Err: err}
	}

	return err
}
