package uow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"feasibility-backend/internal/infra/repository"
	"feasibility-backend/internal/pkg/errs"
	"feasibility-backend/internal/usecase/commands"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"

	lockAuthor = `SELECT pg_advisory_xact_lock(hashtext($1))`

	maxRetries = 3
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

type PostgresUoW struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresUoW(pool *pgxpool.Pool, logger *slog.Logger) commands.UnitOfWork {
	return &PostgresUoW{
		pool:   pool,
		logger: logger,
	}
}

// ReadCommitted is enough once the author lock is held.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx commands.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// runInTxWithOptions retries serialization failures and deadlocks with jittered exponential backoff.
// Every other error ends the loop at once.
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx commands.Tx) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := u.runOnce(ctx, options, fn)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		u.logger.Warn("retrying transaction due to retryable error",
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"error", err.Error())
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxRetries), ctx), notify)
	if err != nil && isRetryableError(err) {
		u.logger.Error("transaction failed after max retries",
			"attempts", attempt,
			"error", err.Error())
		return errs.Mark(err, errMaxRetriesExceeded)
	}
	return err
}

// runOnce rolls back explicitly instead of deferring so retries do not pile up open transactions.
func (u *PostgresUoW) runOnce(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx commands.Tx) error) error {
	pgxTx, err := u.pool.BeginTx(ctx, options)
	if err != nil {
		return errs.Mark(err, errTransactionBegin)
	}

	err = fn(ctx, &pgTx{dbtx: pgxTx, logger: u.logger})
	if err == nil {
		if err = pgxTx.Commit(ctx); err == nil {
			return nil
		}
		err = errs.Mark(err, errTransactionCommit)
	}

	if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
		u.logger.Warn("rollback failed", "error", rollbackErr.Error())
	}
	return err
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.RandomizationFactor = 0.2
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx   pgx.Tx
	logger *slog.Logger

	// Lazy-initialized repositories
	queryRepo     commands.QueryRepository
	blacklistRepo commands.BlacklistRepository
}

func (t *pgTx) LockAuthor(ctx context.Context, author string) error {
	if _, err := t.dbtx.Exec(ctx, lockAuthor, author); err != nil {
		return errs.Wrapf(err, "failed to lock author %s", author)
	}
	return nil
}

func (t *pgTx) Queries() commands.QueryRepository {
	if t.queryRepo == nil {
		t.queryRepo = repository.NewQueryRepository(t.dbtx, t.logger)
	}
	return t.queryRepo
}

func (t *pgTx) Blacklist() commands.BlacklistRepository {
	if t.blacklistRepo == nil {
		t.blacklistRepo = repository.NewBlacklistRepository(t.dbtx, t.logger)
	}
	return t.blacklistRepo
}
