package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txKey carries the open pgx.Tx so the timeline lock and the statements after
// it share one transaction.
type txKey struct{}

// withTx runs fn inside a transaction. When ctx already carries one, fn joins
// it and the outer caller commits. Otherwise the transaction is committed if fn
// returns nil and rolled back on error, which also releases the advisory lock.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// txFromContext returns nil outside withTx. exec, query and queryRow then
// fall back to the pool.
func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isExclusionViolation matches the no_overlap constraint on reservations.
func isExclusionViolation(err error) bool {
	return pgErrorCode(err) == "23P01"
}

func isInvalidUUID(err error) bool {
	return pgErrorCode(err) == "22P02"
}
