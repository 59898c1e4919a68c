package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Beginner starts transactions. *pgxpool.Pool, *pgxpool.Conn and pgx.Tx all
// satisfy it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Execer runs a statement without returning rows.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// WithTx runs fn inside a transaction that repositories pick up through
// TxFromContext. An enclosing transaction becomes a savepoint; otherwise the
// request connection from ConnMiddleware is preferred over fallback so the
// transaction sees the request's search_path. The transaction is committed
// when fn returns nil and rolled back otherwise, including when fn panics.
func WithTx(ctx context.Context, fallback Beginner, fn func(ctx context.Context) error) (err error) {
	var b Beginner = fallback
	if tx := TxFromContext(ctx); tx != nil {
		b = tx
	} else if conn := ConnFromContext(ctx); conn != nil {
		b = conn
	}
	if b == nil {
		return fmt.Errorf("no database connection available")
	}

	tx, err := b.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(context.WithValue(ctx, DBTxKey, tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// AdvisoryXactLock takes a transaction-scoped advisory lock on key. It blocks
// until the lock is granted and is released automatically at commit or
// rollback, so it must be called on a transaction.
func AdvisoryXactLock(ctx context.Context, q Execer, key int64) error {
	if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
		return fmt.Errorf("acquire advisory lock %d: %w", key, err)
	}
	return nil
}
