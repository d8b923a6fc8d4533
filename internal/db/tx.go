package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is the query surface of both *sql.DB and *sql.Tx. Repositories are
// built on one so the gateway can run them on the pool or inside a
// transaction without knowing which.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// UnitOfWork groups gateway writes that must land together, such as a tree
// delete with its assignments or a node move with its parent check.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// TxRunner is the UnitOfWork backed by a skill tree database.
type TxRunner struct {
	conn *sql.DB
}

func NewTxRunner(conn *sql.DB) *TxRunner {
	return &TxRunner{conn: conn}
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return RunTx(ctx, r.conn, nil, fn)
}

// RunTx runs fn in a transaction on conn and commits when fn returns nil.
// An error or a panic from fn rolls back. When wrap is non-nil fn sees
// wrap(tx) instead of the transaction itself.
func RunTx(ctx context.Context, conn *sql.DB, wrap func(DBTX) DBTX, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	var q DBTX = tx
	if wrap != nil {
		q = wrap(tx)
	}
	if err := fn(ctx, q); err != nil {
		done = true
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}

	done = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
