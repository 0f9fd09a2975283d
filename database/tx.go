package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier is satisfied by both *sql.DB and *sql.Tx.
//
// Repositories take a TxQuerier so the same code runs on the pool for single
// statements and on a transaction when a service needs several statements to
// commit together:
//
//	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
//	    requests := repository.NewSQLiteFriendRequestRepo(tx)
//	    friendships := repository.NewSQLiteFriendshipRepo(tx)
//	    ...
//	})
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction.
//
//  1. BEGIN
//  2. fn(tx)
//  3. nil → COMMIT, error → ROLLBACK
//  4. panic → ROLLBACK, then re-panic
//
// Code inside fn must only use tx. The pool holds a single connection, so a
// query issued on *sql.DB from inside fn would wait forever.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
