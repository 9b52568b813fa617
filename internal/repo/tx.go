package repo

import (
	"context"
	"database/sql"
	"fmt"
)

// WithTx runs fn inside a single transaction. Any error from fn rolls the
// whole transaction back, so a multi-aggregate write either lands completely
// or not at all.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
