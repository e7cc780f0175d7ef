// Package postgres implements factstore.Store against PostgreSQL.
//
// Natural-key upserts use INSERT ... ON CONFLICT DO UPDATE with
// (xmax = 0) to distinguish inserts from replacements, so sync summaries
// can report inserted vs updated without a second query.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repo implements factstore.Store.
type Repo struct{ db *sql.DB }

// New creates a Postgres-backed fact store.
func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Ping verifies connectivity; the server uses it for /health.
func (r *Repo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
