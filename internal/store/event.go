package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// eventRepo implements EventRepo over plain SQL. Every event table shares
// one sequence so LLM calls and training events interleave in the order
// they happened.
type eventRepo struct {
	db *sql.DB
}

// event is one row to append: the sequence and timestamp columns are
// filled in by insert.
type event struct {
	table  string
	cols   []string
	values []any
}

// insert allocates the next sequence number and writes the row in the same
// transaction, so a failed insert does not burn a number.
func (r *eventRepo) insert(ctx context.Context, e event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	cols := append([]string{"sequence", "timestamp"}, e.cols...)
	args := append([]any{seq, time.Now().UTC().UnixMilli()}, e.values...)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		e.table, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", e.table, err)
	}
	return tx.Commit()
}
