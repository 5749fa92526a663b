package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/spincoach/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

// withStore opens the event database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st *store.Store) error) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(cmd.Context(), st)
}

// withEvents is withStore for commands that only read the audit log.
func withEvents(cmd *cobra.Command, fn func(ctx context.Context, repo store.EventRepo) error) error {
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		return fn(ctx, st.EventRepo())
	})
}
