package main

import (
	"context"
	"fmt"

	"upasthiti/internal/store"
)

type (
	openDB     func(ctx context.Context, dsn string) (*store.DB, error)
	migrateDSN func(ctx context.Context, dsn string) error
)

// openRoster connects with backoff first so migrations never race a database
// that is still starting.
func openRoster(ctx context.Context, dsn string, open openDB, up migrateDSN) (*store.DB, error) {
	db, err := open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("roster db: %w", err)
	}
	if err := up(ctx, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate roster: %w", err)
	}
	return db, nil
}
