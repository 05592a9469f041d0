package postgres

import (
	"context"

	"bulkload/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(ctx, Config{DSN: cfg.DSN})
	})
}
