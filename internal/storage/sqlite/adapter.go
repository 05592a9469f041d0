package sqlite

import (
	"context"

	"bulkload/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(ctx, Config{DSN: cfg.DSN})
	})
}
