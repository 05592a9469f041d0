package sqlserver

import (
	"context"

	"bulkload/internal/storage"
	ssddl "bulkload/internal/storage/sqlserver/ddl"
)

// Two registry kinds share this backend; only the dialect variant differs.
func init() {
	storage.Register("sqlserver", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(ctx, Config{DSN: cfg.DSN, Product: ssddl.ProductSQLServer})
	})
	storage.Register("synapse", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(ctx, Config{DSN: cfg.DSN, Product: ssddl.ProductAzureSynapse})
	})
}
