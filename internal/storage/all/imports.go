// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories with the storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "sqlserver" (bulkload/internal/storage/sqlserver)
//   - "synapse"   (bulkload/internal/storage/sqlserver, Synapse dialect)
//   - "postgres"  (bulkload/internal/storage/postgres)
//   - "sqlite"    (bulkload/internal/storage/sqlite)
//
// Typical usage (in cmd/bulkload/main.go or a similar wiring layer):
//
//	import (
//	    _ "bulkload/internal/storage/all" // enable all built-in backends
//
//	    "bulkload/internal/storage"
//	)
//
//	repo, err := storage.Open(ctx, storage.Config{Kind: cfg.Target.Kind, DSN: cfg.Target.DSN})
//
// From that point on, the caller stays fully backend-agnostic: table
// lifecycle, staging loads, and merge commits all go through the
// storage.Repository and connector interfaces regardless of which backend
// is underneath.
//
// Note: if you want a binary that supports only a subset of backends, define
// an alternative wiring package that imports only the required backends
// instead of this one.
package all

import (
	_ "bulkload/internal/storage/postgres"
	_ "bulkload/internal/storage/sqlite"
	_ "bulkload/internal/storage/sqlserver"
)
