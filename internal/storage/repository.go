// Package storage contains the storage-agnostic contracts of the bulk
// loader: the Repository interface every backend implements, the backend
// registry, and the batched loader.
//
// Backends (sqlserver, postgres, sqlite) register a factory for their kind
// at init time; callers open repositories through the registry and stay
// fully backend-agnostic from then on.
package storage

import (
	"context"
	"fmt"
	"sync"

	"bulkload/internal/connector"
	"bulkload/internal/ddl"
)

// Repository is a live, exclusively-owned database session plus the bulk
// primitives the loader needs. It extends connector.Conn so the table
// lifecycle code can drive the same session the rows flow through.
type Repository interface {
	connector.Conn

	// Dialect returns the SQL dialect for this backend/variant.
	Dialect() connector.Dialect

	// CopyInto bulk-inserts rows (aligned to columns order) into t using the
	// backend's most efficient primitive, returning the inserted count.
	// Implementations must be safe for concurrent calls against distinct
	// staging tables.
	CopyInto(ctx context.Context, t ddl.TableRef, columns []string, rows [][]any) (int64, error)

	// Close releases the session and pool.
	Close() error
}

// Config carries the connection settings a backend factory needs.
type Config struct {
	Kind string
	DSN  string
}

// Factory opens a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for a backend kind. It is
// typically called from backend packages' init functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// Open locates the factory for cfg.Kind and opens a Repository.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind %q", cfg.Kind)
	}
	return f(ctx, cfg)
}
