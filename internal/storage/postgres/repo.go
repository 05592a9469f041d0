// Package postgres implements the Postgres storage.Repository using pgx v5:
// COPY into staging tables over the pool, and a pinned session for the
// connector's DDL and merge statements.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bulkload/internal/connector"
	"bulkload/internal/ddl"
	pgddl "bulkload/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
//
// Postgres sessions auto-commit by default; turning auto-commit off is
// modeled as an open transaction on the pinned session. The dialect never
// asks for the auto-commit guard (Postgres DDL is transactional), but merge
// commits still run inside the session transaction when one is open.
type Repository struct {
	pool    *pgxpool.Pool
	session *pgxpool.Conn
	dialect *pgddl.Dialect

	tx pgx.Tx // non-nil while auto-commit is off
}

// New opens a pool and pins the connector session.
func New(ctx context.Context, cfg Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	session, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: acquire session: %w", err)
	}
	if err := session.Ping(ctx); err != nil {
		session.Release()
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, session: session, dialect: pgddl.New()}, nil
}

// Dialect returns the Postgres dialect.
func (r *Repository) Dialect() connector.Dialect { return r.dialect }

// Exec executes one SQL statement on the pinned session, inside the session
// transaction when auto-commit is off.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if r.tx != nil {
		_, err := r.tx.Exec(ctx, sqlText)
		return err
	}
	_, err := r.session.Exec(ctx, sqlText)
	return err
}

// TableExists probes pg_class via to_regclass, which resolves the name along
// the session search_path without erroring on absence.
func (r *Repository) TableExists(ctx context.Context, t ddl.TableRef) (bool, error) {
	var reg sql.NullString
	err := r.session.QueryRow(ctx,
		"SELECT to_regclass($1)::text", r.dialect.QuoteTable(t),
	).Scan(&reg)
	if err != nil {
		return false, fmt.Errorf("postgres: to_regclass %s: %w", t, err)
	}
	return reg.Valid, nil
}

// AutoCommit reports whether the session is outside an explicit transaction.
func (r *Repository) AutoCommit() bool { return r.tx == nil }

// SetAutoCommit switches the session's commit mode. Turning auto-commit off
// begins a transaction on the pinned session; turning it back on commits it.
// Setting the current mode again is a no-op.
func (r *Repository) SetAutoCommit(ctx context.Context, on bool) error {
	if on == (r.tx == nil) {
		return nil
	}
	if on {
		if err := r.tx.Commit(ctx); err != nil {
			return fmt.Errorf("postgres: commit session transaction: %w", err)
		}
		r.tx = nil
		return nil
	}
	tx, err := r.session.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin session transaction: %w", err)
	}
	r.tx = tx
	return nil
}

// CopyInto bulk-inserts rows with the COPY protocol over the pool. Safe for
// concurrent calls against distinct staging tables.
func (r *Repository) CopyInto(ctx context.Context, t ddl.TableRef, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	ident := pgx.Identifier{t.Name}
	if t.Qualified() {
		ident = pgx.Identifier{t.Schema, t.Name}
	}
	n, err := r.pool.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres: copy into %s: %s (%s)", t, pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("postgres: copy into %s: %w", t, err)
	}
	return n, nil
}

// Close rolls back any open session transaction, releases the session, and
// closes the pool.
func (r *Repository) Close() error {
	var err error
	if r.tx != nil {
		err = r.tx.Rollback(context.Background())
		r.tx = nil
	}
	r.session.Release()
	r.pool.Close()
	return err
}
