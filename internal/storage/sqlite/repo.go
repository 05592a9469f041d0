// Package sqlite implements the SQLite storage.Repository using database/sql
// over modernc.org/sqlite. There is no dedicated bulk-load API; CopyInto runs
// a prepared multi-row INSERT inside a transaction, which keeps performance
// acceptable for moderate volumes. The backend doubles as the in-memory
// target for lifecycle integration tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // driver registration

	"bulkload/internal/connector"
	"bulkload/internal/ddl"
	slddl "bulkload/internal/storage/sqlite/ddl"
)

// Config holds SQLite repository configuration.
//
// DSN is passed directly to database/sql; for example:
//
//	"file:load.db?cache=shared"
//	":memory:"
type Config struct {
	DSN string
}

// Repository is a SQLite-backed implementation of storage.Repository.
//
// A single pinned session carries everything, staging loads included; SQLite
// serializes writers anyway, so there is nothing to gain from a second
// connection, and in-memory databases require one connection to stay alive.
type Repository struct {
	db      *sql.DB
	session *sql.Conn
	dialect *slddl.Dialect

	tx *sql.Tx // non-nil while auto-commit is off
}

// New opens a SQLite database and pins the connector session.
func New(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	session, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: acquire session: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := session.PingContext(pingCtx); err != nil {
		_ = session.Close()
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repository{db: db, session: session, dialect: slddl.New()}, nil
}

// Dialect returns the SQLite dialect.
func (r *Repository) Dialect() connector.Dialect { return r.dialect }

// Exec executes one SQL statement on the pinned session, inside the session
// transaction when auto-commit is off.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, sqlText)
		return err
	}
	_, err := r.session.ExecContext(ctx, sqlText)
	return err
}

// TableExists probes sqlite_master for a table of the given bare name; the
// schema qualifier is ignored since attached databases are not used here.
func (r *Repository) TableExists(ctx context.Context, t ddl.TableRef) (bool, error) {
	q := "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	var n int
	var err error
	if r.tx != nil {
		err = r.tx.QueryRowContext(ctx, q, t.Name).Scan(&n)
	} else {
		err = r.session.QueryRowContext(ctx, q, t.Name).Scan(&n)
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: sqlite_master %s: %w", t, err)
	}
	return n > 0, nil
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
		if err := r.tx.Commit(); err != nil {
			return fmt.Errorf("sqlite: commit session transaction: %w", err)
		}
		r.tx = nil
		return nil
	}
	tx, err := r.session.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin session transaction: %w", err)
	}
	r.tx = tx
	return nil
}

// CopyInto inserts rows with a prepared INSERT inside one transaction (or the
// open session transaction, when auto-commit is off).
func (r *Repository) CopyInto(ctx context.Context, t ddl.TableRef, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyInto: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = r.dialect.QuoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.dialect.QuoteTable(t),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx := r.tx
	ownTx := tx == nil
	if ownTx {
		var err error
		tx, err = r.session.BeginTx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("sqlite: begin tx: %w", err)
		}
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		if ownTx {
			_ = tx.Rollback()
		}
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			if ownTx {
				_ = tx.Rollback()
			}
			return inserted, fmt.Errorf("sqlite: CopyInto: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			if ownTx {
				_ = tx.Rollback()
			}
			return inserted, fmt.Errorf("sqlite: insert: %w", err)
		}
		inserted++
	}
	if ownTx {
		if err := tx.Commit(); err != nil {
			return inserted, fmt.Errorf("sqlite: commit: %w", err)
		}
	}
	return inserted, nil
}

// Close rolls back any open session transaction and releases the session and
// database.
func (r *Repository) Close() error {
	var txErr error
	if r.tx != nil {
		txErr = r.tx.Rollback()
		r.tx = nil
	}
	return errors.Join(txErr, r.session.Close(), r.db.Close())
}
