// Package sqlserver implements the SQL Server storage.Repository using
// go-mssqldb: bulk copy loads into staging tables over the pool, and a
// pinned session for everything the connector runs (DDL, merge commits),
// since auto-commit mode is session state.
package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	ssddl "bulkload/internal/storage/sqlserver/ddl"
	"bulkload/internal/connector"
	"bulkload/internal/ddl"
)

// Config holds SQL Server repository configuration.
type Config struct {
	DSN     string
	Product ssddl.Product
}

// Repository is a SQL Server-backed implementation of storage.Repository.
//
// The pinned *sql.Conn carries the session's IMPLICIT_TRANSACTIONS state and
// is owned exclusively by the calling goroutine; bulk copies run over the
// pool instead so concurrent staging loads do not contend for the session.
type Repository struct {
	db      *sql.DB
	session *sql.Conn
	dialect *ssddl.Dialect

	// autoCommit mirrors the session's commit mode. The driver starts every
	// session in auto-commit; we track transitions ourselves because there is
	// no way to read IMPLICIT_TRANSACTIONS back cheaply.
	autoCommit bool
}

// New validates the DSN, opens a pool, and pins the connector session.
func New(ctx context.Context, cfg Config) (*Repository, error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("sqlserver: dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlserver: open: %w", err)
	}
	session, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlserver: acquire session: %w", err)
	}
	if err := session.PingContext(ctx); err != nil {
		_ = session.Close()
		_ = db.Close()
		return nil, fmt.Errorf("sqlserver: ping: %w", err)
	}
	return &Repository{
		db:         db,
		session:    session,
		dialect:    ssddl.New(cfg.Product),
		autoCommit: true,
	}, nil
}

// Dialect returns the dialect for the configured product variant.
func (r *Repository) Dialect() connector.Dialect { return r.dialect }

// Exec executes one SQL statement on the pinned session.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.session.ExecContext(ctx, sqlText)
	return err
}

// TableExists probes for a user table via OBJECT_ID. This works on both
// product variants and replaces IF EXISTS clauses, which Synapse dedicated
// pools do not accept on table DDL.
func (r *Repository) TableExists(ctx context.Context, t ddl.TableRef) (bool, error) {
	var id sql.NullInt64
	err := r.session.QueryRowContext(ctx,
		"SELECT OBJECT_ID(@name, N'U')",
		sql.Named("name", r.dialect.QuoteTable(t)),
	).Scan(&id)
	if err != nil {
		return false, fmt.Errorf("sqlserver: object_id %s: %w", t, err)
	}
	return id.Valid, nil
}

// AutoCommit reports the session's tracked commit mode.
func (r *Repository) AutoCommit() bool { return r.autoCommit }

// SetAutoCommit switches the session between auto-commit and implicit
// transactions. Turning auto-commit on first commits any open implicit
// transaction, then disables IMPLICIT_TRANSACTIONS; turning it off enables
// IMPLICIT_TRANSACTIONS so the next statement opens a transaction. Setting
// the current mode again is a no-op.
func (r *Repository) SetAutoCommit(ctx context.Context, on bool) error {
	if on == r.autoCommit {
		return nil
	}
	if on {
		if _, err := r.session.ExecContext(ctx, "IF @@TRANCOUNT > 0 COMMIT TRANSACTION"); err != nil {
			return fmt.Errorf("sqlserver: commit open transaction: %w", err)
		}
		if _, err := r.session.ExecContext(ctx, "SET IMPLICIT_TRANSACTIONS OFF"); err != nil {
			return fmt.Errorf("sqlserver: disable implicit transactions: %w", err)
		}
	} else {
		if _, err := r.session.ExecContext(ctx, "SET IMPLICIT_TRANSACTIONS ON"); err != nil {
			return fmt.Errorf("sqlserver: enable implicit transactions: %w", err)
		}
	}
	r.autoCommit = on
	return nil
}

// CopyInto performs a bulk insert into t using the driver's bulk copy API,
// inside its own pool transaction. Safe for concurrent calls against
// distinct staging tables.
func (r *Repository) CopyInto(ctx context.Context, t ddl.TableRef, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlserver: begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(t.String(), mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("sqlserver: prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("sqlserver: bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx) // flush
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("sqlserver: bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("sqlserver: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlserver: commit: %w", err)
	}
	return n, nil
}

// Close releases the pinned session and the pool.
func (r *Repository) Close() error {
	return errors.Join(r.session.Close(), r.db.Close())
}
