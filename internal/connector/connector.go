// Package connector implements the generic half of the bulk-loading
// connector: table lifecycle management (create, drop, rename, replace-by-
// swap) and the merge commit that folds staging tables into the target.
//
// Dialect differences are isolated behind the Dialect strategy interface;
// connection specifics behind Conn. The connector calls through to generic
// behavior for anything a dialect does not special-case, so all engine
// branches stay auditable in the dialect packages rather than spread through
// the lifecycle code.
package connector

import (
	"context"
	"fmt"

	"bulkload/internal/ddl"
)

// Conn is the minimal surface of a live database connection the connector
// needs. Implementations pin a single session: auto-commit mode is session
// state, and the connector assumes exclusive ownership of the session for
// the duration of any operation.
type Conn interface {
	// Exec executes one SQL statement. Failures propagate unchanged; the
	// connector adds no retry or suppression.
	Exec(ctx context.Context, sql string) error

	// TableExists probes for the table. Used where the dialect has no
	// IF EXISTS clause and conditional DDL must query-then-branch.
	TableExists(ctx context.Context, t ddl.TableRef) (bool, error)

	// AutoCommit reports the session's current auto-commit mode.
	AutoCommit() bool

	// SetAutoCommit switches the session's auto-commit mode. Turning it on
	// commits any statement-started transaction in progress.
	SetAutoCommit(ctx context.Context, on bool) error
}

// Dialect is the strategy interface for engine-specific SQL synthesis. The
// ddl.Generic base provides defaults for most of it; backend dialect types
// embed Generic and override what their engine does differently.
type Dialect interface {
	ddl.Mapper

	QuoteTable(t ddl.TableRef) string
	CreateTableSQL(t ddl.TableRef, s ddl.Schema, constraint, option string) string
	DropTableSQL(t ddl.TableRef) string
	DropTableIfExistsSQL(t ddl.TableRef) string
	RenameTableSQL(from, to ddl.TableRef) string
	InsertSelectSQL(from []ddl.TableRef, s ddl.Schema, to ddl.TableRef) string

	// MergeSQL returns the ordered statements implementing one merge commit:
	// a single native MERGE/upsert where the engine has one, otherwise a
	// multi-statement strategy (update-then-insert, delete-then-insert).
	MergeSQL(from []ddl.TableRef, s ddl.Schema, to ddl.TableRef, m ddl.MergeSpec) []string

	SupportsTableIfExists() bool
	DDLRequiresAutoCommit() bool
}

// Connection pairs a live session with its dialect and exposes the table
// lifecycle operations the load session drives.
type Connection struct {
	conn Conn
	d    Dialect
}

// New returns a Connection over the given session and dialect.
func New(conn Conn, d Dialect) *Connection {
	return &Connection{conn: conn, d: d}
}

// Dialect returns the connection's dialect.
func (c *Connection) Dialect() Dialect { return c.d }

// ddlExec runs fn under the dialect's transactional DDL rules. For dialects
// that forbid DDL inside an explicit transaction, the session's auto-commit
// mode is forced on for the duration and restored to its prior value on
// every exit path; fn's own error always wins over a restore error.
func (c *Connection) ddlExec(ctx context.Context, fn func() error) (err error) {
	if !c.d.DDLRequiresAutoCommit() {
		return fn()
	}
	prev := c.conn.AutoCommit()
	if err := c.conn.SetAutoCommit(ctx, true); err != nil {
		return err
	}
	defer func() {
		if rerr := c.conn.SetAutoCommit(ctx, prev); rerr != nil && err == nil {
			err = fmt.Errorf("connector: restore auto-commit: %w", rerr)
		}
	}()
	return fn()
}

// CreateTable creates t with the given schema. Constraint and option are
// raw SQL fragments passed through to the dialect builder.
func (c *Connection) CreateTable(ctx context.Context, t ddl.TableRef, s ddl.Schema, constraint, option string) error {
	return c.ddlExec(ctx, func() error {
		return c.conn.Exec(ctx, c.d.CreateTableSQL(t, s, constraint, option))
	})
}

// CreateTableIfNotExists probes for t and creates it only when absent. The
// probe-then-branch form is used for every dialect; it is the only form the
// restricted engines support, and it keeps the create builder free of
// conditional clauses.
func (c *Connection) CreateTableIfNotExists(ctx context.Context, t ddl.TableRef, s ddl.Schema, constraint, option string) error {
	exists, err := c.conn.TableExists(ctx, t)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return c.CreateTable(ctx, t, s, constraint, option)
}

// DropTable drops t unconditionally.
func (c *Connection) DropTable(ctx context.Context, t ddl.TableRef) error {
	return c.ddlExec(ctx, func() error {
		return c.conn.Exec(ctx, c.d.DropTableSQL(t))
	})
}

// DropTableIfExists drops t when present. Dialects with an IF EXISTS clause
// get the one-statement form; the rest probe and branch.
func (c *Connection) DropTableIfExists(ctx context.Context, t ddl.TableRef) error {
	if c.d.SupportsTableIfExists() {
		return c.ddlExec(ctx, func() error {
			return c.conn.Exec(ctx, c.d.DropTableIfExistsSQL(t))
		})
	}
	exists, err := c.conn.TableExists(ctx, t)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return c.DropTable(ctx, t)
}

// RenameTable renames from to to's bare name. Renames never move a table
// across schemas; the destination's schema qualifier is ignored by every
// dialect builder.
func (c *Connection) RenameTable(ctx context.Context, from, to ddl.TableRef) error {
	return c.conn.Exec(ctx, c.d.RenameTableSQL(from, to))
}

// ReplaceTable atomically swaps from into to's place: any existing to is
// dropped, then from is renamed over it. The whole swap runs under the
// dialect's transactional DDL rules.
func (c *Connection) ReplaceTable(ctx context.Context, from, to ddl.TableRef) error {
	return c.ddlExec(ctx, func() error {
		if err := c.DropTableIfExists(ctx, to); err != nil {
			return err
		}
		return c.conn.Exec(ctx, c.d.RenameTableSQL(from, to))
	})
}

// Append inserts every row of the staging tables into the target, in caller
// order, with no matching.
func (c *Connection) Append(ctx context.Context, from []ddl.TableRef, s ddl.Schema, to ddl.TableRef) error {
	return c.conn.Exec(ctx, c.d.InsertSelectSQL(from, s, to))
}

// Merge folds the staging tables into the target using the dialect's merge
// strategy, executing its statements in order. A failure stops the sequence
// and propagates unchanged.
func (c *Connection) Merge(ctx context.Context, from []ddl.TableRef, s ddl.Schema, to ddl.TableRef, m ddl.MergeSpec) error {
	for _, stmt := range c.d.MergeSQL(from, s, to, m) {
		if err := c.conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
