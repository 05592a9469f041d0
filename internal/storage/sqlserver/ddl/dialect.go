// Package ddl implements SQL Server dialect SQL synthesis for the bulk-load
// connector: identifier quoting, logical-to-physical type mapping, column
// declaration classification, staging-table merge builders, and rename DDL.
//
// Two engine variants are covered, keyed by Product:
//
//   - ProductSQLServer: on-prem / Azure SQL Database. Native MERGE, renames
//     via sp_rename.
//   - ProductAzureSynapse: dedicated SQL pool. No unbounded large-object
//     types, no sp_rename for tables, certain DDL forbidden inside explicit
//     transactions, merge committed as an UPDATE-then-INSERT pair.
//
// All builders are pure text generators. They do not validate merge keys
// against the schema; a bad key set produces well-formed but wrong SQL, and
// that contract stays with the caller.
package ddl

import (
	"fmt"

	"bulkload/internal/ddl"
)

// Product identifies the SQL Server engine variant in use. It is set once at
// connector construction; every dialect branch keys off it.
type Product int

const (
	// ProductSQLServer is the standard engine.
	ProductSQLServer Product = iota
	// ProductAzureSynapse is the restricted cloud analytics variant.
	ProductAzureSynapse
)

// String returns the product's configuration name.
func (p Product) String() string {
	switch p {
	case ProductAzureSynapse:
		return "synapse"
	default:
		return "sqlserver"
	}
}

// Dialect is the SQL Server dialect. It embeds the generic base with bracket
// quoting and overrides the pieces T-SQL does differently.
type Dialect struct {
	ddl.Generic
	product Product
}

// New returns a Dialect for the given product variant.
func New(p Product) *Dialect {
	return &Dialect{
		Generic: ddl.Generic{Quoting: ddl.BracketQuoting},
		product: p,
	}
}

// Product returns the engine variant this dialect targets.
func (d *Dialect) Product() Product { return d.product }

// Character bounds above which sized string types must degrade to (max).
const (
	maxNVarcharSize = 4000
	maxVarcharSize  = 8000
)

// ColumnTypeName maps a logical column type to its T-SQL physical type.
//
// Policy, first match wins:
//
//  1. BOOLEAN -> BIT.
//  2. CLOB -> NVARCHAR(max); Synapse has no unbounded large-object types, so
//     it gets a fixed NVARCHAR(4000) instead.
//  3. TIMESTAMP -> DATETIME2 (T-SQL TIMESTAMP is a row-version type, not a
//     point in time).
//  4. NVARCHAR wider than 4000 cannot stay sized and is remapped through the
//     same rule as oversized VARCHAR, coming out as VARCHAR(max).
//     TODO: revisit whether oversized NVARCHAR should map to NVARCHAR(max)
//     instead; VARCHAR(max) drops the Unicode declaration.
//  5. VARCHAR wider than 8000 -> VARCHAR(max).
//  6. Everything else defers to the generic mapping; sized types pick up
//     their length suffix at declaration time.
func (d *Dialect) ColumnTypeName(c ddl.Column) string {
	switch c.Type {
	case "BOOLEAN":
		return "BIT"
	case "CLOB":
		if d.product == ProductAzureSynapse {
			return fmt.Sprintf("NVARCHAR(%d)", maxNVarcharSize)
		}
		return "NVARCHAR(max)"
	case "TIMESTAMP":
		return "DATETIME2"
	case "NVARCHAR":
		if c.Size > maxNVarcharSize {
			return "VARCHAR(max)"
		}
	case "VARCHAR":
		if c.Size > maxVarcharSize {
			return "VARCHAR(max)"
		}
	}
	return d.Generic.ColumnTypeName(c)
}

// simpleTypeNames are the physical types whose declarations never take a
// size or precision suffix, even when the column carries one.
var simpleTypeNames = map[string]struct{}{
	"BIT":   {},
	"FLOAT": {},
}

// DeclareType classifies how a mapped physical type is declared. BIT and
// FLOAT are always declared bare; everything else defers to the generic
// classification.
func (d *Dialect) DeclareType(typeName string, c ddl.Column) ddl.DeclareType {
	if _, ok := simpleTypeNames[typeName]; ok {
		return ddl.DeclareSimple
	}
	return d.Generic.DeclareType(typeName, c)
}

// CreateTableSQL renders CREATE TABLE through the generic builder with this
// dialect's type mapping.
func (d *Dialect) CreateTableSQL(t ddl.TableRef, s ddl.Schema, constraint, option string) string {
	return d.Generic.BuildCreateTableSQL(d, t, s, constraint, option)
}

// RenameTableSQL renders the variant-appropriate table rename.
//
// The standard engine uses sp_rename at OBJECT granularity. sp_rename cannot
// move a table across schemas, so only the destination's bare name is used;
// the source must carry its schema qualifier inside a single quoted
// identifier when present:
//
//	EXEC sp_rename [dbo.orders], [orders_old], 'OBJECT'
//
// Synapse dedicated pools only allow sp_rename for columns, so tables are
// renamed with the RENAME OBJECT statement instead, taking a fully qualified
// source and a bare destination name:
//
//	RENAME OBJECT [dbo].[orders] TO [orders_old]
//
// The two forms are not interchangeable; callers must go through the dialect.
func (d *Dialect) RenameTableSQL(from, to ddl.TableRef) string {
	if d.product == ProductAzureSynapse {
		return "RENAME OBJECT " + d.QuoteTable(from) + " TO " + d.QuoteIdent(to.Name)
	}
	source := from.Name
	if from.Qualified() {
		source = from.Schema + "." + from.Name
	}
	return "EXEC sp_rename " + d.QuoteIdent(source) + ", " + d.QuoteIdent(to.Name) + ", 'OBJECT'"
}

// SupportsTableIfExists reports false: DROP TABLE IF EXISTS only arrived in
// SQL Server 2016 and is absent from Synapse dedicated pools, so conditional
// drops must probe for the table and branch.
func (d *Dialect) SupportsTableIfExists() bool { return false }

// DDLRequiresAutoCommit reports whether create/drop/rename must run outside
// an explicit transaction. Synapse dedicated pools reject such DDL inside a
// user transaction; forcing auto-commit makes each statement its own
// implicit transaction.
func (d *Dialect) DDLRequiresAutoCommit() bool { return d.product == ProductAzureSynapse }
