// Package ddl implements the Postgres dialect for the bulk-load connector.
// Postgres is the friendliest target of the three: transactional DDL, DROP
// TABLE IF EXISTS, ALTER TABLE RENAME, and a native upsert.
package ddl

import (
	"strings"

	"bulkload/internal/ddl"
)

// Dialect is the Postgres dialect. ANSI double-quote identifiers; the only
// overrides beyond type mapping are the single-statement upsert merge.
type Dialect struct {
	ddl.Generic
}

// New returns the Postgres dialect.
func New() *Dialect {
	return &Dialect{Generic: ddl.Generic{Quoting: ddl.ANSIQuoting}}
}

// ColumnTypeName maps a logical column type to its Postgres physical type.
// Unbounded character data becomes TEXT, timestamps carry a zone, and the
// national-character distinction collapses since Postgres strings are already
// encoding-aware.
func (d *Dialect) ColumnTypeName(c ddl.Column) string {
	switch c.Type {
	case "CLOB":
		return "TEXT"
	case "BLOB":
		return "BYTEA"
	case "TIMESTAMP":
		return "TIMESTAMPTZ"
	case "NVARCHAR":
		return "VARCHAR"
	case "DOUBLE":
		return "DOUBLE PRECISION"
	}
	return d.Generic.ColumnTypeName(c)
}

// simpleTypeNames are physical types declared without a size suffix even when
// the column carries one (e.g. a sized CLOB still lands as bare TEXT).
var simpleTypeNames = map[string]struct{}{
	"TEXT":             {},
	"BYTEA":            {},
	"TIMESTAMPTZ":      {},
	"DOUBLE PRECISION": {},
}

// DeclareType classifies how a mapped physical type is declared.
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

// MergeSQL folds the staging tables into the target with a single
// INSERT ... ON CONFLICT DO UPDATE. Conflict-key columns are excluded from
// the SET list; a custom merge rule replaces the SET list verbatim.
func (d *Dialect) MergeSQL(from []ddl.TableRef, s ddl.Schema, to ddl.TableRef, m ddl.MergeSpec) []string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.QuoteTable(to))
	sb.WriteString(" (")
	sb.WriteString(d.ColumnList(s, ""))
	sb.WriteString(") ")
	sb.WriteString(d.SelectUnionAll(from, s))
	sb.WriteString(" ON CONFLICT (")
	for i, k := range m.Keys {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.QuoteIdent(k))
	}
	rule := d.updateRule(s, m)
	if rule == "" {
		// Every column is a key; nothing left to update.
		sb.WriteString(") DO NOTHING")
	} else {
		sb.WriteString(") DO UPDATE SET ")
		sb.WriteString(rule)
	}
	return []string{sb.String()}
}

// updateRule renders the upsert SET body: the custom rule verbatim when
// present, otherwise "col = EXCLUDED.col" for every non-key column.
func (d *Dialect) updateRule(s ddl.Schema, m ddl.MergeSpec) string {
	if m.HasRule() {
		return strings.Join(m.Rule, ", ")
	}
	keys := make(map[string]struct{}, len(m.Keys))
	for _, k := range m.Keys {
		keys[k] = struct{}{}
	}
	var sb strings.Builder
	first := true
	for _, c := range s {
		if _, isKey := keys[c.Name]; isKey {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		col := d.QuoteIdent(c.Name)
		sb.WriteString(col)
		sb.WriteString(" = EXCLUDED.")
		sb.WriteString(col)
	}
	return sb.String()
}
