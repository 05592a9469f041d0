// Package ddl implements the SQLite dialect for the bulk-load connector.
//
// SQLite's dynamic typing makes the physical mapping mostly about affinities:
// integer-ish types land as INTEGER, floating point as REAL, character data
// as TEXT, and temporal values as TEXT (ISO-8601 strings).
package ddl

import (
	"strings"

	"bulkload/internal/ddl"
)

// Dialect is the SQLite dialect. ANSI double-quote identifiers; schema
// qualifiers are rendered but only meaningful with attached databases.
type Dialect struct {
	ddl.Generic
}

// New returns the SQLite dialect.
func New() *Dialect {
	return &Dialect{Generic: ddl.Generic{Quoting: ddl.ANSIQuoting}}
}

// ColumnTypeName maps a logical column type to its SQLite affinity.
func (d *Dialect) ColumnTypeName(c ddl.Column) string {
	switch c.Type {
	case "BOOLEAN", "BIGINT", "INTEGER", "SMALLINT", "TINYINT":
		return "INTEGER"
	case "FLOAT", "DOUBLE", "REAL":
		return "REAL"
	case "DECIMAL", "NUMERIC":
		return "NUMERIC"
	case "DATE", "TIMESTAMP", "DATETIME", "TIME":
		return "TEXT"
	case "BLOB":
		return "BLOB"
	case "CLOB", "VARCHAR", "NVARCHAR", "CHAR", "NCHAR":
		return "TEXT"
	}
	return d.Generic.ColumnTypeName(c)
}

// DeclareType always declares bare type names; SQLite ignores length
// arguments, so emitting them only adds noise.
func (d *Dialect) DeclareType(typeName string, c ddl.Column) ddl.DeclareType {
	return ddl.DeclareSimple
}

// CreateTableSQL renders CREATE TABLE through the generic builder with this
// dialect's type mapping.
func (d *Dialect) CreateTableSQL(t ddl.TableRef, s ddl.Schema, constraint, option string) string {
	return d.Generic.BuildCreateTableSQL(d, t, s, constraint, option)
}

// MergeSQL folds the staging tables into the target with SQLite's upsert,
// INSERT ... ON CONFLICT DO UPDATE over the key columns. The source union is
// wrapped with WHERE true so the parser does not mistake ON CONFLICT for a
// join clause.
func (d *Dialect) MergeSQL(from []ddl.TableRef, s ddl.Schema, to ddl.TableRef, m ddl.MergeSpec) []string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.QuoteTable(to))
	sb.WriteString(" (")
	sb.WriteString(d.ColumnList(s, ""))
	sb.WriteString(") SELECT * FROM (")
	sb.WriteString(d.SelectUnionAll(from, s))
	sb.WriteString(") WHERE true ON CONFLICT (")
	for i, k := range m.Keys {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.QuoteIdent(k))
	}
	rule := d.updateRule(s, m)
	if rule == "" {
		sb.WriteString(") DO NOTHING")
	} else {
		sb.WriteString(") DO UPDATE SET ")
		sb.WriteString(rule)
	}
	return []string{sb.String()}
}

// updateRule renders the upsert SET body: the custom rule verbatim when
// present, otherwise "col = excluded.col" for every non-key column.
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
		sb.WriteString(" = excluded.")
		sb.WriteString(col)
	}
	return sb.String()
}
