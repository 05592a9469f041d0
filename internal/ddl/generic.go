package ddl

import (
	"fmt"
	"strings"
)

// Quoting holds the identifier quote pair for a dialect. The closing string
// is escaped by doubling wherever it appears inside an identifier.
type Quoting struct {
	Begin string
	End   string
}

// ANSIQuoting is the double-quote convention used by Postgres and SQLite.
var ANSIQuoting = Quoting{Begin: `"`, End: `"`}

// BracketQuoting is the square-bracket convention used by SQL Server.
var BracketQuoting = Quoting{Begin: "[", End: "]"}

// Mapper is the dialect surface needed to render a column declaration.
// Concrete dialects implement it by embedding Generic and overriding the
// type-mapping methods they need to special-case; passing the outer dialect
// back into the Generic builders is what stands in for virtual dispatch.
type Mapper interface {
	QuoteIdent(id string) string
	ColumnTypeName(c Column) string
	DeclareType(typeName string, c Column) DeclareType
}

// ColumnDeclaration renders one column declaration using the mapper's type
// mapping and declaration classification:
//
//	<quoted name> <type>[(size[,scale])] [NOT NULL] [DEFAULT <expr>]
func ColumnDeclaration(m Mapper, c Column) string {
	typeName := m.ColumnTypeName(c)

	var sb strings.Builder
	sb.WriteString(m.QuoteIdent(c.Name))
	sb.WriteByte(' ')
	switch m.DeclareType(typeName, c) {
	case DeclareSize:
		fmt.Fprintf(&sb, "%s(%d)", typeName, c.Size)
	case DeclareSizeAndScale:
		fmt.Fprintf(&sb, "%s(%d,%d)", typeName, c.Size, c.Scale)
	default:
		sb.WriteString(typeName)
	}

	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if def := strings.TrimSpace(c.Default); def != "" {
		// Default is emitted as a raw SQL expression.
		sb.WriteString(" DEFAULT ")
		sb.WriteString(def)
	}
	return sb.String()
}

// Generic is the base dialect: ANSI-leaning defaults that concrete backends
// embed and selectively override. Its builders are deterministic pure
// functions of their inputs.
type Generic struct {
	Quoting Quoting
}

// QuoteIdent quotes a single identifier segment, escaping the closing quote
// by doubling:
//
//	name     -> "name"
//	weird"id -> "weird""id"
func (g Generic) QuoteIdent(id string) string {
	q := g.Quoting
	if q.Begin == "" {
		q = ANSIQuoting
	}
	return q.Begin + strings.ReplaceAll(id, q.End, q.End+q.End) + q.End
}

// QuoteTable quotes a table reference segment by segment:
//
//	{dbo orders} -> "dbo"."orders" (or [dbo].[orders] under bracket quoting)
func (g Generic) QuoteTable(t TableRef) string {
	if t.Schema == "" {
		return g.QuoteIdent(t.Name)
	}
	return g.QuoteIdent(t.Schema) + "." + g.QuoteIdent(t.Name)
}

// ColumnTypeName maps a logical type to its physical name. The generic
// mapping is a normalized passthrough: the logical simple-type name,
// trimmed and uppercased. Dialects override this for engine-specific types
// and fall back here for everything they do not special-case.
func (g Generic) ColumnTypeName(c Column) string {
	return strings.ToUpper(strings.TrimSpace(c.Type))
}

// DeclareType classifies how typeName is rendered for column c:
//
//   - a type name that already carries parentheses is rendered as-is
//   - Scale > 0 renders "<type>(<size>,<scale>)"
//   - Size > 0 renders "<type>(<size>)"
//   - otherwise the bare type name
func (g Generic) DeclareType(typeName string, c Column) DeclareType {
	if strings.ContainsRune(typeName, '(') {
		return DeclareSimple
	}
	switch {
	case c.Scale > 0:
		return DeclareSizeAndScale
	case c.Size > 0:
		return DeclareSize
	default:
		return DeclareSimple
	}
}

// BuildCreateTableSQL renders a CREATE TABLE statement for the given schema.
// Key columns become a PRIMARY KEY clause unless a raw table constraint is
// supplied, in which case the constraint is emitted verbatim instead. An
// optional tableOption string is appended verbatim after the closing paren.
//
// The Mapper argument must be the outermost dialect so that overridden type
// mappings are honored; see Mapper.
func (g Generic) BuildCreateTableSQL(m Mapper, t TableRef, s Schema, constraint, option string) string {
	cols := make([]string, 0, len(s)+1)
	for _, c := range s {
		cols = append(cols, ColumnDeclaration(m, c))
	}

	if constraint = strings.TrimSpace(constraint); constraint != "" {
		cols = append(cols, constraint)
	} else if keys := s.KeyNames(); len(keys) > 0 {
		quoted := make([]string, len(keys))
		for i, k := range keys {
			quoted[i] = m.QuoteIdent(k)
		}
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", g.QuoteTable(t), strings.Join(cols, ", "))
	if option = strings.TrimSpace(option); option != "" {
		stmt += " " + option
	}
	return stmt
}

// DropTableSQL renders an unconditional DROP TABLE.
func (g Generic) DropTableSQL(t TableRef) string {
	return "DROP TABLE " + g.QuoteTable(t)
}

// DropTableIfExistsSQL renders a DROP TABLE guarded by IF EXISTS. Only valid
// for dialects whose SupportsTableIfExists reports true; others must probe
// for the table and branch themselves.
func (g Generic) DropTableIfExistsSQL(t TableRef) string {
	return "DROP TABLE IF EXISTS " + g.QuoteTable(t)
}

// RenameTableSQL renders the portable single-schema rename form. The
// destination schema qualifier is ignored: renames never move a table across
// schemas, only change its bare name.
func (g Generic) RenameTableSQL(from, to TableRef) string {
	return "ALTER TABLE " + g.QuoteTable(from) + " RENAME TO " + g.QuoteIdent(to.Name)
}

// SelectUnionAll renders one SELECT of the full ordered column list per
// source table, combined with UNION ALL in caller order. Duplicates across
// tables are preserved; there is no dedup.
func (g Generic) SelectUnionAll(from []TableRef, s Schema) string {
	cols := g.ColumnList(s, "")
	parts := make([]string, len(from))
	for i, f := range from {
		parts[i] = "SELECT " + cols + " FROM " + g.QuoteTable(f)
	}
	return strings.Join(parts, " UNION ALL ")
}

// ColumnList renders the schema's quoted column names in schema order,
// comma-joined, each prefixed verbatim with prefix (e.g. "S."). Every column
// list in every builder comes from this one traversal so that SELECT and
// INSERT sides of a statement can never disagree on ordering.
func (g Generic) ColumnList(s Schema, prefix string) string {
	var sb strings.Builder
	for i, c := range s {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(prefix)
		sb.WriteString(g.QuoteIdent(c.Name))
	}
	return sb.String()
}

// InsertSelectSQL renders the append form: insert every staging row into the
// target, no matching, no dedup.
func (g Generic) InsertSelectSQL(from []TableRef, s Schema, to TableRef) string {
	return fmt.Sprintf("INSERT INTO %s (%s) %s",
		g.QuoteTable(to), g.ColumnList(s, ""), g.SelectUnionAll(from, s))
}

// MergeSQL renders the generic merge strategy as an ordered statement list:
// delete target rows whose key appears in the staging set, then insert the
// full staging set. Dialects with a native single-statement upsert override
// this with their own form.
func (g Generic) MergeSQL(from []TableRef, s Schema, to TableRef, m MergeSpec) []string {
	var cond strings.Builder
	for i, k := range m.Keys {
		if i != 0 {
			cond.WriteString(" AND ")
		}
		key := g.QuoteIdent(k)
		fmt.Fprintf(&cond, "S.%s = %s.%s", key, g.QuoteIdent(to.Name), key)
	}
	del := fmt.Sprintf("DELETE FROM %s WHERE EXISTS (SELECT 1 FROM (%s) AS S WHERE %s)",
		g.QuoteTable(to), g.SelectUnionAll(from, s), cond.String())
	return []string{del, g.InsertSelectSQL(from, s, to)}
}

// SupportsTableIfExists reports whether the dialect accepts an IF EXISTS
// clause on DROP TABLE.
func (g Generic) SupportsTableIfExists() bool { return true }

// DDLRequiresAutoCommit reports whether DDL must run outside an explicit
// transaction on this dialect.
func (g Generic) DDLRequiresAutoCommit() bool { return false }
