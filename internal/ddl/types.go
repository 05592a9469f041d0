// Package ddl defines the backend-agnostic model shared by every SQL-synthesis
// layer in the connector: logical column and schema descriptions, table
// references, merge rules, and the Generic base dialect that concrete backends
// (sqlserver, postgres, sqlite) compose and override.
//
// Everything in this package is a value object: constructed per call from
// caller-supplied state, never mutated afterward, never owned across calls.
// Builders here are pure text generators; they perform no validation beyond
// what is needed to render, and they never touch a database.
package ddl

import "strings"

// Column describes a single destination column in logical terms.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Type: logical simple-type name (e.g., BOOLEAN, CLOB, TIMESTAMP, VARCHAR,
//     NVARCHAR, BIGINT, DECIMAL). Dialects map this to a physical type.
//   - Size: character/byte length bound; meaningful only for variable-length
//     and precision-carrying types.
//   - Scale: numeric scale, paired with Size for DECIMAL-style types.
//   - Nullable: whether NULL is allowed.
//   - Default: raw default expression, emitted verbatim.
//   - Key: whether the column participates in the merge/primary key.
type Column struct {
	Name     string
	Type     string
	Size     int
	Scale    int
	Nullable bool
	Default  string
	Key      bool
}

// Schema is an ordered list of columns. Order is significant: every column
// list rendered from one Schema (SELECT lists, INSERT lists, SET clauses)
// must use the same ordered traversal, or generated statements silently
// misalign values. All builders in this module go through Names or a direct
// index loop for exactly that reason.
type Schema []Column

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// KeyNames returns the names of key columns in schema order.
func (s Schema) KeyNames() []string {
	var out []string
	for _, c := range s {
		if c.Key {
			out = append(out, c.Name)
		}
	}
	return out
}

// TableRef names a table with an optional schema qualifier. Two TableRef
// values naming the same physical table render identical SQL text.
type TableRef struct {
	Schema string
	Name   string
}

// String returns the dotted, unquoted form ("schema.table" or "table").
func (t TableRef) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Qualified reports whether the reference carries a schema qualifier.
func (t TableRef) Qualified() bool { return t.Schema != "" }

// ParseTableRef splits a dotted "schema.table" string into a TableRef.
// A bare name yields an unqualified reference; extra segments beyond the
// first dot are kept in the table name.
func ParseTableRef(fqn string) TableRef {
	fqn = strings.TrimSpace(fqn)
	if i := strings.IndexByte(fqn, '.'); i >= 0 {
		return TableRef{Schema: fqn[:i], Name: fqn[i+1:]}
	}
	return TableRef{Name: fqn}
}

// MergeSpec configures how staging rows are folded into the target table.
//
// Keys is the ordered list of equality-join columns. Rule optionally carries
// custom "column = expression" fragments emitted verbatim in order; when Rule
// is empty, builders default to "<col> = S.<col>" for every schema column.
//
// Keys are expected to be a non-empty subset of the schema's column names.
// Builders do not validate this: a violation produces syntactically valid but
// semantically wrong SQL. That is a deliberate trade to keep this layer a
// pure text generator; the caller owns the contract.
type MergeSpec struct {
	Keys []string
	Rule []string
}

// HasRule reports whether a custom update rule is present.
func (m MergeSpec) HasRule() bool { return len(m.Rule) > 0 }

// DeclareType classifies how a physical column type is rendered in a column
// declaration.
type DeclareType int

const (
	// DeclareSimple renders the type name with no size/precision suffix.
	DeclareSimple DeclareType = iota
	// DeclareSize renders "<type>(<size>)".
	DeclareSize
	// DeclareSizeAndScale renders "<type>(<size>,<scale>)".
	DeclareSizeAndScale
)
