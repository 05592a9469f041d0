package ddl

import (
	"strings"

	"bulkload/internal/ddl"
)

// The three collect builders fold one or more loaded staging tables into the
// target table. They share the same source subquery (one SELECT of the full
// ordered column list per staging table, UNION ALL in caller order), the
// same equality join over the merge keys, and the same update rule, so the
// column ordering of every clause comes from a single schema traversal.

// updateRule renders the SET clause body: the custom rule fragments verbatim
// and in order when present, otherwise "<col> = S.<col>" for every schema
// column in schema order.
func (d *Dialect) updateRule(s ddl.Schema, m ddl.MergeSpec) string {
	if m.HasRule() {
		return strings.Join(m.Rule, ", ")
	}
	var sb strings.Builder
	for i, c := range s {
		if i != 0 {
			sb.WriteString(", ")
		}
		col := d.QuoteIdent(c.Name)
		sb.WriteString(col)
		sb.WriteString(" = S.")
		sb.WriteString(col)
	}
	return sb.String()
}

// keyJoin renders the equality join over the merge keys, AND-joined in key
// order, with both sides alias-qualified (T = target, S = staging union).
func (d *Dialect) keyJoin(m ddl.MergeSpec) string {
	var sb strings.Builder
	for i, k := range m.Keys {
		if i != 0 {
			sb.WriteString(" AND ")
		}
		key := d.QuoteIdent(k)
		sb.WriteString("T.")
		sb.WriteString(key)
		sb.WriteString(" = S.")
		sb.WriteString(key)
	}
	return sb.String()
}

// CollectUpdateSQL renders the update half of the two-step merge: rows in
// the target whose key matches the combined staging set get the update rule
// applied. Staging rows with duplicate keys each join; which write lands
// last is engine-defined, not specified here.
func (d *Dialect) CollectUpdateSQL(from []ddl.TableRef, s ddl.Schema, to ddl.TableRef, m ddl.MergeSpec) string {
	var sb strings.Builder
	sb.WriteString("UPDATE T SET ")
	sb.WriteString(d.updateRule(s, m))
	sb.WriteString(" FROM ")
	sb.WriteString(d.QuoteTable(to))
	sb.WriteString(" AS T JOIN (")
	sb.WriteString(d.SelectUnionAll(from, s))
	sb.WriteString(") AS S ON ")
	sb.WriteString(d.keyJoin(m))
	return sb.String()
}

// CollectInsertSQL renders the insert half of the two-step merge: staging
// rows whose key is absent from the target are inserted. Duplicate keys
// within the staging set are not deduplicated and insert multiply.
func (d *Dialect) CollectInsertSQL(from []ddl.TableRef, s ddl.Schema, to ddl.TableRef, m ddl.MergeSpec) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.QuoteTable(to))
	sb.WriteString(" (")
	sb.WriteString(d.ColumnList(s, ""))
	sb.WriteString(") SELECT * FROM (")
	sb.WriteString(d.SelectUnionAll(from, s))
	sb.WriteString(") AS S WHERE NOT EXISTS (SELECT 1 FROM ")
	sb.WriteString(d.QuoteTable(to))
	sb.WriteString(" AS T WHERE ")
	sb.WriteString(d.keyJoin(m))
	sb.WriteString(")")
	return sb.String()
}

// CollectMergeSQL renders the atomic single-statement form: one MERGE that
// updates matched rows and inserts the rest.
func (d *Dialect) CollectMergeSQL(from []ddl.TableRef, s ddl.Schema, to ddl.TableRef, m ddl.MergeSpec) string {
	var sb strings.Builder
	sb.WriteString("MERGE INTO ")
	sb.WriteString(d.QuoteTable(to))
	sb.WriteString(" AS T USING (")
	sb.WriteString(d.SelectUnionAll(from, s))
	sb.WriteString(") AS S ON (")
	sb.WriteString(d.keyJoin(m))
	sb.WriteString(") WHEN MATCHED THEN UPDATE SET ")
	sb.WriteString(d.updateRule(s, m))
	sb.WriteString(" WHEN NOT MATCHED THEN INSERT (")
	sb.WriteString(d.ColumnList(s, ""))
	sb.WriteString(") VALUES (")
	sb.WriteString(d.ColumnList(s, "S."))
	sb.WriteString(");")
	return sb.String()
}

// MergeSQL implements the connector's merge strategy. The standard engine
// commits with a single MERGE. Synapse dedicated pools get the two-step
// UPDATE-then-INSERT pair instead: existing keys are updated first, then
// the remainder inserted.
func (d *Dialect) MergeSQL(from []ddl.TableRef, s ddl.Schema, to ddl.TableRef, m ddl.MergeSpec) []string {
	if d.product == ProductAzureSynapse {
		return []string{
			d.CollectUpdateSQL(from, s, to, m),
			d.CollectInsertSQL(from, s, to, m),
		}
	}
	return []string{d.CollectMergeSQL(from, s, to, m)}
}
