package config

import "bulkload/internal/ddl"

// This file bridges the JSON configuration model to the ddl value types the
// connector works with.

// Schema converts the configured columns, in order, into a ddl.Schema.
func (t Target) Schema() ddl.Schema {
	s := make(ddl.Schema, len(t.Columns))
	for i, c := range t.Columns {
		s[i] = ddl.Column{
			Name:     c.Name,
			Type:     c.Type,
			Size:     c.Size,
			Scale:    c.Scale,
			Nullable: c.Nullable,
			Default:  c.Default,
			Key:      c.Key,
		}
	}
	return s
}

// TableRef parses the configured table name into a ddl.TableRef.
func (t Target) TableRef() ddl.TableRef {
	return ddl.ParseTableRef(t.Table)
}

// MergeSpec builds the merge specification from the configured keys and rule.
// When MergeKeys is empty the columns marked as key are used.
func (t Target) MergeSpec() ddl.MergeSpec {
	keys := t.MergeKeys
	if len(keys) == 0 {
		keys = t.Schema().KeyNames()
	}
	return ddl.MergeSpec{Keys: keys, Rule: t.MergeRule}
}
