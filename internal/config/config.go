// Package config defines the canonical, JSON-serializable configuration model
// for the bulk loader. It is intentionally small, explicit, and dependency-
// free so that jobs can be loaded from disk (or other sources) and passed
// through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in job files
//     under configs/jobs/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":    "orders_daily",
//	  "source": { "kind": "csv", "file": { "path": "orders.csv" }, "options": { "has_header": true } },
//	  "target": {
//	    "kind": "sqlserver", "dsn": "sqlserver://...", "table": "dbo.orders",
//	    "mode": "merge", "merge_keys": ["id"],
//	    "columns": [
//	      { "name": "id",   "type": "BIGINT", "key": true },
//	      { "name": "name", "type": "NVARCHAR", "size": 200 }
//	    ]
//	  }
//	}
package config

import "encoding/json"

// Job describes one full bulk-load run in JSON. It is the top-level object
// decoded from a job file (e.g., configs/jobs/*.json).
type Job struct {
	// Name identifies the run; it labels metrics and log lines.
	Name string `json:"job"`

	// Source describes where input rows come from (e.g., a local CSV file).
	Source Source `json:"source"`

	// Target describes the destination table and how rows are committed to it.
	Target Target `json:"target"`

	// Runtime controls concurrency, batching, and channel buffer sizes.
	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls concurrency, batching, and channel buffer sizes.
type RuntimeConfig struct {
	LoaderWorkers int `json:"loader_workers"`
	BatchSize     int `json:"batch_size"`
	ChannelBuffer int `json:"channel_buffer"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation. Current value: "csv".
	Kind string `json:"kind"`

	// File carries options for file-backed source kinds.
	File SourceFile `json:"file"`

	// Options is a free-form map interpreted by the source implementation.
	// For CSV, typical keys include:
	//   has_header (bool), comma (string), trim_space (bool)
	Options Options `json:"options"`
}

// SourceFile holds configuration for file-backed source kinds.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// Target configures the destination table and commit strategy.
type Target struct {
	// Kind selects the storage backend ("sqlserver", "synapse", "postgres",
	// "sqlite").
	Kind string `json:"kind"`

	// DSN is the backend connection string.
	DSN string `json:"dsn"`

	// Table is the destination table name, optionally schema-qualified
	// (e.g., "dbo.orders").
	Table string `json:"table"`

	// Columns enumerates the destination columns in load order, with their
	// logical types. The order is used for bulk copy, the staging-table DDL,
	// and every merge clause.
	Columns []ColumnConfig `json:"columns"`

	// Mode selects the commit strategy: "insert" (default), "replace", or
	// "merge".
	Mode string `json:"mode"`

	// MergeKeys names the columns that identify a record for merge mode.
	// When empty, the columns marked "key": true are used.
	MergeKeys []string `json:"merge_keys"`

	// MergeRule optionally replaces the generated SET clause of the merge
	// with the given expression fragments, emitted verbatim and in order.
	MergeRule []string `json:"merge_rule"`

	// AutoCreateTable creates the destination table when it does not exist
	// (insert and merge modes; replace mode always creates it).
	AutoCreateTable bool `json:"auto_create_table"`

	// StagingTables sets how many staging tables the load is spread across.
	// More tables allow concurrent bulk copies. Defaults to 1.
	StagingTables int `json:"staging_tables"`

	// CreateConstraint optionally replaces the generated PRIMARY KEY clause
	// in CREATE TABLE statements (e.g., a named or composite constraint).
	CreateConstraint string `json:"create_constraint"`

	// CreateOption is appended verbatim to CREATE TABLE statements (e.g., a
	// Synapse distribution clause).
	CreateOption string `json:"create_option"`
}

// ColumnConfig describes one destination column.
type ColumnConfig struct {
	// Name is the column name as it appears in the destination table.
	Name string `json:"name"`

	// Type is the logical type (e.g., "BIGINT", "VARCHAR", "TIMESTAMP").
	// Each backend maps it to a physical type.
	Type string `json:"type"`

	// Size is the declared length for sized types; 0 means unsized.
	Size int `json:"size"`

	// Scale is the declared scale for decimal types; meaningful with Size.
	Scale int `json:"scale"`

	// Nullable marks the column NULL-able in generated DDL.
	Nullable bool `json:"nullable"`

	// Default is an optional literal DEFAULT expression, emitted verbatim.
	Default string `json:"default"`

	// Key marks the column as part of the logical record key, used for
	// generated PRIMARY KEY clauses and as the default merge key set.
	Key bool `json:"key"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options is used for source-specific configuration where the shape varies by
// implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character source settings such
// as a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
