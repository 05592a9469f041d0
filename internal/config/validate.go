// Package config provides configuration models and helpers for bulk-load jobs.
//
// This file adds a lightweight linter/validator for Job values. It performs
// static checks over a decoded Job and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Job.
//
// Path is a dotted path into the config (e.g. "target.kind",
// "target.columns[1].name"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateJob performs static validation / linting of a Job.
//
// It does not mutate the job. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	var j config.Job
//	if err := json.NewDecoder(r).Decode(&j); err != nil { ... }
//	issues := config.ValidateJob(j)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Name) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(j.Source)...)
	issues = append(issues, validateTarget(j.Target)...)
	issues = append(issues, validateRuntime(j.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	// Known source kinds. Unknown kinds are warnings (for forward compatibility).
	known := map[string]struct{}{
		"csv": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	switch s.Kind {
	case "csv":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "csv source requires a non-empty path",
			})
		}
	}

	return issues
}

// validateTarget validates target configuration: backend kind, DSN, table,
// columns, and the mode-specific settings.
func validateTarget(t Target) []Issue {
	var issues []Issue

	if strings.TrimSpace(t.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "target.kind",
			Message:  "target.kind must not be empty",
		})
		return issues
	}

	known := map[string]struct{}{
		"sqlserver": {},
		"synapse":   {},
		"postgres":  {},
		"sqlite":    {},
	}
	if _, ok := known[t.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "target.kind",
			Message:  fmt.Sprintf("unknown target kind %q; ensure a matching backend is registered", t.Kind),
		})
	}

	if strings.TrimSpace(t.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "target.dsn",
			Message:  "target.dsn must not be empty",
		})
	}
	if strings.TrimSpace(t.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "target.table",
			Message:  "target.table must not be empty",
		})
	}
	if len(t.Columns) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "target.columns",
			Message:  "target.columns must not be empty; at least one destination column is required",
		})
	}

	seen := map[string]struct{}{}
	for i, c := range t.Columns {
		path := fmt.Sprintf("target.columns[%d]", i)
		if strings.TrimSpace(c.Name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  "column name must not be empty",
			})
			continue
		}
		if _, dup := seen[c.Name]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  fmt.Sprintf("duplicate column name %q", c.Name),
			})
		}
		seen[c.Name] = struct{}{}
		if strings.TrimSpace(c.Type) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".type",
				Message:  "column type must not be empty",
			})
		}
		if c.Size < 0 || c.Scale < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "size and scale must not be negative",
			})
		}
	}

	switch t.Mode {
	case "", "insert", "replace":
	case "merge":
		keys := t.MergeKeys
		if len(keys) == 0 {
			for _, c := range t.Columns {
				if c.Key {
					keys = append(keys, c.Name)
				}
			}
		}
		if len(keys) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "target.merge_keys",
				Message:  "merge mode requires merge_keys or at least one column marked as key",
			})
		}
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "target.merge_keys",
					Message:  fmt.Sprintf("merge key %q is not a configured column", k),
				})
			}
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "target.mode",
			Message:  fmt.Sprintf("unknown mode %q; expected insert, replace, or merge", t.Mode),
		})
	}

	if len(t.MergeRule) > 0 && t.Mode != "merge" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "target.merge_rule",
			Message:  "merge_rule is set but mode is not merge; it will be ignored",
		})
	}
	if t.StagingTables < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "target.staging_tables",
			Message:  "staging_tables must not be negative",
		})
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations
// (negative values, zero-sized batches, etc.).
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; non-positive batch sizes fall back to the default", r.BatchSize),
		})
	}
	if r.LoaderWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.loader_workers",
			Message:  "loader_workers must not be negative",
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}

	return issues
}
