package connector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"bulkload/internal/ddl"
)

// LoadMode selects how a session's staging tables are committed into the
// target table.
type LoadMode string

const (
	// ModeInsert appends every staging row to the target.
	ModeInsert LoadMode = "insert"
	// ModeMerge folds staging rows into the target by merge key.
	ModeMerge LoadMode = "merge"
	// ModeReplace swaps the combined staging content into the target's place.
	ModeReplace LoadMode = "replace"
)

// ParseLoadMode validates a configured mode string.
func ParseLoadMode(s string) (LoadMode, error) {
	switch m := LoadMode(s); m {
	case ModeInsert, ModeMerge, ModeReplace:
		return m, nil
	case "":
		return ModeInsert, nil
	default:
		return "", fmt.Errorf("connector: unknown load mode %q", s)
	}
}

// Session owns the staging tables for one load run: it names them, creates
// them, commits them into the target by load mode, and drops them afterward.
// Staging names carry a per-session hash token so concurrent runs against
// the same target cannot collide.
type Session struct {
	cn     *Connection
	target ddl.TableRef
	schema ddl.Schema
	merge  ddl.MergeSpec

	token   string
	staging []ddl.TableRef

	constraint string
	option     string
}

// now is a test hook for the session token clock.
var now = time.Now

// NewSession plans a load into target with n staging tables (n < 1 is
// treated as 1). The merge spec is consulted only by ModeMerge commits.
func NewSession(cn *Connection, target ddl.TableRef, s ddl.Schema, m ddl.MergeSpec, n int) *Session {
	if n < 1 {
		n = 1
	}
	seed := target.String() + "|" + strconv.FormatInt(now().UnixNano(), 10)
	token := fmt.Sprintf("%08x", uint32(xxh3.HashString(seed)))

	staging := make([]ddl.TableRef, n)
	for i := range staging {
		staging[i] = ddl.TableRef{
			Schema: target.Schema,
			Name:   fmt.Sprintf("%s_stg_%s_%02d", target.Name, token, i),
		}
	}
	return &Session{cn: cn, target: target, schema: s, merge: m, token: token, staging: staging}
}

// SetTargetCreateClauses sets raw constraint and option fragments used when
// the session creates the target table. Staging tables are always created
// bare; keys and options only matter on the table that survives the run.
func (s *Session) SetTargetCreateClauses(constraint, option string) {
	s.constraint = constraint
	s.option = option
}

// Staging returns the session's staging table references in load order.
func (s *Session) Staging() []ddl.TableRef { return s.staging }

// Target returns the session's target table reference.
func (s *Session) Target() ddl.TableRef { return s.target }

// Prepare creates the staging tables with the target's schema shape.
func (s *Session) Prepare(ctx context.Context) error {
	for _, t := range s.staging {
		if err := s.cn.CreateTable(ctx, t, s.schema, "", ""); err != nil {
			return fmt.Errorf("connector: create staging %s: %w", t, err)
		}
	}
	return nil
}

// Commit folds the loaded staging tables into the target according to mode.
// For insert and merge the target is created first when missing; replace
// swaps staging content into the target's place wholesale.
func (s *Session) Commit(ctx context.Context, mode LoadMode) error {
	switch mode {
	case ModeInsert:
		if err := s.cn.CreateTableIfNotExists(ctx, s.target, s.schema, s.constraint, s.option); err != nil {
			return err
		}
		return s.cn.Append(ctx, s.staging, s.schema, s.target)

	case ModeMerge:
		if err := s.cn.CreateTableIfNotExists(ctx, s.target, s.schema, s.constraint, s.option); err != nil {
			return err
		}
		return s.cn.Merge(ctx, s.staging, s.schema, s.target, s.mergeSpec())

	case ModeReplace:
		return s.commitReplace(ctx)

	default:
		return fmt.Errorf("connector: unknown load mode %q", mode)
	}
}

// commitReplace swaps the staging content into the target's place. A single
// staging table is renamed directly; multiple staging tables are first
// collected into one combined table so the swap stays a single rename.
func (s *Session) commitReplace(ctx context.Context) error {
	swap := s.staging[0]
	if len(s.staging) > 1 {
		swap = ddl.TableRef{Schema: s.target.Schema, Name: fmt.Sprintf("%s_stg_%s_all", s.target.Name, s.token)}
		if err := s.cn.CreateTable(ctx, swap, s.schema, "", ""); err != nil {
			return fmt.Errorf("connector: create swap table %s: %w", swap, err)
		}
		if err := s.cn.Append(ctx, s.staging, s.schema, swap); err != nil {
			return err
		}
	}
	return s.cn.ReplaceTable(ctx, swap, s.target)
}

// Cleanup drops the session's staging tables. Each drop is attempted even if
// an earlier one fails; errors are joined. Safe to call after Commit, when a
// replaced staging table may already be gone.
func (s *Session) Cleanup(ctx context.Context) error {
	var errs []error
	for _, t := range s.staging {
		if err := s.cn.DropTableIfExists(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("connector: drop staging %s: %w", t, err))
		}
	}
	return errors.Join(errs...)
}

// mergeSpec fills in the default merge keys (the schema's key columns) when
// the caller supplied none.
func (s *Session) mergeSpec() ddl.MergeSpec {
	m := s.merge
	if len(m.Keys) == 0 {
		m.Keys = s.schema.KeyNames()
	}
	return m
}
