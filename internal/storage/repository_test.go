package storage

import (
	"context"
	"errors"
	"testing"

	"bulkload/internal/connector"
	"bulkload/internal/ddl"
)

// genericDialect completes ddl.Generic into a connector.Dialect by wiring
// CreateTableSQL through the generic builder with itself as the mapper.
type genericDialect struct {
	ddl.Generic
}

func (d genericDialect) CreateTableSQL(t ddl.TableRef, s ddl.Schema, constraint, option string) string {
	return d.BuildCreateTableSQL(d, t, s, constraint, option)
}

// fakeRepo is a minimal Repository implementation for registry tests.
type fakeRepo struct {
	kind   string
	closed bool
}

func (f *fakeRepo) Exec(ctx context.Context, sql string) error { return nil }
func (f *fakeRepo) TableExists(ctx context.Context, t ddl.TableRef) (bool, error) {
	return false, nil
}
func (f *fakeRepo) AutoCommit() bool                                 { return true }
func (f *fakeRepo) SetAutoCommit(ctx context.Context, on bool) error { return nil }
func (f *fakeRepo) Dialect() connector.Dialect                       { return genericDialect{} }
func (f *fakeRepo) CopyInto(ctx context.Context, t ddl.TableRef, columns []string, rows [][]any) (int64, error) {
	return int64(len(rows)), nil
}
func (f *fakeRepo) Close() error {
	f.closed = true
	return nil
}

func TestRegisterAndOpen(t *testing.T) {
	t.Parallel()

	Register("fake-open", func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{kind: cfg.Kind}, nil
	})

	repo, err := Open(context.Background(), Config{Kind: "fake-open", DSN: "ignored"})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	fr, ok := repo.(*fakeRepo)
	if !ok {
		t.Fatalf("Open returned %T, want *fakeRepo", repo)
	}
	if fr.kind != "fake-open" {
		t.Fatalf("factory saw kind %q", fr.kind)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{Kind: "no-such-backend"}); err == nil {
		t.Fatal("want error for unregistered kind")
	}
}

func TestOpenPropagatesFactoryError(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad dsn")
	Register("fake-err", func(ctx context.Context, cfg Config) (Repository, error) {
		return nil, boom
	})

	if _, err := Open(context.Background(), Config{Kind: "fake-err"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the factory error", err)
	}
}

func TestRegisterReplacesFactory(t *testing.T) {
	t.Parallel()

	Register("fake-dup", func(ctx context.Context, cfg Config) (Repository, error) {
		return nil, errors.New("old factory")
	})
	Register("fake-dup", func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	if _, err := Open(context.Background(), Config{Kind: "fake-dup"}); err != nil {
		t.Fatalf("Open error: %v; replacement factory not used", err)
	}
}
