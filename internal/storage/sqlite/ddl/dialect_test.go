package ddl

import (
	"testing"

	"bulkload/internal/ddl"
)

func TestColumnTypeName(t *testing.T) {
	t.Parallel()

	d := New()

	tests := []struct {
		in   string
		want string
	}{
		{"BOOLEAN", "INTEGER"},
		{"BIGINT", "INTEGER"},
		{"DOUBLE", "REAL"},
		{"DECIMAL", "NUMERIC"},
		{"TIMESTAMP", "TEXT"},
		{"CLOB", "TEXT"},
		{"NVARCHAR", "TEXT"},
		{"BLOB", "BLOB"},
		{"UUID", "UUID"}, // unknown types pass through
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := d.ColumnTypeName(ddl.Column{Type: tt.in}); got != tt.want {
				t.Fatalf("ColumnTypeName(%s) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeclarationsDropSizes(t *testing.T) {
	t.Parallel()

	d := New()
	got := d.CreateTableSQL(
		ddl.TableRef{Name: "t"},
		ddl.Schema{
			{Name: "id", Type: "BIGINT", Key: true},
			{Name: "name", Type: "VARCHAR", Size: 100, Nullable: true},
			{Name: "price", Type: "DECIMAL", Size: 10, Scale: 2, Nullable: true},
		},
		"", "",
	)
	want := `CREATE TABLE "t" ("id" INTEGER NOT NULL, "name" TEXT, "price" NUMERIC, PRIMARY KEY ("id"))`
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestMergeSQLUpsert(t *testing.T) {
	t.Parallel()

	d := New()
	schema := ddl.Schema{
		{Name: "id", Type: "BIGINT", Key: true},
		{Name: "name", Type: "VARCHAR"},
	}
	got := d.MergeSQL(
		[]ddl.TableRef{{Name: "s1"}},
		schema,
		ddl.TableRef{Name: "t"},
		ddl.MergeSpec{Keys: []string{"id"}},
	)
	want := `INSERT INTO "t" ("id", "name") SELECT * FROM (SELECT "id", "name" FROM "s1") WHERE true ON CONFLICT ("id") DO UPDATE SET "name" = excluded."name"`
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestMergeSQLAllKeysDoNothing(t *testing.T) {
	t.Parallel()

	d := New()
	schema := ddl.Schema{{Name: "id", Type: "BIGINT", Key: true}}
	got := d.MergeSQL(
		[]ddl.TableRef{{Name: "s1"}},
		schema,
		ddl.TableRef{Name: "t"},
		ddl.MergeSpec{Keys: []string{"id"}},
	)
	want := `INSERT INTO "t" ("id") SELECT * FROM (SELECT "id" FROM "s1") WHERE true ON CONFLICT ("id") DO NOTHING`
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestMergeSQLCustomRule(t *testing.T) {
	t.Parallel()

	d := New()
	schema := ddl.Schema{
		{Name: "id", Type: "BIGINT", Key: true},
		{Name: "hits", Type: "BIGINT"},
	}
	got := d.MergeSQL(
		[]ddl.TableRef{{Name: "s1"}},
		schema,
		ddl.TableRef{Name: "t"},
		ddl.MergeSpec{Keys: []string{"id"}, Rule: []string{`"hits" = "t"."hits" + excluded."hits"`}},
	)
	want := `INSERT INTO "t" ("id", "hits") SELECT * FROM (SELECT "id", "hits" FROM "s1") WHERE true ON CONFLICT ("id") DO UPDATE SET "hits" = "t"."hits" + excluded."hits"`
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}
