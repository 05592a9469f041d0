package ddl

import (
	"reflect"
	"testing"
)

var (
	ansi    = Generic{Quoting: ANSIQuoting}
	bracket = Generic{Quoting: BracketQuoting}
)

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		g    Generic
		in   string
		want string
	}{
		{"ansi plain", ansi, "name", `"name"`},
		{"ansi embedded quote doubled", ansi, `weird"id`, `"weird""id"`},
		{"bracket plain", bracket, "name", "[name]"},
		{"bracket closing doubled", bracket, "odd]name", "[odd]]name]"},
		{"zero value falls back to ansi", Generic{}, "name", `"name"`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.g.QuoteIdent(tt.in); got != tt.want {
				t.Fatalf("QuoteIdent(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuoteTable(t *testing.T) {
	t.Parallel()

	if got, want := ansi.QuoteTable(TableRef{Schema: "public", Name: "t"}), `"public"."t"`; got != want {
		t.Fatalf("QuoteTable = %q; want %q", got, want)
	}
	if got, want := bracket.QuoteTable(TableRef{Name: "t"}), "[t]"; got != want {
		t.Fatalf("QuoteTable = %q; want %q", got, want)
	}
}

func TestGenericColumnTypeName(t *testing.T) {
	t.Parallel()

	if got := ansi.ColumnTypeName(Column{Type: " varchar "}); got != "VARCHAR" {
		t.Fatalf("ColumnTypeName = %q; want VARCHAR", got)
	}
}

func TestGenericDeclareType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		typeName string
		col      Column
		want     DeclareType
	}{
		{"no size", "BIGINT", Column{}, DeclareSimple},
		{"size only", "VARCHAR", Column{Size: 40}, DeclareSize},
		{"size and scale", "DECIMAL", Column{Size: 10, Scale: 2}, DeclareSizeAndScale},
		{"pre-rendered parens stay simple", "NVARCHAR(max)", Column{Size: 5000}, DeclareSimple},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ansi.DeclareType(tt.typeName, tt.col); got != tt.want {
				t.Fatalf("DeclareType(%q, %+v) = %v; want %v", tt.typeName, tt.col, got, tt.want)
			}
		})
	}
}

func TestColumnDeclaration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		col  Column
		want string
	}{
		{
			"sized not null",
			Column{Name: "name", Type: "VARCHAR", Size: 40},
			`"name" VARCHAR(40) NOT NULL`,
		},
		{
			"nullable with default",
			Column{Name: "qty", Type: "BIGINT", Nullable: true, Default: "0"},
			`"qty" BIGINT DEFAULT 0`,
		},
		{
			"size and scale",
			Column{Name: "price", Type: "DECIMAL", Size: 10, Scale: 2, Nullable: true},
			`"price" DECIMAL(10,2)`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ColumnDeclaration(ansi, tt.col); got != tt.want {
				t.Fatalf("ColumnDeclaration = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tbl := TableRef{Schema: "public", Name: "orders"}
	schema := Schema{
		{Name: "id", Type: "BIGINT", Key: true},
		{Name: "name", Type: "VARCHAR", Size: 100, Nullable: true},
	}

	t.Run("keys become primary key clause", func(t *testing.T) {
		t.Parallel()
		got := ansi.BuildCreateTableSQL(ansi, tbl, schema, "", "")
		want := `CREATE TABLE "public"."orders" ("id" BIGINT NOT NULL, "name" VARCHAR(100), PRIMARY KEY ("id"))`
		if got != want {
			t.Fatalf("got  %q\nwant %q", got, want)
		}
	})

	t.Run("explicit constraint replaces key clause", func(t *testing.T) {
		t.Parallel()
		got := ansi.BuildCreateTableSQL(ansi, tbl, schema, "CONSTRAINT pk_orders PRIMARY KEY (id)", "")
		want := `CREATE TABLE "public"."orders" ("id" BIGINT NOT NULL, "name" VARCHAR(100), CONSTRAINT pk_orders PRIMARY KEY (id))`
		if got != want {
			t.Fatalf("got  %q\nwant %q", got, want)
		}
	})

	t.Run("option appended verbatim", func(t *testing.T) {
		t.Parallel()
		got := ansi.BuildCreateTableSQL(ansi, TableRef{Name: "t"}, Schema{{Name: "a", Type: "BIGINT", Nullable: true}}, "", "WITH (DISTRIBUTION = ROUND_ROBIN)")
		want := `CREATE TABLE "t" ("a" BIGINT) WITH (DISTRIBUTION = ROUND_ROBIN)`
		if got != want {
			t.Fatalf("got  %q\nwant %q", got, want)
		}
	})
}

func TestDropAndRenameSQL(t *testing.T) {
	t.Parallel()

	tbl := TableRef{Schema: "public", Name: "t"}
	if got, want := ansi.DropTableSQL(tbl), `DROP TABLE "public"."t"`; got != want {
		t.Fatalf("DropTableSQL = %q; want %q", got, want)
	}
	if got, want := ansi.DropTableIfExistsSQL(tbl), `DROP TABLE IF EXISTS "public"."t"`; got != want {
		t.Fatalf("DropTableIfExistsSQL = %q; want %q", got, want)
	}
	got := ansi.RenameTableSQL(tbl, TableRef{Schema: "ignored", Name: "t_old"})
	want := `ALTER TABLE "public"."t" RENAME TO "t_old"`
	if got != want {
		t.Fatalf("RenameTableSQL = %q; want %q", got, want)
	}
}

func TestSelectUnionAll(t *testing.T) {
	t.Parallel()

	schema := Schema{{Name: "a"}, {Name: "b"}}
	from := []TableRef{{Name: "s1"}, {Name: "s2"}}

	got := ansi.SelectUnionAll(from, schema)
	want := `SELECT "a", "b" FROM "s1" UNION ALL SELECT "a", "b" FROM "s2"`
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}

	single := ansi.SelectUnionAll(from[:1], schema)
	if single != `SELECT "a", "b" FROM "s1"` {
		t.Fatalf("single-table union = %q", single)
	}
}

func TestInsertSelectSQL(t *testing.T) {
	t.Parallel()

	schema := Schema{{Name: "a"}, {Name: "b"}}
	got := ansi.InsertSelectSQL([]TableRef{{Name: "s1"}}, schema, TableRef{Name: "t"})
	want := `INSERT INTO "t" ("a", "b") SELECT "a", "b" FROM "s1"`
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestGenericMergeSQL(t *testing.T) {
	t.Parallel()

	schema := Schema{{Name: "id"}, {Name: "v"}}
	from := []TableRef{{Name: "s1"}}
	to := TableRef{Name: "t"}

	got := ansi.MergeSQL(from, schema, to, MergeSpec{Keys: []string{"id"}})
	want := []string{
		`DELETE FROM "t" WHERE EXISTS (SELECT 1 FROM (SELECT "id", "v" FROM "s1") AS S WHERE S."id" = "t"."id")`,
		`INSERT INTO "t" ("id", "v") SELECT "id", "v" FROM "s1"`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func BenchmarkBuildCreateTableSQL(b *testing.B) {
	tbl := TableRef{Schema: "public", Name: "orders"}
	schema := Schema{
		{Name: "id", Type: "BIGINT", Key: true},
		{Name: "name", Type: "VARCHAR", Size: 100, Nullable: true},
		{Name: "price", Type: "DECIMAL", Size: 10, Scale: 2, Nullable: true},
		{Name: "created", Type: "TIMESTAMP", Nullable: true},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = ansi.BuildCreateTableSQL(ansi, tbl, schema, "", "")
	}
}
