package ddl

import (
	"testing"

	"bulkload/internal/ddl"
)

func TestProductString(t *testing.T) {
	t.Parallel()

	if got := ProductSQLServer.String(); got != "sqlserver" {
		t.Fatalf("ProductSQLServer.String() = %q", got)
	}
	if got := ProductAzureSynapse.String(); got != "synapse" {
		t.Fatalf("ProductAzureSynapse.String() = %q", got)
	}
}

func TestColumnTypeName(t *testing.T) {
	t.Parallel()

	std := New(ProductSQLServer)
	syn := New(ProductAzureSynapse)

	tests := []struct {
		name string
		d    *Dialect
		col  ddl.Column
		want string
	}{
		{"boolean", std, ddl.Column{Type: "BOOLEAN"}, "BIT"},
		{"boolean ignores size", std, ddl.Column{Type: "BOOLEAN", Size: 1}, "BIT"},
		{"clob standard", std, ddl.Column{Type: "CLOB"}, "NVARCHAR(max)"},
		{"clob standard ignores size", std, ddl.Column{Type: "CLOB", Size: 123}, "NVARCHAR(max)"},
		{"clob synapse bounded", syn, ddl.Column{Type: "CLOB"}, "NVARCHAR(4000)"},
		{"timestamp", std, ddl.Column{Type: "TIMESTAMP"}, "DATETIME2"},
		{"nvarchar at bound stays", std, ddl.Column{Type: "NVARCHAR", Size: 4000}, "NVARCHAR"},
		{"nvarchar above bound degrades", std, ddl.Column{Type: "NVARCHAR", Size: 4001}, "VARCHAR(max)"},
		{"nvarchar above bound on synapse", syn, ddl.Column{Type: "NVARCHAR", Size: 4001}, "VARCHAR(max)"},
		{"varchar at bound stays", std, ddl.Column{Type: "VARCHAR", Size: 8000}, "VARCHAR"},
		{"varchar above bound degrades", std, ddl.Column{Type: "VARCHAR", Size: 8001}, "VARCHAR(max)"},
		{"passthrough", std, ddl.Column{Type: "BIGINT"}, "BIGINT"},
		{"passthrough normalizes case", std, ddl.Column{Type: " decimal "}, "DECIMAL"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.d.ColumnTypeName(tt.col); got != tt.want {
				t.Fatalf("ColumnTypeName(%+v) = %q; want %q", tt.col, got, tt.want)
			}
		})
	}
}

func TestDeclareType(t *testing.T) {
	t.Parallel()

	d := New(ProductSQLServer)

	tests := []struct {
		name     string
		typeName string
		col      ddl.Column
		want     ddl.DeclareType
	}{
		{"bit always bare", "BIT", ddl.Column{Type: "BOOLEAN", Size: 1}, ddl.DeclareSimple},
		{"float always bare", "FLOAT", ddl.Column{Type: "FLOAT", Size: 53}, ddl.DeclareSimple},
		{"sized varchar", "VARCHAR", ddl.Column{Type: "VARCHAR", Size: 40}, ddl.DeclareSize},
		{"decimal with scale", "DECIMAL", ddl.Column{Type: "DECIMAL", Size: 10, Scale: 2}, ddl.DeclareSizeAndScale},
		{"max form already rendered", "VARCHAR(max)", ddl.Column{Type: "VARCHAR", Size: 9000}, ddl.DeclareSimple},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := d.DeclareType(tt.typeName, tt.col); got != tt.want {
				t.Fatalf("DeclareType(%q, %+v) = %v; want %v", tt.typeName, tt.col, got, tt.want)
			}
		})
	}
}

func TestCreateTableSQLUsesOverriddenMapping(t *testing.T) {
	t.Parallel()

	d := New(ProductSQLServer)
	tbl := ddl.TableRef{Schema: "dbo", Name: "docs"}
	schema := ddl.Schema{
		{Name: "id", Type: "BIGINT", Key: true},
		{Name: "body", Type: "CLOB", Size: 100000, Nullable: true},
		{Name: "flag", Type: "BOOLEAN", Nullable: true},
	}

	got := d.CreateTableSQL(tbl, schema, "", "")
	want := `CREATE TABLE [dbo].[docs] ([id] BIGINT NOT NULL, [body] NVARCHAR(max), [flag] BIT, PRIMARY KEY ([id]))`
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestCreateTableSQLSynapseOption(t *testing.T) {
	t.Parallel()

	d := New(ProductAzureSynapse)
	got := d.CreateTableSQL(
		ddl.TableRef{Schema: "dbo", Name: "facts"},
		ddl.Schema{{Name: "id", Type: "BIGINT", Nullable: true}},
		"",
		"WITH (DISTRIBUTION = HASH([id]))",
	)
	want := `CREATE TABLE [dbo].[facts] ([id] BIGINT) WITH (DISTRIBUTION = HASH([id]))`
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestRenameTableSQL(t *testing.T) {
	t.Parallel()

	std := New(ProductSQLServer)
	syn := New(ProductAzureSynapse)

	tests := []struct {
		name string
		d    *Dialect
		from ddl.TableRef
		to   ddl.TableRef
		want string
	}{
		{
			"standard qualified source as one identifier",
			std,
			ddl.TableRef{Schema: "dbo", Name: "orders"},
			ddl.TableRef{Name: "orders_old"},
			"EXEC sp_rename [dbo.orders], [orders_old], 'OBJECT'",
		},
		{
			"standard bare source",
			std,
			ddl.TableRef{Name: "orders"},
			ddl.TableRef{Name: "orders_old"},
			"EXEC sp_rename [orders], [orders_old], 'OBJECT'",
		},
		{
			"standard destination schema ignored",
			std,
			ddl.TableRef{Schema: "dbo", Name: "orders"},
			ddl.TableRef{Schema: "other", Name: "orders_old"},
			"EXEC sp_rename [dbo.orders], [orders_old], 'OBJECT'",
		},
		{
			"synapse rename object",
			syn,
			ddl.TableRef{Schema: "dbo", Name: "orders"},
			ddl.TableRef{Name: "orders_old"},
			"RENAME OBJECT [dbo].[orders] TO [orders_old]",
		},
		{
			"synapse bare source",
			syn,
			ddl.TableRef{Name: "orders"},
			ddl.TableRef{Name: "orders_old"},
			"RENAME OBJECT [orders] TO [orders_old]",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.d.RenameTableSQL(tt.from, tt.to); got != tt.want {
				t.Fatalf("RenameTableSQL = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	std := New(ProductSQLServer)
	syn := New(ProductAzureSynapse)

	if std.SupportsTableIfExists() || syn.SupportsTableIfExists() {
		t.Fatal("IF EXISTS drops must not be offered on either variant")
	}
	if std.DDLRequiresAutoCommit() {
		t.Fatal("standard engine must not force auto-commit for DDL")
	}
	if !syn.DDLRequiresAutoCommit() {
		t.Fatal("synapse must force auto-commit for DDL")
	}
}
