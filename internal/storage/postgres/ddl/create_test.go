package ddl

import (
	"errors"
	"testing"

	gddl "dbetl/internal/ddl"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
)

// TestQuoteIdent verifies Postgres identifier quoting and escaping.
func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "name", want: `"name"`},
		{name: "empty", in: "", want: `""`},
		{name: "with space", in: "user name", want: `"user name"`},
		{name: "with double quote", in: `weird"name`, want: `"weird""name"`},
		{name: "multiple quotes", in: `"a""b"`, want: `"""a""""b"""`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := QuoteIdent(tt.in)
			if got != tt.want {
				t.Fatalf("QuoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQualifiedName(t *testing.T) {
	t.Parallel()

	if got, want := QualifiedName("public", "users"), `"public"."users"`; got != want {
		t.Fatalf("QualifiedName = %q, want %q", got, want)
	}
	if got, want := QualifiedName("", "users"), `"users"`; got != want {
		t.Fatalf("QualifiedName = %q, want %q", got, want)
	}
	if got, want := CreateSchemaSQL("sales"), `CREATE SCHEMA IF NOT EXISTS "sales";`; got != want {
		t.Fatalf("CreateSchemaSQL = %q, want %q", got, want)
	}
}

// TestBuildCreateTableSQL renders the orders table after lower-case styling.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tbl := schema.TableInfo{
		Schema: "public",
		Name:   "orders",
		Columns: []schema.ColumnInfo{
			{Name: "id", Type: schema.Int32},
			{Name: "note", Type: schema.String, AllowNull: true},
			{Name: "code", Type: schema.String, Size: schema.SizeOf(3)},
			{Name: "placed", Type: schema.DateTimeOffset, AllowNull: true},
		},
	}
	want := "CREATE TABLE \"public\".\"orders\" (\n" +
		"  \"id\" INTEGER NOT NULL,\n" +
		"  \"note\" TEXT NULL,\n" +
		"  \"code\" TEXT NULL,\n" +
		"  \"placed\" TIMESTAMPTZ NULL\n" +
		");"

	got, err := BuildCreateTableSQL(tbl)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL error: %v", err)
	}
	if got != want {
		t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", got, want)
	}

	again, _ := BuildCreateTableSQL(tbl.Clone())
	if gddl.Fingerprint(again) != gddl.Fingerprint(got) {
		t.Fatalf("DDL is not deterministic")
	}
}

// TestBuildCreateTableSQLErrors validates input checks.
func TestBuildCreateTableSQLErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tbl  schema.TableInfo
	}{
		{name: "empty name", tbl: schema.TableInfo{Columns: []schema.ColumnInfo{{Name: "a", Type: schema.Int32}}}},
		{name: "no columns", tbl: schema.TableInfo{Name: "t"}},
		{name: "empty column name", tbl: schema.TableInfo{Name: "t", Columns: []schema.ColumnInfo{{Type: schema.Int32}}}},
		{name: "invalid type", tbl: schema.TableInfo{Name: "t", Columns: []schema.ColumnInfo{{Name: "a"}}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := BuildCreateTableSQL(tt.tbl); err == nil {
				t.Fatalf("BuildCreateTableSQL(%s) expected error", tt.name)
			}
		})
	}

	_, err := BuildCreateTableSQL(schema.TableInfo{Name: "t", Columns: []schema.ColumnInfo{{Name: "a"}}})
	if !errors.Is(err, storage.ErrUnsupportedType) {
		t.Fatalf("invalid type error = %v, want ErrUnsupportedType", err)
	}
}
