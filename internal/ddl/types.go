package ddl

import "dbetl/internal/schema"

// ColumnDef describes a single column in a table definition, already
// translated to a dialect type.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - SQLType: dialect type, e.g. INTEGER, VARCHAR(40), TIMESTAMPTZ
//   - Nullable: renders NULL when true, NOT NULL otherwise
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef is a dialect-typed table ready to render.
type TableDef struct {
	Schema  string
	Name    string
	Columns []ColumnDef
}

// Dialect supplies the identifier rules a renderer needs.
type Dialect struct {
	// Name labels errors, e.g. "postgres".
	Name string
	// Quote quotes a single identifier segment.
	Quote func(id string) string
	// Qualify renders a table name; schema may be empty.
	Qualify func(schema, table string) string
	// ColumnType maps a logical column to a native type.
	ColumnType func(c schema.ColumnInfo) (string, error)
}

// Nullable is the nullability rule shared by every dialect: a column is NOT
// NULL only when it disallows nulls and is not a string. String columns are
// always emitted nullable.
func Nullable(c schema.ColumnInfo) bool {
	return c.AllowNull || c.Type == schema.String
}
