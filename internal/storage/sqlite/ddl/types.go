// Package ddl contains SQLite-specific helpers for generating DDL.
//
// SQLite has no schema namespaces in a single database file; a table in a
// schema other than "main" is stored as "<schema>_<table>".
package ddl

import (
	"strconv"
	"strings"

	gddl "dbetl/internal/ddl"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
)

// Kind is the registry name of this dialect.
const Kind = "sqlite"

// MainSchema is the only schema a SQLite connection reports.
const MainSchema = "main"

// ColumnType maps a logical column to a SQLite column type. SQLite types
// are affinities, so the mapping is coarse:
//   - integers and booleans (0/1) -> INTEGER
//   - Single, Double              -> REAL
//   - Decimal                     -> NUMERIC
//   - String                      -> TEXT
//   - DateTime                    -> INTEGER (Unix seconds)
//
// DateTimeOffset, Binary and Guid are not supported.
func ColumnType(c schema.ColumnInfo) (string, error) {
	switch c.Type {
	case schema.Boolean, schema.Byte, schema.Int16, schema.Int32, schema.Int64, schema.DateTime:
		return "INTEGER", nil
	case schema.Single, schema.Double:
		return "REAL", nil
	case schema.Decimal:
		return "NUMERIC", nil
	case schema.String:
		return "TEXT", nil
	}
	return "", &storage.UnsupportedTypeError{Dialect: Kind, Type: c.Type}
}

// TypeOf maps a declared column type to a logical type using SQLite's
// affinity rules, refined for common spellings (BOOLEAN, DATETIME, DECIMAL,
// JSON). An empty declaration has BLOB affinity and anything unmatched has
// NUMERIC affinity, so TypeOf never fails.
func TypeOf(native string) (schema.LogicalType, error) {
	n := strings.ToUpper(strings.TrimSpace(native))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}
	switch {
	case n == "" || strings.Contains(n, "BLOB"):
		return schema.Binary, nil
	case strings.Contains(n, "BOOL"):
		return schema.Boolean, nil
	case strings.Contains(n, "INT"):
		return schema.Int64, nil
	case strings.Contains(n, "CHAR"), strings.Contains(n, "CLOB"), strings.Contains(n, "TEXT"),
		strings.Contains(n, "JSON"):
		return schema.String, nil
	case strings.Contains(n, "REAL"), strings.Contains(n, "FLOA"), strings.Contains(n, "DOUB"):
		return schema.Double, nil
	case strings.Contains(n, "DATE"), strings.Contains(n, "TIME"):
		return schema.DateTime, nil
	}
	return schema.Decimal, nil
}

// SizeOf extracts n from declarations like VARCHAR(n).
func SizeOf(native string) *int {
	open := strings.IndexByte(native, '(')
	end := strings.IndexByte(native, ')')
	if open < 0 || end < open {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(native[open+1 : end]))
	if err != nil || n < 0 {
		return nil
	}
	return schema.SizeOf(n)
}

// QuoteIdent quotes a single identifier with double quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// TableName folds a schema into the table name. "main" and "" leave the
// name unchanged.
func TableName(schemaName, table string) string {
	if schemaName == "" || strings.EqualFold(schemaName, MainSchema) {
		return table
	}
	return schemaName + "_" + table
}

// QualifiedName quotes the folded table name.
func QualifiedName(schemaName, table string) string {
	return QuoteIdent(TableName(schemaName, table))
}

// Dialect is the SQLite rendering dialect.
var Dialect = gddl.Dialect{
	Name:       Kind,
	Quote:      QuoteIdent,
	Qualify:    QualifiedName,
	ColumnType: ColumnType,
}
