// Package ddl contains Postgres-specific helpers for generating DDL and for
// reading Postgres type names back into logical types.
package ddl

import (
	"fmt"
	"strings"

	gddl "dbetl/internal/ddl"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
)

// Kind is the registry name of this dialect.
const Kind = "postgres"

// ColumnType maps a logical column to a Postgres SQL type.
//
//	Boolean            -> BOOLEAN
//	Byte, Int16        -> SMALLINT
//	Int32              -> INTEGER
//	Int64              -> BIGINT
//	Single             -> REAL
//	Double             -> DOUBLE PRECISION
//	Decimal            -> NUMERIC
//	String             -> TEXT (size is ignored)
//	DateTime           -> TIMESTAMP
//	DateTimeOffset     -> TIMESTAMPTZ
//	Binary             -> BYTEA
//	Guid               -> UUID
func ColumnType(c schema.ColumnInfo) (string, error) {
	switch c.Type {
	case schema.Boolean:
		return "BOOLEAN", nil
	case schema.Byte, schema.Int16:
		return "SMALLINT", nil
	case schema.Int32:
		return "INTEGER", nil
	case schema.Int64:
		return "BIGINT", nil
	case schema.Single:
		return "REAL", nil
	case schema.Double:
		return "DOUBLE PRECISION", nil
	case schema.Decimal:
		return "NUMERIC", nil
	case schema.String:
		return "TEXT", nil
	case schema.DateTime:
		return "TIMESTAMP", nil
	case schema.DateTimeOffset:
		return "TIMESTAMPTZ", nil
	case schema.Binary:
		return "BYTEA", nil
	case schema.Guid:
		return "UUID", nil
	}
	return "", &storage.UnsupportedTypeError{Dialect: Kind, Type: c.Type}
}

// nativeTypes covers both the udt names (int4, bpchar) and the
// information_schema data_type spellings (integer, character varying).
var nativeTypes = map[string]schema.LogicalType{
	"bool":                        schema.Boolean,
	"boolean":                     schema.Boolean,
	"int2":                        schema.Int16,
	"smallint":                    schema.Int16,
	"int4":                        schema.Int32,
	"int":                         schema.Int32,
	"integer":                     schema.Int32,
	"serial":                      schema.Int32,
	"int8":                        schema.Int64,
	"bigint":                      schema.Int64,
	"bigserial":                   schema.Int64,
	"float4":                      schema.Single,
	"real":                        schema.Single,
	"float8":                      schema.Double,
	"double precision":            schema.Double,
	"numeric":                     schema.Decimal,
	"decimal":                     schema.Decimal,
	"text":                        schema.String,
	"varchar":                     schema.String,
	"character varying":           schema.String,
	"bpchar":                      schema.String,
	"char":                        schema.String,
	"character":                   schema.String,
	"name":                        schema.String,
	"date":                        schema.DateTime,
	"timestamp":                   schema.DateTime,
	"timestamp without time zone": schema.DateTime,
	"timestamptz":                 schema.DateTimeOffset,
	"timestamp with time zone":    schema.DateTimeOffset,
	"bytea":                       schema.Binary,
	"uuid":                        schema.Guid,

	// Read back through a ::text cast; see TextCast.
	"json":                   schema.String,
	"jsonb":                  schema.String,
	"time":                   schema.String,
	"time without time zone": schema.String,
	"timetz":                 schema.String,
	"time with time zone":    schema.String,
	"interval":               schema.String,
}

// textCast lists native types selected as text. pgx decodes them into
// Go types (maps, pgtype.Time, pgtype.Interval) the String getter cannot read.
var textCast = map[string]bool{
	"json": true, "jsonb": true,
	"time": true, "time without time zone": true,
	"timetz": true, "time with time zone": true,
	"interval": true,
}

// TextCast reports whether a column of the native type must be selected
// with a ::text cast.
func TextCast(native string) bool {
	n := strings.ToLower(strings.TrimSpace(native))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}
	return textCast[n]
}

// TypeOf maps a Postgres type name to a logical type. Modifiers such as
// "(20)" are ignored.
func TypeOf(native string) (schema.LogicalType, error) {
	n := strings.ToLower(strings.TrimSpace(native))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}
	if lt, ok := nativeTypes[n]; ok {
		return lt, nil
	}
	return 0, &storage.UnsupportedTypeError{Dialect: Kind, Native: native}
}

// QuoteIdent quotes a single identifier segment for Postgres, e.g.:
//
//	QuoteIdent(`pcv`)        => `"pcv"`
//	QuoteIdent(`weird"name`) => `"weird""name"`
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QualifiedName renders `"schema"."table"`, or just `"table"` when the schema
// is empty.
func QualifiedName(schemaName, table string) string {
	if schemaName == "" {
		return QuoteIdent(table)
	}
	return QuoteIdent(schemaName) + "." + QuoteIdent(table)
}

// Dialect is the Postgres rendering dialect.
var Dialect = gddl.Dialect{
	Name:       Kind,
	Quote:      QuoteIdent,
	Qualify:    QualifiedName,
	ColumnType: ColumnType,
}

// CreateSchemaSQL renders an idempotent CREATE SCHEMA.
func CreateSchemaSQL(name string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;", QuoteIdent(name))
}
