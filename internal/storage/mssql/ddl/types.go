// Package ddl contains MSSQL-specific helpers for generating DDL and for
// reading SQL Server type names back into logical types.
package ddl

import (
	"fmt"
	"strings"

	gddl "dbetl/internal/ddl"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
)

// Kind is the registry name of this dialect.
const Kind = "mssql"

// MaxVarchar is the largest bounded VARCHAR length.
const MaxVarchar = 8000

// ColumnType maps a logical column to a SQL Server column type.
//
//	Boolean        -> BIT
//	Byte, Int16    -> SMALLINT
//	Int32          -> INT
//	Int64          -> BIGINT
//	Single         -> FLOAT(24)
//	Double         -> FLOAT(53)
//	Decimal        -> NUMERIC
//	String         -> VARCHAR(min(2*size, 8000)), VARCHAR(MAX) without a size
//	DateTime       -> DATETIME2
//
// DateTimeOffset, Binary and Guid are not supported as targets.
func ColumnType(c schema.ColumnInfo) (string, error) {
	switch c.Type {
	case schema.Boolean:
		return "BIT", nil
	case schema.Byte, schema.Int16:
		return "SMALLINT", nil
	case schema.Int32:
		return "INT", nil
	case schema.Int64:
		return "BIGINT", nil
	case schema.Single:
		return "FLOAT(24)", nil
	case schema.Double:
		return "FLOAT(53)", nil
	case schema.Decimal:
		return "NUMERIC", nil
	case schema.String:
		if c.Size == nil {
			return "VARCHAR(MAX)", nil
		}
		// Doubled to leave room for multi-byte encodings; clamped first so
		// the doubling cannot overflow.
		n := min(max(*c.Size, 0), MaxVarchar)
		return fmt.Sprintf("VARCHAR(%d)", max(1, min(2*n, MaxVarchar))), nil
	case schema.DateTime:
		return "DATETIME2", nil
	}
	return "", &storage.UnsupportedTypeError{Dialect: Kind, Type: c.Type}
}

var nativeTypes = map[string]schema.LogicalType{
	"bit":              schema.Boolean,
	"tinyint":          schema.Byte,
	"smallint":         schema.Int16,
	"int":              schema.Int32,
	"bigint":           schema.Int64,
	"binary":           schema.Binary,
	"varbinary":        schema.Binary,
	"image":            schema.Binary,
	"date":             schema.DateTime,
	"datetime":         schema.DateTime,
	"datetime2":        schema.DateTime,
	"smalldatetime":    schema.DateTime,
	"datetimeoffset":   schema.DateTimeOffset,
	"char":             schema.String,
	"varchar":          schema.String,
	"nchar":            schema.String,
	"nvarchar":         schema.String,
	"text":             schema.String,
	"ntext":            schema.String,
	"real":             schema.Single,
	"float":            schema.Double,
	"decimal":          schema.Decimal,
	"numeric":          schema.Decimal,
	"smallmoney":       schema.Decimal,
	"money":            schema.Decimal,
	"uniqueidentifier": schema.Guid,
}

// TypeOf maps a SQL Server type name to a logical type, ignoring case and
// modifiers such as "(50)".
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

// QuoteIdent quotes a single identifier segment using bracket syntax,
// escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// QualifiedName renders [schema].[table], or [table] without a schema.
func QualifiedName(schemaName, table string) string {
	if schemaName == "" {
		return QuoteIdent(table)
	}
	return QuoteIdent(schemaName) + "." + QuoteIdent(table)
}

// Dialect is the SQL Server rendering dialect.
var Dialect = gddl.Dialect{
	Name:       Kind,
	Quote:      QuoteIdent,
	Qualify:    QualifiedName,
	ColumnType: ColumnType,
}

// quoteLiteral renders an N'...' string literal.
func quoteLiteral(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// CreateSchemaSQL creates the schema when missing. T-SQL has no CREATE
// SCHEMA IF NOT EXISTS, and CREATE SCHEMA must be alone in its batch, so it
// runs through EXEC.
func CreateSchemaSQL(name string) string {
	return fmt.Sprintf("IF SCHEMA_ID(%s) IS NULL EXEC(%s);",
		quoteLiteral(name), quoteLiteral("CREATE SCHEMA "+QuoteIdent(name)))
}
