package schema

import (
	"fmt"
	"strings"
)

// LogicalType is the portable classification of a column's data. Every
// dialect translates to and from this set; it is derived once when a schema is
// read or inferred and never re-derived per target.
type LogicalType int

const (
	Boolean LogicalType = iota + 1
	Byte
	Int16
	Int32
	Int64
	Single
	Double
	Decimal
	String
	DateTime
	DateTimeOffset
	Binary
	Guid
)

// LogicalTypes lists every logical type in declaration order.
var LogicalTypes = []LogicalType{
	Boolean, Byte, Int16, Int32, Int64, Single, Double, Decimal,
	String, DateTime, DateTimeOffset, Binary, Guid,
}

var typeNames = map[LogicalType]string{
	Boolean:        "boolean",
	Byte:           "byte",
	Int16:          "int16",
	Int32:          "int32",
	Int64:          "int64",
	Single:         "single",
	Double:         "double",
	Decimal:        "decimal",
	String:         "string",
	DateTime:       "datetime",
	DateTimeOffset: "datetimeoffset",
	Binary:         "binary",
	Guid:           "guid",
}

// typeAliases are accepted by ParseLogicalType in addition to the canonical
// names.
var typeAliases = map[string]LogicalType{
	"bool":      Boolean,
	"int":       Int32,
	"short":     Int16,
	"long":      Int64,
	"float":     Single,
	"real":      Single,
	"number":    Decimal,
	"numeric":   Decimal,
	"text":      String,
	"date":      DateTime,
	"timestamp": DateTime,
	"bytes":     Binary,
	"uuid":      Guid,
}

// String returns the canonical lower-case name used in schema files.
func (t LogicalType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("LogicalType(%d)", int(t))
}

// Valid reports whether t is one of the declared logical types.
func (t LogicalType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseLogicalType resolves a canonical name or alias, case-insensitively.
func ParseLogicalType(s string) (LogicalType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == key {
			return t, nil
		}
	}
	if t, ok := typeAliases[key]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("schema: unknown logical type %q", s)
}
