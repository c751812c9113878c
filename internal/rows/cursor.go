// Package rows defines the forward-only row cursor that flows from sources
// (files, relational queries) into a dialect provider's bulk load, plus the
// value coercions shared by every cursor implementation.
//
// Callers must check IsNull(i) before calling a typed getter for field i.
// Getters convert the underlying value to the requested Go type and return an
// *UnsupportedValueTypeError when the runtime value has no conversion.
package rows

import (
	"fmt"
	"time"

	"dbetl/internal/schema"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cursor is a forward-only row stream with column metadata.
type Cursor interface {
	// Columns returns the ordered column metadata. It is valid before the
	// first call to Next.
	Columns() []schema.ColumnInfo
	// Next advances to the next row, returning false at the end or on error.
	Next() bool
	// Err returns the error that stopped Next, if any.
	Err() error
	Close() error

	IsNull(i int) bool
	Bool(i int) (bool, error)
	Int16(i int) (int16, error)
	Int32(i int) (int32, error)
	Int64(i int) (int64, error)
	Float32(i int) (float32, error)
	Float64(i int) (float64, error)
	Decimal(i int) (decimal.Decimal, error)
	Time(i int) (time.Time, error)
	UUID(i int) (uuid.UUID, error)
	Bytes(i int) ([]byte, error)
	String(i int) (string, error)
}

// UnsupportedValueTypeError reports a runtime value with no conversion to the
// type a writer asked for.
type UnsupportedValueTypeError struct {
	Column string
	Want   string
	Value  any
}

func (e *UnsupportedValueTypeError) Error() string {
	return fmt.Sprintf("rows: column %q: cannot convert %T to %s", e.Column, e.Value, e.Want)
}

// ConversionError reports a value of a supported type whose content could not
// be converted, e.g. the string "abc" read as an integer.
type ConversionError struct {
	Column string
	Want   string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("rows: column %q: convert to %s: %v", e.Column, e.Want, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
