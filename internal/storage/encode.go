package storage

import (
	"fmt"

	"dbetl/internal/rows"
	"dbetl/internal/schema"
)

// Encoder reads field i of the current row and returns the value a bulk path
// writes. It is only called for non-null fields.
type Encoder func(c rows.Cursor, i int) (any, error)

func enc[T any](get func(rows.Cursor, int) (T, error)) Encoder {
	return func(c rows.Cursor, i int) (any, error) {
		v, err := get(c, i)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Encoders for the common Go representations. Dialects pick among these or
// supply their own.
var (
	EncodeBool    = enc(rows.Cursor.Bool)
	EncodeInt16   = enc(rows.Cursor.Int16)
	EncodeInt32   = enc(rows.Cursor.Int32)
	EncodeInt64   = enc(rows.Cursor.Int64)
	EncodeFloat32 = enc(rows.Cursor.Float32)
	EncodeFloat64 = enc(rows.Cursor.Float64)
	EncodeDecimal = enc(rows.Cursor.Decimal)
	EncodeTime    = enc(rows.Cursor.Time)
	EncodeUUID    = enc(rows.Cursor.UUID)
	EncodeBytes   = enc(rows.Cursor.Bytes)
	EncodeString  = enc(rows.Cursor.String)
)

// EncoderTable maps logical types to encoders for one dialect.
type EncoderTable map[schema.LogicalType]Encoder

// Resolve builds the per-column encoder list once per load. A column whose
// type has no encoder fails with *UnsupportedTypeError.
func (t EncoderTable) Resolve(dialect string, cols []schema.ColumnInfo) ([]Encoder, error) {
	out := make([]Encoder, len(cols))
	for i, c := range cols {
		e, ok := t[c.Type]
		if !ok {
			return nil, fmt.Errorf("column %q: %w", c.Name, &UnsupportedTypeError{Dialect: dialect, Type: c.Type})
		}
		out[i] = e
	}
	return out, nil
}

// EncodeRow fills dst for the current row of c. Null fields become nil
// without touching a getter.
func EncodeRow(c rows.Cursor, encs []Encoder, dst []any) error {
	for i, e := range encs {
		if c.IsNull(i) {
			dst[i] = nil
			continue
		}
		v, err := e(c, i)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// CheckWidth verifies the cursor delivers one field per target column.
func CheckWidth(src rows.Cursor, want int) error {
	if got := len(src.Columns()); got != want {
		return fmt.Errorf("storage: source has %d columns, target expects %d", got, want)
	}
	return nil
}
