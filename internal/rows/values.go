package rows

import (
	"time"

	"dbetl/internal/schema"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Values implements the typed getters of Cursor over the current row's raw
// values. Concrete cursors embed it and call Set after reading each row.
type Values struct {
	cols []schema.ColumnInfo
	vals []any
}

// NewValues returns a Values for the given columns.
func NewValues(cols []schema.ColumnInfo) Values {
	return Values{cols: cols, vals: make([]any, len(cols))}
}

// Columns implements Cursor.
func (v *Values) Columns() []schema.ColumnInfo { return v.cols }

// Set replaces the current row. The slice is retained until the next Set.
func (v *Values) Set(vals []any) { v.vals = vals }

// Raw returns the underlying value of field i.
func (v *Values) Raw(i int) any { return v.vals[i] }

func (v *Values) name(i int) string {
	if i < len(v.cols) {
		return v.cols[i].Name
	}
	return ""
}

func (v *Values) IsNull(i int) bool { return isNull(v.vals[i]) }

func (v *Values) Bool(i int) (bool, error)   { return AsBool(v.name(i), v.vals[i]) }
func (v *Values) Int16(i int) (int16, error) { return AsInt16(v.name(i), v.vals[i]) }
func (v *Values) Int32(i int) (int32, error) { return AsInt32(v.name(i), v.vals[i]) }
func (v *Values) Int64(i int) (int64, error) { return AsInt64(v.name(i), v.vals[i]) }
func (v *Values) Float64(i int) (float64, error) {
	return AsFloat64(v.name(i), v.vals[i])
}

func (v *Values) Float32(i int) (float32, error) {
	f, err := AsFloat64(v.name(i), v.vals[i])
	return float32(f), err
}

func (v *Values) Decimal(i int) (decimal.Decimal, error) { return AsDecimal(v.name(i), v.vals[i]) }
func (v *Values) Time(i int) (time.Time, error)          { return AsTime(v.name(i), v.vals[i]) }
func (v *Values) UUID(i int) (uuid.UUID, error)          { return AsUUID(v.name(i), v.vals[i]) }
func (v *Values) Bytes(i int) ([]byte, error)            { return AsBytes(v.name(i), v.vals[i]) }
func (v *Values) String(i int) (string, error)           { return AsString(v.name(i), v.vals[i]) }

// Slice is an in-memory Cursor over pre-built rows. It is used by tests and by
// callers that already hold a small result set.
type Slice struct {
	Values
	rows   [][]any
	pos    int
	closed bool
}

// NewSlice returns a cursor over rows; each row must have len(cols) values.
func NewSlice(cols []schema.ColumnInfo, rows [][]any) *Slice {
	return &Slice{Values: NewValues(cols), rows: rows, pos: -1}
}

func (s *Slice) Next() bool {
	if s.closed || s.pos+1 >= len(s.rows) {
		return false
	}
	s.pos++
	s.Set(s.rows[s.pos])
	return true
}

func (s *Slice) Err() error   { return nil }
func (s *Slice) Close() error { s.closed = true; return nil }
