package rows

import (
	"fmt"
	"time"

	"dbetl/internal/schema"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Projected exposes a subset of another cursor's fields, in the given order.
type Projected struct {
	Cursor
	idx  []int
	cols []schema.ColumnInfo
}

// Project selects fields idx of c. Indexes may repeat.
func Project(c Cursor, idx []int) (*Projected, error) {
	src := c.Columns()
	cols := make([]schema.ColumnInfo, len(idx))
	for i, j := range idx {
		if j < 0 || j >= len(src) {
			return nil, fmt.Errorf("rows: column index %d out of range [0,%d)", j, len(src))
		}
		cols[i] = src[j]
	}
	return &Projected{Cursor: c, idx: append([]int(nil), idx...), cols: cols}, nil
}

func (p *Projected) Columns() []schema.ColumnInfo { return p.cols }

func (p *Projected) IsNull(i int) bool                      { return p.Cursor.IsNull(p.idx[i]) }
func (p *Projected) Bool(i int) (bool, error)               { return p.Cursor.Bool(p.idx[i]) }
func (p *Projected) Int16(i int) (int16, error)             { return p.Cursor.Int16(p.idx[i]) }
func (p *Projected) Int32(i int) (int32, error)             { return p.Cursor.Int32(p.idx[i]) }
func (p *Projected) Int64(i int) (int64, error)             { return p.Cursor.Int64(p.idx[i]) }
func (p *Projected) Float32(i int) (float32, error)         { return p.Cursor.Float32(p.idx[i]) }
func (p *Projected) Float64(i int) (float64, error)         { return p.Cursor.Float64(p.idx[i]) }
func (p *Projected) Decimal(i int) (decimal.Decimal, error) { return p.Cursor.Decimal(p.idx[i]) }
func (p *Projected) Time(i int) (time.Time, error)          { return p.Cursor.Time(p.idx[i]) }
func (p *Projected) UUID(i int) (uuid.UUID, error)          { return p.Cursor.UUID(p.idx[i]) }
func (p *Projected) Bytes(i int) ([]byte, error)            { return p.Cursor.Bytes(p.idx[i]) }
func (p *Projected) String(i int) (string, error)           { return p.Cursor.String(p.idx[i]) }
