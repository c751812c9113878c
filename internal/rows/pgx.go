package rows

import (
	"fmt"

	"dbetl/internal/schema"

	"github.com/jackc/pgx/v5"
)

// PGX adapts pgx.Rows to Cursor using the driver's decoded values, so
// numerics arrive as pgtype.Numeric and uuids as [16]byte.
type PGX struct {
	Values
	rs  pgx.Rows
	err error
}

// NewPGX wraps rs. cols must match the query's projection.
func NewPGX(rs pgx.Rows, cols []schema.ColumnInfo) (*PGX, error) {
	if n := len(rs.FieldDescriptions()); n != len(cols) {
		rs.Close()
		return nil, fmt.Errorf("rows: query returned %d columns, want %d", n, len(cols))
	}
	return &PGX{Values: NewValues(cols), rs: rs}, nil
}

func (c *PGX) Next() bool {
	if c.err != nil || !c.rs.Next() {
		return false
	}
	vals, err := c.rs.Values()
	if err != nil {
		c.err = fmt.Errorf("rows: decode: %w", err)
		return false
	}
	c.Set(vals)
	return true
}

func (c *PGX) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rs.Err()
}

func (c *PGX) Close() error {
	c.rs.Close()
	return c.rs.Err()
}
