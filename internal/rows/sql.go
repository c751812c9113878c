package rows

import (
	"database/sql"
	"fmt"

	"dbetl/internal/schema"
)

// Decoder rewrites a scanned driver value before getters see it. Providers
// use it for driver-specific encodings, e.g. SQL Server uniqueidentifier
// byte order.
type Decoder func(col schema.ColumnInfo, v any) (any, error)

// SQL adapts *sql.Rows to Cursor. Each row is scanned into interface values
// and handed to the embedded Values; memory stays bounded to one row.
type SQL struct {
	Values
	rs      *sql.Rows
	dest    []any
	ptrs    []any
	decode  Decoder
	err     error
	closeFn func() error
}

// SQLOption configures a SQL cursor.
type SQLOption func(*SQL)

// WithDecoder installs a value decoder.
func WithDecoder(d Decoder) SQLOption { return func(c *SQL) { c.decode = d } }

// WithCloser runs fn after the rows are closed, e.g. to release a dedicated
// connection.
func WithCloser(fn func() error) SQLOption { return func(c *SQL) { c.closeFn = fn } }

// NewSQL wraps rs. cols describes the selected columns in order and must
// match the query's projection.
func NewSQL(rs *sql.Rows, cols []schema.ColumnInfo, opts ...SQLOption) (*SQL, error) {
	names, err := rs.Columns()
	if err != nil {
		_ = rs.Close()
		return nil, fmt.Errorf("rows: columns: %w", err)
	}
	if len(names) != len(cols) {
		_ = rs.Close()
		return nil, fmt.Errorf("rows: query returned %d columns, want %d", len(names), len(cols))
	}
	c := &SQL{
		Values: NewValues(cols),
		rs:     rs,
		dest:   make([]any, len(cols)),
		ptrs:   make([]any, len(cols)),
	}
	for i := range c.dest {
		c.ptrs[i] = &c.dest[i]
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *SQL) Next() bool {
	if c.err != nil || !c.rs.Next() {
		return false
	}
	for i := range c.dest {
		c.dest[i] = nil
	}
	if err := c.rs.Scan(c.ptrs...); err != nil {
		c.err = fmt.Errorf("rows: scan: %w", err)
		return false
	}
	if c.decode != nil {
		for i, v := range c.dest {
			if v == nil {
				continue
			}
			dv, err := c.decode(c.cols[i], v)
			if err != nil {
				c.err = err
				return false
			}
			c.dest[i] = dv
		}
	}
	c.Set(c.dest)
	return true
}

func (c *SQL) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rs.Err()
}

func (c *SQL) Close() error {
	err := c.rs.Close()
	if c.closeFn != nil {
		if cerr := c.closeFn(); err == nil {
			err = cerr
		}
		c.closeFn = nil
	}
	return err
}
