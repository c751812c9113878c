package rows

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"dbetl/internal/schema"
)

// WriteCSV writes a header and every remaining row of c to w. Nulls become
// empty fields, times are RFC 3339 and binaries are hex. It returns the
// number of data rows written and does not close c.
func WriteCSV(w io.Writer, c Cursor) (int64, error) {
	cw := csv.NewWriter(w)
	cols := c.Columns()

	rec := make([]string, len(cols))
	for i, col := range cols {
		rec[i] = col.Name
	}
	if err := cw.Write(rec); err != nil {
		return 0, fmt.Errorf("rows: write header: %w", err)
	}

	var n int64
	for c.Next() {
		for i, col := range cols {
			s, err := formatField(c, i, col)
			if err != nil {
				return n, fmt.Errorf("rows: row %d: %w", n+1, err)
			}
			rec[i] = s
		}
		if err := cw.Write(rec); err != nil {
			return n, fmt.Errorf("rows: write: %w", err)
		}
		n++
	}
	if err := c.Err(); err != nil {
		return n, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("rows: flush: %w", err)
	}
	return n, nil
}

func formatField(c Cursor, i int, col schema.ColumnInfo) (string, error) {
	if c.IsNull(i) {
		return "", nil
	}
	switch col.Type {
	case schema.DateTime, schema.DateTimeOffset:
		t, err := c.Time(i)
		if err != nil {
			return "", err
		}
		return t.Format(time.RFC3339Nano), nil
	case schema.Binary:
		b, err := c.Bytes(i)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(b), nil
	case schema.Single:
		f, err := c.Float32(i)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(float64(f), 'g', -1, 32), nil
	}
	return c.String(i)
}
