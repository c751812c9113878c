package rows

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVOptions configure a delimited-text cursor.
type CSVOptions struct {
	TextOptions
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// LazyQuotes relaxes quote handling (csv.Reader.LazyQuotes).
	LazyQuotes bool
}

// NewCSV reads delimited text from r. Fields are kept as strings; typed
// getters convert them on demand. Records may have a variable field count.
func NewCSV(r io.Reader, opt CSVOptions) (*Text, error) {
	cr := csv.NewReader(r)
	cr.Comma = ','
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var closer io.Closer
	if c, ok := r.(io.Closer); ok {
		closer = c
	}
	t, err := newText(cr.Read, closer, opt.TextOptions)
	if err != nil {
		return nil, err
	}
	t.offset = cr.InputOffset
	return t, nil
}

// OpenCSV opens path and returns a cursor that closes the file on Close.
func OpenCSV(path string, opt CSVOptions) (*Text, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rows: open %s: %w", path, err)
	}
	t, err := NewCSV(f, opt)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
