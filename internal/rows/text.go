package rows

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"dbetl/internal/schema"
)

const utf8BOM = "\uFEFF"

// TextOptions control how a text source (CSV, spreadsheet) is turned into a
// typed cursor.
type TextOptions struct {
	// NoHeader treats the first record as data; columns are named Column1..N.
	NoHeader bool
	// Skip discards this many records before the header.
	Skip int
	// Schema, when set, types the columns. Entries are matched to header
	// names case-insensitively; without a header they apply by position.
	// Unmatched columns are nullable strings.
	Schema []schema.ColumnInfo
}

// recordReader yields one record per call and io.EOF at the end.
type recordReader func() ([]string, error)

// Text is a Cursor over string records. Empty fields are null unless the
// column is a non-nullable string.
type Text struct {
	Values
	read   recordReader
	closer io.Closer
	offset func() int64
	width  int
	row    []any
	err    error
}

func newText(read recordReader, closer io.Closer, opt TextOptions) (*Text, error) {
	for i := 0; i < opt.Skip; i++ {
		if _, err := read(); err != nil {
			return nil, fmt.Errorf("rows: skip record %d: %w", i+1, err)
		}
	}

	var header []string
	var first []string
	rec, err := read()
	switch {
	case err == io.EOF:
		// Empty input: no columns unless a schema says otherwise.
	case err != nil:
		return nil, fmt.Errorf("rows: read header: %w", err)
	case opt.NoHeader:
		first = append([]string(nil), rec...)
		header = make([]string, len(rec))
		for i := range header {
			header[i] = fmt.Sprintf("Column%d", i+1)
		}
	default:
		header = append([]string(nil), rec...)
		if len(header) > 0 {
			header[0] = strings.TrimPrefix(header[0], utf8BOM)
		}
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
	}

	cols := bindSchema(header, opt.Schema, opt.NoHeader)
	t := &Text{
		Values: NewValues(cols),
		read:   read,
		closer: closer,
		width:  len(cols),
		row:    make([]any, len(cols)),
	}
	if first != nil {
		pending := first
		t.read = func() ([]string, error) {
			if pending != nil {
				r := pending
				pending = nil
				return r, nil
			}
			return read()
		}
	}
	return t, nil
}

func bindSchema(header []string, sch []schema.ColumnInfo, positional bool) []schema.ColumnInfo {
	if header == nil && len(sch) > 0 {
		return append([]schema.ColumnInfo(nil), sch...)
	}
	byName := make(map[string]schema.ColumnInfo, len(sch))
	for _, c := range sch {
		byName[strings.ToLower(c.Name)] = c
	}
	cols := make([]schema.ColumnInfo, len(header))
	for i, h := range header {
		if positional && i < len(sch) {
			cols[i] = sch[i]
			continue
		}
		if c, ok := byName[strings.ToLower(h)]; ok {
			c.Name = h
			cols[i] = c
			continue
		}
		cols[i] = schema.ColumnInfo{Name: h, DeclaredType: "text", Type: schema.String, AllowNull: true}
	}
	return cols
}

func (t *Text) Next() bool {
	if t.err != nil {
		return false
	}
	rec, err := t.read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		t.err = fmt.Errorf("rows: read: %w", err)
		return false
	}
	for i := 0; i < t.width; i++ {
		if i >= len(rec) {
			t.row[i] = nil
			continue
		}
		f := rec[i]
		c := t.cols[i]
		if f == "" && (c.Type != schema.String || c.AllowNull) {
			t.row[i] = nil
			continue
		}
		t.row[i] = f
	}
	t.Set(t.row)
	return true
}

// Bytes decodes field i as the hex text WriteCSV emits for binaries. An
// optional "0x" prefix is accepted.
func (t *Text) Bytes(i int) ([]byte, error) {
	s, ok := t.Raw(i).(string)
	if !ok {
		return t.Values.Bytes(i)
	}
	s = strings.TrimSpace(s)
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, convErr(t.name(i), "bytes", err)
	}
	return b, nil
}

func (t *Text) Err() error { return t.err }

func (t *Text) Close() error {
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	return err
}

// BytesRead reports the input offset for sources that track it, or -1.
func (t *Text) BytesRead() int64 {
	if t.offset == nil {
		return -1
	}
	return t.offset()
}
