package rows

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"dbetl/internal/schema"

	"github.com/xuri/excelize/v2"
)

func drain(t *testing.T, c Cursor) [][]any {
	t.Helper()
	var out [][]any
	for c.Next() {
		row := make([]any, len(c.Columns()))
		for i := range row {
			if c.IsNull(i) {
				continue
			}
			s, err := c.String(i)
			if err != nil {
				t.Fatalf("String(%d): %v", i, err)
			}
			row[i] = s
		}
		out = append(out, row)
	}
	if err := c.Err(); err != nil {
		t.Fatalf("Err(): %v", err)
	}
	return out
}

func TestCSVHeaderAndNulls(t *testing.T) {
	t.Parallel()

	in := "\uFEFFId, Name ,Qty\n1,Alice,3\n2,,\n3,Bob\n"
	sch := []schema.ColumnInfo{
		{Name: "id", Type: schema.Int32},
		{Name: "name", Type: schema.String},
		{Name: "qty", Type: schema.Int32, AllowNull: true},
	}
	c, err := NewCSV(strings.NewReader(in), CSVOptions{TextOptions: TextOptions{Schema: sch}})
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}
	defer c.Close()

	cols := c.Columns()
	if cols[0].Name != "Id" || cols[0].Type != schema.Int32 || cols[1].Name != "Name" {
		t.Fatalf("Columns() = %+v", cols)
	}

	got := drain(t, c)
	want := [][]any{
		{"1", "Alice", "3"},
		{"2", "", nil}, // non-nullable string keeps the empty value
		{"3", "Bob", nil},
	}
	if len(got) != len(want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("row %d col %d = %#v, want %#v", i, j, got[i][j], want[i][j])
			}
		}
	}
	if c.BytesRead() != int64(len(in)) {
		t.Fatalf("BytesRead() = %d, want %d", c.BytesRead(), len(in))
	}
}

func TestCSVTypedGetters(t *testing.T) {
	t.Parallel()

	c, err := NewCSV(strings.NewReader("n;when\n7;2024-01-02\n"), CSVOptions{
		Comma: ';',
		TextOptions: TextOptions{Schema: []schema.ColumnInfo{
			{Name: "n", Type: schema.Int64},
			{Name: "when", Type: schema.DateTime},
		}},
	})
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}
	if !c.Next() {
		t.Fatalf("Next() = false, err %v", c.Err())
	}
	if n, err := c.Int64(0); err != nil || n != 7 {
		t.Fatalf("Int64(0) = %d, %v", n, err)
	}
	if ts, err := c.Time(1); err != nil || ts.Year() != 2024 || ts.Day() != 2 {
		t.Fatalf("Time(1) = %v, %v", ts, err)
	}
}

func TestCSVNoHeaderAndSkip(t *testing.T) {
	t.Parallel()

	in := "generated by export\n# second junk line\na,b\nc,d\n"
	c, err := NewCSV(strings.NewReader(in), CSVOptions{TextOptions: TextOptions{NoHeader: true, Skip: 2}})
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}
	cols := c.Columns()
	if len(cols) != 2 || cols[0].Name != "Column1" || cols[1].Name != "Column2" {
		t.Fatalf("Columns() = %+v", cols)
	}
	got := drain(t, c)
	if len(got) != 2 || got[0][0] != "a" || got[1][1] != "d" {
		t.Fatalf("rows = %v", got)
	}
}

func TestCSVEmptyInput(t *testing.T) {
	t.Parallel()

	c, err := NewCSV(strings.NewReader(""), CSVOptions{})
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}
	if c.Next() {
		t.Fatalf("Next() on empty input = true")
	}
	if len(c.Columns()) != 0 {
		t.Fatalf("Columns() = %v, want none", c.Columns())
	}
}

func TestOpenExcel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := [][]any{{"Code", "Price"}, {"A1", 1.5}, {"B2", 2}}
	for r, row := range cells {
		for c, v := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetCellValue(sheet, ref, v); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = f.Close()

	c, err := OpenExcel(path, ExcelOptions{TextOptions: TextOptions{Schema: []schema.ColumnInfo{
		{Name: "price", Type: schema.Double},
	}}})
	if err != nil {
		t.Fatalf("OpenExcel: %v", err)
	}
	defer c.Close()

	if cols := c.Columns(); len(cols) != 2 || cols[1].Type != schema.Double {
		t.Fatalf("Columns() = %+v", cols)
	}
	var sum float64
	var n int
	for c.Next() {
		p, err := c.Float64(1)
		if err != nil {
			t.Fatalf("Float64: %v", err)
		}
		sum += p
		n++
	}
	if err := c.Err(); err != nil {
		t.Fatalf("Err(): %v", err)
	}
	if n != 2 || sum != 3.5 {
		t.Fatalf("rows = %d sum = %v, want 2 and 3.5", n, sum)
	}
}

func TestNewExcelFromReader(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	idx, err := f.NewSheet("Data")
	if err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	f.SetActiveSheet(idx)
	for ref, v := range map[string]any{"A1": "Name", "A2": "ann", "A3": "bo"} {
		if err := f.SetCellValue("Data", ref, v); err != nil {
			t.Fatalf("SetCellValue: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	_ = f.Close()
	data := buf.Bytes()

	c, err := NewExcel(bytes.NewReader(data), ExcelOptions{Sheet: "Data"})
	if err != nil {
		t.Fatalf("NewExcel: %v", err)
	}
	defer c.Close()
	var names []string
	for c.Next() {
		s, err := c.String(0)
		if err != nil {
			t.Fatalf("String: %v", err)
		}
		names = append(names, s)
	}
	if len(names) != 2 || names[0] != "ann" || names[1] != "bo" {
		t.Fatalf("names = %v, want [ann bo]", names)
	}

	if _, err := NewExcel(strings.NewReader("not a zip"), ExcelOptions{}); err == nil {
		t.Fatalf("NewExcel(garbage) expected error")
	}
	if _, err := NewExcel(bytes.NewReader(data), ExcelOptions{Sheet: "Nope"}); err == nil {
		t.Fatalf("NewExcel(missing sheet) expected error")
	}
}

func TestTrackedReportsMilestonesAndEnd(t *testing.T) {
	t.Parallel()

	rowsIn := make([][]any, 25)
	for i := range rowsIn {
		rowsIn[i] = []any{i}
	}
	var got []Progress
	c := Track(NewSlice([]schema.ColumnInfo{{Name: "n", Type: schema.Int32}}, rowsIn), 10,
		func(p Progress) { got = append(got, p) })

	for c.Next() {
	}
	c.Next() // a second false must not report twice

	if len(got) != 3 {
		t.Fatalf("callbacks = %d (%v), want 3", len(got), got)
	}
	if got[0].Rows != 10 || got[1].Rows != 20 || got[2].Rows != 25 || !got[2].Done {
		t.Fatalf("progress = %+v", got)
	}
	if got[2].Bytes != -1 {
		t.Fatalf("Bytes = %d, want -1 for a slice cursor", got[2].Bytes)
	}
}

func TestTracker(t *testing.T) {
	t.Parallel()

	var tr Tracker
	if p := tr.Load(); p.Rows != 0 || p.Bytes != -1 {
		t.Fatalf("Load() before update = %+v", p)
	}
	tr.Update(Progress{Rows: 5, Bytes: 100})
	if p := tr.Load(); p.Rows != 5 || p.Bytes != 100 {
		t.Fatalf("Load() = %+v", p)
	}
}

var _ io.Closer = (*Text)(nil)
