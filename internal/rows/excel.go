package rows

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelOptions configure a spreadsheet cursor.
type ExcelOptions struct {
	TextOptions
	// Sheet selects a worksheet by name; empty means the first sheet.
	Sheet string
}

type excelCloser struct {
	f    *excelize.File
	rows *excelize.Rows
}

func (c excelCloser) Close() error {
	err := c.rows.Close()
	if ferr := c.f.Close(); err == nil {
		err = ferr
	}
	return err
}

// OpenExcel streams one worksheet of an .xlsx workbook. Cells are read as
// their formatted text.
func OpenExcel(path string, opt ExcelOptions) (*Text, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("rows: open %s: %w", path, err)
	}
	t, err := excelText(f, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// NewExcel reads a whole workbook from r, e.g. a download, then streams one
// worksheet.
func NewExcel(r io.Reader, opt ExcelOptions) (*Text, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("rows: read workbook: %w", err)
	}
	return excelText(f, opt)
}

// excelText takes ownership of f.
func excelText(f *excelize.File, opt ExcelOptions) (*Text, error) {
	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, fmt.Errorf("rows: workbook has no worksheets")
		}
		sheet = sheets[0]
	}
	xr, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rows: sheet %q: %w", sheet, err)
	}

	read := func() ([]string, error) {
		if !xr.Next() {
			if err := xr.Error(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		return xr.Columns()
	}
	t, err := newText(read, excelCloser{f: f, rows: xr}, opt.TextOptions)
	if err != nil {
		_ = xr.Close()
		_ = f.Close()
		return nil, err
	}
	return t, nil
}
