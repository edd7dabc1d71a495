package interchange

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"ledger/internal/table"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrEmptyWorkbook     = errors.New("workbook has no rows")
	ErrMissingHeader     = errors.New("first row has no column headers")
)

// Dataset is the content of the first worksheet of an uploaded file.
type Dataset struct {
	Sheet   string
	Headers []string
	Rows    []table.MapRow
}

// Parse reads the first worksheet of an xlsx or legacy xls file. The first row
// provides the keys; fully blank rows are skipped and blank cells are left out
// of their row.
func Parse(r io.Reader, filename string) (*Dataset, error) {
	var (
		sheet string
		cells [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		sheet, cells, err = readXLSX(r)
	case ".xls":
		sheet, cells, err = readXLS(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	return newDataset(sheet, cells)
}

func readXLSX(r io.Reader) (string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return "", nil, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return name, rows, nil
}

// readXLS recovers from decoder panics, which malformed BIFF streams can
// trigger inside the xls package.
func readXLS(r io.Reader) (name string, rows [][]string, err error) {
	defer func() {
		if p := recover(); p != nil {
			name, rows, err = "", nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, p)
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if wb.NumSheets() == 0 {
		return "", nil, ErrEmptyWorkbook
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return "", nil, ErrEmptyWorkbook
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		line := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			line[j] = row.Col(j)
		}
		rows = append(rows, line)
	}
	return sheet.Name, rows, nil
}

func newDataset(sheet string, cells [][]string) (*Dataset, error) {
	if len(cells) == 0 {
		return nil, ErrEmptyWorkbook
	}

	ds := &Dataset{Sheet: sheet}
	columns := make([]string, len(cells[0]))
	seen := make(map[string]bool)
	for i, h := range cells[0] {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		columns[i] = h
		ds.Headers = append(ds.Headers, h)
	}
	if len(ds.Headers) == 0 {
		return nil, ErrMissingHeader
	}

	for _, line := range cells[1:] {
		row := table.MapRow{Fields: make(map[string]any)}
		for i, v := range line {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			row.Columns = append(row.Columns, columns[i])
			row.Fields[columns[i]] = v
		}
		if len(row.Columns) > 0 {
			ds.Rows = append(ds.Rows, row)
		}
	}
	return ds, nil
}
