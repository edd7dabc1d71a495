package interchange

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"ledger/internal/core"
	"ledger/internal/locale"
	"ledger/internal/table"
)

const minColumnWidth = 15

// ErrNothingToExport is returned by ExportAll when every collection is empty.
var ErrNothingToExport = errors.New("nothing to export")

// Sheet is one worksheet's content before it is written to a file.
type Sheet struct {
	Name   string
	Header []string
	Values [][]any
}

// Workbook is an export ready to be written.
type Workbook struct {
	FileName string
	sheets   []Sheet
}

// Sheets returns the worksheets in order.
func (w *Workbook) Sheets() []Sheet {
	return append([]Sheet(nil), w.sheets...)
}

// Export builds a single-sheet workbook from rows of entity type t. The file is
// named after the entity and the day of now.
func Export[R table.Row](t core.EntityType, rows []R, labels *locale.Labels, now time.Time) (*Workbook, error) {
	tpl, err := TemplateFor(t)
	if err != nil {
		return nil, err
	}
	generic := make([]table.Row, len(rows))
	for i, r := range rows {
		generic[i] = r
	}
	return &Workbook{
		FileName: fileName(labels.Entity(t), now),
		sheets:   []Sheet{buildSheet(tpl, generic, labels)},
	}, nil
}

// ExportAll builds one workbook with a sheet per non-empty collection of s.
func ExportAll(s core.Snapshot, labels *locale.Labels, now time.Time) (*Workbook, error) {
	wb := &Workbook{FileName: fileName(labels.AllData, now)}
	for _, t := range core.EntityTypes() {
		if s.Len(t) == 0 {
			continue
		}
		wb.sheets = append(wb.sheets, buildSheet(templates[t], table.RowsOf(s, t), labels))
	}
	if len(wb.sheets) == 0 {
		return nil, ErrNothingToExport
	}
	return wb, nil
}

func buildSheet(tpl Template, rows []table.Row, labels *locale.Labels) Sheet {
	sh := Sheet{
		Name:   sheetName(labels.Entity(tpl.Entity)),
		Header: tpl.Headers(labels),
		Values: make([][]any, len(rows)),
	}
	for i, r := range rows {
		sh.Values[i] = tpl.Values(r, labels)
	}
	return sh
}

// WriteTo encodes the workbook as xlsx.
func (w *Workbook) WriteTo(dst io.Writer) (int64, error) {
	f, err := w.build()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.WriteTo(dst)
}

func (w *Workbook) build() (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, sh := range w.sheets {
		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), sh.Name)
		} else {
			_, err = f.NewSheet(sh.Name)
		}
		if err == nil {
			err = writeSheet(f, sh, bold)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", sh.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sh Sheet, headerStyle int) error {
	header := make([]any, len(sh.Header))
	for i, h := range sh.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sh.Name, "A1", &header); err != nil {
		return err
	}

	for i, values := range sh.Values {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.Name, cell, &values); err != nil {
			return err
		}
	}

	for i, h := range sh.Header {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := max(utf8.RuneCountInString(h), minColumnWidth)
		if err := f.SetColWidth(sh.Name, col, col, float64(width)); err != nil {
			return err
		}
	}

	if len(sh.Header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(sh.Header), 1)
		if err != nil {
			return err
		}
		return f.SetCellStyle(sh.Name, "A1", last, headerStyle)
	}
	return nil
}

func fileName(label string, now time.Time) string {
	return strings.ReplaceAll(label, " ", "_") + "_" + now.Format(core.DateLayout) + ".xlsx"
}

// sheetName strips characters worksheet titles cannot hold and enforces the
// 31 character limit.
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return ' '
		}
		return r
	}, s)
	if utf8.RuneCountInString(s) > 31 {
		s = string([]rune(s)[:31])
	}
	return s
}
