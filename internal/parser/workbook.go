package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pulseboard/internal/model"
)

// Workbook a multi-sheet source workbook supplied as a byte stream.
type Workbook struct {
	file *excelize.File
}

// OpenWorkbook reads a workbook from the upload stream.
func OpenWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &Workbook{file: f}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheets lists sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Header returns the raw first row of a sheet.
func (w *Workbook) Header(sheet string) ([]string, error) {
	rows, err := w.file.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %q: %w", sheet, err)
	}
	return header, nil
}

// ForEachRow streams data rows of a sheet lazily. Each Row maps normalized
// header name to the coerced cell and keeps the 1-based source row number.
// Fully blank rows are skipped. The callback aborts the sheet by returning
// an error.
func (w *Workbook) ForEachRow(sheet string, fn func(Row) error) error {
	rows, err := w.file.Rows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var header []string
	rowNo := 0
	for rows.Next() {
		rowNo++
		cols, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read row %d of %q: %w", rowNo, sheet, err)
		}
		if header == nil {
			header = make([]string, len(cols))
			for i, h := range cols {
				header[i] = NormalizeHeader(h)
			}
			continue
		}

		row := Row{Number: rowNo, Cells: make(map[string]model.Cell, len(cols))}
		empty := true
		for i, raw := range cols {
			if i >= len(header) || header[i] == "" {
				continue
			}
			cell := CoerceCell(raw)
			if !cell.IsBlank() {
				empty = false
			}
			row.Cells[header[i]] = cell
		}
		if empty {
			continue
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Error()
}
