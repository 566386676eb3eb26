// Package exporter renders import reports as downloadable workbooks.
package exporter

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"pulseboard/internal/model"
)

const (
	summarySheet  = "Summary"
	rejectedSheet = "Rejected Rows"
)

// ReportWorkbook builds a two-sheet workbook from an import report: a summary
// with per-sheet counts and the full list of rejected rows with reasons.
func ReportWorkbook(rep *model.ImportReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Batch", rep.BatchID},
		{"Workbook", rep.Workbook},
		{"State", string(rep.State)},
		{"Duration (ms)", rep.DurationMillis},
		{"Sheets processed", rep.SheetsProcessed},
		{"Accepted", rep.Accepted},
		{"Created", rep.Created},
		{"Corrected", rep.Corrected},
		{"Rejected", len(rep.Rejected)},
	}
	if rep.Error != "" {
		summary = append(summary, []interface{}{"Error", rep.Error})
	}
	summary = append(summary,
		[]interface{}{},
		[]interface{}{"Sheet", "Type", "Accepted", "Created", "Corrected", "Rejected", "Skipped"},
	)
	for _, s := range rep.Sheets {
		summary = append(summary, []interface{}{
			s.Sheet, s.SheetType, s.Accepted, s.Created, s.Corrected, s.Rejected, s.Skipped,
		})
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(rejectedSheet); err != nil {
		return nil, fmt.Errorf("failed to create rejected sheet: %w", err)
	}
	rejected := [][]interface{}{{"Sheet", "Row", "Reason"}}
	for _, r := range rep.Rejected {
		rejected = append(rejected, []interface{}{r.Sheet, r.Row, r.Reason})
	}
	if err := writeRows(f, rejectedSheet, rejected); err != nil {
		return nil, err
	}

	return f, nil
}

// WriteReport renders the report workbook to a byte buffer for download.
func WriteReport(rep *model.ImportReport) (*bytes.Buffer, error) {
	f, err := ReportWorkbook(rep)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write report workbook: %w", err)
	}
	return &buf, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
