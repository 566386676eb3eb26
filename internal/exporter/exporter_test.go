package exporter

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"pulseboard/internal/model"
)

func TestWriteReport(t *testing.T) {
	t.Parallel()

	rep := &model.ImportReport{
		BatchID:         "b-1",
		Workbook:        "weekly.xlsx",
		State:           model.BatchCommitted,
		SheetsProcessed: 2,
		Accepted:        10,
		Created:         3,
		Corrected:       1,
		Rejected: []model.RejectedRow{
			{Sheet: "Personal Hours", Row: 7, Reason: "missing or invalid hours"},
		},
		Sheets: []model.SheetSummary{
			{Sheet: "Staff SOT", SheetType: "staff_sot", Accepted: 5, Created: 2},
			{Sheet: "Personal Hours", SheetType: "personal_hours", Accepted: 5, Created: 1, Corrected: 1, Rejected: 1},
		},
	}

	buf, err := WriteReport(rep)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Summary" || sheets[1] != "Rejected Rows" {
		t.Fatalf("sheets = %v", sheets)
	}

	if v, _ := f.GetCellValue("Summary", "B1"); v != "b-1" {
		t.Fatalf("batch id cell = %q", v)
	}
	if v, _ := f.GetCellValue("Summary", "B3"); v != "committed" {
		t.Fatalf("state cell = %q", v)
	}

	// per-sheet table starts after the stat block and a spacer row
	if v, _ := f.GetCellValue("Summary", "A11"); v != "Sheet" {
		t.Fatalf("sheet table header = %q", v)
	}
	if v, _ := f.GetCellValue("Summary", "A12"); v != "Staff SOT" {
		t.Fatalf("first sheet row = %q", v)
	}

	if v, _ := f.GetCellValue("Rejected Rows", "C2"); v != "missing or invalid hours" {
		t.Fatalf("rejection reason cell = %q", v)
	}
}
