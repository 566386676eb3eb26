package model

import (
	"time"

	"github.com/google/uuid"
)

// RowOutcome per-row result recorded in the import batch.
type RowOutcome string

const (
	RowAccepted  RowOutcome = "accepted"
	RowCreated   RowOutcome = "created"
	RowCorrected RowOutcome = "corrected"
	RowRejected  RowOutcome = "rejected"
	RowSkipped   RowOutcome = "skipped"
)

// BatchState import batch lifecycle. Terminal states are final.
type BatchState string

const (
	BatchOpen       BatchState = "open"
	BatchProcessing BatchState = "processing"
	BatchCommitted  BatchState = "committed"
	BatchRolledBack BatchState = "rolled_back"
)

// ImportRow outcome of one source row, keyed back to sheet and row number.
type ImportRow struct {
	Sheet    string     `json:"sheet"`
	Row      int        `json:"row"`
	EntityID int64      `json:"-"`
	Outcome  RowOutcome `json:"outcome"`
	Reason   string     `json:"reason,omitempty"`
}

// ImportBatch transient state for one upload. Populated while processing,
// then either committed (becomes the audit report) or discarded.
type ImportBatch struct {
	ID         uuid.UUID
	Workbook   string
	State      BatchState
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       []ImportRow

	sheetTypes map[string]string
	sheetOrder []string
}

// NewBatch opens a batch for an uploaded workbook.
func NewBatch(workbook string) *ImportBatch {
	return &ImportBatch{
		ID:         uuid.New(),
		Workbook:   workbook,
		State:      BatchOpen,
		StartedAt:  time.Now(),
		sheetTypes: make(map[string]string),
	}
}

// RecordSheet notes a processed sheet and its recognized type.
func (b *ImportBatch) RecordSheet(sheet, sheetType string) {
	if _, ok := b.sheetTypes[sheet]; !ok {
		b.sheetOrder = append(b.sheetOrder, sheet)
	}
	b.sheetTypes[sheet] = sheetType
}

// Record appends a row outcome and returns its index so it can be amended
// later (a superseded row is re-marked corrected, not rejected).
func (b *ImportBatch) Record(row ImportRow) int {
	b.Rows = append(b.Rows, row)
	return len(b.Rows) - 1
}

// Amend changes the outcome of a previously recorded row.
func (b *ImportBatch) Amend(idx int, outcome RowOutcome, reason string) {
	if idx < 0 || idx >= len(b.Rows) {
		return
	}
	b.Rows[idx].Outcome = outcome
	b.Rows[idx].Reason = reason
}

// RejectedRow one excluded source row with its reason, for the report.
type RejectedRow struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// SheetSummary per-sheet outcome counts.
type SheetSummary struct {
	Sheet     string `json:"sheet"`
	SheetType string `json:"sheetType"`
	Accepted  int    `json:"accepted"`
	Created   int    `json:"created"`
	Corrected int    `json:"corrected"`
	Rejected  int    `json:"rejected"`
	Skipped   int    `json:"skipped"`
}

// ImportReport the structured, JSON-serializable batch result. Internal ids
// are deliberately absent.
type ImportReport struct {
	BatchID         string         `json:"batchId"`
	Workbook        string         `json:"workbook"`
	State           BatchState     `json:"state"`
	SheetsProcessed int            `json:"sheetsProcessed"`
	Accepted        int            `json:"accepted"`
	Created         int            `json:"created"`
	Corrected       int            `json:"corrected"`
	Rejected        []RejectedRow  `json:"rejected"`
	Sheets          []SheetSummary `json:"sheets"`
	DurationMillis  int64          `json:"durationMillis"`
	Error           string         `json:"error,omitempty"`
}

// Report summarizes the batch in source order.
func (b *ImportBatch) Report() *ImportReport {
	rep := &ImportReport{
		BatchID:         b.ID.String(),
		Workbook:        b.Workbook,
		State:           b.State,
		SheetsProcessed: len(b.sheetOrder),
		Rejected:        []RejectedRow{},
	}
	if !b.FinishedAt.IsZero() {
		rep.DurationMillis = b.FinishedAt.Sub(b.StartedAt).Milliseconds()
	}

	summaries := make(map[string]*SheetSummary, len(b.sheetOrder))
	for _, sheet := range b.sheetOrder {
		s := &SheetSummary{Sheet: sheet, SheetType: b.sheetTypes[sheet]}
		summaries[sheet] = s
		rep.Sheets = append(rep.Sheets, SheetSummary{})
	}

	for _, row := range b.Rows {
		s, ok := summaries[row.Sheet]
		if !ok {
			continue
		}
		switch row.Outcome {
		case RowAccepted:
			s.Accepted++
			rep.Accepted++
		case RowCreated:
			s.Created++
			rep.Created++
		case RowCorrected:
			s.Corrected++
			rep.Corrected++
		case RowRejected:
			s.Rejected++
			rep.Rejected = append(rep.Rejected, RejectedRow{Sheet: row.Sheet, Row: row.Row, Reason: row.Reason})
		case RowSkipped:
			s.Skipped++
		}
	}
	for i, sheet := range b.sheetOrder {
		rep.Sheets[i] = *summaries[sheet]
	}
	return rep
}
