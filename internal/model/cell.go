package model

import (
	"strconv"
	"time"
)

// CellKind coerced type of one source cell.
type CellKind int

const (
	CellBlank CellKind = iota
	CellString
	CellNumber
	CellDate
)

// Cell one syntactically normalized spreadsheet cell.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Date time.Time
}

// BlankCell returns the empty cell.
func BlankCell() Cell { return Cell{Kind: CellBlank} }

// StringCell wraps a trimmed text value.
func StringCell(s string) Cell { return Cell{Kind: CellString, Str: s} }

// NumberCell wraps a numeric value.
func NumberCell(n float64) Cell { return Cell{Kind: CellNumber, Num: n} }

// DateCell wraps a date value.
func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Date: t} }

// IsBlank reports whether the cell carries no value at all.
func (c Cell) IsBlank() bool { return c.Kind == CellBlank }

// Text renders the cell as display text. Blank cells render empty.
func (c Cell) Text() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellDate:
		return c.Date.Format("2006-01-02")
	default:
		return ""
	}
}

// Float reads the cell as a number; non-numeric cells report false.
func (c Cell) Float() (float64, bool) {
	if c.Kind != CellNumber {
		return 0, false
	}
	return c.Num, true
}
