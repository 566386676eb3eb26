package parser

import "fmt"

// RowError reports a missing or malformed cell in a recognized sheet. It
// rejects the source row only; the batch carries on.
type RowError struct {
	Sheet  string
	Row    int
	Column string
	Msg    string
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Row, e.Msg)
	}
	return fmt.Sprintf("%s row %d: %s: %s", e.Sheet, e.Row, e.Column, e.Msg)
}
