package parser

import (
	"strconv"
	"strings"
	"time"

	"pulseboard/internal/model"
)

// sentinelTokens stay as string cells; they mean "intentionally absent" and
// must not be coerced to zero or blank.
var sentinelTokens = map[string]struct{}{
	"(blank)": {},
	"-":       {},
	"n/a":     {},
	"na":      {},
	"tbc":     {},
	"tbd":     {},
}

// dateLayouts recognized source date formats, day-first where ambiguous.
var dateLayouts = []string{
	"2/1/2006",
	"02/01/2006",
	"2/1/06",
	"2006-01-02",
	"2 Jan 2006",
	"2-Jan-06",
	"2-Jan-2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// IsSentinel reports whether a raw token is a blank-sentinel.
func IsSentinel(s string) bool {
	_, ok := sentinelTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// CoerceCell performs syntactic normalization of one raw cell: trims strings,
// recognizes dates and numbers, and leaves sentinel tokens untouched.
func CoerceCell(raw string) model.Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.BlankCell()
	}
	if IsSentinel(s) {
		return model.StringCell(s)
	}
	if t, ok := ParseDate(s); ok {
		return model.DateCell(t)
	}
	if n, ok := parseNumber(s); ok {
		return model.NumberCell(n)
	}
	return model.StringCell(s)
}

// ParseDate tries the recognized date layouts in order.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumber accepts plain numbers plus the usual spreadsheet dressing:
// currency symbols, thousands separators, trailing %, parenthesised negatives.
func parseNumber(s string) (float64, bool) {
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
