// Package fiscal implements the July–June financial calendar. All functions
// are pure and deterministic for a given date.
package fiscal

import (
	"fmt"
	"sort"
	"time"
)

// MonthsPerYear months in a fiscal year.
const MonthsPerYear = 12

// Label returns the financial-year label for a date, e.g. 2025-03-14 falls in
// the year that started July 2024 and yields "24/25".
func Label(d time.Time) string {
	start := StartOf(d)
	return fmt.Sprintf("%02d/%02d", start%100, (start+1)%100)
}

// StartOf returns the calendar year in which the date's fiscal year began.
func StartOf(d time.Time) int {
	if d.Month() >= time.July {
		return d.Year()
	}
	return d.Year() - 1
}

// StartYear parses a label back to the calendar year its FY started.
func StartYear(label string) (int, error) {
	var a, b int
	// Sscanf tolerates trailing input, so the length is checked first.
	if len(label) != 5 {
		return 0, fmt.Errorf("invalid fiscal year label %q", label)
	}
	if _, err := fmt.Sscanf(label, "%02d/%02d", &a, &b); err != nil {
		return 0, fmt.Errorf("invalid fiscal year label %q", label)
	}
	if (a+1)%100 != b {
		return 0, fmt.Errorf("invalid fiscal year label %q", label)
	}
	return 2000 + a, nil
}

// MonthIndex position of a calendar month within the fiscal year, July=1.
func MonthIndex(m time.Month) int {
	return (int(m)+5)%12 + 1
}

// ElapsedMonths counts complete fiscal months of the labelled year as of the
// given instant, clamped to [0, 12]: 0 before the year starts, 12 once it has
// fully elapsed.
func ElapsedMonths(label string, asOf time.Time) (int, error) {
	start, err := StartYear(label)
	if err != nil {
		return 0, err
	}
	n := (asOf.Year()-start)*12 + int(asOf.Month()) - int(time.July)
	if n < 0 {
		n = 0
	}
	if n > MonthsPerYear {
		n = MonthsPerYear
	}
	return n, nil
}

// Options merges observed FY labels with the current one, deduplicated and
// sorted ascending. Lexical order is correct because labels are fixed-width
// two-digit pairs.
func Options(observed []string, now time.Time) []string {
	seen := map[string]struct{}{Label(now): {}}
	for _, l := range observed {
		if l != "" {
			seen[l] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
