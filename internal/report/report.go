// Package report computes read-side aggregates from committed facts. Nothing
// here is stored; every report is recomputed from the fact tables on demand.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pulseboard/internal/fiscal"
	"pulseboard/internal/model"
	"pulseboard/internal/store"
)

// Service the reporting collaborator.
type Service struct {
	store *store.Store
}

// NewService creates a reporting service over the store.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// UtilizationRow one employee's hours for the requested fiscal year.
type UtilizationRow struct {
	EmployeeID    int64           `json:"employeeId"`
	Name          string          `json:"name"`
	StaffType     model.StaffType `json:"staffType"`
	TotalHours    float64         `json:"totalHours"`
	BillableHours float64         `json:"billableHours"`
	InternalHours float64         `json:"internalHours"`
	Utilization   float64         `json:"utilization"`
}

// UtilizationReport per-FY staff utilization.
type UtilizationReport struct {
	FiscalYear    string           `json:"fiscalYear"`
	ElapsedMonths int              `json:"elapsedMonths"`
	Rows          []UtilizationRow `json:"rows"`
}

// Utilization computes billable utilization per active employee. ElapsedMonths
// counts the complete months of the fiscal year as of now, so a report in the
// middle of the year is judged against the elapsed portion only.
func (s *Service) Utilization(fiscalYear string, now time.Time) (*UtilizationReport, error) {
	elapsed, err := fiscal.ElapsedMonths(fiscalYear, now)
	if err != nil {
		return nil, fmt.Errorf("invalid fiscal year %q: %w", fiscalYear, err)
	}

	hours, err := s.store.HoursByEmployee(fiscalYear)
	if err != nil {
		return nil, err
	}

	rep := &UtilizationReport{
		FiscalYear:    fiscalYear,
		ElapsedMonths: elapsed,
		Rows:          make([]UtilizationRow, 0, len(hours)),
	}
	for _, h := range hours {
		row := UtilizationRow{
			EmployeeID:    h.EmployeeID,
			Name:          h.Name,
			StaffType:     h.StaffType,
			TotalHours:    h.TotalHours,
			BillableHours: h.BillableHours,
			InternalHours: h.InternalHours,
		}
		if h.TotalHours > 0 {
			row.Utilization = h.BillableHours / h.TotalHours
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep, nil
}

// FYOptions returns the selectable fiscal years: every year observed in the
// data plus the current one.
func (s *Service) FYOptions(now time.Time) ([]string, error) {
	observed, err := s.store.ObservedFiscalYears()
	if err != nil {
		return nil, err
	}
	return fiscal.Options(observed, now), nil
}

// ProjectSummaryRow financial summary of one project for a fiscal year.
// Margin is null when revenue is absent or zero.
type ProjectSummaryRow struct {
	ProjectID   int64               `json:"projectId"`
	Name        string              `json:"name"`
	Client      string              `json:"client"`
	Revenue     decimal.NullDecimal `json:"revenue"`
	DirectCost  decimal.NullDecimal `json:"directCost"`
	GrossProfit decimal.NullDecimal `json:"grossProfit"`
	MarginPct   decimal.NullDecimal `json:"marginPct"`
	CxScore     *float64            `json:"cxScore,omitempty"`
}

// ProjectSummaries joins stored project financials with CX scores and derives
// the gross margin on read.
func (s *Service) ProjectSummaries(fiscalYear string) ([]ProjectSummaryRow, error) {
	financials, err := s.store.ProjectFinancialsFor(fiscalYear)
	if err != nil {
		return nil, err
	}

	rows := make([]ProjectSummaryRow, 0, len(financials))
	for _, f := range financials {
		row := ProjectSummaryRow{
			ProjectID:   f.ProjectID,
			Name:        f.Name,
			Client:      f.Client,
			Revenue:     parseStored(f.Revenue.String, f.Revenue.Valid),
			DirectCost:  parseStored(f.DirectCost.String, f.DirectCost.Valid),
			GrossProfit: parseStored(f.GrossProfit.String, f.GrossProfit.Valid),
		}
		if f.CxScore.Valid {
			score := f.CxScore.Float64
			row.CxScore = &score
		}
		if row.Revenue.Valid && row.GrossProfit.Valid && !row.Revenue.Decimal.IsZero() {
			row.MarginPct = decimal.NullDecimal{
				Decimal: row.GrossProfit.Decimal.Div(row.Revenue.Decimal).Mul(decimal.NewFromInt(100)).Round(2),
				Valid:   true,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseStored(s string, valid bool) decimal.NullDecimal {
	if !valid || s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
