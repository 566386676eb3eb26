package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"pulseboard/internal/model"
)

// ImportLog fetches the stored report of a past batch by id.
func (s *Store) ImportLog(id string) (*model.ImportReport, error) {
	var payload string
	err := s.db.QueryRow(`SELECT report_json FROM import_logs WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load import log: %w", err)
	}
	var rep model.ImportReport
	if err := json.Unmarshal([]byte(payload), &rep); err != nil {
		return nil, fmt.Errorf("failed to decode import log: %w", err)
	}
	return &rep, nil
}

// ObservedFiscalYears returns the distinct fiscal-year labels present in any
// fact table, sorted.
func (s *Store) ObservedFiscalYears() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT fiscal_year FROM timesheet_entries
		UNION SELECT fiscal_year FROM costs
		UNION SELECT fiscal_year FROM cx_ratings
		UNION SELECT fiscal_year FROM resource_costs
		UNION SELECT fiscal_year FROM pipeline_opportunities WHERE fiscal_year != ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fiscal years: %w", err)
	}
	defer rows.Close()

	var years []string
	for rows.Next() {
		var fy string
		if err := rows.Scan(&fy); err != nil {
			return nil, fmt.Errorf("failed to scan fiscal year: %w", err)
		}
		if fy != "" {
			years = append(years, fy)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fiscal years: %w", err)
	}
	sort.Strings(years)
	return years, nil
}

// EmployeeHours per-employee hour totals for one fiscal year, split between
// billable work and time booked to internal projects.
type EmployeeHours struct {
	EmployeeID    int64
	Name          string
	StaffType     model.StaffType
	TotalHours    float64
	BillableHours float64
	InternalHours float64
}

// HoursByEmployee aggregates timesheet facts for the utilization report.
// Only active employees appear.
func (s *Store) HoursByEmployee(fiscalYear string) ([]EmployeeHours, error) {
	rows, err := s.db.Query(`
		SELECT e.id, e.name, e.staff_type,
		       COALESCE(SUM(t.hours), 0),
		       COALESCE(SUM(CASE WHEN t.billable = 1 THEN t.hours ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN p.internal = 1 THEN t.hours ELSE 0 END), 0)
		FROM employees e
		JOIN timesheet_entries t ON t.employee_id = e.id AND t.fiscal_year = ?
		JOIN projects p ON p.id = t.project_id
		WHERE e.active = 1
		GROUP BY e.id, e.name, e.staff_type
		ORDER BY e.name`, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee hours: %w", err)
	}
	defer rows.Close()

	var out []EmployeeHours
	for rows.Next() {
		var h EmployeeHours
		if err := rows.Scan(&h.EmployeeID, &h.Name, &h.StaffType, &h.TotalHours, &h.BillableHours, &h.InternalHours); err != nil {
			return nil, fmt.Errorf("failed to scan employee hours: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read employee hours: %w", err)
	}
	return out, nil
}

// ProjectFinancials gross-profit summary row for one project and fiscal year.
type ProjectFinancials struct {
	ProjectID   int64
	Name        string
	Client      string
	Revenue     sql.NullString
	DirectCost  sql.NullString
	GrossProfit sql.NullString
	CxScore     sql.NullFloat64
}

// ProjectFinancialsFor joins stored costs with CX ratings for one fiscal year.
func (s *Store) ProjectFinancialsFor(fiscalYear string) ([]ProjectFinancials, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.name, p.client, c.revenue, c.direct_cost, c.gross_profit, x.score
		FROM projects p
		JOIN costs c ON c.project_id = p.id AND c.fiscal_year = ?
		LEFT JOIN cx_ratings x ON x.project_id = p.id AND x.fiscal_year = c.fiscal_year
		ORDER BY p.name`, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query project financials: %w", err)
	}
	defer rows.Close()

	var out []ProjectFinancials
	for rows.Next() {
		var f ProjectFinancials
		if err := rows.Scan(&f.ProjectID, &f.Name, &f.Client, &f.Revenue, &f.DirectCost, &f.GrossProfit, &f.CxScore); err != nil {
			return nil, fmt.Errorf("failed to scan project financials: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read project financials: %w", err)
	}
	return out, nil
}
