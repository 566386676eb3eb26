package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"pulseboard/internal/merge"
	"pulseboard/internal/model"
)

// nullDecimal maps a NullDecimal to a TEXT column value. Null stays NULL so a
// blank source cell never turns into zero.
func nullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func scanDecimal(s sql.NullString) decimal.NullDecimal {
	if !s.Valid || s.String == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ApplyBatch commits one import batch's staged operations in a single
// transaction. Any failure rolls the whole transaction back and surfaces as a
// FatalError; existing data is never partially overwritten.
func (s *Store) ApplyBatch(batch *model.ImportBatch, staged merge.Staged) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fatal("begin transaction", err)
	}
	defer tx.Rollback()

	if err := applyEmployees(tx, staged.Employees); err != nil {
		return err
	}
	if err := applyProjects(tx, staged.Projects); err != nil {
		return err
	}
	if err := applyOpportunities(tx, staged.Opportunities); err != nil {
		return err
	}
	if err := applyTimesheets(tx, staged.Timesheets); err != nil {
		return err
	}
	if err := applyCosts(tx, staged.Costs); err != nil {
		return err
	}
	if err := applyMilestones(tx, staged.Milestones); err != nil {
		return err
	}
	if err := applyCxRatings(tx, staged.CxRatings); err != nil {
		return err
	}
	if err := applyResourceCosts(tx, staged.ResourceCosts); err != nil {
		return err
	}
	if err := writeImportLog(tx, batch); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fatal("commit transaction", err)
	}
	return nil
}

func applyEmployees(tx *sql.Tx, employees []model.Employee) error {
	stmt, err := tx.Prepare(`INSERT INTO employees (id, name, name_key, staff_type, active, role, team, location, certifications)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, name_key = excluded.name_key, staff_type = excluded.staff_type,
			active = excluded.active, role = excluded.role, team = excluded.team,
			location = excluded.location, certifications = excluded.certifications`)
	if err != nil {
		return fatal("prepare employees", err)
	}
	defer stmt.Close()

	for _, e := range employees {
		_, err := stmt.Exec(e.ID, e.Name, e.Key, string(e.StaffType), boolInt(e.Active),
			e.Role, e.Team, e.Location, model.JoinTags(e.Certifications))
		if err != nil {
			return fatal("upsert employee", err)
		}
	}
	return nil
}

func applyProjects(tx *sql.Tx, projects []model.Project) error {
	stmt, err := tx.Prepare(`INSERT INTO projects (id, name, name_key, status, client, internal)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, name_key = excluded.name_key, status = excluded.status,
			client = excluded.client, internal = excluded.internal`)
	if err != nil {
		return fatal("prepare projects", err)
	}
	defer stmt.Close()

	for _, p := range projects {
		_, err := stmt.Exec(p.ID, p.Name, p.Key, p.Status, p.Client, boolInt(p.Internal))
		if err != nil {
			return fatal("upsert project", err)
		}
	}
	return nil
}

// applyOpportunities upserts by source id when the sheet carries one, else by
// (name key, fiscal year). The two keys want different conflict targets, so
// the lookup is done in code.
func applyOpportunities(tx *sql.Tx, opportunities []model.PipelineOpportunity) error {
	for _, o := range opportunities {
		var existing int64
		var err error
		if o.SourceID != "" {
			err = tx.QueryRow(`SELECT id FROM pipeline_opportunities WHERE source_id = ?`, o.SourceID).Scan(&existing)
		} else {
			err = tx.QueryRow(`SELECT id FROM pipeline_opportunities WHERE source_id = '' AND name_key = ? AND fiscal_year = ?`,
				o.Key, o.FiscalYear).Scan(&existing)
		}
		switch {
		case err == sql.ErrNoRows:
			_, err := tx.Exec(`INSERT INTO pipeline_opportunities
				(source_id, name, name_key, phase, vat_category, fiscal_year, billing_type, value, margin_pct, partners, work_type, status)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				o.SourceID, o.Name, o.Key, string(o.Phase), o.VATCategory, o.FiscalYear, o.BillingType,
				nullDecimal(o.Value), nullDecimal(o.MarginPct), model.JoinTags(o.Partners), o.WorkType, o.Status)
			if err != nil {
				return fatal("insert opportunity", err)
			}
		case err != nil:
			return fatal("lookup opportunity", err)
		default:
			_, err := tx.Exec(`UPDATE pipeline_opportunities SET
				source_id = ?, name = ?, name_key = ?, phase = ?, vat_category = ?, fiscal_year = ?,
				billing_type = ?, value = ?, margin_pct = ?, partners = ?, work_type = ?, status = ?
				WHERE id = ?`,
				o.SourceID, o.Name, o.Key, string(o.Phase), o.VATCategory, o.FiscalYear, o.BillingType,
				nullDecimal(o.Value), nullDecimal(o.MarginPct), model.JoinTags(o.Partners), o.WorkType, o.Status, existing)
			if err != nil {
				return fatal("update opportunity", err)
			}
		}
	}
	return nil
}

func applyTimesheets(tx *sql.Tx, entries []model.TimesheetEntry) error {
	stmt, err := tx.Prepare(`INSERT INTO timesheet_entries (employee_id, project_id, week_ending, fiscal_year, hours, billable, cost_value, sale_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, project_id, week_ending) DO UPDATE SET
			fiscal_year = excluded.fiscal_year, hours = excluded.hours, billable = excluded.billable,
			cost_value = excluded.cost_value, sale_value = excluded.sale_value`)
	if err != nil {
		return fatal("prepare timesheets", err)
	}
	defer stmt.Close()

	for _, t := range entries {
		_, err := stmt.Exec(t.EmployeeID, t.ProjectID, t.WeekEnding.Format("2006-01-02"),
			t.FiscalYear, t.Hours, boolInt(t.Billable), t.CostValue, t.SaleValue)
		if err != nil {
			return fatal("upsert timesheet entry", err)
		}
	}
	return nil
}

func applyCosts(tx *sql.Tx, costs []model.Cost) error {
	stmt, err := tx.Prepare(`INSERT INTO costs (project_id, fiscal_year, revenue, direct_cost, gross_profit)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, fiscal_year) DO UPDATE SET
			revenue = excluded.revenue, direct_cost = excluded.direct_cost, gross_profit = excluded.gross_profit`)
	if err != nil {
		return fatal("prepare costs", err)
	}
	defer stmt.Close()

	for _, c := range costs {
		_, err := stmt.Exec(c.ProjectID, c.FiscalYear,
			nullDecimal(c.Revenue), nullDecimal(c.DirectCost), nullDecimal(c.GrossProfit))
		if err != nil {
			return fatal("upsert cost", err)
		}
	}
	return nil
}

func applyMilestones(tx *sql.Tx, milestones []model.Milestone) error {
	stmt, err := tx.Prepare(`INSERT INTO milestones (project_id, name_key, name, due_date, fiscal_year, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, name_key) DO UPDATE SET
			name = excluded.name, due_date = excluded.due_date,
			fiscal_year = excluded.fiscal_year, status = excluded.status`)
	if err != nil {
		return fatal("prepare milestones", err)
	}
	defer stmt.Close()

	for _, m := range milestones {
		due := ""
		if !m.DueDate.IsZero() {
			due = m.DueDate.Format("2006-01-02")
		}
		_, err := stmt.Exec(m.ProjectID, model.NormalizeKey(m.Name), m.Name, due, m.FiscalYear, m.Status)
		if err != nil {
			return fatal("upsert milestone", err)
		}
	}
	return nil
}

func applyCxRatings(tx *sql.Tx, ratings []model.CxRating) error {
	stmt, err := tx.Prepare(`INSERT INTO cx_ratings (project_id, fiscal_year, score, comments)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, fiscal_year) DO UPDATE SET
			score = excluded.score, comments = excluded.comments`)
	if err != nil {
		return fatal("prepare cx ratings", err)
	}
	defer stmt.Close()

	for _, r := range ratings {
		if _, err := stmt.Exec(r.ProjectID, r.FiscalYear, r.Score, r.Comments); err != nil {
			return fatal("upsert cx rating", err)
		}
	}
	return nil
}

func applyResourceCosts(tx *sql.Tx, costs []model.ResourceCost) error {
	stmt, err := tx.Prepare(`INSERT INTO resource_costs (employee_id, project_id, fiscal_year, stream, cost_rate, sell_rate)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, project_id, fiscal_year, stream) DO UPDATE SET
			cost_rate = excluded.cost_rate, sell_rate = excluded.sell_rate`)
	if err != nil {
		return fatal("prepare resource costs", err)
	}
	defer stmt.Close()

	for _, c := range costs {
		_, err := stmt.Exec(c.EmployeeID, c.ProjectID, c.FiscalYear, c.Stream,
			nullDecimal(c.CostRate), nullDecimal(c.SellRate))
		if err != nil {
			return fatal("upsert resource cost", err)
		}
	}
	return nil
}

func writeImportLog(tx *sql.Tx, batch *model.ImportBatch) error {
	rep := batch.Report()
	payload, err := json.Marshal(rep)
	if err != nil {
		return fatal("encode import report", err)
	}
	_, err = tx.Exec(`INSERT INTO import_logs
		(id, workbook, state, sheets_processed, accepted, created, corrected, rejected, report_json, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state, sheets_processed = excluded.sheets_processed,
			accepted = excluded.accepted, created = excluded.created, corrected = excluded.corrected,
			rejected = excluded.rejected, report_json = excluded.report_json, completed_at = excluded.completed_at`,
		rep.BatchID, rep.Workbook, string(rep.State), rep.SheetsProcessed,
		rep.Accepted, rep.Created, rep.Corrected, len(rep.Rejected), string(payload),
		batch.StartedAt.Format(time.RFC3339), batch.FinishedAt.Format(time.RFC3339))
	if err != nil {
		return fatal("write import log", err)
	}
	return nil
}

// LogRolledBack records a rolled-back batch outside any data transaction, so
// its audit trail survives even though no facts were written. Best effort.
func (s *Store) LogRolledBack(batch *model.ImportBatch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fatal("begin transaction", err)
	}
	defer tx.Rollback()
	if err := writeImportLog(tx, batch); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fatal("commit transaction", err)
	}
	return nil
}
