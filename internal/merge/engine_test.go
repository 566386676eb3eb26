package merge

import (
	"testing"
	"time"

	"pulseboard/internal/model"
)

func week(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestTimesheetOverwriteNotSum(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil)
	first := e.UpsertTimesheet(model.TimesheetEntry{EmployeeID: 1, ProjectID: 10, WeekEnding: week(14), Hours: 5}, RowRef{Sheet: "Personal Hours", Row: 2, Index: 0})
	if first.Superseded != nil {
		t.Fatalf("first upsert superseded %+v", first.Superseded)
	}

	second := e.UpsertTimesheet(model.TimesheetEntry{EmployeeID: 1, ProjectID: 10, WeekEnding: week(14), Hours: 8}, RowRef{Sheet: "Personal Hours", Row: 7, Index: 5})
	if second.Superseded == nil {
		t.Fatalf("duplicate week did not supersede")
	}
	if second.Superseded.Row != 2 || second.Superseded.Index != 0 {
		t.Fatalf("superseded wrong row: %+v", second.Superseded)
	}

	staged := e.Staged()
	if len(staged.Timesheets) != 1 {
		t.Fatalf("staged %d timesheets, want 1", len(staged.Timesheets))
	}
	if staged.Timesheets[0].Hours != 8 {
		t.Fatalf("hours = %v, want the later row's 8 (overwrite, not sum)", staged.Timesheets[0].Hours)
	}
}

func TestTimesheetDistinctWeeksKept(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil)
	e.UpsertTimesheet(model.TimesheetEntry{EmployeeID: 1, ProjectID: 10, WeekEnding: week(7), Hours: 5}, RowRef{Row: 2})
	e.UpsertTimesheet(model.TimesheetEntry{EmployeeID: 1, ProjectID: 10, WeekEnding: week(14), Hours: 6}, RowRef{Row: 3})
	e.UpsertTimesheet(model.TimesheetEntry{EmployeeID: 2, ProjectID: 10, WeekEnding: week(14), Hours: 7}, RowRef{Row: 4})

	if got := len(e.Staged().Timesheets); got != 3 {
		t.Fatalf("staged %d timesheets, want 3", got)
	}
}

func TestOpportunityKeyPrefersSourceID(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil)
	e.UpsertOpportunity(model.PipelineOpportunity{SourceID: "OPP-7", Name: "Acme Uplift", Key: "acme uplift", FiscalYear: "24/25", Phase: model.PhaseProposal}, RowRef{Row: 2})
	// same source id under a renamed opportunity: update, not duplicate
	up := e.UpsertOpportunity(model.PipelineOpportunity{SourceID: "OPP-7", Name: "Acme Uplift v2", Key: "acme uplift v2", FiscalYear: "24/25", Phase: model.PhaseWon}, RowRef{Row: 9})
	if up.Superseded == nil {
		t.Fatalf("same source id did not supersede")
	}

	staged := e.Staged()
	if len(staged.Opportunities) != 1 {
		t.Fatalf("staged %d opportunities, want 1", len(staged.Opportunities))
	}
	if staged.Opportunities[0].Phase != model.PhaseWon {
		t.Fatalf("phase = %s, want later row's won", staged.Opportunities[0].Phase)
	}
}

func TestOpportunityNameFYFallback(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil)
	e.UpsertOpportunity(model.PipelineOpportunity{Name: "Acme Uplift", Key: "acme uplift", FiscalYear: "24/25"}, RowRef{Row: 2})
	e.UpsertOpportunity(model.PipelineOpportunity{Name: "Acme Uplift", Key: "acme uplift", FiscalYear: "25/26"}, RowRef{Row: 3})
	up := e.UpsertOpportunity(model.PipelineOpportunity{Name: "Acme Uplift", Key: "acme uplift", FiscalYear: "24/25"}, RowRef{Row: 4})

	if up.Superseded == nil {
		t.Fatalf("same (name, fy) did not supersede")
	}
	if got := len(e.Staged().Opportunities); got != 2 {
		t.Fatalf("staged %d opportunities, want 2 (distinct fiscal years)", got)
	}
}

func TestUpsertReportsStoredMatch(t *testing.T) {
	t.Parallel()

	known := Known{
		TimesheetKey(1, 10, "2025-03-14"): {},
		CostKey(10, "24/25"):              {},
	}
	e := NewEngine(known)

	up := e.UpsertTimesheet(model.TimesheetEntry{EmployeeID: 1, ProjectID: 10, WeekEnding: week(14), Hours: 8}, RowRef{Row: 2})
	if !up.Existing {
		t.Fatalf("stored week not flagged as existing")
	}
	up = e.UpsertTimesheet(model.TimesheetEntry{EmployeeID: 1, ProjectID: 10, WeekEnding: week(21), Hours: 8}, RowRef{Row: 3})
	if up.Existing {
		t.Fatalf("new week flagged as existing")
	}
	up = e.UpsertCost(model.Cost{ProjectID: 10, FiscalYear: "24/25"}, RowRef{Row: 4})
	if !up.Existing {
		t.Fatalf("stored cost not flagged as existing")
	}
	up = e.UpsertCost(model.Cost{ProjectID: 10, FiscalYear: "25/26"}, RowRef{Row: 5})
	if up.Existing {
		t.Fatalf("new fiscal year flagged as existing")
	}
}

func TestStagedOrderIsFirstStaged(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil)
	e.UpsertEmployee(model.Employee{ID: 2, Name: "B"}, RowRef{Row: 2})
	e.UpsertEmployee(model.Employee{ID: 1, Name: "A"}, RowRef{Row: 3})
	e.UpsertEmployee(model.Employee{ID: 2, Name: "B2"}, RowRef{Row: 4})

	staged := e.Staged().Employees
	if len(staged) != 2 {
		t.Fatalf("staged %d employees, want 2", len(staged))
	}
	if staged[0].ID != 2 || staged[0].Name != "B2" || staged[1].ID != 1 {
		t.Fatalf("order/values wrong: %+v", staged)
	}
}
