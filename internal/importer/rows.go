package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pulseboard/internal/fiscal"
	"pulseboard/internal/merge"
	"pulseboard/internal/model"
	"pulseboard/internal/parser"
	"pulseboard/internal/resolver"
)

// refText reads a cell as a reference string. Sentinel tokens ("(blank)",
// "N/A"...) mean the value is intentionally absent and read as empty.
func refText(c model.Cell) string {
	if c.Kind == model.CellString && parser.IsSentinel(c.Str) {
		return ""
	}
	return strings.TrimSpace(c.Text())
}

// cellDecimal reads a money/percentage cell. Blank and sentinel stay null;
// a non-numeric text cell is a parse failure.
func cellDecimal(c model.Cell) (decimal.NullDecimal, bool) {
	switch c.Kind {
	case model.CellBlank:
		return decimal.NullDecimal{}, true
	case model.CellString:
		if parser.IsSentinel(c.Str) {
			return decimal.NullDecimal{}, true
		}
		return decimal.NullDecimal{}, false
	case model.CellNumber:
		return decimal.NullDecimal{Decimal: decimal.NewFromFloat(c.Num), Valid: true}, true
	default:
		return decimal.NullDecimal{}, false
	}
}

func cellDate(c model.Cell) (time.Time, bool) {
	if c.Kind == model.CellDate {
		return c.Date, true
	}
	if c.Kind == model.CellString {
		return parser.ParseDate(c.Str)
	}
	return time.Time{}, false
}

// cellBool reads a yes/no style cell, falling back to def when absent.
func cellBool(c model.Cell, def bool) bool {
	if c.IsBlank() {
		return def
	}
	if c.Kind == model.CellNumber {
		return c.Num != 0
	}
	switch model.NormalizeKey(c.Str) {
	case "y", "yes", "true", "billable":
		return true
	case "n", "no", "false", "non billable", "nonbillable":
		return false
	default:
		return def
	}
}

// isActiveStatus maps a staff status cell to the active flag.
func isActiveStatus(s string) bool {
	switch model.NormalizeKey(s) {
	case "active", "current", "employed", "y", "yes":
		return true
	default:
		return false
	}
}

// rowErr builds the typed rejection for a missing or malformed cell.
func rowErr(sheet string, rowNo int, column, msg string) error {
	return &parser.RowError{Sheet: sheet, Row: rowNo, Column: column, Msg: msg}
}

// rejectRow records a failed row. A typed cell error keeps its column detail;
// resolution errors carry their own message.
func (c *Coordinator) rejectRow(ctx *importContext, sheet string, rowNo int, err error) {
	reason := err.Error()
	var cellErr *parser.RowError
	if errors.As(err, &cellErr) && cellErr.Column != "" {
		reason = cellErr.Column + ": " + cellErr.Msg
	}
	ctx.batch.Record(model.ImportRow{Sheet: sheet, Row: rowNo, Outcome: model.RowRejected, Reason: reason})
	ctx.log.WithFields(logrus.Fields{"sheet": sheet, "row": rowNo}).Debug(reason)
}

// record registers a row outcome with the entity it resolved to.
func (c *Coordinator) record(ctx *importContext, sheet string, rowNo int, created bool, entityID int64) (int, merge.RowRef) {
	outcome := model.RowAccepted
	if created {
		outcome = model.RowCreated
	}
	idx := ctx.batch.Record(model.ImportRow{Sheet: sheet, Row: rowNo, EntityID: entityID, Outcome: outcome})
	return idx, merge.RowRef{Sheet: sheet, Row: rowNo, Index: idx}
}

// finish applies post-staging amendments: a superseded earlier row becomes
// corrected, and an accepted row that overwrote a stored fact is itself
// re-marked corrected.
func (c *Coordinator) finish(ctx *importContext, up merge.Upsert, idx int, sheet string, rowNo int) {
	if up.Superseded != nil {
		ctx.batch.Amend(up.Superseded.Index, model.RowCorrected,
			fmt.Sprintf("superseded by %s row %d", sheet, rowNo))
	}
	if up.Existing && ctx.batch.Rows[idx].Outcome == model.RowAccepted {
		ctx.batch.Amend(idx, model.RowCorrected, "overwrites a stored record")
	}
}

// staffRow the staff source-of-truth sheet: each row is authoritative for
// one person's canonical record, including inactive people.
func (c *Coordinator) staffRow(ctx *importContext, sheet string, row parser.Row) error {
	name := refText(row.Cell("name", "employee name", "staff member"))
	if name == "" {
		return rowErr(sheet, row.Number, "name", "missing employee name")
	}
	res, err := ctx.resolver.ResolveStaff(name)
	if err != nil {
		return err
	}

	emp := model.Employee{
		ID:             res.ID,
		Name:           name,
		Key:            model.NormalizeKey(name),
		StaffType:      model.ParseStaffType(refText(row.Cell("type", "staff type", "employment type"))),
		Active:         isActiveStatus(refText(row.Cell("status"))),
		Role:           refText(row.Cell("role", "position title")),
		Team:           refText(row.Cell("team", "practice")),
		Location:       refText(row.Cell("location", "office")),
		Certifications: model.SplitTags(refText(row.Cell("certifications", "certs"))),
	}

	idx, ref := c.record(ctx, sheet, row.Number, res.Outcome == resolver.Created, res.ID)
	up := ctx.engine.UpsertEmployee(emp, ref)
	c.finish(ctx, up, idx, sheet, row.Number)
	return nil
}

// jobStatusRow project status and, when present, a milestone.
func (c *Coordinator) jobStatusRow(ctx *importContext, sheet string, row parser.Row) error {
	name := refText(row.Cell("job name", "project", "project name"))
	if name == "" {
		return rowErr(sheet, row.Number, "job name", "missing project name")
	}
	res, err := ctx.resolver.ResolveProject(name, false)
	if err != nil {
		return err
	}

	status := refText(row.Cell("status"))
	if status == "" {
		status = "active"
	}
	proj := model.Project{
		ID:     res.ID,
		Name:   name,
		Key:    model.NormalizeKey(name),
		Status: status,
		Client: refText(row.Cell("client")),
	}

	idx, ref := c.record(ctx, sheet, row.Number, res.Outcome == resolver.Created, res.ID)
	up := ctx.engine.UpsertProject(proj, ref)
	c.finish(ctx, up, idx, sheet, row.Number)

	if milestone := refText(row.Cell("milestone")); milestone != "" {
		m := model.Milestone{
			ProjectID: res.ID,
			Name:      milestone,
			Status:    status,
		}
		if due, ok := cellDate(row.Cell("end date", "due date")); ok {
			m.DueDate = due
			m.FiscalYear = fiscal.Label(due)
		}
		mup := ctx.engine.UpsertMilestone(m, ref)
		c.finish(ctx, mup, idx, sheet, row.Number)
	}
	return nil
}

// pipelineRow a pipeline revenue line with explicit fiscal year.
func (c *Coordinator) pipelineRow(ctx *importContext, sheet string, row parser.Row) error {
	name := refText(row.Cell("opportunity", "opportunity name"))
	if name == "" {
		return rowErr(sheet, row.Number, "opportunity", "missing opportunity name")
	}
	phase, err := model.ParsePhase(refText(row.Cell("phase", "stage", "classification")))
	if err != nil {
		return rowErr(sheet, row.Number, "phase", err.Error())
	}
	fy := refText(row.Cell("fiscal year", "fy"))
	if _, err := fiscal.StartYear(fy); err != nil {
		return rowErr(sheet, row.Number, "fiscal year", fmt.Sprintf("invalid label %q", fy))
	}
	value, ok := cellDecimal(row.Cell("value", "total value"))
	if !ok {
		return rowErr(sheet, row.Number, "value", "not a number")
	}
	margin, ok := cellDecimal(row.Cell("margin", "margin %"))
	if !ok {
		return rowErr(sheet, row.Number, "margin", "not a number")
	}

	o := model.PipelineOpportunity{
		SourceID:    refText(row.Cell("opportunity id", "source id")),
		Name:        name,
		Key:         model.NormalizeKey(name),
		Phase:       phase,
		VATCategory: refText(row.Cell("vat", "vat category")),
		FiscalYear:  fy,
		BillingType: refText(row.Cell("billing type", "billing")),
		Value:       value,
		MarginPct:   margin,
		Partners:    model.SplitTags(refText(row.Cell("partners", "partner"))),
		WorkType:    refText(row.Cell("work type")),
		Status:      refText(row.Cell("status")),
	}

	idx, ref := c.record(ctx, sheet, row.Number, false, 0)
	up := ctx.engine.UpsertOpportunity(o, ref)
	c.finish(ctx, up, idx, sheet, row.Number)
	return nil
}

// openOpportunityRow an open-opportunities line; the fiscal year is derived
// from the expected close date.
func (c *Coordinator) openOpportunityRow(ctx *importContext, sheet string, row parser.Row) error {
	name := refText(row.Cell("opportunity", "opportunity name"))
	if name == "" {
		return rowErr(sheet, row.Number, "opportunity", "missing opportunity name")
	}
	phase, err := model.ParsePhase(refText(row.Cell("phase", "stage")))
	if err != nil {
		return rowErr(sheet, row.Number, "phase", err.Error())
	}
	closeDate, ok := cellDate(row.Cell("close date", "expected close"))
	if !ok {
		return rowErr(sheet, row.Number, "close date", "missing or invalid")
	}
	value, ok := cellDecimal(row.Cell("value", "total value"))
	if !ok {
		return rowErr(sheet, row.Number, "value", "not a number")
	}
	margin, ok := cellDecimal(row.Cell("margin", "margin %"))
	if !ok {
		return rowErr(sheet, row.Number, "margin", "not a number")
	}

	o := model.PipelineOpportunity{
		SourceID:   refText(row.Cell("opportunity id", "source id")),
		Name:       name,
		Key:        model.NormalizeKey(name),
		Phase:      phase,
		FiscalYear: fiscal.Label(closeDate),
		Value:      value,
		MarginPct:  margin,
		Partners:   model.SplitTags(refText(row.Cell("partners", "partner"))),
		WorkType:   refText(row.Cell("work type")),
		Status:     "open",
	}

	idx, ref := c.record(ctx, sheet, row.Number, false, 0)
	up := ctx.engine.UpsertOpportunity(o, ref)
	c.finish(ctx, up, idx, sheet, row.Number)
	return nil
}

// grossProfitRow project financials for one fiscal year.
func (c *Coordinator) grossProfitRow(ctx *importContext, sheet string, row parser.Row) error {
	name := refText(row.Cell("project", "job"))
	if name == "" {
		return rowErr(sheet, row.Number, "project", "missing project name")
	}
	fy := refText(row.Cell("fiscal year", "fy"))
	if _, err := fiscal.StartYear(fy); err != nil {
		return rowErr(sheet, row.Number, "fiscal year", fmt.Sprintf("invalid label %q", fy))
	}
	revenue, ok := cellDecimal(row.Cell("revenue"))
	if !ok {
		return rowErr(sheet, row.Number, "revenue", "not a number")
	}
	direct, ok := cellDecimal(row.Cell("cost", "direct cost"))
	if !ok {
		return rowErr(sheet, row.Number, "direct cost", "not a number")
	}
	gp, ok := cellDecimal(row.Cell("gross profit", "gp"))
	if !ok {
		return rowErr(sheet, row.Number, "gross profit", "not a number")
	}

	res, err := ctx.resolver.ResolveProject(name, false)
	if err != nil {
		return err
	}

	cost := model.Cost{
		ProjectID:   res.ID,
		FiscalYear:  fy,
		Revenue:     revenue,
		DirectCost:  direct,
		GrossProfit: gp,
	}

	idx, ref := c.record(ctx, sheet, row.Number, res.Outcome == resolver.Created, res.ID)
	up := ctx.engine.UpsertCost(cost, ref)
	c.finish(ctx, up, idx, sheet, row.Number)
	return nil
}

// personalHoursRow one employee/week timesheet line. A blank project with a
// Reason routes the hours to the Internal project.
func (c *Coordinator) personalHoursRow(ctx *importContext, sheet string, row parser.Row) error {
	empName := refText(row.Cell("employee", "name", "staff member"))
	if empName == "" {
		return rowErr(sheet, row.Number, "employee", "missing employee name")
	}
	week, ok := cellDate(row.Cell("week ending", "weekending", "we"))
	if !ok {
		return rowErr(sheet, row.Number, "week ending", "missing or invalid")
	}
	hours, ok := row.Cell("hours", "hrs").Float()
	if !ok {
		return rowErr(sheet, row.Number, "hours", "missing or invalid")
	}

	projName := refText(row.Cell("project", "job"))
	reason := refText(row.Cell("reason"))
	isReason := reason != "" || ctx.resolver.IsReason(projName)

	empRes, err := ctx.resolver.ResolveEmployee(empName)
	if err != nil {
		return err
	}
	projRes, err := ctx.resolver.ResolveProject(projName, isReason)
	if err != nil {
		return err
	}

	entry := model.TimesheetEntry{
		EmployeeID: empRes.ID,
		ProjectID:  projRes.ID,
		WeekEnding: week,
		FiscalYear: fiscal.Label(week),
		Hours:      hours,
		Billable:   cellBool(row.Cell("billable"), !isReason),
	}

	created := empRes.Outcome == resolver.Created || projRes.Outcome == resolver.Created
	idx, ref := c.record(ctx, sheet, row.Number, created, empRes.ID)
	up := ctx.engine.UpsertTimesheet(entry, ref)
	c.finish(ctx, up, idx, sheet, row.Number)
	return nil
}

// projectHoursRow the project-centric hours sheet, which also carries cost
// and sale values per line.
func (c *Coordinator) projectHoursRow(ctx *importContext, sheet string, row parser.Row) error {
	projName := refText(row.Cell("project", "job"))
	if projName == "" {
		return rowErr(sheet, row.Number, "project", "missing project name")
	}
	empName := refText(row.Cell("employee", "staff member"))
	if empName == "" {
		return rowErr(sheet, row.Number, "employee", "missing employee name")
	}
	week, ok := cellDate(row.Cell("week ending", "weekending", "we"))
	if !ok {
		return rowErr(sheet, row.Number, "week ending", "missing or invalid")
	}
	hours, ok := row.Cell("hours", "hrs").Float()
	if !ok {
		return rowErr(sheet, row.Number, "hours", "missing or invalid")
	}

	empRes, err := ctx.resolver.ResolveEmployee(empName)
	if err != nil {
		return err
	}
	projRes, err := ctx.resolver.ResolveProject(projName, false)
	if err != nil {
		return err
	}

	entry := model.TimesheetEntry{
		EmployeeID: empRes.ID,
		ProjectID:  projRes.ID,
		WeekEnding: week,
		FiscalYear: fiscal.Label(week),
		Hours:      hours,
		Billable:   cellBool(row.Cell("billable"), true),
	}
	if v, ok := row.Cell("cost", "cost value").Float(); ok {
		entry.CostValue = v
	}
	if v, ok := row.Cell("sale", "sale value").Float(); ok {
		entry.SaleValue = v
	}

	created := empRes.Outcome == resolver.Created || projRes.Outcome == resolver.Created
	idx, ref := c.record(ctx, sheet, row.Number, created, empRes.ID)
	up := ctx.engine.UpsertTimesheet(entry, ref)
	c.finish(ctx, up, idx, sheet, row.Number)
	return nil
}

// cxRow a client-experience score for one project and fiscal year.
func (c *Coordinator) cxRow(ctx *importContext, sheet string, row parser.Row) error {
	name := refText(row.Cell("project", "job"))
	if name == "" {
		return rowErr(sheet, row.Number, "project", "missing project name")
	}
	fy := refText(row.Cell("fiscal year", "fy"))
	if _, err := fiscal.StartYear(fy); err != nil {
		return rowErr(sheet, row.Number, "fiscal year", fmt.Sprintf("invalid label %q", fy))
	}
	score, ok := row.Cell("score", "rating", "cx score").Float()
	if !ok {
		return rowErr(sheet, row.Number, "score", "missing or invalid")
	}

	res, err := ctx.resolver.ResolveProject(name, false)
	if err != nil {
		return err
	}

	rating := model.CxRating{
		ProjectID:  res.ID,
		FiscalYear: fy,
		Score:      score,
		Comments:   refText(row.Cell("comments", "feedback")),
	}

	idx, ref := c.record(ctx, sheet, row.Number, res.Outcome == resolver.Created, res.ID)
	up := ctx.engine.UpsertCxRating(rating, ref)
	c.finish(ctx, up, idx, sheet, row.Number)
	return nil
}

// resourceCostRow per-employee rates on a project; stream separates the
// delivery book from the A&F book.
func (c *Coordinator) resourceCostRow(ctx *importContext, sheet string, row parser.Row, stream string) error {
	empName := refText(row.Cell("employee", "staff member", "resource"))
	if empName == "" {
		return rowErr(sheet, row.Number, "employee", "missing employee name")
	}
	projName := refText(row.Cell("project", "job"))
	if projName == "" {
		return rowErr(sheet, row.Number, "project", "missing project name")
	}
	fy := refText(row.Cell("fiscal year", "fy"))
	if _, err := fiscal.StartYear(fy); err != nil {
		return rowErr(sheet, row.Number, "fiscal year", fmt.Sprintf("invalid label %q", fy))
	}
	costRate, ok := cellDecimal(row.Cell("cost rate"))
	if !ok {
		return rowErr(sheet, row.Number, "cost rate", "not a number")
	}
	sellRate, ok := cellDecimal(row.Cell("sell rate", "charge rate"))
	if !ok {
		return rowErr(sheet, row.Number, "sell rate", "not a number")
	}

	empRes, err := ctx.resolver.ResolveEmployee(empName)
	if err != nil {
		return err
	}
	projRes, err := ctx.resolver.ResolveProject(projName, false)
	if err != nil {
		return err
	}

	rc := model.ResourceCost{
		EmployeeID: empRes.ID,
		ProjectID:  projRes.ID,
		FiscalYear: fy,
		Stream:     stream,
		CostRate:   costRate,
		SellRate:   sellRate,
	}

	created := empRes.Outcome == resolver.Created || projRes.Outcome == resolver.Created
	idx, ref := c.record(ctx, sheet, row.Number, created, empRes.ID)
	up := ctx.engine.UpsertResourceCost(rc, ref)
	c.finish(ctx, up, idx, sheet, row.Number)
	return nil
}
