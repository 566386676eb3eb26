package parser

import "pulseboard/internal/model"

// SheetType recognized workbook sheet class.
type SheetType string

const (
	SheetJobStatus         SheetType = "job_status"
	SheetStaffSOT          SheetType = "staff_sot"
	SheetPipelineRevenue   SheetType = "pipeline_revenue"
	SheetGrossProfit       SheetType = "gross_profit"
	SheetPersonalHours     SheetType = "personal_hours"
	SheetProjectHours      SheetType = "project_hours"
	SheetCxMasterList      SheetType = "cx_master_list"
	SheetResourceCost      SheetType = "resource_cost"
	SheetResourceCostAF    SheetType = "resource_cost_af"
	SheetOpenOpportunities SheetType = "open_opportunities"
	SheetUnknown           SheetType = "unknown"
)

// signature expected header content for one sheet type. Required entries are
// pipe-separated alternatives; NameHints boost confidence when the sheet name
// matches.
type signature struct {
	Type      SheetType
	NameHints []string
	Required  []string
	Optional  []string
}

// catalogue is ordered: more specific signatures first so that e.g. the A&F
// resource cost variant wins over the plain one.
var catalogue = []signature{
	{
		Type:      SheetResourceCostAF,
		NameHints: []string{"a&f", "a and f", "af"},
		Required:  []string{"employee|staff member|resource", "project|job", "fiscal year|fy", "cost rate", "sell rate|charge rate", "a&f|admin finance|admin and finance"},
	},
	{
		Type:      SheetResourceCost,
		NameHints: []string{"resource cost"},
		Required:  []string{"employee|staff member|resource", "project|job", "fiscal year|fy", "cost rate", "sell rate|charge rate"},
	},
	{
		Type:      SheetStaffSOT,
		NameHints: []string{"staff", "sot"},
		Required:  []string{"employee id|staff id", "name|employee name|staff member", "type|staff type|employment type", "status", "role|position title", "team|practice"},
		Optional:  []string{"location|office", "certifications|certs"},
	},
	{
		Type:      SheetOpenOpportunities,
		NameHints: []string{"open opp", "open opportunities"},
		Required:  []string{"opportunity|opportunity name", "phase|stage", "value|total value", "close date|expected close"},
		Optional:  []string{"partners|partner", "work type", "margin|margin %"},
	},
	{
		Type:      SheetPipelineRevenue,
		NameHints: []string{"pipeline"},
		Required:  []string{"opportunity|opportunity name", "phase|stage|classification", "fiscal year|fy", "value|total value", "margin|margin %", "billing type|billing"},
		Optional:  []string{"opportunity id|source id", "vat|vat category", "partners|partner", "work type", "status"},
	},
	{
		Type:      SheetGrossProfit,
		NameHints: []string{"gross profit", "gp"},
		Required:  []string{"project|job", "fiscal year|fy", "revenue", "cost|direct cost", "gross profit|gp"},
	},
	{
		Type:      SheetPersonalHours,
		NameHints: []string{"personal hours", "my hours", "timesheet"},
		Required:  []string{"employee|name|staff member", "week ending|weekending|we", "project|job|reason", "hours|hrs"},
		Optional:  []string{"billable", "reason"},
	},
	{
		Type:      SheetProjectHours,
		NameHints: []string{"project hours"},
		Required:  []string{"project|job", "employee|staff member", "week ending|weekending|we", "hours|hrs"},
		Optional:  []string{"billable", "cost|cost value", "sale|sale value"},
	},
	{
		Type:      SheetCxMasterList,
		NameHints: []string{"cx"},
		Required:  []string{"project|job", "score|rating|cx score", "fiscal year|fy"},
		Optional:  []string{"client", "comments|feedback"},
	},
	{
		Type:      SheetJobStatus,
		NameHints: []string{"job status", "jobs"},
		Required:  []string{"job number|job no|project code", "job name|project|project name", "status", "client"},
		Optional:  []string{"start date", "end date|due date", "milestone", "pm|project manager"},
	},
}

// Recognition result of matching one sheet against the catalogue.
type Recognition struct {
	SheetName  string    `json:"sheetName"`
	Type       SheetType `json:"sheetType"`
	Confidence float64   `json:"confidence"`
}

// Row one extracted source row: declared column name to raw cell value,
// keeping the original row number for traceability.
type Row struct {
	Number int
	Cells  map[string]model.Cell
}

// Cell looks up a cell by normalized header, tolerating alternative names.
func (r Row) Cell(names ...string) model.Cell {
	for _, n := range names {
		if c, ok := r.Cells[n]; ok {
			return c
		}
	}
	return model.BlankCell()
}
