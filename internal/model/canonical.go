package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StaffType employment class of a staff member.
type StaffType string

const (
	StaffPermanent  StaffType = "permanent"
	StaffContractor StaffType = "contractor"
	StaffOther      StaffType = "other"
)

// ParseStaffType maps free-text staff type cells to the canonical class.
func ParseStaffType(s string) StaffType {
	switch NormalizeKey(s) {
	case "permanent", "perm", "full time", "fulltime", "part time":
		return StaffPermanent
	case "contractor", "contract", "casual":
		return StaffContractor
	default:
		return StaffOther
	}
}

// Employee canonical staff record. Key is the normalized-name matching key;
// it is unique among active employees only.
type Employee struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Key            string    `json:"-"`
	StaffType      StaffType `json:"staffType"`
	Active         bool      `json:"active"`
	Role           string    `json:"role"`
	Team           string    `json:"team"`
	Location       string    `json:"location"`
	Certifications []string  `json:"certifications"`
}

// Project canonical project record. Internal marks the synthetic Internal
// project and anything created from a Reason entry.
type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Key      string `json:"-"`
	Status   string `json:"status"`
	Client   string `json:"client"`
	Internal bool   `json:"internal"`
}

// PipelineOpportunity a sales pipeline line. Value and MarginPct are nullable:
// a blank source cell stays null and never becomes zero.
type PipelineOpportunity struct {
	ID          int64               `json:"id"`
	SourceID    string              `json:"sourceId"`
	Name        string              `json:"name"`
	Key         string              `json:"-"`
	Phase       Phase               `json:"phase"`
	VATCategory string              `json:"vatCategory"`
	FiscalYear  string              `json:"fiscalYear"`
	BillingType string              `json:"billingType"`
	Value       decimal.NullDecimal `json:"value"`
	MarginPct   decimal.NullDecimal `json:"marginPct"`
	Partners    []string            `json:"partners"`
	WorkType    string              `json:"workType"`
	Status      string              `json:"status"`
}

// TimesheetEntry one employee/project/week fact row. References are canonical
// ids; names never survive past resolution.
type TimesheetEntry struct {
	EmployeeID int64     `json:"employeeId"`
	ProjectID  int64     `json:"projectId"`
	WeekEnding time.Time `json:"weekEnding"`
	FiscalYear string    `json:"fiscalYear"`
	Hours      float64   `json:"hours"`
	Billable   bool      `json:"billable"`
	CostValue  float64   `json:"costValue"`
	SaleValue  float64   `json:"saleValue"`
}

// Cost project-level financials for one fiscal year (gross profit sheet).
type Cost struct {
	ProjectID   int64               `json:"projectId"`
	FiscalYear  string              `json:"fiscalYear"`
	Revenue     decimal.NullDecimal `json:"revenue"`
	DirectCost  decimal.NullDecimal `json:"directCost"`
	GrossProfit decimal.NullDecimal `json:"grossProfit"`
}

// Milestone a dated project deliverable from the job status sheet.
type Milestone struct {
	ProjectID  int64     `json:"projectId"`
	Name       string    `json:"name"`
	DueDate    time.Time `json:"dueDate"`
	FiscalYear string    `json:"fiscalYear"`
	Status     string    `json:"status"`
}

// CxRating client experience score for a project in one fiscal year.
type CxRating struct {
	ProjectID  int64   `json:"projectId"`
	FiscalYear string  `json:"fiscalYear"`
	Score      float64 `json:"score"`
	Comments   string  `json:"comments"`
}

// ResourceCost per-employee cost/sell rates on a project for one fiscal year.
// Stream distinguishes the delivery book from the A&F book.
type ResourceCost struct {
	EmployeeID int64               `json:"employeeId"`
	ProjectID  int64               `json:"projectId"`
	FiscalYear string              `json:"fiscalYear"`
	Stream     string              `json:"stream"`
	CostRate   decimal.NullDecimal `json:"costRate"`
	SellRate   decimal.NullDecimal `json:"sellRate"`
}

// ResourceCost.Stream values.
const (
	StreamDelivery = "delivery"
	StreamAF       = "af"
)

// SplitTags splits a semicolon-delimited tag list (certifications, partners).
func SplitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// JoinTags is the inverse of SplitTags for storage.
func JoinTags(tags []string) string {
	return strings.Join(tags, ";")
}
