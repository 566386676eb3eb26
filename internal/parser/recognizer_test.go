package parser

import "testing"

func TestRecognizeStaffSOT(t *testing.T) {
	t.Parallel()

	r := NewRecognizer()
	got := r.Recognize("Staff SOT", []string{"Employee ID", "Name", "Type", "Status", "Role", "Team", "Location", "Certifications"})
	if got.Type != SheetStaffSOT {
		t.Fatalf("recognized as %s, want %s", got.Type, SheetStaffSOT)
	}
	if got.Confidence < 1.0 {
		t.Fatalf("confidence %.2f, want >= 1.0", got.Confidence)
	}
}

func TestRecognizePersonalHours(t *testing.T) {
	t.Parallel()

	r := NewRecognizer()
	got := r.Recognize("Personal Hours FY25", []string{"Employee", "Week Ending", "Project", "Reason", "Hours", "Billable"})
	if got.Type != SheetPersonalHours {
		t.Fatalf("recognized as %s, want %s", got.Type, SheetPersonalHours)
	}
}

func TestRecognizePipelineRevenue(t *testing.T) {
	t.Parallel()

	r := NewRecognizer()
	got := r.Recognize("Pipeline Revenue", []string{
		"Opportunity ID", "Opportunity", "Phase", "VAT Category", "Fiscal Year",
		"Billing Type", "Value", "Margin %", "Partners", "Work Type", "Status",
	})
	if got.Type != SheetPipelineRevenue {
		t.Fatalf("recognized as %s, want %s", got.Type, SheetPipelineRevenue)
	}
}

func TestRecognizeResourceCostVariants(t *testing.T) {
	t.Parallel()

	r := NewRecognizer()
	plain := r.Recognize("Project Resource Cost", []string{"Employee", "Project", "Fiscal Year", "Cost Rate", "Sell Rate"})
	if plain.Type != SheetResourceCost {
		t.Fatalf("plain recognized as %s, want %s", plain.Type, SheetResourceCost)
	}

	af := r.Recognize("Project Resource Cost A&F", []string{"Employee", "Project", "Fiscal Year", "Cost Rate", "Sell Rate", "A&F"})
	if af.Type != SheetResourceCostAF {
		t.Fatalf("A&F recognized as %s, want %s", af.Type, SheetResourceCostAF)
	}
}

func TestRecognizeUnknown(t *testing.T) {
	t.Parallel()

	r := NewRecognizer()
	got := r.Recognize("Notes", []string{"Random", "Columns", "Here"})
	if got.Type != SheetUnknown {
		t.Fatalf("recognized as %s, want %s", got.Type, SheetUnknown)
	}
}

func TestRecognizeHeaderNoise(t *testing.T) {
	t.Parallel()

	// header cells with case, whitespace and punctuation noise still match
	r := NewRecognizer()
	got := r.Recognize("gp", []string{" Project ", "FISCAL  YEAR", "Revenue", "Direct Cost", "Gross Profit ($)"})
	if got.Type != SheetGrossProfit {
		t.Fatalf("recognized as %s, want %s", got.Type, SheetGrossProfit)
	}
}
