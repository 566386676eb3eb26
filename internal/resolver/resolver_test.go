package resolver

import (
	"errors"
	"testing"

	"pulseboard/internal/model"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Employees: []model.Employee{
			{ID: 1, Name: "John Smith", Active: true},
			{ID: 2, Name: "Priya Patel", Active: true},
			{ID: 3, Name: "Old Timer", Active: false},
		},
		Projects: []model.Project{
			{ID: 10, Name: "Apollo"},
			{ID: 11, Name: "Internal", Internal: true},
		},
		NextEmployeeID: 100,
		NextProjectID:  200,
	}
}

func testConfig() Config {
	return Config{
		ReasonKeywords:      []string{"Annual Leave", "Sick Leave", "Admin", "Training", "Bench"},
		InternalProjectName: "Internal",
	}
}

func TestResolveEmployeeExact(t *testing.T) {
	t.Parallel()

	r := New(testSnapshot(), testConfig())
	res, err := r.ResolveEmployee("  JOHN  SMITH ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.ID != 1 || res.Outcome != Matched {
		t.Fatalf("got %+v, want matched id 1", res)
	}
}

func TestResolveEmployeeContainment(t *testing.T) {
	t.Parallel()

	r := New(testSnapshot(), testConfig())
	res, err := r.ResolveEmployee("J. Smith")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.ID != 1 || res.Outcome != Matched {
		t.Fatalf("J. Smith should match John Smith, got %+v", res)
	}
}

func TestResolveEmployeeAmbiguous(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	snap.Employees = append(snap.Employees, model.Employee{ID: 4, Name: "Jane Smith", Active: true})
	r := New(snap, testConfig())

	_, err := r.ResolveEmployee("J. Smith")
	var amb *AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("want AmbiguousError, got %v", err)
	}
	if len(amb.Candidates) != 2 {
		t.Fatalf("candidates = %v, want both Smiths", amb.Candidates)
	}
}

func TestResolveEmployeeCreatesOncePerKey(t *testing.T) {
	t.Parallel()

	r := New(testSnapshot(), testConfig())
	first, err := r.ResolveEmployee("Dana Wu")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first.Outcome != Created || first.ID != 100 {
		t.Fatalf("first resolution = %+v, want created id 100", first)
	}

	second, err := r.ResolveEmployee("dana wu")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if second.Outcome != Matched || second.ID != first.ID {
		t.Fatalf("second resolution = %+v, want same id matched", second)
	}

	employees, _ := r.Created()
	if len(employees) != 1 {
		t.Fatalf("created %d employees, want 1", len(employees))
	}
}

func TestInactiveEmployeeNeverMatches(t *testing.T) {
	t.Parallel()

	r := New(testSnapshot(), testConfig())
	res, err := r.ResolveEmployee("Old Timer")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// name collision with an inactive employee does not block a new record
	if res.Outcome != Created {
		t.Fatalf("got %+v, want a freshly created employee", res)
	}
	if res.ID == 3 {
		t.Fatalf("matched the inactive employee")
	}
}

func TestResolveEmployeeBlank(t *testing.T) {
	t.Parallel()

	r := New(testSnapshot(), testConfig())
	_, err := r.ResolveEmployee("   ")
	var unres *UnresolvedError
	if !errors.As(err, &unres) {
		t.Fatalf("want UnresolvedError, got %v", err)
	}
}

func TestReasonResolvesToInternal(t *testing.T) {
	t.Parallel()

	r := New(testSnapshot(), testConfig())
	for _, raw := range []string{"Annual Leave", "sick leave", "ADMIN", "Completely Made Up"} {
		reason := raw == "Completely Made Up" // explicit reason flag from the sheet
		if !reason && !r.IsReason(raw) {
			t.Fatalf("IsReason(%q) = false", raw)
		}
		res, err := r.ResolveProject(raw, reason)
		if err != nil {
			t.Fatalf("resolve %q: %v", raw, err)
		}
		if res.ID != 11 {
			t.Fatalf("reason %q resolved to %+v, want Internal project 11", raw, res)
		}
	}

	// no reason-sourced project was ever created
	_, projects := r.Created()
	if len(projects) != 0 {
		t.Fatalf("reason rows created projects: %v", projects)
	}
}

func TestInternalProjectCreatedAtMostOnce(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	snap.Projects = snap.Projects[:1] // no Internal project yet
	r := New(snap, testConfig())

	a := r.InternalProject()
	if a.Outcome != Created {
		t.Fatalf("first use should create Internal, got %+v", a)
	}
	b := r.InternalProject()
	if b.Outcome != Matched || b.ID != a.ID {
		t.Fatalf("second use = %+v, want matched id %d", b, a.ID)
	}

	_, projects := r.Created()
	if len(projects) != 1 || !projects[0].Internal {
		t.Fatalf("created projects = %+v", projects)
	}
}

func TestResolveProjectContainment(t *testing.T) {
	t.Parallel()

	r := New(testSnapshot(), testConfig())
	res, err := r.ResolveProject("Apollo Phase 2", false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.ID != 10 || res.Outcome != Matched {
		t.Fatalf("got %+v, want Apollo", res)
	}
}

func TestShortKeyNeverContainmentMatches(t *testing.T) {
	t.Parallel()

	r := New(testSnapshot(), testConfig())
	res, err := r.ResolveEmployee("Jo")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Outcome != Created {
		t.Fatalf("two-rune reference must not containment-match, got %+v", res)
	}
}

func TestResolveStaffMatchesInactive(t *testing.T) {
	t.Parallel()

	r := New(testSnapshot(), testConfig())
	res, err := r.ResolveStaff("Old Timer")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// the staff sheet is allowed to re-identify inactive people
	if res.Outcome != Matched || res.ID != 3 {
		t.Fatalf("got %+v, want matched id 3", res)
	}

	employees, _ := r.Created()
	if len(employees) != 0 {
		t.Fatalf("staff resolution duplicated an inactive employee: %v", employees)
	}
}

func TestResolveStaffCreatesNewcomer(t *testing.T) {
	t.Parallel()

	r := New(testSnapshot(), testConfig())
	res, err := r.ResolveStaff("Dana Wu")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Outcome != Created || res.ID != 100 {
		t.Fatalf("got %+v, want created id 100", res)
	}

	// fact rows resolve the newcomer to the same identity afterwards
	again, err := r.ResolveEmployee("Dana Wu")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if again.ID != res.ID || again.Outcome != Matched {
		t.Fatalf("got %+v, want matched id %d", again, res.ID)
	}
}
