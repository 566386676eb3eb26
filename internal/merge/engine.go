// Package merge stages resolved rows for one import batch and reconciles
// duplicates by natural key: later rows supersede earlier ones, nothing is
// ever deleted, and derived aggregates are left to the read side.
package merge

import (
	"fmt"
	"sync"

	"pulseboard/internal/model"
)

// RowRef points a staged record back at its source row so a superseded row
// can be re-marked in the batch.
type RowRef struct {
	Sheet string
	Row   int
	Index int // index into ImportBatch.Rows
}

// Upsert result of staging one record.
type Upsert struct {
	// Superseded is the earlier in-batch row this record overwrote, if any.
	Superseded *RowRef
	// Existing reports that the record's natural key was already stored when
	// the batch opened, so committing it overwrites rather than inserts.
	Existing bool
}

// Known the natural keys already present in the store when a batch opens.
// Built from the same key functions the engine stages with, so a staged
// record can be told apart as a correcting overwrite or a brand-new fact.
type Known map[string]struct{}

// Has reports whether key was stored before the batch.
func (k Known) Has(key string) bool {
	_, ok := k[key]
	return ok
}

// OpportunityKey natural key for a pipeline line: the source identifier when
// the sheet carries one, else (name key, fiscal year).
func OpportunityKey(sourceID, nameKey, fiscalYear string) string {
	if sourceID != "" {
		return "opp|src|" + sourceID
	}
	return "opp|name|" + nameKey + "|" + fiscalYear
}

// TimesheetKey natural key for an hours fact; weekEnding is "2006-01-02".
func TimesheetKey(employeeID, projectID int64, weekEnding string) string {
	return fmt.Sprintf("ts|%d|%d|%s", employeeID, projectID, weekEnding)
}

// CostKey natural key for project financials.
func CostKey(projectID int64, fiscalYear string) string {
	return fmt.Sprintf("cost|%d|%s", projectID, fiscalYear)
}

// MilestoneKey natural key for a milestone; nameKey is the normalized name.
func MilestoneKey(projectID int64, nameKey string) string {
	return fmt.Sprintf("ms|%d|%s", projectID, nameKey)
}

// CxRatingKey natural key for a CX score.
func CxRatingKey(projectID int64, fiscalYear string) string {
	return fmt.Sprintf("cx|%d|%s", projectID, fiscalYear)
}

// ResourceCostKey natural key for per-employee project rates.
func ResourceCostKey(employeeID, projectID int64, fiscalYear, stream string) string {
	return fmt.Sprintf("rc|%d|%d|%s|%s", employeeID, projectID, fiscalYear, stream)
}

type staged[T any] struct {
	order  []string
	byKey  map[string]T
	source map[string]RowRef
}

func newStaged[T any]() *staged[T] {
	return &staged[T]{byKey: make(map[string]T), source: make(map[string]RowRef)}
}

func (s *staged[T]) put(key string, v T, ref RowRef) Upsert {
	var up Upsert
	if prev, ok := s.source[key]; ok {
		up.Superseded = &prev
	} else {
		s.order = append(s.order, key)
	}
	s.byKey[key] = v
	s.source[key] = ref
	return up
}

func (s *staged[T]) values() []T {
	out := make([]T, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.byKey[k])
	}
	return out
}

// Engine accumulates the batch's upsert operations per entity class.
// Writes are serialized; sheet workers may stage concurrently.
type Engine struct {
	mu    sync.Mutex
	known Known

	employees     *staged[model.Employee]
	projects      *staged[model.Project]
	opportunities *staged[model.PipelineOpportunity]
	timesheets    *staged[model.TimesheetEntry]
	costs         *staged[model.Cost]
	milestones    *staged[model.Milestone]
	cxRatings     *staged[model.CxRating]
	resourceCosts *staged[model.ResourceCost]
}

// NewEngine creates an empty staging engine for one batch. known carries the
// fact keys stored before the batch opened; nil means an empty store.
func NewEngine(known Known) *Engine {
	return &Engine{
		known:         known,
		employees:     newStaged[model.Employee](),
		projects:      newStaged[model.Project](),
		opportunities: newStaged[model.PipelineOpportunity](),
		timesheets:    newStaged[model.TimesheetEntry](),
		costs:         newStaged[model.Cost](),
		milestones:    newStaged[model.Milestone](),
		cxRatings:     newStaged[model.CxRating](),
		resourceCosts: newStaged[model.ResourceCost](),
	}
}

// UpsertEmployee stages a staff record keyed by canonical id.
func (e *Engine) UpsertEmployee(emp model.Employee, ref RowRef) Upsert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.employees.put(fmt.Sprintf("%d", emp.ID), emp, ref)
}

// UpsertProject stages a project record keyed by canonical id.
func (e *Engine) UpsertProject(p model.Project, ref RowRef) Upsert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.projects.put(fmt.Sprintf("%d", p.ID), p, ref)
}

// UpsertOpportunity stages a pipeline line. The natural key is the source
// identifier when present, else (name, fiscal year), so an opportunity keeps
// its identity across phase changes.
func (e *Engine) UpsertOpportunity(o model.PipelineOpportunity, ref RowRef) Upsert {
	key := OpportunityKey(o.SourceID, o.Key, o.FiscalYear)
	e.mu.Lock()
	defer e.mu.Unlock()
	up := e.opportunities.put(key, o, ref)
	up.Existing = e.known.Has(key)
	return up
}

// UpsertTimesheet stages an hours fact keyed (employee, project, week ending).
func (e *Engine) UpsertTimesheet(t model.TimesheetEntry, ref RowRef) Upsert {
	key := TimesheetKey(t.EmployeeID, t.ProjectID, t.WeekEnding.Format("2006-01-02"))
	e.mu.Lock()
	defer e.mu.Unlock()
	up := e.timesheets.put(key, t, ref)
	up.Existing = e.known.Has(key)
	return up
}

// UpsertCost stages project financials keyed (project, fiscal year).
func (e *Engine) UpsertCost(c model.Cost, ref RowRef) Upsert {
	key := CostKey(c.ProjectID, c.FiscalYear)
	e.mu.Lock()
	defer e.mu.Unlock()
	up := e.costs.put(key, c, ref)
	up.Existing = e.known.Has(key)
	return up
}

// UpsertMilestone stages a milestone keyed (project, name).
func (e *Engine) UpsertMilestone(m model.Milestone, ref RowRef) Upsert {
	key := MilestoneKey(m.ProjectID, model.NormalizeKey(m.Name))
	e.mu.Lock()
	defer e.mu.Unlock()
	up := e.milestones.put(key, m, ref)
	up.Existing = e.known.Has(key)
	return up
}

// UpsertCxRating stages a CX score keyed (project, fiscal year).
func (e *Engine) UpsertCxRating(r model.CxRating, ref RowRef) Upsert {
	key := CxRatingKey(r.ProjectID, r.FiscalYear)
	e.mu.Lock()
	defer e.mu.Unlock()
	up := e.cxRatings.put(key, r, ref)
	up.Existing = e.known.Has(key)
	return up
}

// UpsertResourceCost stages rates keyed (employee, project, fiscal year, stream).
func (e *Engine) UpsertResourceCost(rc model.ResourceCost, ref RowRef) Upsert {
	key := ResourceCostKey(rc.EmployeeID, rc.ProjectID, rc.FiscalYear, rc.Stream)
	e.mu.Lock()
	defer e.mu.Unlock()
	up := e.resourceCosts.put(key, rc, ref)
	up.Existing = e.known.Has(key)
	return up
}

// EnsureEmployee stages an employee only if their id has no staged record
// yet. Used for entities the resolver created from fact-row references, so a
// richer staff-sheet record is never clobbered by the bare creation.
func (e *Engine) EnsureEmployee(emp model.Employee) {
	key := fmt.Sprintf("%d", emp.ID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.employees.byKey[key]; !ok {
		e.employees.put(key, emp, RowRef{})
	}
}

// EnsureProject is EnsureEmployee for projects.
func (e *Engine) EnsureProject(p model.Project) {
	key := fmt.Sprintf("%d", p.ID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.projects.byKey[key]; !ok {
		e.projects.put(key, p, RowRef{})
	}
}

// Staged the final, de-duplicated upsert operations for one atomic commit,
// in first-staged order.
type Staged struct {
	Employees     []model.Employee
	Projects      []model.Project
	Opportunities []model.PipelineOpportunity
	Timesheets    []model.TimesheetEntry
	Costs         []model.Cost
	Milestones    []model.Milestone
	CxRatings     []model.CxRating
	ResourceCosts []model.ResourceCost
}

// Staged snapshots the engine's accumulated operations.
func (e *Engine) Staged() Staged {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Staged{
		Employees:     e.employees.values(),
		Projects:      e.projects.values(),
		Opportunities: e.opportunities.values(),
		Timesheets:    e.timesheets.values(),
		Costs:         e.costs.values(),
		Milestones:    e.milestones.values(),
		CxRatings:     e.cxRatings.values(),
		ResourceCosts: e.resourceCosts.values(),
	}
}
