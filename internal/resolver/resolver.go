// Package resolver matches raw workbook references (employee and project
// names) to canonical entities, creating new ones when no match exists.
package resolver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"pulseboard/internal/model"
)

// minContainmentLen containment matching needs at least this many runes in
// the shorter key; bare initials never containment-match.
const minContainmentLen = 3

// AmbiguousError a reference matched more than one canonical candidate.
type AmbiguousError struct {
	Ref        string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous reference %q: candidates %s", e.Ref, strings.Join(e.Candidates, ", "))
}

// UnresolvedError a required reference was blank or a sentinel.
type UnresolvedError struct {
	Field string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("missing required %s reference", e.Field)
}

// Outcome how a reference was resolved.
type Outcome int

const (
	Matched Outcome = iota
	Created
)

// Resolution the canonical identity a raw reference resolved to.
type Resolution struct {
	ID      int64
	Name    string
	Outcome Outcome
}

// Snapshot the canonical entity state read from the store at batch start.
// The resolver never touches the store afterwards; creations accumulate as a
// diff committed with the batch.
type Snapshot struct {
	Employees      []model.Employee
	Projects       []model.Project
	NextEmployeeID int64
	NextProjectID  int64
}

// Config resolver policy knobs that are configuration, not code.
type Config struct {
	// ReasonKeywords project-cell values that denote a non-project time
	// explanation (leave, admin...) rather than a real project.
	ReasonKeywords []string
	// InternalProjectName display name of the synthetic Internal project.
	InternalProjectName string
}

// Resolver resolves references for one import batch. Safe for concurrent use
// by independent sheet workers; create-if-absent is a single-writer critical
// section per normalized key.
type Resolver struct {
	mu  sync.Mutex
	cfg Config

	employees map[string]*model.Employee // active only, by normalized key
	allStaff  map[string]*model.Employee // active and inactive, for staff-sheet identity
	projects  map[string]*model.Project

	createdEmployees []*model.Employee
	createdProjects  []*model.Project

	internal *model.Project
	reason   map[string]struct{}

	nextEmployeeID int64
	nextProjectID  int64
}

// New builds a resolver over a canonical snapshot.
func New(snap Snapshot, cfg Config) *Resolver {
	r := &Resolver{
		cfg:            cfg,
		employees:      make(map[string]*model.Employee, len(snap.Employees)),
		allStaff:       make(map[string]*model.Employee, len(snap.Employees)),
		projects:       make(map[string]*model.Project, len(snap.Projects)),
		reason:         make(map[string]struct{}, len(cfg.ReasonKeywords)),
		nextEmployeeID: snap.NextEmployeeID,
		nextProjectID:  snap.NextProjectID,
	}
	for i := range snap.Employees {
		e := snap.Employees[i]
		if e.Key == "" {
			e.Key = model.NormalizeKey(e.Name)
		}
		r.allStaff[e.Key] = &e
		if !e.Active {
			// inactive employees neither match nor block creation on fact rows
			continue
		}
		r.employees[e.Key] = &e
	}
	for i := range snap.Projects {
		p := snap.Projects[i]
		if p.Key == "" {
			p.Key = model.NormalizeKey(p.Name)
		}
		r.projects[p.Key] = &p
		if p.Internal && r.internal == nil {
			r.internal = &p
		}
	}
	for _, kw := range cfg.ReasonKeywords {
		r.reason[model.NormalizeKey(kw)] = struct{}{}
	}
	return r
}

// IsReason reports whether a raw project cell is a Reason entry by keyword.
func (r *Resolver) IsReason(raw string) bool {
	_, ok := r.reason[model.NormalizeKey(raw)]
	return ok
}

// ResolveEmployee resolves a raw employee reference.
func (r *Resolver) ResolveEmployee(ref string) (Resolution, error) {
	key := model.NormalizeKey(ref)
	if key == "" {
		return Resolution{}, &UnresolvedError{Field: "employee"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.employees[key]; ok {
		return Resolution{ID: e.ID, Name: e.Name, Outcome: Matched}, nil
	}
	if e, err := containmentMatch(ref, key, r.employees, func(e *model.Employee) string { return e.Name }); err != nil {
		return Resolution{}, err
	} else if e != nil {
		return Resolution{ID: e.ID, Name: e.Name, Outcome: Matched}, nil
	}

	created := &model.Employee{
		ID:        r.nextEmployeeID,
		Name:      strings.TrimSpace(ref),
		Key:       key,
		StaffType: model.StaffOther,
		Active:    true,
	}
	r.nextEmployeeID++
	r.employees[key] = created
	r.allStaff[key] = created
	r.createdEmployees = append(r.createdEmployees, created)
	return Resolution{ID: created.ID, Name: created.Name, Outcome: Created}, nil
}

// ResolveStaff resolves a staff-sheet name to its canonical identity. Unlike
// fact rows, the staff sheet may legitimately carry inactive people, so exact
// matches consider every known employee; containment still only matches
// active ones.
func (r *Resolver) ResolveStaff(ref string) (Resolution, error) {
	key := model.NormalizeKey(ref)
	if key == "" {
		return Resolution{}, &UnresolvedError{Field: "employee"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.allStaff[key]; ok {
		return Resolution{ID: e.ID, Name: e.Name, Outcome: Matched}, nil
	}
	if e, err := containmentMatch(ref, key, r.employees, func(e *model.Employee) string { return e.Name }); err != nil {
		return Resolution{}, err
	} else if e != nil {
		return Resolution{ID: e.ID, Name: e.Name, Outcome: Matched}, nil
	}

	created := &model.Employee{
		ID:        r.nextEmployeeID,
		Name:      strings.TrimSpace(ref),
		Key:       key,
		StaffType: model.StaffOther,
		Active:    true,
	}
	r.nextEmployeeID++
	r.employees[key] = created
	r.allStaff[key] = created
	r.createdEmployees = append(r.createdEmployees, created)
	return Resolution{ID: created.ID, Name: created.Name, Outcome: Created}, nil
}

// ResolveProject resolves a raw project reference. Reason entries resolve
// unconditionally to the single synthetic Internal project.
func (r *Resolver) ResolveProject(ref string, reason bool) (Resolution, error) {
	if reason || r.IsReason(ref) {
		res := r.InternalProject()
		return res, nil
	}

	key := model.NormalizeKey(ref)
	if key == "" {
		return Resolution{}, &UnresolvedError{Field: "project"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.projects[key]; ok {
		return Resolution{ID: p.ID, Name: p.Name, Outcome: Matched}, nil
	}
	if p, err := containmentMatch(ref, key, r.projects, func(p *model.Project) string { return p.Name }); err != nil {
		return Resolution{}, err
	} else if p != nil {
		return Resolution{ID: p.ID, Name: p.Name, Outcome: Matched}, nil
	}

	created := &model.Project{
		ID:     r.nextProjectID,
		Name:   strings.TrimSpace(ref),
		Key:    key,
		Status: "active",
	}
	r.nextProjectID++
	r.projects[key] = created
	r.createdProjects = append(r.createdProjects, created)
	return Resolution{ID: created.ID, Name: created.Name, Outcome: Created}, nil
}

// InternalProject returns the canonical Internal project, creating it on
// first use in a dataset that does not have one yet.
func (r *Resolver) InternalProject() Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.internal != nil {
		return Resolution{ID: r.internal.ID, Name: r.internal.Name, Outcome: Matched}
	}

	name := r.cfg.InternalProjectName
	if name == "" {
		name = "Internal"
	}
	created := &model.Project{
		ID:       r.nextProjectID,
		Name:     name,
		Key:      model.NormalizeKey(name),
		Status:   "active",
		Internal: true,
	}
	r.nextProjectID++
	r.projects[created.Key] = created
	r.createdProjects = append(r.createdProjects, created)
	r.internal = created
	return Resolution{ID: created.ID, Name: created.Name, Outcome: Created}
}

// Created returns the entities this batch created, in creation order.
func (r *Resolver) Created() ([]model.Employee, []model.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()

	employees := make([]model.Employee, len(r.createdEmployees))
	for i, e := range r.createdEmployees {
		employees[i] = *e
	}
	projects := make([]model.Project, len(r.createdProjects))
	for i, p := range r.createdProjects {
		projects[i] = *p
	}
	return employees, projects
}

// containmentMatch stage two of the match policy: the reference key contains,
// or is contained by, exactly one canonical key. More than one candidate is
// ambiguous; zero means create.
func containmentMatch[T any](ref, key string, index map[string]*T, name func(*T) string) (*T, error) {
	if utf8.RuneCountInString(key) < minContainmentLen {
		return nil, nil
	}

	var hit *T
	var candidates []string
	for k, v := range index {
		if utf8.RuneCountInString(k) < minContainmentLen {
			continue
		}
		if keysCompatible(k, key) {
			hit = v
			candidates = append(candidates, name(v))
		}
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return hit, nil
	default:
		sort.Strings(candidates)
		return nil, &AmbiguousError{Ref: strings.TrimSpace(ref), Candidates: candidates}
	}
}

// keysCompatible reports whether one normalized key contains the other, either
// as a plain substring or token-wise ("j smith" is subsumed by "john smith":
// every token is a prefix of a distinct canonical token, in order).
func keysCompatible(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a) ||
		tokensSubsume(a, b) || tokensSubsume(b, a)
}

func tokensSubsume(a, b string) bool {
	at := strings.Fields(a)
	bt := strings.Fields(b)
	if len(at) == 0 || len(at) > len(bt) {
		return false
	}
	i := 0
	for _, tok := range at {
		found := false
		for i < len(bt) {
			cur := bt[i]
			i++
			if strings.HasPrefix(cur, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
