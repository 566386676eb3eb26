package store

import (
	"database/sql"

	"pulseboard/internal/merge"
	"pulseboard/internal/model"
	"pulseboard/internal/resolver"
)

// Snapshot reads the canonical entity state for a new import batch. The next
// ids are pre-assigned so staged fact rows can reference entities created
// during the batch before anything is committed.
func (s *Store) Snapshot() (resolver.Snapshot, error) {
	snap := resolver.Snapshot{NextEmployeeID: 1, NextProjectID: 1}

	rows, err := s.db.Query(`SELECT id, name, name_key, staff_type, active, role, team, location, certifications FROM employees ORDER BY id`)
	if err != nil {
		return snap, fatal("snapshot employees", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e model.Employee
		var active int
		var certs string
		if err := rows.Scan(&e.ID, &e.Name, &e.Key, &e.StaffType, &active, &e.Role, &e.Team, &e.Location, &certs); err != nil {
			return snap, fatal("snapshot employees", err)
		}
		e.Active = active != 0
		e.Certifications = model.SplitTags(certs)
		if e.ID >= snap.NextEmployeeID {
			snap.NextEmployeeID = e.ID + 1
		}
		snap.Employees = append(snap.Employees, e)
	}
	if err := rows.Err(); err != nil {
		return snap, fatal("snapshot employees", err)
	}

	prows, err := s.db.Query(`SELECT id, name, name_key, status, client, internal FROM projects ORDER BY id`)
	if err != nil {
		return snap, fatal("snapshot projects", err)
	}
	defer prows.Close()
	for prows.Next() {
		var p model.Project
		var internal int
		if err := prows.Scan(&p.ID, &p.Name, &p.Key, &p.Status, &p.Client, &internal); err != nil {
			return snap, fatal("snapshot projects", err)
		}
		p.Internal = internal != 0
		if p.ID >= snap.NextProjectID {
			snap.NextProjectID = p.ID + 1
		}
		snap.Projects = append(snap.Projects, p)
	}
	if err := prows.Err(); err != nil {
		return snap, fatal("snapshot projects", err)
	}

	return snap, nil
}

// KnownFactKeys collects the natural key of every stored fact, so a batch can
// report a row that overwrites one as a correction rather than a new fact.
func (s *Store) KnownFactKeys() (merge.Known, error) {
	known := make(merge.Known)

	collect := func(query string, key func(*sql.Rows) (string, error)) error {
		rows, err := s.db.Query(query)
		if err != nil {
			return fatal("fact keys", err)
		}
		defer rows.Close()
		for rows.Next() {
			k, err := key(rows)
			if err != nil {
				return fatal("fact keys", err)
			}
			known[k] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			return fatal("fact keys", err)
		}
		return nil
	}

	if err := collect(`SELECT source_id, name_key, fiscal_year FROM pipeline_opportunities`, func(rows *sql.Rows) (string, error) {
		var src, nameKey, fy string
		err := rows.Scan(&src, &nameKey, &fy)
		return merge.OpportunityKey(src, nameKey, fy), err
	}); err != nil {
		return nil, err
	}
	if err := collect(`SELECT employee_id, project_id, week_ending FROM timesheet_entries`, func(rows *sql.Rows) (string, error) {
		var emp, proj int64
		var week string
		err := rows.Scan(&emp, &proj, &week)
		return merge.TimesheetKey(emp, proj, week), err
	}); err != nil {
		return nil, err
	}
	if err := collect(`SELECT project_id, fiscal_year FROM costs`, func(rows *sql.Rows) (string, error) {
		var proj int64
		var fy string
		err := rows.Scan(&proj, &fy)
		return merge.CostKey(proj, fy), err
	}); err != nil {
		return nil, err
	}
	if err := collect(`SELECT project_id, name_key FROM milestones`, func(rows *sql.Rows) (string, error) {
		var proj int64
		var nameKey string
		err := rows.Scan(&proj, &nameKey)
		return merge.MilestoneKey(proj, nameKey), err
	}); err != nil {
		return nil, err
	}
	if err := collect(`SELECT project_id, fiscal_year FROM cx_ratings`, func(rows *sql.Rows) (string, error) {
		var proj int64
		var fy string
		err := rows.Scan(&proj, &fy)
		return merge.CxRatingKey(proj, fy), err
	}); err != nil {
		return nil, err
	}
	if err := collect(`SELECT employee_id, project_id, fiscal_year, stream FROM resource_costs`, func(rows *sql.Rows) (string, error) {
		var emp, proj int64
		var fy, stream string
		err := rows.Scan(&emp, &proj, &fy, &stream)
		return merge.ResourceCostKey(emp, proj, fy, stream), err
	}); err != nil {
		return nil, err
	}

	return known, nil
}
