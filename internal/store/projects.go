package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/partsbin/internal/model"
)

const projectColumns = `id, name, description, status, budget, priority, deadline, created_at, updated_at`

// ListProjects returns all projects with their components, ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+projectColumns+` FROM projects ORDER BY name, id`))
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Batch-load components
	compRows, err := s.db.QueryContext(ctx, s.q(`SELECT project_id, item_id, name, category, supplier,
		quantity, unit_price FROM project_components ORDER BY project_id, position`))
	if err != nil {
		return nil, fmt.Errorf("listing components: %w", err)
	}
	defer func() { _ = compRows.Close() }()

	idx := make(map[string]int, len(projects))
	for i, p := range projects {
		idx[p.ID] = i
	}
	for compRows.Next() {
		pid, c, err := scanComponent(compRows)
		if err != nil {
			return nil, err
		}
		if i, ok := idx[pid]; ok {
			projects[i].Components = append(projects[i].Components, c)
		}
	}
	return projects, compRows.Err()
}

// GetProject returns one project with its components.
func (s *Store) GetProject(ctx context.Context, id string) (model.Project, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+projectColumns+` FROM projects WHERE id = ?`), id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, notFound("project", id)
	}
	if err != nil {
		return p, err
	}

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT project_id, item_id, name, category, supplier,
		quantity, unit_price FROM project_components WHERE project_id = ? ORDER BY position`), id)
	if err != nil {
		return p, fmt.Errorf("loading components: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		_, c, err := scanComponent(rows)
		if err != nil {
			return p, err
		}
		p.Components = append(p.Components, c)
	}
	return p, rows.Err()
}

// SaveProject inserts or updates a project and replaces its components.
func (s *Store) SaveProject(ctx context.Context, p model.Project) (model.Project, error) {
	now := time.Now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = model.StatusPlanning
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO projects (`+projectColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name, description = excluded.description,
				status = excluded.status, budget = excluded.budget,
				priority = excluded.priority, deadline = excluded.deadline,
				updated_at = excluded.updated_at`),
			p.ID, p.Name, p.Description, string(p.Status), p.Budget.String(), p.Priority,
			formatTime(p.Deadline), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("saving project %s: %w", p.ID, err)
		}

		// Delete old components for this project
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM project_components WHERE project_id = ?`), p.ID); err != nil {
			return err
		}

		for i, c := range p.Components {
			_, err := tx.ExecContext(ctx, s.q(`INSERT INTO project_components
				(project_id, position, item_id, name, category, supplier, quantity, unit_price)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
				p.ID, i, c.ItemID, c.Name, c.Category, c.Supplier, c.Quantity, c.UnitPrice.String(),
			)
			if err != nil {
				return fmt.Errorf("saving component %d of %s: %w", i, p.ID, err)
			}
		}
		return nil
	})
	return p, err
}

// SetProjectStatus changes a project's status.
func (s *Store) SetProjectStatus(ctx context.Context, id string, status model.ProjectStatus) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`),
		string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return expectOne(res, "project", id)
}

// DeleteProject removes a project and its components.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM project_components WHERE project_id = ?`), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.q(`DELETE FROM projects WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("deleting project: %w", err)
		}
		return expectOne(res, "project", id)
	})
}

func scanProject(r rowScanner) (model.Project, error) {
	var (
		p                                 model.Project
		status, budget, deadline, created string
		updated                           string
		priority                          int64
	)
	err := r.Scan(&p.ID, &p.Name, &p.Description, &status, &budget, &priority, &deadline, &created, &updated)
	if err != nil {
		return p, err
	}
	p.Status = model.ProjectStatus(status)
	p.Budget = parseDecimal(budget)
	p.Priority = int(priority)
	p.Deadline = parseTime(deadline)
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func scanComponent(r rowScanner) (string, model.ProjectComponent, error) {
	var (
		pid, price string
		qty        int64
		c          model.ProjectComponent
	)
	if err := r.Scan(&pid, &c.ItemID, &c.Name, &c.Category, &c.Supplier, &qty, &price); err != nil {
		return "", c, err
	}
	c.Quantity = int(qty)
	c.UnitPrice = parseDecimal(price)
	return pid, c, nil
}
