package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

// CreateProject inserts a project owned by project.ManagerID.
func (s *Store) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	const query = `
		INSERT INTO projects (name, manager_id) VALUES ($1, $2)
		RETURNING id, name, manager_id, created_at`
	var p models.Project
	err := s.pool.QueryRow(ctx, query, project.Name, project.ManagerID).Scan(&p.ID, &p.Name, &p.ManagerID, &p.CreatedAt)
	if err != nil {
		return models.Project{}, mapError(err)
	}
	return p, nil
}

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	const query = `SELECT id, name, manager_id, created_at FROM projects WHERE id = $1`
	var p models.Project
	if err := s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.ManagerID, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, storage.ErrNotFound
		}
		return models.Project{}, err
	}
	return p, nil
}

// ListByManager returns the manager's projects in creation order.
func (s *Store) ListByManager(ctx context.Context, managerID int64) ([]models.Project, error) {
	const query = `SELECT id, name, manager_id, created_at FROM projects WHERE manager_id = $1 ORDER BY id`
	rows, err := s.pool.Query(ctx, query, managerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Project, error) {
		var p models.Project
		err := row.Scan(&p.ID, &p.Name, &p.ManagerID, &p.CreatedAt)
		return p, err
	})
}

// ListVolunteers returns a project's roster in assignment order.
func (s *Store) ListVolunteers(ctx context.Context, projectID int64) ([]models.Volunteer, error) {
	const query = `
		SELECT u.id, COALESCE(NULLIF(u.name, ''), u.username), u.email
		FROM project_volunteers pv
		JOIN users u ON u.id = pv.volunteer_id
		WHERE pv.project_id = $1
		ORDER BY pv.assigned_at, pv.volunteer_id`
	rows, err := s.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Volunteer, error) {
		var v models.Volunteer
		err := row.Scan(&v.ID, &v.Name, &v.Email)
		return v, err
	})
}

// AddVolunteer assigns a volunteer to a project.
func (s *Store) AddVolunteer(ctx context.Context, projectID, volunteerID int64) error {
	const query = `INSERT INTO project_volunteers (project_id, volunteer_id) VALUES ($1, $2)`
	if _, err := s.pool.Exec(ctx, query, projectID, volunteerID); err != nil {
		return mapError(err)
	}
	return nil
}
