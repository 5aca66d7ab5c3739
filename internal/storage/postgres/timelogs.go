package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

const timeLogSelect = `
	SELECT t.id, t.volunteer_id, t.date, t.hours, t.project_id, p.name, t.task_id, t.task_title,
		t.activity, t.approved, t.approved_by, NULLIF(COALESCE(NULLIF(a.name, ''), a.username), ''),
		t.approved_at, t.created_at, t.updated_at
	FROM time_logs t
	LEFT JOIN projects p ON p.id = t.project_id
	LEFT JOIN users a ON a.id = t.approved_by`

func scanTimeLog(row pgx.Row) (models.TimeLog, error) {
	var l models.TimeLog
	err := row.Scan(&l.ID, &l.VolunteerID, &l.Date, &l.Hours, &l.ProjectID, &l.ProjectName, &l.TaskID,
		&l.TaskTitle, &l.Activity, &l.Approved, &l.ApprovedBy, &l.ApprovedByName, &l.ApprovedAt,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TimeLog{}, storage.ErrNotFound
		}
		return models.TimeLog{}, err
	}
	return l, nil
}

// CreateTimeLog inserts a pending log.
func (s *Store) CreateTimeLog(ctx context.Context, log models.TimeLog) (models.TimeLog, error) {
	const query = `
		INSERT INTO time_logs (volunteer_id, date, hours, project_id, task_id, task_title, activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := s.pool.QueryRow(ctx, query, log.VolunteerID, log.Date, log.Hours, log.ProjectID, log.TaskID,
		log.TaskTitle, log.Activity).Scan(&id)
	if err != nil {
		return models.TimeLog{}, mapError(err)
	}
	return s.GetTimeLog(ctx, id)
}

// GetTimeLog fetches one log with its project and approver names.
func (s *Store) GetTimeLog(ctx context.Context, id int64) (models.TimeLog, error) {
	return scanTimeLog(s.pool.QueryRow(ctx, timeLogSelect+` WHERE t.id = $1`, id))
}

// ListTimeLogs returns logs matching f, most recent date first.
func (s *Store) ListTimeLogs(ctx context.Context, f storage.TimeLogFilter) ([]models.TimeLog, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.VolunteerID != nil {
		add("t.volunteer_id = $%d", *f.VolunteerID)
	}
	if f.ProjectID != nil {
		add("t.project_id = $%d", *f.ProjectID)
	}
	if f.ManagerID != nil {
		add(`t.volunteer_id IN (
			SELECT pv.volunteer_id FROM project_volunteers pv
			JOIN projects pr ON pr.id = pv.project_id
			WHERE pr.manager_id = $%d)`, *f.ManagerID)
	}
	if f.From != nil {
		add("t.date >= $%d", *f.From)
	}
	if f.To != nil {
		add("t.date <= $%d", *f.To)
	}
	switch f.Status {
	case models.StatusPending:
		where = append(where, "NOT t.approved")
	case models.StatusApproved:
		where = append(where, "t.approved")
	}

	var b strings.Builder
	b.WriteString(timeLogSelect)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY t.date DESC, t.id DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TimeLog, error) {
		return scanTimeLog(row)
	})
}

// UpdateTimeLog rewrites the editable fields of a log. The approval check is
// part of the UPDATE so an approval landing after the caller's read still wins.
func (s *Store) UpdateTimeLog(ctx context.Context, log models.TimeLog, allowApproved bool) (models.TimeLog, error) {
	const query = `
		UPDATE time_logs
		SET date = $2, hours = $3, project_id = $4, task_id = $5, task_title = $6, activity = $7, updated_at = NOW()
		WHERE id = $1 AND (NOT approved OR $8)`
	tag, err := s.pool.Exec(ctx, query, log.ID, log.Date, log.Hours, log.ProjectID, log.TaskID, log.TaskTitle, log.Activity, allowApproved)
	if err != nil {
		return models.TimeLog{}, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.TimeLog{}, s.missOrApproved(ctx, log.ID)
	}
	return s.GetTimeLog(ctx, log.ID)
}

// DeleteTimeLog removes a log, guarded like UpdateTimeLog.
func (s *Store) DeleteTimeLog(ctx context.Context, id int64, allowApproved bool) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM time_logs WHERE id = $1 AND (NOT approved OR $2)`, id, allowApproved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missOrApproved(ctx, id)
	}
	return nil
}

// missOrApproved explains why a guarded write matched no row.
func (s *Store) missOrApproved(ctx context.Context, id int64) error {
	var approved bool
	err := s.pool.QueryRow(ctx, `SELECT approved FROM time_logs WHERE id = $1`, id).Scan(&approved)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	case err != nil:
		return err
	case approved:
		return storage.ErrAlreadyApproved
	default:
		// Deleted or reverted between the write and this read.
		return storage.ErrNotFound
	}
}

// ApproveTimeLog approves a pending log in a single conditional update, so
// concurrent approvals of the same log leave exactly one winner.
func (s *Store) ApproveTimeLog(ctx context.Context, id, approverID int64) (models.TimeLog, error) {
	const query = `
		UPDATE time_logs
		SET approved = TRUE, approved_by = $2, approved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND NOT approved`
	tag, err := s.pool.Exec(ctx, query, id, approverID)
	if err != nil {
		return models.TimeLog{}, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.TimeLog{}, s.missOrApproved(ctx, id)
	}
	return s.GetTimeLog(ctx, id)
}

// SummarizeHours totals a volunteer's hours by approval state.
func (s *Store) SummarizeHours(ctx context.Context, volunteerID int64) (models.HoursSummary, error) {
	const query = `
		SELECT
			COALESCE(SUM(hours) FILTER (WHERE approved), 0)::float8,
			COALESCE(SUM(hours) FILTER (WHERE NOT approved), 0)::float8,
			COUNT(*) FILTER (WHERE approved),
			COUNT(*) FILTER (WHERE NOT approved)
		FROM time_logs WHERE volunteer_id = $1`
	sum := models.HoursSummary{VolunteerID: volunteerID}
	err := s.pool.QueryRow(ctx, query, volunteerID).Scan(&sum.ApprovedHours, &sum.PendingHours, &sum.ApprovedCount, &sum.PendingCount)
	if err != nil {
		return models.HoursSummary{}, err
	}
	return sum, nil
}
