package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/volunteer-hours/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrAlreadyApproved is returned when approving a log that is no longer pending.
var ErrAlreadyApproved = errors.New("time log already approved")

// UserStore captures persistence operations for identities.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error)
	UpdateRole(ctx context.Context, id int64, role models.Role) (models.User, error)
}

// ProjectStore exposes projects and their volunteer rosters.
type ProjectStore interface {
	CreateProject(ctx context.Context, project models.Project) (models.Project, error)
	GetProject(ctx context.Context, id int64) (models.Project, error)
	ListByManager(ctx context.Context, managerID int64) ([]models.Project, error)
	ListVolunteers(ctx context.Context, projectID int64) ([]models.Volunteer, error)
	AddVolunteer(ctx context.Context, projectID, volunteerID int64) error
}

// TimeLogFilter narrows ListTimeLogs. Nil pointers do not filter.
type TimeLogFilter struct {
	VolunteerID *int64
	ProjectID   *int64
	// ManagerID restricts results to volunteers on projects managed by this user.
	ManagerID *int64
	Status    models.TimeLogStatus
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// TimeLogStore captures persistence operations for time logs.
type TimeLogStore interface {
	CreateTimeLog(ctx context.Context, log models.TimeLog) (models.TimeLog, error)
	GetTimeLog(ctx context.Context, id int64) (models.TimeLog, error)
	// ListTimeLogs returns matching logs, most recent date first.
	ListTimeLogs(ctx context.Context, filter TimeLogFilter) ([]models.TimeLog, error)
	// UpdateTimeLog and DeleteTimeLog refuse approved logs with
	// ErrAlreadyApproved unless allowApproved is set.
	UpdateTimeLog(ctx context.Context, log models.TimeLog, allowApproved bool) (models.TimeLog, error)
	DeleteTimeLog(ctx context.Context, id int64, allowApproved bool) error
	// ApproveTimeLog marks a pending log approved by approverID.
	ApproveTimeLog(ctx context.Context, id, approverID int64) (models.TimeLog, error)
	SummarizeHours(ctx context.Context, volunteerID int64) (models.HoursSummary, error)
}
