package dto

import (
	"time"

	"github.com/hongminglow/volunteer-hours/internal/approvals"
	"github.com/hongminglow/volunteer-hours/internal/models"
)

// DateLayout is the wire format for time-log dates.
const DateLayout = "2006-01-02"

type CreateTimeLogRequest struct {
	VolunteerID *int64  `json:"volunteer_id,omitempty" validate:"omitempty,gt=0"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Hours       float64 `json:"hours" validate:"gt=0,lte=24"`
	ProjectID   *int64  `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	TaskID      *int64  `json:"task_id,omitempty" validate:"omitempty,gt=0"`
	TaskTitle   *string `json:"task_title,omitempty" validate:"omitempty,max=256"`
	Activity    *string `json:"activity,omitempty" validate:"omitempty,max=2000"`
}

type UpdateTimeLogRequest struct {
	Date      *string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Hours     *float64 `json:"hours,omitempty" validate:"omitempty,gt=0,lte=24"`
	ProjectID *int64   `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	TaskID    *int64   `json:"task_id,omitempty" validate:"omitempty,gt=0"`
	TaskTitle *string  `json:"task_title,omitempty" validate:"omitempty,max=256"`
	Activity  *string  `json:"activity,omitempty" validate:"omitempty,max=2000"`
}

// Apply copies the set fields onto log.
func (r UpdateTimeLogRequest) Apply(log *models.TimeLog) error {
	if r.Date != nil {
		d, err := time.Parse(DateLayout, *r.Date)
		if err != nil {
			return err
		}
		log.Date = d
	}
	if r.Hours != nil {
		log.Hours = *r.Hours
	}
	if r.ProjectID != nil {
		log.ProjectID = r.ProjectID
	}
	if r.TaskID != nil {
		log.TaskID = r.TaskID
	}
	if r.TaskTitle != nil {
		log.TaskTitle = r.TaskTitle
	}
	if r.Activity != nil {
		log.Activity = r.Activity
	}
	return nil
}

// PendingSummaryResponse is the dashboard shortlist payload.
type PendingSummaryResponse struct {
	Logs                 []models.TimeLog `json:"logs"`
	VolunteerNames       map[int64]string `json:"volunteer_names"`
	ProjectsConsidered   int              `json:"projects_considered"`
	VolunteersConsidered int              `json:"volunteers_considered"`
	ProjectsTruncated    bool             `json:"projects_truncated"`
	VolunteersTruncated  bool             `json:"volunteers_truncated"`
}

// NewPendingSummaryResponse converts a service summary for the wire.
func NewPendingSummaryResponse(s approvals.Summary) PendingSummaryResponse {
	logs := s.Logs
	if logs == nil {
		logs = []models.TimeLog{}
	}
	names := s.VolunteerNames
	if names == nil {
		names = map[int64]string{}
	}
	return PendingSummaryResponse{
		Logs:                 logs,
		VolunteerNames:       names,
		ProjectsConsidered:   s.ProjectsConsidered,
		VolunteersConsidered: s.VolunteersConsidered,
		ProjectsTruncated:    s.ProjectsTruncated,
		VolunteersTruncated:  s.VolunteersTruncated,
	}
}

type ApproveResponse struct {
	TimeLog models.TimeLog         `json:"timelog"`
	Summary PendingSummaryResponse `json:"summary"`
}
