package models

import "time"

// TimeLog is a volunteer's claimed work for a single date.
//
// Approved logs always carry ApprovedBy and ApprovedAt; pending logs carry neither.
type TimeLog struct {
	ID             int64      `json:"id"`
	VolunteerID    int64      `json:"volunteer_id"`
	Date           time.Time  `json:"date"`
	Hours          float64    `json:"hours"`
	ProjectID      *int64     `json:"project_id,omitempty"`
	ProjectName    *string    `json:"project_name,omitempty"`
	TaskID         *int64     `json:"task_id,omitempty"`
	TaskTitle      *string    `json:"task_title,omitempty"`
	Activity       *string    `json:"activity,omitempty"`
	Approved       bool       `json:"approved"`
	ApprovedBy     *int64     `json:"approved_by,omitempty"`
	ApprovedByName *string    `json:"approved_by_name,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TimeLogStatus filters time-log queries by approval state.
type TimeLogStatus string

const (
	StatusAll      TimeLogStatus = "all"
	StatusPending  TimeLogStatus = "pending"
	StatusApproved TimeLogStatus = "approved"
)

// ParseTimeLogStatus maps a query value to a status; empty means all.
func ParseTimeLogStatus(raw string) (TimeLogStatus, bool) {
	switch TimeLogStatus(raw) {
	case "", StatusAll:
		return StatusAll, true
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	}
	return "", false
}

// Matches reports whether log l satisfies the status filter.
func (s TimeLogStatus) Matches(l TimeLog) bool {
	switch s {
	case StatusPending:
		return !l.Approved
	case StatusApproved:
		return l.Approved
	default:
		return true
	}
}

// HoursSummary aggregates a volunteer's logged hours by approval state.
type HoursSummary struct {
	VolunteerID   int64   `json:"volunteer_id"`
	ApprovedHours float64 `json:"approved_hours"`
	PendingHours  float64 `json:"pending_hours"`
	ApprovedCount int     `json:"approved_count"`
	PendingCount  int     `json:"pending_count"`
}
