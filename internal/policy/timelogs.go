package policy

import "github.com/hongminglow/volunteer-hours/internal/models"

// CanApproveTimeLogs reports whether u belongs to the supervisor set.
func CanApproveTimeLogs(u *models.User) bool {
	return HasAnyRole(u, SupervisorRoles...)
}

// IsAdmin reports whether u belongs to the admin set.
func IsAdmin(u *models.User) bool {
	return HasAnyRole(u, AdminRoles...)
}

// IsVolunteer reports whether u is a volunteer.
func IsVolunteer(u *models.User) bool {
	return IsRole(u, models.RoleVolunteer)
}

// CanEditTimeLog allows admins, and owners while the log is still pending.
func CanEditTimeLog(u *models.User, l *models.TimeLog) bool {
	if u == nil || l == nil {
		return false
	}
	if IsAdmin(u) {
		return true
	}
	return l.VolunteerID == u.ID && !l.Approved
}

// CanDeleteTimeLog follows the same rule as CanEditTimeLog: approved logs
// are history and only an admin may remove them.
func CanDeleteTimeLog(u *models.User, l *models.TimeLog) bool {
	return CanEditTimeLog(u, l)
}

// CanViewTimeLog allows admins, supervisors and the owner. Narrowing
// supervisors to their projects is left to the data layer.
func CanViewTimeLog(u *models.User, l *models.TimeLog) bool {
	if u == nil || l == nil {
		return false
	}
	return IsAdmin(u) || CanApproveTimeLogs(u) || l.VolunteerID == u.ID
}

func CanAccessApprovalQueue(u *models.User) bool {
	return CanApproveTimeLogs(u)
}

func CanViewAllTimeLogs(u *models.User) bool {
	return IsAdmin(u)
}

// CanLogHoursForOthers includes admins through supervisor set membership.
func CanLogHoursForOthers(u *models.User) bool {
	return CanApproveTimeLogs(u)
}

func CanExportReports(u *models.User) bool {
	return HasAnyRole(u, models.RoleStaffMember, models.RoleProjectManager, models.RoleAdmin)
}

// CanViewHoursDashboard allows a user's own dashboard (volunteerID nil or
// equal to u.ID) and any dashboard for supervisors.
func CanViewHoursDashboard(u *models.User, volunteerID *int64) bool {
	if u == nil {
		return false
	}
	if volunteerID == nil || *volunteerID == u.ID {
		return true
	}
	return CanApproveTimeLogs(u)
}
