// Package policy holds the static role policy table and the time-log
// authorization predicates built on it.
//
// Every function here is pure and fail-closed: a nil user or a nil record
// is a normal input and always yields false.
package policy

import "github.com/hongminglow/volunteer-hours/internal/models"

var (
	// SupervisorRoles may approve logs, log hours for others, export reports
	// and work the approval queue.
	SupervisorRoles = []models.Role{models.RoleStaffMember, models.RoleProjectManager, models.RoleAdmin}

	// AdminRoles are unrestricted.
	AdminRoles = []models.Role{models.RoleAdmin}
)

// IsRole reports whether u exists and holds role.
func IsRole(u *models.User, role models.Role) bool {
	return u != nil && u.Role == role
}

// HasAnyRole reports whether u exists and holds one of roles.
func HasAnyRole(u *models.User, roles ...models.Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

var descriptions = map[models.Role]string{
	models.RoleVolunteer:      "Logs and manages their own hours",
	models.RoleStaffMember:    "Supervises volunteers and approves hours",
	models.RoleProjectManager: "Manages projects and approves hours for their volunteers",
	models.RoleAdmin:          "Unrestricted access",
}

// Capabilities returns the capabilities granted to role, derived from the
// same predicates used for enforcement.
func Capabilities(role models.Role) []models.Capability {
	u := &models.User{Role: role}
	caps := []models.Capability{}
	if CanApproveTimeLogs(u) {
		caps = append(caps, models.CapApproveTimeLogs)
	}
	if CanLogHoursForOthers(u) {
		caps = append(caps, models.CapLogHoursForOthers)
	}
	if CanExportReports(u) {
		caps = append(caps, models.CapExportReports)
	}
	if CanAccessApprovalQueue(u) {
		caps = append(caps, models.CapAccessApprovalQueue)
	}
	if CanViewAllTimeLogs(u) {
		caps = append(caps, models.CapViewAllTimeLogs)
	}
	if IsAdmin(u) {
		caps = append(caps, models.CapEditAnyTimeLog, models.CapManageRoles)
	}
	return caps
}

// Describe lists every role with its capabilities.
func Describe() []models.RoleDescriptor {
	out := make([]models.RoleDescriptor, 0, len(models.Roles))
	for _, r := range models.Roles {
		out = append(out, models.RoleDescriptor{
			Role:         r,
			Description:  descriptions[r],
			Capabilities: Capabilities(r),
		})
	}
	return out
}
