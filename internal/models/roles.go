package models

import "fmt"

// Role is the single role a user holds. The set of values is closed.
type Role string

const (
	RoleVolunteer      Role = "volunteer"
	RoleStaffMember    Role = "staff_member"
	RoleProjectManager Role = "project_manager"
	RoleAdmin          Role = "admin"
)

// Roles lists every valid role, lowest privilege first.
var Roles = []Role{RoleVolunteer, RoleStaffMember, RoleProjectManager, RoleAdmin}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleVolunteer, RoleStaffMember, RoleProjectManager, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a raw string into a Role.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

// Capability names a permission granted by the role policy table.
type Capability string

const (
	CapApproveTimeLogs     Capability = "timelogs:approve"
	CapLogHoursForOthers   Capability = "timelogs:log-for-others"
	CapExportReports       Capability = "reports:export"
	CapAccessApprovalQueue Capability = "approvals:queue"
	CapViewAllTimeLogs     Capability = "timelogs:view-all"
	CapEditAnyTimeLog      Capability = "timelogs:edit-any"
	CapManageRoles         Capability = "users:manage-roles"
)

// RoleDescriptor is the public view of a role and what it may do.
type RoleDescriptor struct {
	Role         Role         `json:"role"`
	Description  string       `json:"description"`
	Capabilities []Capability `json:"capabilities"`
}
