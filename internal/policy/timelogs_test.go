package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/volunteer-hours/internal/models"
)

func user(id int64, role models.Role) *models.User {
	return &models.User{ID: id, Role: role, Username: "u"}
}

func timelog(id, volunteerID int64, approved bool) *models.TimeLog {
	l := &models.TimeLog{ID: id, VolunteerID: volunteerID, Hours: 2, Approved: approved}
	if approved {
		approver := int64(1)
		l.ApprovedBy = &approver
	}
	return l
}

// allUsers covers every role plus the anonymous case.
func allUsers() []*models.User {
	out := []*models.User{nil}
	for i, r := range models.Roles {
		out = append(out, user(int64(i+1), r))
	}
	return out
}

// allLogs covers own/foreign and pending/approved for each user id, plus nil.
func allLogs() []*models.TimeLog {
	out := []*models.TimeLog{nil}
	for vid := int64(1); vid <= int64(len(models.Roles))+1; vid++ {
		out = append(out, timelog(100+vid, vid, false), timelog(200+vid, vid, true))
	}
	return out
}

func TestEditDeleteSymmetry(t *testing.T) {
	for _, u := range allUsers() {
		for _, l := range allLogs() {
			assert.Equal(t, CanEditTimeLog(u, l), CanDeleteTimeLog(u, l), "user=%+v log=%+v", u, l)
		}
	}
}

func TestApprovedLogsImmutableExceptForAdmin(t *testing.T) {
	for _, u := range allUsers() {
		if IsAdmin(u) {
			continue
		}
		for _, l := range allLogs() {
			if l == nil || !l.Approved {
				continue
			}
			assert.False(t, CanEditTimeLog(u, l), "user=%+v log=%+v", u, l)
			assert.False(t, CanDeleteTimeLog(u, l), "user=%+v log=%+v", u, l)
		}
	}
}

func TestAdminOverridesEverything(t *testing.T) {
	admin := user(42, models.RoleAdmin)
	for _, l := range allLogs() {
		if l == nil {
			continue
		}
		assert.True(t, CanEditTimeLog(admin, l))
		assert.True(t, CanDeleteTimeLog(admin, l))
		assert.True(t, CanViewTimeLog(admin, l))
	}
}

func TestNilUserDeniesEverything(t *testing.T) {
	l := timelog(1, 1, false)
	vid := int64(1)
	assert.False(t, IsRole(nil, models.RoleVolunteer))
	assert.False(t, HasAnyRole(nil, models.Roles...))
	assert.False(t, CanApproveTimeLogs(nil))
	assert.False(t, IsAdmin(nil))
	assert.False(t, IsVolunteer(nil))
	assert.False(t, CanEditTimeLog(nil, l))
	assert.False(t, CanDeleteTimeLog(nil, l))
	assert.False(t, CanViewTimeLog(nil, l))
	assert.False(t, CanAccessApprovalQueue(nil))
	assert.False(t, CanViewAllTimeLogs(nil))
	assert.False(t, CanLogHoursForOthers(nil))
	assert.False(t, CanExportReports(nil))
	assert.False(t, CanViewHoursDashboard(nil, nil))
	assert.False(t, CanViewHoursDashboard(nil, &vid))
}

func TestNilLogDenies(t *testing.T) {
	for _, u := range allUsers() {
		assert.False(t, CanEditTimeLog(u, nil))
		assert.False(t, CanDeleteTimeLog(u, nil))
		assert.False(t, CanViewTimeLog(u, nil))
	}
}

func TestDerivedEqualities(t *testing.T) {
	for _, u := range allUsers() {
		assert.Equal(t, CanApproveTimeLogs(u), CanLogHoursForOthers(u))
		assert.Equal(t, CanApproveTimeLogs(u), CanAccessApprovalQueue(u))
		assert.Equal(t, IsAdmin(u), CanViewAllTimeLogs(u))
	}
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role     models.Role
		approve  bool
		admin    bool
		export   bool
		isVolunt bool
	}{
		{models.RoleVolunteer, false, false, false, true},
		{models.RoleStaffMember, true, false, true, false},
		{models.RoleProjectManager, true, false, true, false},
		{models.RoleAdmin, true, true, true, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			u := user(1, tc.role)
			assert.Equal(t, tc.approve, CanApproveTimeLogs(u))
			assert.Equal(t, tc.admin, IsAdmin(u))
			assert.Equal(t, tc.export, CanExportReports(u))
			assert.Equal(t, tc.isVolunt, IsVolunteer(u))
		})
	}
}

func TestScenarios(t *testing.T) {
	volunteer := user(7, models.RoleVolunteer)

	t.Run("own pending log", func(t *testing.T) {
		l := timelog(100, 7, false)
		assert.True(t, CanEditTimeLog(volunteer, l))
		assert.True(t, CanViewTimeLog(volunteer, l))
		assert.False(t, CanApproveTimeLogs(volunteer))
	})

	t.Run("own approved log", func(t *testing.T) {
		l := timelog(101, 7, true)
		assert.False(t, CanEditTimeLog(volunteer, l))
		assert.False(t, CanDeleteTimeLog(volunteer, l))
		assert.True(t, CanViewTimeLog(volunteer, l))
	})

	t.Run("someone else's log", func(t *testing.T) {
		l := timelog(102, 9, false)
		assert.False(t, CanViewTimeLog(volunteer, l))
		assert.False(t, CanEditTimeLog(volunteer, l))
	})

	t.Run("project manager", func(t *testing.T) {
		pm := user(3, models.RoleProjectManager)
		l := timelog(103, 9, false)
		assert.True(t, CanApproveTimeLogs(pm))
		assert.True(t, CanAccessApprovalQueue(pm))
		assert.True(t, CanViewTimeLog(pm, l))
		assert.False(t, CanEditTimeLog(pm, l))
	})
}

func TestCanViewHoursDashboard(t *testing.T) {
	own := int64(7)
	other := int64(9)
	volunteer := user(7, models.RoleVolunteer)
	staff := user(3, models.RoleStaffMember)

	assert.True(t, CanViewHoursDashboard(volunteer, nil))
	assert.True(t, CanViewHoursDashboard(volunteer, &own))
	assert.False(t, CanViewHoursDashboard(volunteer, &other))
	assert.True(t, CanViewHoursDashboard(staff, &other))
}
