package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/volunteer-hours/internal/models"
)

func TestHasAnyRole(t *testing.T) {
	pm := user(1, models.RoleProjectManager)
	assert.True(t, HasAnyRole(pm, SupervisorRoles...))
	assert.False(t, HasAnyRole(pm, AdminRoles...))
	assert.False(t, HasAnyRole(pm))
	assert.True(t, IsRole(pm, models.RoleProjectManager))
	assert.False(t, IsRole(pm, models.RoleAdmin))
}

func TestDescribe(t *testing.T) {
	roles := Describe()
	require.Len(t, roles, len(models.Roles))

	assert.Equal(t, models.RoleVolunteer, roles[0].Role)
	assert.Empty(t, roles[0].Capabilities)

	admin := roles[len(roles)-1]
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Contains(t, admin.Capabilities, models.CapManageRoles)
	assert.Contains(t, admin.Capabilities, models.CapViewAllTimeLogs)

	for _, r := range roles[1:] {
		assert.Contains(t, r.Capabilities, models.CapApproveTimeLogs, "role %s", r.Role)
		assert.NotEmpty(t, r.Description)
	}
}
