package rbacseed

import (
	"testing"

	"github.com/dalemusser/shopkeep/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.Permissions, 41)
	seen := map[models.Resource]bool{}
	for _, p := range c.Permissions {
		seen[p.Resource] = true
	}
	for _, r := range models.Resources() {
		assert.True(t, seen[r], "catalog covers %s", r)
	}

	assert.True(t, c.AdminDenied(models.Cap(models.ResourceCourier, models.ActionManage)))
	assert.True(t, c.AdminDenied(models.Cap(models.ResourceUsers, models.ActionDelete)))
	assert.True(t, c.AdminDenied(models.Cap(models.ResourceUsers, models.ActionManage)), "full user control would bypass the users:delete denial")
	assert.False(t, c.AdminDenied(models.Cap(models.ResourceUsers, models.ActionUpdate)))

	assert.Equal(t, "Super Admin", c.Roles.SuperAdmin.Name)
	assert.Equal(t, "Admin", c.AdminAssignments.RoleFor("anyone@example.com"))
}

func TestParse_Rejects(t *testing.T) {
	roles := `
roles:
  super_admin: {name: Super Admin}
  admin: {name: Admin}
  manager: {name: Manager}
  viewer: {name: Viewer}
`
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown resource", "permissions:\n  - {resource: widgets, action: read, name: W}\n" + roles},
		{"unknown action", "permissions:\n  - {resource: users, action: publish, name: P}\n" + roles},
		{"duplicate capability", "permissions:\n  - {resource: users, action: read, name: A}\n  - {resource: users, action: read, name: B}\n" + roles},
		{"missing name", "permissions:\n  - {resource: users, action: read}\n" + roles},
		{"denylist outside catalog", "permissions:\n  - {resource: users, action: read, name: A}\nadmin_denylist: [users:delete]\n" + roles},
		{"unnamed role", "permissions: []\nroles:\n  admin: {name: Admin}\n"},
		{"not yaml", "permissions: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestAdminAssignments_RoleForFoldsEmail(t *testing.T) {
	c, err := Parse([]byte(`
permissions: []
roles:
  super_admin: {name: Super Admin}
  admin: {name: Admin}
  manager: {name: Manager}
  viewer: {name: Viewer}
admin_assignments:
  by_email:
    Owner@Shop.test: Super Admin
`))
	require.NoError(t, err)

	assert.Equal(t, "Super Admin", c.AdminAssignments.RoleFor(" owner@shop.test "))
	assert.Equal(t, "Admin", c.AdminAssignments.RoleFor("clerk@shop.test"), "default falls back to the Admin role")
}
