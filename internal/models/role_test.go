package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utsav306/farmconnect-sub000/internal/models"
)

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role  models.Role
		perm  models.Permission
		allow bool
	}{
		{models.RoleUser, models.PermManageOwnProducts, false},
		{models.RoleFarmer, models.PermManageOwnProducts, true},
		{models.RoleFarmer, models.PermViewDashboard, true},
		{models.RoleFarmer, models.PermModerateContent, false},
		{models.RoleModerator, models.PermModerateContent, true},
		{models.RoleModerator, models.PermManageUsers, false},
		{models.RoleAdmin, models.PermManageUsers, true},
		{models.RoleAdmin, models.PermUpdateOrderFulfilment, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.role)+"/"+tc.perm.String(), func(t *testing.T) {
			assert.Equal(t, tc.allow, tc.role.Allows(tc.perm))
		})
	}

	assert.True(t, models.Roles{models.RoleUser, models.RoleModerator}.Allows(models.PermModerateContent))
}

func TestParseRoles(t *testing.T) {
	roles, err := models.ParseRoles([]string{"farmer", "user", "farmer"})
	require.NoError(t, err)
	assert.Equal(t, models.Roles{models.RoleFarmer, models.RoleUser}, roles)

	_, err = models.ParseRoles(nil)
	assert.Error(t, err)

	_, err = models.ParseRoles([]string{"Admin"})
	assert.Error(t, err)
}

func TestRolesDatabaseRoundTrip(t *testing.T) {
	in := models.Roles{models.RoleUser, models.RoleAdmin}
	v, err := in.Value()
	require.NoError(t, err)

	var out models.Roles
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, in, out)
}
