package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service/servicetest"
)

func TestUserAdministration(t *testing.T) {
	ctx := context.Background()
	env := servicetest.NewEnv()
	admin := env.DB.AddUser("root", models.RoleAdmin)
	alice := env.DB.AddUser("alice")
	users := env.Services.Users

	t.Run("list is ordered by username", func(t *testing.T) {
		list, err := users.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "alice", list[0].Username)
		assert.Equal(t, "root", list[1].Username)
	})

	t.Run("roles are replaced", func(t *testing.T) {
		updated, err := users.UpdateRoles(ctx, admin.ID, alice.ID, models.RolesUpdateRequest{Roles: []string{"farmer", "moderator", "farmer"}})
		require.NoError(t, err)
		assert.Equal(t, models.Roles{models.RoleFarmer, models.RoleModerator}, updated.Roles)
	})

	t.Run("empty role set is rejected", func(t *testing.T) {
		_, err := users.UpdateRoles(ctx, admin.ID, alice.ID, models.RolesUpdateRequest{Roles: []string{}})
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := users.UpdateRoles(ctx, admin.ID, uuid.New(), models.RolesUpdateRequest{Roles: []string{"user"}})
		assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	})

	t.Run("admin keeps their own admin role", func(t *testing.T) {
		_, err := users.UpdateRoles(ctx, admin.ID, admin.ID, models.RolesUpdateRequest{Roles: []string{"user"}})
		assert.ErrorIs(t, err, apperr.ErrSelfAction)

		_, err = users.UpdateRoles(ctx, admin.ID, admin.ID, models.RolesUpdateRequest{Roles: []string{"admin", "farmer"}})
		assert.NoError(t, err)
	})

	t.Run("status toggles", func(t *testing.T) {
		off, on := false, true
		updated, err := users.SetStatus(ctx, admin.ID, alice.ID, models.StatusUpdateRequest{IsActive: &off})
		require.NoError(t, err)
		assert.False(t, updated.IsActive)

		updated, err = users.SetStatus(ctx, admin.ID, alice.ID, models.StatusUpdateRequest{IsActive: &on})
		require.NoError(t, err)
		assert.True(t, updated.IsActive)

		_, err = users.SetStatus(ctx, admin.ID, alice.ID, models.StatusUpdateRequest{})
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	})

	t.Run("admin cannot deactivate themselves", func(t *testing.T) {
		off := false
		_, err := users.SetStatus(ctx, admin.ID, admin.ID, models.StatusUpdateRequest{IsActive: &off})
		assert.ErrorIs(t, err, apperr.ErrSelfAction)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, users.DeleteUser(ctx, admin.ID, admin.ID), apperr.ErrSelfAction)

		require.NoError(t, users.DeleteUser(ctx, admin.ID, alice.ID))
		assert.ErrorIs(t, users.DeleteUser(ctx, admin.ID, alice.ID), apperr.ErrUserNotFound)
	})
}

func TestDeleteUserKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	admin := f.env.DB.AddUser("root", models.RoleAdmin)
	order := f.place(t, "Pickup")
	users := f.env.Services.Users
	invalidated := f.env.Cache.Invalidated

	require.NoError(t, users.DeleteUser(ctx, admin.ID, f.farmerF.ID))
	require.NoError(t, users.DeleteUser(ctx, admin.ID, f.buyer.ID))
	assert.Greater(t, f.env.Cache.Invalidated, invalidated)

	assert.Equal(t, 1, f.env.DB.OrderCount())
	stored, err := f.env.Services.Orders.GetOrder(ctx, order.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, f.farmerF.ID, stored.Items[0].FarmerID)

	apples := f.env.DB.Product(f.apples.ID)
	assert.Equal(t, f.farmerF.ID, apples.FarmerID)
	assert.False(t, apples.IsActive)

	list, err := users.ListUsers(ctx)
	require.NoError(t, err)
	for _, u := range list {
		assert.NotEqual(t, f.farmerF.ID, u.ID)
		assert.NotEqual(t, f.buyer.ID, u.ID)
	}
}
