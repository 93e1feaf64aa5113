package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, role Role) *User {
	t.Helper()
	u, err := NewUser(uuid.New(), "Rep@Example.com", "Jamie Rep", "Password123", role)
	require.NoError(t, err)
	return u
}

func TestNewUser(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates active salesperson accepting leads", func(t *testing.T) {
		u, err := NewUser(tenantID, "  Rep@Example.com ", "Jamie Rep", "Password123", RoleSalesperson)

		require.NoError(t, err)
		assert.Equal(t, "rep@example.com", u.Email)
		assert.True(t, u.Active)
		assert.True(t, u.AcceptsLeads)
		assert.True(t, u.CanReceiveLeads())
		assert.NotEqual(t, "Password123", u.PasswordHash)

		events := u.GetDomainEvents()
		require.Len(t, events, 1)
		created, ok := events[0].(*UserCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, u.ID, created.AggregateID())
		assert.Equal(t, tenantID, created.TenantID())
	})

	t.Run("managers do not take round-robin leads by default", func(t *testing.T) {
		u, err := NewUser(tenantID, "boss@example.com", "Boss", "Password123", RoleManager)
		require.NoError(t, err)
		assert.False(t, u.AcceptsLeads)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewUser(tenantID, "not-an-email", "X", "Password123", RoleSalesperson)
		assert.ErrorContains(t, err, "Invalid email")

		_, err = NewUser(tenantID, "a@b.co", "", "Password123", RoleSalesperson)
		assert.ErrorContains(t, err, "Display name")

		_, err = NewUser(tenantID, "a@b.co", "X", "short1", RoleSalesperson)
		assert.ErrorContains(t, err, "at least 8")

		_, err = NewUser(tenantID, "a@b.co", "X", "allletters", RoleSalesperson)
		assert.ErrorContains(t, err, "letter and one number")

		_, err = NewUser(tenantID, "a@b.co", "X", "Password123", Role("janitor"))
		assert.ErrorContains(t, err, "Unknown role")
	})
}

func TestUser_Password(t *testing.T) {
	u := newTestUser(t, RoleSalesperson)

	assert.True(t, u.VerifyPassword("Password123"))
	assert.False(t, u.VerifyPassword("Password124"))

	assert.Error(t, u.ChangePassword("wrong", "NewPass456"))
	require.NoError(t, u.ChangePassword("Password123", "NewPass456"))
	assert.True(t, u.VerifyPassword("NewPass456"))
}

func TestUser_AssignManager(t *testing.T) {
	rep := newTestUser(t, RoleSalesperson)

	mgr, err := NewUser(rep.TenantID, "mgr@example.com", "Morgan", "Password123", RoleManager)
	require.NoError(t, err)

	require.NoError(t, rep.AssignManager(mgr))
	assert.True(t, rep.ReportsTo(mgr.ID))

	t.Run("rejects self", func(t *testing.T) {
		assert.Error(t, mgr.AssignManager(mgr))
	})

	t.Run("rejects other tenant", func(t *testing.T) {
		other, err := NewUser(uuid.New(), "x@example.com", "X", "Password123", RoleManager)
		require.NoError(t, err)
		assert.Error(t, rep.AssignManager(other))
	})

	t.Run("rejects salesperson as manager", func(t *testing.T) {
		peer, err := NewUser(rep.TenantID, "peer@example.com", "Peer", "Password123", RoleSalesperson)
		require.NoError(t, err)
		assert.Error(t, rep.AssignManager(peer))
	})

	t.Run("nil clears team", func(t *testing.T) {
		require.NoError(t, rep.AssignManager(nil))
		assert.Nil(t, rep.ManagerID)
	})
}

func TestUser_ChangeRoleAndDeactivate(t *testing.T) {
	u := newTestUser(t, RoleSalesperson)
	u.ClearDomainEvents()

	require.NoError(t, u.ChangeRole(RoleManager))
	assert.False(t, u.AcceptsLeads)
	require.Len(t, u.GetDomainEvents(), 1)

	require.NoError(t, u.Deactivate())
	assert.False(t, u.Active)
	assert.Error(t, u.Deactivate())
	require.NoError(t, u.Activate())
	assert.Error(t, u.Activate())
}

func TestRole(t *testing.T) {
	assert.True(t, RoleOwner.IsAdmin())
	assert.True(t, RoleDirector.IsAdmin())
	assert.True(t, RoleCRMAdmin.IsAdmin())
	assert.False(t, RoleManager.IsAdmin())
	assert.False(t, RoleSalesperson.IsAdmin())

	assert.True(t, RoleManager.CanAssignRole(RoleSalesperson))
	assert.False(t, RoleManager.CanAssignRole(RoleManager))
	assert.False(t, RoleDirector.CanAssignRole(RoleOwner))
	assert.True(t, RoleOwner.CanAssignRole(RoleOwner))
	assert.False(t, RoleSalesperson.CanAssignRole(RoleSalesperson))

	_, err := ParseRole("crm_admin")
	assert.NoError(t, err)
	_, err = ParseRole("admin")
	assert.Error(t, err)
}

func TestTenant(t *testing.T) {
	tn, err := NewTenant(" big-tex ", "Big Tex Trailers")
	require.NoError(t, err)
	assert.Equal(t, "BIG-TEX", tn.Code)
	assert.True(t, tn.Settings.MinimumProfit.IsPositive())

	key, err := tn.RotateInboundKey()
	require.NoError(t, err)
	assert.True(t, len(key) > 20)
	assert.Equal(t, HashInboundKey(key), tn.InboundKeyHash)
	assert.NotEqual(t, key, tn.InboundKeyHash)

	_, err = NewTenant("x", "Too short code")
	assert.Error(t, err)

	bad := DefaultDealershipSettings()
	bad.CommissionPercent = bad.CommissionPercent.Neg()
	assert.Error(t, tn.UpdateSettings(bad))
}
