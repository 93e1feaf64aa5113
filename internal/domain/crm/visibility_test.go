package crm

import (
	"testing"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerFor(assigned, manager *uuid.UUID) *Customer {
	return &Customer{AssignedToID: assigned, ManagerID: manager}
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestVisibilityFor(t *testing.T) {
	tenantID := uuid.New()
	self := uuid.New()
	teammate := uuid.New()
	stranger := uuid.New()

	t.Run("salesperson sees only own assignments", func(t *testing.T) {
		vis := VisibilityFor(Viewer{TenantID: tenantID, UserID: self, Role: identity.RoleSalesperson, TeamIDs: []uuid.UUID{teammate}})

		assert.False(t, vis.All)
		assert.Equal(t, []uuid.UUID{self}, vis.AssignedTo)
		assert.Nil(t, vis.ManagedBy)

		assert.True(t, vis.Allows(customerFor(ptr(self), nil)))
		assert.False(t, vis.Allows(customerFor(ptr(teammate), ptr(self))))
		assert.False(t, vis.Allows(customerFor(nil, nil)))
	})

	t.Run("manager sees team assignments or managed customers", func(t *testing.T) {
		vis := VisibilityFor(Viewer{TenantID: tenantID, UserID: self, Role: identity.RoleManager, TeamIDs: []uuid.UUID{teammate, self, uuid.Nil}})

		require.NotNil(t, vis.ManagedBy)
		assert.Equal(t, self, *vis.ManagedBy)
		assert.ElementsMatch(t, []uuid.UUID{self, teammate}, vis.AssignedTo)

		assert.True(t, vis.Allows(customerFor(ptr(teammate), nil)))
		assert.True(t, vis.Allows(customerFor(ptr(stranger), ptr(self))))
		assert.True(t, vis.Allows(customerFor(ptr(self), nil)))
		assert.False(t, vis.Allows(customerFor(ptr(stranger), ptr(uuid.New()))))
	})

	t.Run("admin roles see everything", func(t *testing.T) {
		for _, role := range []identity.Role{identity.RoleOwner, identity.RoleDirector, identity.RoleCRMAdmin} {
			vis := VisibilityFor(Viewer{TenantID: tenantID, UserID: self, Role: role})
			assert.True(t, vis.All, role)
			assert.True(t, vis.Allows(customerFor(ptr(stranger), nil)), role)
		}
	})

	t.Run("unknown role or anonymous sees nothing", func(t *testing.T) {
		vis := VisibilityFor(Viewer{TenantID: tenantID, UserID: self, Role: identity.Role("guest")})
		assert.True(t, vis.IsNone())
		assert.False(t, vis.Allows(customerFor(ptr(self), ptr(self))))

		vis = VisibilityFor(Viewer{TenantID: tenantID, Role: identity.RoleOwner})
		assert.True(t, vis.IsNone())
	})
}

func TestViewer_CanAssignTo(t *testing.T) {
	tenantID := uuid.New()
	mgr, err := identity.NewUser(tenantID, "mgr@example.com", "Mgr", "Password123", identity.RoleManager)
	require.NoError(t, err)
	rep, err := identity.NewUser(tenantID, "rep@example.com", "Rep", "Password123", identity.RoleSalesperson)
	require.NoError(t, err)
	other, err := identity.NewUser(tenantID, "other@example.com", "Other", "Password123", identity.RoleSalesperson)
	require.NoError(t, err)
	require.NoError(t, rep.AssignManager(mgr))

	manager := Viewer{TenantID: tenantID, UserID: mgr.ID, Role: identity.RoleManager}
	assert.True(t, manager.CanAssignTo(rep))
	assert.True(t, manager.CanAssignTo(mgr))
	assert.False(t, manager.CanAssignTo(other))

	owner := Viewer{TenantID: tenantID, UserID: uuid.New(), Role: identity.RoleOwner}
	assert.True(t, owner.CanAssignTo(other))

	require.NoError(t, other.Deactivate())
	assert.False(t, owner.CanAssignTo(other))

	salesperson := Viewer{TenantID: tenantID, UserID: rep.ID, Role: identity.RoleSalesperson}
	assert.True(t, salesperson.CanAssignTo(rep))
	assert.False(t, salesperson.CanAssignTo(mgr))

	foreign := Viewer{TenantID: uuid.New(), UserID: uuid.New(), Role: identity.RoleOwner}
	assert.False(t, foreign.CanAssignTo(rep))
}
