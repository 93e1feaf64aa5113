package crm

import (
	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/identity"
)

// Viewer is the authenticated user a customer query runs on behalf of.
type Viewer struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     identity.Role
	// TeamIDs holds the IDs of users reporting to a manager. Ignored for
	// other roles.
	TeamIDs []uuid.UUID
}

// Visibility is the row filter derived from a viewer's role. Persistence
// turns it into a WHERE clause; the zero value matches nothing.
type Visibility struct {
	All bool
	// AssignedTo matches customers whose assigned_to_id is in the set.
	AssignedTo []uuid.UUID
	// ManagedBy additionally matches customers whose manager_id is this user.
	ManagedBy *uuid.UUID
}

// VisibilityFor derives the row filter for a viewer:
//
//	salesperson          assigned_to_id = self
//	manager              assigned_to_id IN (self, team...) OR manager_id = self
//	owner/director/admin everything in the tenant
//	anything else        nothing
func VisibilityFor(v Viewer) Visibility {
	if v.UserID == uuid.Nil {
		return Visibility{}
	}
	switch {
	case v.Role.IsAdmin():
		return Visibility{All: true}
	case v.Role == identity.RoleManager:
		ids := make([]uuid.UUID, 0, len(v.TeamIDs)+1)
		ids = append(ids, v.UserID)
		for _, id := range v.TeamIDs {
			if id != v.UserID && id != uuid.Nil {
				ids = append(ids, id)
			}
		}
		self := v.UserID
		return Visibility{AssignedTo: ids, ManagedBy: &self}
	case v.Role == identity.RoleSalesperson:
		return Visibility{AssignedTo: []uuid.UUID{v.UserID}}
	default:
		return Visibility{}
	}
}

// IsNone is true when the filter can match no row.
func (vis Visibility) IsNone() bool {
	return !vis.All && len(vis.AssignedTo) == 0 && vis.ManagedBy == nil
}

// Allows applies the same rule in memory to a loaded customer.
func (vis Visibility) Allows(c *Customer) bool {
	if vis.All {
		return true
	}
	if c.AssignedToID != nil {
		for _, id := range vis.AssignedTo {
			if id == *c.AssignedToID {
				return true
			}
		}
	}
	return vis.ManagedBy != nil && c.ManagerID != nil && *vis.ManagedBy == *c.ManagerID
}

// CanAssignTo reports whether the viewer may hand a customer to rep.
// Managers may only assign within their team (or to themselves).
func (v Viewer) CanAssignTo(rep *identity.User) bool {
	if rep == nil || !rep.Active || rep.TenantID != v.TenantID {
		return false
	}
	switch {
	case v.Role.IsAdmin():
		return true
	case v.Role == identity.RoleManager:
		return rep.ID == v.UserID || rep.ReportsTo(v.UserID)
	case v.Role == identity.RoleSalesperson:
		return rep.ID == v.UserID
	default:
		return false
	}
}

// CanDelete reports whether the viewer may delete customers outright.
func (v Viewer) CanDelete() bool {
	return v.Role.IsAdmin()
}
