package identity

import "github.com/remotive/saleshub/internal/domain/shared"

// Role is the single sales role a user holds inside a dealership.
type Role string

const (
	RoleSalesperson Role = "salesperson"
	RoleManager     Role = "manager"
	RoleDirector    Role = "director"
	RoleOwner       Role = "owner"
	RoleCRMAdmin    Role = "crm_admin"
)

// AllRoles lists the roles in ascending order of reach.
var AllRoles = []Role{RoleSalesperson, RoleManager, RoleDirector, RoleOwner, RoleCRMAdmin}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", shared.NewDomainError("INVALID_ROLE", "Unknown role: "+s)
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// IsAdmin is true for roles that see and manage the whole dealership.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleOwner, RoleDirector, RoleCRMAdmin:
		return true
	default:
		return false
	}
}

// CanManageTeam is true for roles that may create and reassign reps.
func (r Role) CanManageTeam() bool {
	return r == RoleManager || r.IsAdmin()
}

// CanAssignRole reports whether a user holding r may grant target.
// Managers only onboard salespeople; only owners may mint other owners.
func (r Role) CanAssignRole(target Role) bool {
	switch r {
	case RoleOwner:
		return target.IsValid()
	case RoleDirector, RoleCRMAdmin:
		return target.IsValid() && target != RoleOwner
	case RoleManager:
		return target == RoleSalesperson
	default:
		return false
	}
}
