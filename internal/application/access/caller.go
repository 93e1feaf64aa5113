// Package access resolves what an authenticated caller may see.
package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
)

// Caller is the authenticated user behind a request.
type Caller struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     identity.Role
}

// Actor returns the caller's ID as an activity/event actor reference.
func (c Caller) Actor() *uuid.UUID {
	id := c.UserID
	return &id
}

// Resolver expands a Caller into a crm.Viewer, loading a manager's team.
type Resolver struct {
	users identity.UserRepository
}

// NewResolver creates a Resolver.
func NewResolver(users identity.UserRepository) *Resolver {
	return &Resolver{users: users}
}

// Viewer builds the visibility principal for c.
func (r *Resolver) Viewer(ctx context.Context, c Caller) (crm.Viewer, error) {
	v := crm.Viewer{TenantID: c.TenantID, UserID: c.UserID, Role: c.Role}
	if c.Role != identity.RoleManager {
		return v, nil
	}
	team, err := r.users.FindTeam(ctx, c.TenantID, c.UserID)
	if err != nil {
		return crm.Viewer{}, fmt.Errorf("failed to load team: %w", err)
	}
	v.TeamIDs = make([]uuid.UUID, 0, len(team))
	for _, u := range team {
		v.TeamIDs = append(v.TeamIDs, u.ID)
	}
	return v, nil
}

// RepScope lists the reps whose deals and commission c may see. A nil
// slice means every rep; an empty slice means none.
func (r *Resolver) RepScope(ctx context.Context, c Caller) ([]uuid.UUID, error) {
	switch {
	case c.Role.IsAdmin():
		return nil, nil
	case c.Role == identity.RoleManager:
		v, err := r.Viewer(ctx, c)
		if err != nil {
			return nil, err
		}
		return append([]uuid.UUID{c.UserID}, v.TeamIDs...), nil
	case c.Role == identity.RoleSalesperson:
		return []uuid.UUID{c.UserID}, nil
	default:
		return []uuid.UUID{}, nil
	}
}

// VisibleCustomer loads a customer and reports ErrNotFound when the viewer
// cannot see it, so hidden records are indistinguishable from missing ones.
func VisibleCustomer(ctx context.Context, repo crm.CustomerRepository, v crm.Viewer, id uuid.UUID) (*crm.Customer, error) {
	c, err := repo.FindByID(ctx, v.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !crm.VisibilityFor(v).Allows(c) {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

// InScope reports whether repID is inside a RepScope result.
func InScope(scope []uuid.UUID, repID uuid.UUID) bool {
	if scope == nil {
		return true
	}
	for _, id := range scope {
		if id == repID {
			return true
		}
	}
	return false
}
