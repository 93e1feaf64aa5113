package crm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RoundRobin hands out the next slot in [0, n) for a tenant's lead rotation.
type RoundRobin interface {
	Next(ctx context.Context, tenantID uuid.UUID, n int) (int, error)
}

// Assignment is who a customer goes to.
type Assignment struct {
	Rep       *identity.User
	ManagerID *uuid.UUID
}

var errNoAssignee = shared.NewDomainError("NO_ASSIGNEE", "No active user is available to receive this lead")

// Assigner decides which rep owns a new or orphaned lead.
type Assigner struct {
	users   identity.UserRepository
	rr      RoundRobin
	logger  *zap.Logger
	metrics *telemetry.SalesMetrics
}

// NewAssigner creates an Assigner
func NewAssigner(users identity.UserRepository, rr RoundRobin, logger *zap.Logger) *Assigner {
	return &Assigner{users: users, rr: rr, logger: logger}
}

// SetSalesMetrics sets the collector counting rotation fallbacks.
func (a *Assigner) SetSalesMetrics(m *telemetry.SalesMetrics) {
	a.metrics = m
}

// ForCreator resolves the owner of a lead created by hand:
//
//	salesperson  self, under their own manager
//	manager      the requested rep when on their team, else self; manager = self
//	admin roles  the requested rep, else round-robin; manager = the rep's manager
func (a *Assigner) ForCreator(ctx context.Context, viewer crm.Viewer, requested *uuid.UUID) (Assignment, error) {
	me, err := a.users.FindByID(ctx, viewer.TenantID, viewer.UserID)
	if err != nil {
		return Assignment{}, err
	}

	switch {
	case viewer.Role == identity.RoleSalesperson:
		return Assignment{Rep: me, ManagerID: me.ManagerID}, nil

	case viewer.Role == identity.RoleManager:
		self := me.ID
		if requested != nil && *requested != me.ID {
			rep, err := a.users.FindByID(ctx, viewer.TenantID, *requested)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return Assignment{}, err
			}
			if err == nil && viewer.CanAssignTo(rep) {
				return Assignment{Rep: rep, ManagerID: &self}, nil
			}
			a.logger.Info("Requested rep is not on the manager's team, keeping lead",
				zap.String("manager_id", me.ID.String()),
				zap.String("requested_id", requested.String()),
			)
		}
		return Assignment{Rep: me, ManagerID: &self}, nil

	case viewer.Role.IsAdmin():
		if requested != nil {
			rep, err := a.users.FindByID(ctx, viewer.TenantID, *requested)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return Assignment{}, shared.NewDomainError("INVALID_ASSIGNEE", "Requested rep does not exist")
				}
				return Assignment{}, err
			}
			if !viewer.CanAssignTo(rep) {
				return Assignment{}, shared.NewDomainError("INVALID_ASSIGNEE", "Requested rep is not active")
			}
			return Assignment{Rep: rep, ManagerID: rep.ManagerID}, nil
		}
		rep, err := a.nextInRotation(ctx, viewer.TenantID)
		if err != nil {
			return Assignment{}, err
		}
		if rep == nil {
			return Assignment{Rep: me, ManagerID: me.ManagerID}, nil
		}
		return Assignment{Rep: rep, ManagerID: rep.ManagerID}, nil

	default:
		return Assignment{}, shared.NewDomainError("FORBIDDEN", "Your role cannot create customers")
	}
}

// ForInbound resolves the owner of a lead arriving from outside: the named
// rep when they take leads, else the rotation, else the first owner.
func (a *Assigner) ForInbound(ctx context.Context, tenantID uuid.UUID, repEmail string) (Assignment, error) {
	if email := strings.TrimSpace(repEmail); email != "" {
		rep, err := a.users.FindByEmail(ctx, tenantID, email)
		switch {
		case err == nil && rep.CanReceiveLeads():
			return Assignment{Rep: rep, ManagerID: rep.ManagerID}, nil
		case err != nil && !errors.Is(err, shared.ErrNotFound):
			return Assignment{}, err
		}
		a.logger.Info("Requested rep cannot receive leads, using rotation",
			zap.String("tenant_id", tenantID.String()),
		)
	}

	rep, err := a.nextInRotation(ctx, tenantID)
	if err != nil {
		return Assignment{}, err
	}
	if rep != nil {
		return Assignment{Rep: rep, ManagerID: rep.ManagerID}, nil
	}

	owners, err := a.users.FindByRole(ctx, tenantID, identity.RoleOwner)
	if err != nil {
		return Assignment{}, err
	}
	for i := range owners {
		if owners[i].Active {
			owner := owners[i]
			return Assignment{Rep: &owner, ManagerID: owner.ManagerID}, nil
		}
	}
	return Assignment{}, errNoAssignee
}

// nextInRotation returns the next active salesperson accepting leads, or
// nil when nobody is in the rotation.
func (a *Assigner) nextInRotation(ctx context.Context, tenantID uuid.UUID) (*identity.User, error) {
	candidates, err := a.users.FindLeadRecipients(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		if a.metrics != nil {
			a.metrics.RecordAssignmentFallback(ctx, tenantID, telemetry.FallbackNoRecipients)
		}
		return nil, nil
	}
	slot, err := a.rr.Next(ctx, tenantID, len(candidates))
	if err != nil {
		// A stalled cursor must not drop the lead.
		a.logger.Warn("Round robin cursor unavailable, using first candidate", zap.Error(err))
		if a.metrics != nil {
			a.metrics.RecordAssignmentFallback(ctx, tenantID, telemetry.FallbackCursorUnavailable)
		}
		slot = 0
	}
	rep := candidates[slot]
	return &rep, nil
}
