package crm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"go.uber.org/zap"
)

// TimelineHandler writes system entries to a customer's timeline when the
// customer changes stage or owner.
type TimelineHandler struct {
	activities crm.ActivityRepository
	users      identity.UserRepository
	logger     *zap.Logger
}

// NewTimelineHandler creates a new TimelineHandler
func NewTimelineHandler(activities crm.ActivityRepository, users identity.UserRepository, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{activities: activities, users: users, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *TimelineHandler) EventTypes() []string {
	return []string{crm.EventTypeCustomerStageChanged, crm.EventTypeCustomerAssigned}
}

// Handle processes the event
func (h *TimelineHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	switch e := ev.(type) {
	case *crm.CustomerStageChangedEvent:
		return h.append(ctx, ev, crm.ActivityStageChange,
			fmt.Sprintf("Stage changed from %s to %s", e.From, e.To), e.ActorID)
	case *crm.CustomerAssignedEvent:
		return h.append(ctx, ev, crm.ActivityAssignment,
			"Assigned to "+h.displayName(ctx, e.TenantID(), e.AssignedToID), e.ActorID)
	default:
		h.logger.Warn("Unexpected event type for timeline handler",
			zap.String("event_type", ev.EventType()))
		return nil
	}
}

func (h *TimelineHandler) append(ctx context.Context, ev shared.DomainEvent, typ crm.ActivityType, body string, actor *uuid.UUID) error {
	activity := &crm.Activity{
		ID:         uuid.New(),
		TenantID:   ev.TenantID(),
		CustomerID: ev.AggregateID(),
		Type:       typ,
		Body:       body,
		ActorID:    actor,
		CreatedAt:  ev.OccurredAt(),
	}
	if err := h.activities.Append(ctx, activity); err != nil {
		h.logger.Error("Failed to append timeline entry",
			zap.String("customer_id", activity.CustomerID.String()),
			zap.String("type", string(typ)),
			zap.Error(err))
		return err
	}
	return nil
}

func (h *TimelineHandler) displayName(ctx context.Context, tenantID, userID uuid.UUID) string {
	u, err := h.users.FindByID(ctx, tenantID, userID)
	if err != nil {
		return userID.String()
	}
	return u.DisplayName
}
