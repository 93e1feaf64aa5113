package messaging

import (
	"context"

	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/shared"
	"go.uber.org/zap"
)

// LeadAssignedHandler notifies a rep when a lead is assigned to them by
// someone else or by the inbound rotation.
type LeadAssignedHandler struct {
	messages *MessageService
	logger   *zap.Logger
}

// NewLeadAssignedHandler creates a new LeadAssignedHandler
func NewLeadAssignedHandler(messages *MessageService, logger *zap.Logger) *LeadAssignedHandler {
	return &LeadAssignedHandler{messages: messages, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *LeadAssignedHandler) EventTypes() []string {
	return []string{crm.EventTypeCustomerAssigned}
}

// Handle processes the event
func (h *LeadAssignedHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	e, ok := ev.(*crm.CustomerAssignedEvent)
	if !ok {
		h.logger.Warn("Unexpected event type for lead assigned handler",
			zap.String("event_type", ev.EventType()))
		return nil
	}
	if e.ActorID != nil && *e.ActorID == e.AssignedToID {
		return nil
	}
	if err := h.messages.NotifyRep(ctx, e.TenantID(), e.AssignedToID, e.AggregateID()); err != nil {
		h.logger.Warn("Failed to notify rep of new lead",
			zap.String("customer_id", e.AggregateID().String()),
			zap.String("rep_id", e.AssignedToID.String()),
			zap.Error(err),
		)
		return err
	}
	h.logger.Info("Rep notified of new lead",
		zap.String("customer_id", e.AggregateID().String()),
		zap.String("rep_id", e.AssignedToID.String()),
	)
	return nil
}
